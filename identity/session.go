package identity

// Session is the backend-issued bearer credential pair for an authenticated
// user. Tokens are opaque to this client; expiry is the backend's concern.
type Session struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Valid reports whether the session carries an access token. A Session
// exists iff a UserProfile is current; both are written and cleared together.
func (s Session) Valid() bool {
	return s.AccessToken != ""
}
