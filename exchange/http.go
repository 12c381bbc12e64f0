package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skillforge/authkit/identity"
)

const defaultTimeout = 15 * time.Second

// HTTPClient is the production Client over the backend's JSON API.
type HTTPClient struct {
	baseURL  string
	hc       *http.Client
	timeout  time.Duration
	clientID string
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the per-call timeout. Zero keeps the default of 15s.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithClientID stamps every request with an X-Client-ID header identifying
// this client install.
func WithClientID(id string) Option {
	return func(c *HTTPClient) {
		c.clientID = id
	}
}

// NewHTTPClient creates a client rooted at baseURL (e.g. "https://api.example.com").
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, errors.New("exchange: base URL required")
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope mirrors the backend's optional {"data": ...} wrapper. The wrapped
// and unwrapped forms are folded into one here and nowhere else.
func unwrap(body []byte) []byte {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return body
}

type authPayload struct {
	Token        string                `json:"token"`
	RefreshToken string                `json:"refreshToken"`
	User         *identity.UserProfile `json:"user"`
}

type profilePayload struct {
	User *identity.UserProfile `json:"user"`
}

// op names the call for error wrapping and status mapping.
type op string

const (
	opLogin     op = "login"
	opRegister  op = "register"
	opFederated op = "federated-login"
	opMobile    op = "mobile-login"
	opProfile   op = "profile"
	opLogout    op = "logout"
	opEnroll    op = "enroll"
	opProgress  op = "progress"
)

func (c *HTTPClient) do(ctx context.Context, operation op, method, path, token string, in any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", operation, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", operation, ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", operation, ErrNetwork, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return unwrap(raw), nil
	}
	return nil, c.mapStatus(operation, resp.StatusCode, raw)
}

// mapStatus converts an error response into the sentinel taxonomy. The
// backend reports a human-readable message; it is carried along but the
// sentinel is what callers branch on.
func (c *HTTPClient) mapStatus(operation op, status int, raw []byte) error {
	var msg struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(unwrap(raw), &msg)

	var base error
	switch {
	case status == http.StatusUnauthorized:
		if operation == opLogin {
			base = ErrInvalidCredentials
		} else {
			base = ErrExchangeRejected
		}
	case status == http.StatusConflict && operation == opEnroll:
		base = ErrAlreadyEnrolled
	case status == http.StatusForbidden && operation == opEnroll:
		base = ErrCapacityExceeded
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		base = ErrValidationRejected
	case status >= 500:
		base = ErrServerRejected
	default:
		base = ErrExchangeRejected
	}

	if msg.Message != "" {
		return fmt.Errorf("%s: %w: %s", operation, base, msg.Message)
	}
	return fmt.Errorf("%s: %w: http %d", operation, base, status)
}

func (c *HTTPClient) authCall(ctx context.Context, operation op, path string, in any) (identity.Session, *identity.UserProfile, error) {
	raw, err := c.do(ctx, operation, http.MethodPost, path, "", in)
	if err != nil {
		return identity.Session{}, nil, err
	}

	var payload authPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return identity.Session{}, nil, fmt.Errorf("%s: %w: %v", operation, ErrMalformedResponse, err)
	}
	if payload.Token == "" || payload.User == nil || payload.User.ID == "" {
		return identity.Session{}, nil, fmt.Errorf("%s: %w: missing token or user", operation, ErrMalformedResponse)
	}
	return identity.Session{AccessToken: payload.Token, RefreshToken: payload.RefreshToken}, payload.User, nil
}

// PasswordLogin exchanges an email/password pair for a session.
func (c *HTTPClient) PasswordLogin(ctx context.Context, email, password string) (identity.Session, *identity.UserProfile, error) {
	return c.authCall(ctx, opLogin, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and returns its first session.
func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (identity.Session, *identity.UserProfile, error) {
	return c.authCall(ctx, opRegister, "/auth/register", req)
}

// FederatedLogin exchanges a federated-identity provider assertion.
func (c *HTTPClient) FederatedLogin(ctx context.Context, idToken, providerName string) (identity.Session, *identity.UserProfile, error) {
	return c.authCall(ctx, opFederated, "/auth/federated-login", map[string]string{
		"idToken":  idToken,
		"provider": providerName,
	})
}

// MobileLogin exchanges a phone-challenge assertion.
func (c *HTTPClient) MobileLogin(ctx context.Context, idToken, phoneNumber string) (identity.Session, *identity.UserProfile, error) {
	return c.authCall(ctx, opMobile, "/auth/mobile-login", map[string]string{
		"idToken":     idToken,
		"phoneNumber": phoneNumber,
	})
}

// UpdateProfile sends a partial update and returns the server's canonical
// profile.
func (c *HTTPClient) UpdateProfile(ctx context.Context, accessToken string, fields map[string]any) (*identity.UserProfile, error) {
	raw, err := c.do(ctx, opProfile, http.MethodPut, "/auth/profile", accessToken, fields)
	if err != nil {
		return nil, err
	}

	var payload profilePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.User == nil {
		// Some deployments return the user object bare.
		var user identity.UserProfile
		if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
			return nil, fmt.Errorf("%s: %w", opProfile, ErrMalformedResponse)
		}
		return &user, nil
	}
	return payload.User, nil
}

// Logout invalidates the session server-side.
func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, opLogout, http.MethodPost, "/auth/logout", accessToken, nil)
	return err
}

func decodeEnrollments(operation op, raw []byte) ([]identity.EnrolledCourse, error) {
	var list []identity.EnrolledCourse
	// A JSON null decodes to a nil slice without error; treating it as an
	// empty sequence would wipe the cached enrollments, so it is malformed
	// here just like the wrapped form below.
	if err := json.Unmarshal(raw, &list); err == nil && list != nil {
		return list, nil
	}
	var payload struct {
		EnrolledCourses []identity.EnrolledCourse `json:"enrolledCourses"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.EnrolledCourses == nil {
		return nil, fmt.Errorf("%s: %w", operation, ErrMalformedResponse)
	}
	return payload.EnrolledCourses, nil
}

// Enroll enrolls the user and returns the authoritative enrollment sequence.
func (c *HTTPClient) Enroll(ctx context.Context, accessToken string, courseID identity.CourseID) ([]identity.EnrolledCourse, error) {
	raw, err := c.do(ctx, opEnroll, http.MethodPost, "/enroll", accessToken, map[string]any{
		"courseId": courseID,
	})
	if err != nil {
		return nil, err
	}
	return decodeEnrollments(opEnroll, raw)
}

// UpdateProgress records a completed lecture and returns the authoritative
// enrollment sequence.
func (c *HTTPClient) UpdateProgress(ctx context.Context, accessToken string, courseID identity.CourseID, lectureID identity.LectureID, totalLectures int) ([]identity.EnrolledCourse, error) {
	raw, err := c.do(ctx, opProgress, http.MethodPost, "/progress", accessToken, map[string]any{
		"courseId":      courseID,
		"lectureId":     lectureID,
		"totalLectures": totalLectures,
	})
	if err != nil {
		return nil, err
	}
	return decodeEnrollments(opProgress, raw)
}
