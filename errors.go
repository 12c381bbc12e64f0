package authkit

import (
	"errors"

	"github.com/skillforge/authkit/exchange"
	"github.com/skillforge/authkit/provider"
)

// The failure taxonomy. Backend-exchange and provider-adapter sentinels are
// re-exported here so callers branch on one package.
var (
	// ErrInvalidCredentials is returned when the backend rejects an
	// email/password pair.
	ErrInvalidCredentials = exchange.ErrInvalidCredentials
	// ErrExchangeRejected is returned when the backend refuses a provider
	// assertion or bearer token.
	ErrExchangeRejected = exchange.ErrExchangeRejected
	// ErrValidationRejected is returned when the backend rejects request
	// fields.
	ErrValidationRejected = exchange.ErrValidationRejected
	// ErrAlreadyEnrolled is returned when enrolling in a held course.
	ErrAlreadyEnrolled = exchange.ErrAlreadyEnrolled
	// ErrCapacityExceeded is returned when a course has no open seats.
	ErrCapacityExceeded = exchange.ErrCapacityExceeded
	// ErrServerRejected is returned on backend 5xx responses.
	ErrServerRejected = exchange.ErrServerRejected
	// ErrNetwork covers transport failures and per-call timeouts.
	ErrNetwork = exchange.ErrNetwork
	// ErrProviderCancelled is returned when the user abandons a provider
	// sign-in flow.
	ErrProviderCancelled = provider.ErrCancelled
	// ErrProviderFailed covers other provider-side failures.
	ErrProviderFailed = provider.ErrFailed
	// ErrInvalidPhoneNumber is returned for a phone number the provider
	// refuses to challenge.
	ErrInvalidPhoneNumber = provider.ErrInvalidPhoneNumber
	// ErrRateLimited is returned when the provider throttles the phone flow.
	ErrRateLimited = provider.ErrRateLimited
	// ErrInvalidCode is returned for a wrong one-time code; the pending
	// challenge stays usable.
	ErrInvalidCode = provider.ErrInvalidCode
	// ErrChallengeExpired is returned when the provider no longer accepts
	// the challenge handle.
	ErrChallengeExpired = provider.ErrChallengeExpired

	// ErrProviderNotConfigured is returned when an operation needs a
	// provider adapter the manager was not built with.
	ErrProviderNotConfigured = errors.New("provider not configured")
	// ErrNoWidget is returned by SendCode before SetupChallenge.
	ErrNoWidget = errors.New("bot-detection widget not initialized")
	// ErrNoChallenge is returned by VerifyCode with no code sent.
	ErrNoChallenge = errors.New("no pending phone challenge")
	// ErrNotAuthenticated is returned by operations that need a current
	// user.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// AuthError wraps every failure surfaced by Manager operations with the
// operation name. The underlying taxonomy sentinel stays reachable through
// errors.Is.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AuthError{Op: op, Err: err}
}

var taxonomy = []error{
	ErrInvalidCredentials,
	ErrProviderCancelled,
	ErrProviderFailed,
	ErrExchangeRejected,
	ErrValidationRejected,
	ErrAlreadyEnrolled,
	ErrCapacityExceeded,
	ErrInvalidPhoneNumber,
	ErrRateLimited,
	ErrInvalidCode,
	ErrChallengeExpired,
	ErrServerRejected,
	ErrNetwork,
}

// Reason reduces err to its taxonomy sentinel, or nil when err carries none.
// Callers render the sentinel as retryable user feedback.
func Reason(err error) error {
	for _, s := range taxonomy {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}
