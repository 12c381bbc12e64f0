package exchange

import "errors"

var (
	// ErrInvalidCredentials is returned when the backend rejects an
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrExchangeRejected is returned when the backend refuses a provider
	// assertion or an authenticated call's bearer token.
	ErrExchangeRejected = errors.New("assertion exchange rejected")
	// ErrValidationRejected is returned when the backend rejects request
	// fields as invalid.
	ErrValidationRejected = errors.New("request validation rejected")
	// ErrAlreadyEnrolled is returned when enrolling in a course the user
	// already holds.
	ErrAlreadyEnrolled = errors.New("already enrolled in course")
	// ErrCapacityExceeded is returned when a course has no open seats.
	ErrCapacityExceeded = errors.New("course capacity exceeded")
	// ErrServerRejected is returned on backend 5xx responses.
	ErrServerRejected = errors.New("server rejected request")
	// ErrNetwork covers transport failures and per-call timeouts.
	ErrNetwork = errors.New("network failure")
	// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed backend response")
)
