package provider

import "errors"

var (
	// ErrCancelled is returned when the user abandons a provider flow.
	ErrCancelled = errors.New("provider sign-in cancelled")
	// ErrFailed covers provider-side failures that are not one of the more
	// specific conditions below.
	ErrFailed = errors.New("provider failure")
	// ErrInvalidPhoneNumber is returned for a phone number the provider
	// refuses to challenge.
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	// ErrRateLimited is returned when the provider throttles code sends or
	// verification attempts.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrInvalidCode is returned for a wrong one-time code. The pending
	// challenge remains usable.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrChallengeExpired is returned when the provider no longer accepts
	// the challenge handle.
	ErrChallengeExpired = errors.New("verification challenge expired")
)
