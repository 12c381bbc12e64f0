package provider

import "context"

// Kind names an identity source.
type Kind string

const (
	// KindGoogle is the Google federated-identity provider.
	KindGoogle Kind = "google"
	// KindFacebook is the Facebook federated-identity provider.
	KindFacebook Kind = "facebook"
	// KindPhone is the phone one-time-code provider.
	KindPhone Kind = "phone"
)

// Assertion is a short-lived, provider-signed proof of identity plus the
// kind of provider that issued it. It is exchanged for a session and then
// discarded.
type Assertion struct {
	Kind        Kind
	IDToken     string
	PhoneNumber string
}

// Federated wraps one popup-style federated sign-in mechanism.
//
// Contract:
//   - SignIn blocks until the user completes or abandons the flow; an
//     abandoned flow returns [ErrCancelled].
//   - SignOut is best-effort; the manager logs failures and proceeds.
//   - SendPasswordReset delegates to the provider's own reset mechanism and
//     surfaces its result as-is.
type Federated interface {
	Kind() Kind
	SignIn(ctx context.Context) (Assertion, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
}

// PasswordResetSender delegates password resets to an identity provider's
// own mechanism. Both [Federated] adapters and [IdentityToolkit] satisfy it.
type PasswordResetSender interface {
	SendPasswordReset(ctx context.Context, email string) error
}

// Widget is the invisible bot-detection widget bound to a host anchor. It is
// a scoped resource: acquired by the manager, unconditionally released or
// replaced on the next acquisition.
type Widget interface {
	Close() error
}

// Confirmation is the provider-issued handle for a sent one-time code.
// Verify consumes a code attempt; the handle stays usable after a failed
// attempt until the provider expires it.
type Confirmation interface {
	Verify(ctx context.Context, code string) (Assertion, error)
}

// Phone wraps the phone one-time-code challenge mechanism.
type Phone interface {
	NewWidget(ctx context.Context, anchor string) (Widget, error)
	SendCode(ctx context.Context, phoneNumber string, w Widget) (Confirmation, error)
}
