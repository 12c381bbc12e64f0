package exchange

import (
	"context"

	"github.com/skillforge/authkit/identity"
)

// RegisterRequest carries the registration exchange fields. The caller is
// responsible for having split the display name already.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	AccountType string `json:"accountType"`
}

// Client is the backend exchange surface consumed by the session manager.
//
// Contract:
//   - Every method honors context cancellation and applies a per-call
//     timeout; a timeout surfaces as [ErrNetwork].
//   - Auth methods return the session and profile together or fail without
//     partial results.
//   - Logout is fire-and-forget from the caller's perspective; failures are
//     returned but the manager treats them as non-fatal.
type Client interface {
	PasswordLogin(ctx context.Context, email, password string) (identity.Session, *identity.UserProfile, error)
	Register(ctx context.Context, req RegisterRequest) (identity.Session, *identity.UserProfile, error)
	FederatedLogin(ctx context.Context, idToken, providerName string) (identity.Session, *identity.UserProfile, error)
	MobileLogin(ctx context.Context, idToken, phoneNumber string) (identity.Session, *identity.UserProfile, error)
	UpdateProfile(ctx context.Context, accessToken string, fields map[string]any) (*identity.UserProfile, error)
	Logout(ctx context.Context, accessToken string) error
	Enroll(ctx context.Context, accessToken string, courseID identity.CourseID) ([]identity.EnrolledCourse, error)
	UpdateProgress(ctx context.Context, accessToken string, courseID identity.CourseID, lectureID identity.LectureID, totalLectures int) ([]identity.EnrolledCourse, error)
}
