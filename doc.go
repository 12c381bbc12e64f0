// Package authkit is the session and identity core for a role-based
// learning client. It owns multi-provider authentication (password,
// federated popup sign-in, phone one-time-code challenge), the token
// lifecycle, a durable local session cache, role and permission derivation,
// and the optimistic enrollment-progress merge carried on the cached
// profile.
//
// Callers construct exactly one [Manager] per running client through the
// [Builder] and hold the reference; there is no ambient global state. The
// UI layer is an external collaborator that invokes Manager operations and
// renders what they return.
//
// Basic usage:
//
//	mgr, err := authkit.New().
//		WithRedis(rdb).
//		WithBaseURL("https://api.example.com").
//		WithRoles(map[string][]string{
//			"Instructor": {"course.create", "course.edit"},
//			"Learner":    {"course.view"},
//		}).
//		Build(ctx)
//	if err != nil {
//		// wiring error
//	}
//	defer mgr.Close()
//
//	user, err := mgr.Login(ctx, email, password)
package authkit
