// Package identity holds the domain model shared by the authkit packages:
// the cached user profile, the backend-issued session credentials, and the
// course enrollment records carried on the profile.
//
// # Architecture boundaries
//
// This package owns data shapes only. It performs no I/O and imports no
// sibling package, so that the store, exchange, and root packages can all
// depend on it without cycles.
package identity
