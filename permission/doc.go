// Package permission implements the static role → permission table used to
// answer fine-grained authorization checks over a cached user profile.
//
// A Table is populated during manager construction, frozen, and then read
// concurrently without locks mattering on the hot path. Checks are pure:
// no side effects, no network calls, no caching beyond the table lookup.
package permission
