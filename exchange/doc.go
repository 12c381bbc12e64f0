// Package exchange implements the backend exchange client: the single
// component that converts credentials or a provider assertion into a
// backend-issued session, and that carries every other authenticated call
// (profile update, logout, enrollment, progress).
//
// # Architecture boundaries
//
// This is the only place wire shapes are interpreted. The backend is
// inconsistent about wrapping payloads in a {"data": ...} envelope and about
// numeric versus string identifiers; both are resolved here, once, so no
// caller ever re-checks response shapes ad hoc. HTTP statuses and transport
// failures are mapped onto the package's sentinel errors here as well.
package exchange
