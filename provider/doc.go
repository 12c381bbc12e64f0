// Package provider defines the identity-provider adapters: components that
// wrap one external identity mechanism each (federated popup sign-in, phone
// one-time-code challenge) and produce a short-lived, provider-scoped
// assertion. Assertions are never persisted; the session manager immediately
// exchanges them at the backend for a session.
package provider
