package authkit

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skillforge/authkit/exchange"
	"github.com/skillforge/authkit/identity"
	internalaudit "github.com/skillforge/authkit/internal/audit"
	internalmetrics "github.com/skillforge/authkit/internal/metrics"
	"github.com/skillforge/authkit/permission"
	"github.com/skillforge/authkit/provider"
	"github.com/skillforge/authkit/store"
)

// Manager is the in-memory source of truth for the current session. It is
// safe for concurrent use; mutating operations are serialized in request
// order through a single queue, so two racing progress updates resolve
// last-writer-by-request-order rather than last-writer-by-response-latency.
type Manager struct {
	cfg         Config
	log         *slog.Logger
	store       store.Store
	client      exchange.Client
	federated   map[provider.Kind]provider.Federated
	phone       provider.Phone
	resetSender provider.PasswordResetSender
	perms       *permission.Table
	audit       *internalaudit.Dispatcher
	metrics     *internalmetrics.Metrics
	clientID    string

	// opMu is the single-flight queue for mutating operations.
	opMu sync.Mutex

	mu        sync.RWMutex
	loading   bool
	user      *identity.UserProfile
	session   identity.Session
	widget    provider.Widget
	challenge *pendingChallenge
}

// rehydrate recovers the persisted session once, during construction.
// Store errors are logged and leave the manager logged out; corrupt
// persisted data reads as absence (the store purges it).
func (m *Manager) rehydrate(ctx context.Context) {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	snap, ok, err := m.store.Load(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	if err != nil {
		m.metrics.Inc(internalmetrics.MetricStoreError)
		m.log.Warn("session rehydration failed, starting logged out", "error", err)
		return
	}
	if ok {
		m.user = snap.Profile
		m.session = snap.Session
	}
}

// Close shuts down the audit dispatcher, flushing buffered events.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.audit.Close()
}

// Loading reports whether the one-time rehydration from the session store
// is still in progress.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// CurrentUser returns a deep copy of the current profile, or nil when
// logged out. The profile is either fully present or fully absent.
func (m *Manager) CurrentUser() *UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Clone()
}

// Authenticated reports whether a user is currently signed in.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// SessionExpiry returns the access token's exp claim, read without
// signature verification, or the zero time when the token is absent or
// opaque. Expiry is informational only; enforcement is the backend's.
func (m *Manager) SessionExpiry() time.Time {
	m.mu.RLock()
	token := m.session.AccessToken
	m.mu.RUnlock()
	if token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// AuditDropped reports audit events dropped under backpressure.
func (m *Manager) AuditDropped() uint64 {
	return m.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all metrics.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

func (m *Manager) emit(ctx context.Context, event AuditEvent) {
	event.Timestamp = time.Now().UTC()
	event.ClientID = m.clientID
	m.audit.Emit(ctx, event)
}

// callExchange times one backend call for the latency histogram.
func (m *Manager) observeExchange(start time.Time) {
	m.metrics.Observe(internalmetrics.MetricExchangeLatency, time.Since(start))
}

// establishSession is the single convergence point for every login path:
// password, registration, federated, and phone all end here. The snapshot
// is persisted first; a persistence failure is logged and counted but does
// not fail the login — the session continues memory-only.
func (m *Manager) establishSession(ctx context.Context, sess identity.Session, profile *identity.UserProfile) {
	if err := m.store.Save(ctx, store.Snapshot{Session: sess, Profile: profile}); err != nil {
		m.metrics.Inc(internalmetrics.MetricStoreError)
		m.log.Warn("session persistence failed, continuing memory-only", "error", err)
	}

	m.mu.Lock()
	m.user = profile
	m.session = sess
	m.mu.Unlock()
}

// Login authenticates with an email/password pair. On failure the current
// user is left unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) (*UserProfile, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	start := time.Now()
	sess, profile, err := m.client.PasswordLogin(ctx, email, password)
	m.observeExchange(start)
	if err != nil {
		m.metrics.Inc(internalmetrics.MetricLoginFailure)
		m.emit(ctx, AuditEvent{EventType: EventLogin, Error: err.Error()})
		return nil, opErr("login", err)
	}

	m.establishSession(ctx, sess, profile)
	m.metrics.Inc(internalmetrics.MetricLoginSuccess)
	m.emit(ctx, AuditEvent{EventType: EventLogin, UserID: profile.ID, Success: true})
	return profile.Clone(), nil
}

// splitDisplayName divides a display name at the first whitespace boundary.
// Single-word names get an empty last name; this is a documented heuristic,
// not a smart parser.
func splitDisplayName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexFunc(name, unicode.IsSpace); i >= 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

// Signup registers a new account and signs it in.
func (m *Manager) Signup(ctx context.Context, email, password, name, accountType string) (*UserProfile, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	first, last := splitDisplayName(name)

	start := time.Now()
	sess, profile, err := m.client.Register(ctx, exchange.RegisterRequest{
		Email:       email,
		Password:    password,
		FirstName:   first,
		LastName:    last,
		AccountType: accountType,
	})
	m.observeExchange(start)
	if err != nil {
		m.metrics.Inc(internalmetrics.MetricSignupFailure)
		m.emit(ctx, AuditEvent{EventType: EventSignup, Error: err.Error()})
		return nil, opErr("signup", err)
	}

	m.establishSession(ctx, sess, profile)
	m.metrics.Inc(internalmetrics.MetricSignupSuccess)
	m.emit(ctx, AuditEvent{EventType: EventSignup, UserID: profile.ID, Success: true})
	return profile.Clone(), nil
}

// LoginWithProvider runs the federated popup flow for the given provider
// kind and exchanges the resulting assertion for a session.
func (m *Manager) LoginWithProvider(ctx context.Context, kind provider.Kind) (*UserProfile, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	p, ok := m.federated[kind]
	if !ok {
		return nil, opErr("federated login", ErrProviderNotConfigured)
	}

	assertion, err := p.SignIn(ctx)
	if err != nil {
		m.metrics.Inc(internalmetrics.MetricFederatedLoginFailure)
		m.emit(ctx, AuditEvent{EventType: EventFederatedLogin, Provider: string(kind), Error: err.Error()})
		return nil, opErr("federated login", err)
	}

	start := time.Now()
	sess, profile, err := m.client.FederatedLogin(ctx, assertion.IDToken, string(kind))
	m.observeExchange(start)
	if err != nil {
		m.metrics.Inc(internalmetrics.MetricFederatedLoginFailure)
		m.emit(ctx, AuditEvent{EventType: EventFederatedLogin, Provider: string(kind), Error: err.Error()})
		return nil, opErr("federated login", err)
	}

	m.establishSession(ctx, sess, profile)
	m.metrics.Inc(internalmetrics.MetricFederatedLoginSuccess)
	m.emit(ctx, AuditEvent{EventType: EventFederatedLogin, Provider: string(kind), UserID: profile.ID, Success: true})
	return profile.Clone(), nil
}

// Logout invalidates the session remotely and signs out of the federated
// providers, both best-effort, then unconditionally clears local state.
// From the caller's perspective logout always succeeds.
func (m *Manager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	sess := m.session
	userID := ""
	if m.user != nil {
		userID = m.user.ID
	}
	m.mu.RUnlock()

	if sess.Valid() {
		if err := m.client.Logout(ctx, sess.AccessToken); err != nil {
			m.log.Warn("remote logout failed", "error", err)
		}
	}
	for kind, p := range m.federated {
		if err := p.SignOut(ctx); err != nil {
			m.log.Warn("provider sign-out failed", "provider", string(kind), "error", err)
		}
	}

	if err := m.store.Clear(ctx); err != nil {
		m.metrics.Inc(internalmetrics.MetricStoreError)
		m.log.Warn("session store clear failed", "error", err)
	}

	m.mu.Lock()
	m.user = nil
	m.session = identity.Session{}
	m.challenge = nil
	m.mu.Unlock()

	m.metrics.Inc(internalmetrics.MetricLogout)
	m.emit(ctx, AuditEvent{EventType: EventLogout, UserID: userID, Success: true})
}

// ResetPassword delegates to the federated-identity provider's reset
// mechanism; its result is surfaced as-is.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if m.resetSender == nil {
		return opErr("password reset", ErrProviderNotConfigured)
	}
	m.metrics.Inc(internalmetrics.MetricPasswordResetRequest)
	err := m.resetSender.SendPasswordReset(ctx, email)
	m.emit(ctx, AuditEvent{EventType: EventPasswordReset, Success: err == nil, Error: errString(err)})
	return opErr("password reset", err)
}

// UpdateUserProfile sends a partial update and replaces the cached profile
// with the server's canonical response. On failure the current user is
// left unchanged.
func (m *Manager) UpdateUserProfile(ctx context.Context, fields map[string]any) (*UserProfile, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()
	if !sess.Valid() {
		return nil, opErr("profile update", ErrNotAuthenticated)
	}

	start := time.Now()
	profile, err := m.client.UpdateProfile(ctx, sess.AccessToken, fields)
	m.observeExchange(start)
	if err != nil {
		m.metrics.Inc(internalmetrics.MetricProfileUpdateFailure)
		m.emit(ctx, AuditEvent{EventType: EventProfileUpdate, Error: err.Error()})
		return nil, opErr("profile update", err)
	}

	m.establishSession(ctx, sess, profile)
	m.metrics.Inc(internalmetrics.MetricProfileUpdateSuccess)
	m.emit(ctx, AuditEvent{EventType: EventProfileUpdate, UserID: profile.ID, Success: true})
	return profile.Clone(), nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
