package authkit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	internalmetrics "github.com/skillforge/authkit/internal/metrics"
	"github.com/skillforge/authkit/provider"
)

// pendingChallenge is the transient state of the phone one-time-code flow:
// the provider-issued confirmation handle plus the challenged number. It is
// scoped to the Manager instance, survives UI re-renders while the user
// types the code, and is single-use.
type pendingChallenge struct {
	id           string
	phoneNumber  string
	confirmation provider.Confirmation
}

// SetupChallenge (re)initializes the invisible bot-detection widget bound
// to the given host anchor. An existing widget is torn down first; a
// teardown failure is logged but never blocks creating the replacement.
func (m *Manager) SetupChallenge(ctx context.Context, anchor string) error {
	if m.phone == nil {
		return opErr("challenge setup", ErrProviderNotConfigured)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	old := m.widget
	m.widget = nil
	m.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			m.log.Warn("bot-detection widget teardown failed", "error", err)
		}
	}

	w, err := m.phone.NewWidget(ctx, anchor)
	if err != nil {
		return opErr("challenge setup", err)
	}

	m.mu.Lock()
	m.widget = w
	m.mu.Unlock()
	return nil
}

// SendCode asks the phone provider to text a one-time code. The resulting
// pending challenge is held on the manager until VerifyCode consumes it.
func (m *Manager) SendCode(ctx context.Context, phoneNumber string) error {
	if m.phone == nil {
		return opErr("send code", ErrProviderNotConfigured)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	widget := m.widget
	m.mu.RUnlock()
	if widget == nil {
		return opErr("send code", ErrNoWidget)
	}

	conf, err := m.phone.SendCode(ctx, phoneNumber, widget)
	if err != nil {
		m.metrics.Inc(internalmetrics.MetricPhoneCodeSendFailure)
		m.emit(ctx, AuditEvent{EventType: EventPhoneCodeSent, Error: err.Error()})
		return opErr("send code", err)
	}

	m.mu.Lock()
	m.challenge = &pendingChallenge{
		id:           uuid.NewString(),
		phoneNumber:  phoneNumber,
		confirmation: conf,
	}
	m.mu.Unlock()

	m.metrics.Inc(internalmetrics.MetricPhoneCodeSent)
	m.emit(ctx, AuditEvent{EventType: EventPhoneCodeSent, Success: true})
	return nil
}

// PendingChallenge reports the phone number of the outstanding challenge,
// if any.
func (m *Manager) PendingChallenge() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.challenge == nil {
		return "", false
	}
	return m.challenge.phoneNumber, true
}

// VerifyCode submits the one-time code against the pending challenge. On
// success the challenge is consumed and the provider assertion is exchanged
// for a session exactly like the other login paths. A wrong or expired code
// leaves the challenge in place so the user can retry until the provider
// expires it.
func (m *Manager) VerifyCode(ctx context.Context, code string) (*UserProfile, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	challenge := m.challenge
	m.mu.RUnlock()
	if challenge == nil {
		return nil, opErr("verify code", ErrNoChallenge)
	}

	assertion, err := challenge.confirmation.Verify(ctx, code)
	if err != nil {
		m.metrics.Inc(internalmetrics.MetricPhoneVerifyFailure)
		m.emit(ctx, AuditEvent{EventType: EventPhoneVerify, Error: err.Error()})
		if !errors.Is(err, provider.ErrInvalidCode) && !errors.Is(err, provider.ErrChallengeExpired) {
			// Unexpected provider failure invalidates the challenge.
			m.mu.Lock()
			if m.challenge == challenge {
				m.challenge = nil
			}
			m.mu.Unlock()
		}
		return nil, opErr("verify code", err)
	}

	// Single-use: consumed on success.
	m.mu.Lock()
	if m.challenge == challenge {
		m.challenge = nil
	}
	m.mu.Unlock()

	start := time.Now()
	sess, profile, err := m.client.MobileLogin(ctx, assertion.IDToken, assertion.PhoneNumber)
	m.observeExchange(start)
	if err != nil {
		m.metrics.Inc(internalmetrics.MetricPhoneVerifyFailure)
		m.emit(ctx, AuditEvent{EventType: EventPhoneVerify, Error: err.Error()})
		return nil, opErr("verify code", err)
	}

	m.establishSession(ctx, sess, profile)
	m.metrics.Inc(internalmetrics.MetricPhoneVerifySuccess)
	m.emit(ctx, AuditEvent{EventType: EventPhoneVerify, UserID: profile.ID, Success: true})
	return profile.Clone(), nil
}
