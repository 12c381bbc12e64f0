package authkit

import (
	"io"

	internalaudit "github.com/skillforge/authkit/internal/audit"
)

// AuditEvent is a structured audit record emitted by the manager.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the manager's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// Audit event types.
const (
	EventLogin          = internalaudit.EventLogin
	EventSignup         = internalaudit.EventSignup
	EventFederatedLogin = internalaudit.EventFederatedLogin
	EventPhoneCodeSent  = internalaudit.EventPhoneCodeSent
	EventPhoneVerify    = internalaudit.EventPhoneVerify
	EventLogout         = internalaudit.EventLogout
	EventPasswordReset  = internalaudit.EventPasswordReset
	EventProfileUpdate  = internalaudit.EventProfileUpdate
	EventEnroll         = internalaudit.EventEnroll
	EventProgressUpdate = internalaudit.EventProgressUpdate
)

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
