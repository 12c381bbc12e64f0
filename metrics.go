package authkit

import (
	internalmetrics "github.com/skillforge/authkit/internal/metrics"
)

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess counts successful password logins.
	MetricLoginSuccess = internalmetrics.MetricLoginSuccess
	// MetricLoginFailure counts failed password logins.
	MetricLoginFailure = internalmetrics.MetricLoginFailure
	// MetricSignupSuccess counts successful registrations.
	MetricSignupSuccess = internalmetrics.MetricSignupSuccess
	// MetricSignupFailure counts failed registrations.
	MetricSignupFailure = internalmetrics.MetricSignupFailure
	// MetricFederatedLoginSuccess counts successful federated logins.
	MetricFederatedLoginSuccess = internalmetrics.MetricFederatedLoginSuccess
	// MetricFederatedLoginFailure counts failed federated logins.
	MetricFederatedLoginFailure = internalmetrics.MetricFederatedLoginFailure
	// MetricPhoneCodeSent counts sent phone one-time codes.
	MetricPhoneCodeSent = internalmetrics.MetricPhoneCodeSent
	// MetricPhoneCodeSendFailure counts refused code sends.
	MetricPhoneCodeSendFailure = internalmetrics.MetricPhoneCodeSendFailure
	// MetricPhoneVerifySuccess counts successful phone verifications.
	MetricPhoneVerifySuccess = internalmetrics.MetricPhoneVerifySuccess
	// MetricPhoneVerifyFailure counts failed phone verifications.
	MetricPhoneVerifyFailure = internalmetrics.MetricPhoneVerifyFailure
	// MetricLogout counts logout operations.
	MetricLogout = internalmetrics.MetricLogout
	// MetricPasswordResetRequest counts password reset requests.
	MetricPasswordResetRequest = internalmetrics.MetricPasswordResetRequest
	// MetricProfileUpdateSuccess counts successful profile updates.
	MetricProfileUpdateSuccess = internalmetrics.MetricProfileUpdateSuccess
	// MetricProfileUpdateFailure counts failed profile updates.
	MetricProfileUpdateFailure = internalmetrics.MetricProfileUpdateFailure
	// MetricEnrollSuccess counts successful enrollments.
	MetricEnrollSuccess = internalmetrics.MetricEnrollSuccess
	// MetricEnrollFailure counts failed enrollments.
	MetricEnrollFailure = internalmetrics.MetricEnrollFailure
	// MetricProgressUpdateSuccess counts confirmed progress updates.
	MetricProgressUpdateSuccess = internalmetrics.MetricProgressUpdateSuccess
	// MetricProgressUpdateFailure counts rolled-back progress updates.
	MetricProgressUpdateFailure = internalmetrics.MetricProgressUpdateFailure
	// MetricStoreError counts session store failures.
	MetricStoreError = internalmetrics.MetricStoreError
	// MetricExchangeLatency is the backend exchange latency histogram.
	MetricExchangeLatency = internalmetrics.MetricExchangeLatency
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
