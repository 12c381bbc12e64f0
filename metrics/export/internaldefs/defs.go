package internaldefs

import (
	authkit "github.com/skillforge/authkit"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{
	{ID: authkit.MetricLoginSuccess, Name: "authkit_login_success_total", Help: "Successful password logins."},
	{ID: authkit.MetricLoginFailure, Name: "authkit_login_failure_total", Help: "Failed password logins."},
	{ID: authkit.MetricSignupSuccess, Name: "authkit_signup_success_total", Help: "Successful registrations."},
	{ID: authkit.MetricSignupFailure, Name: "authkit_signup_failure_total", Help: "Failed registrations."},
	{ID: authkit.MetricFederatedLoginSuccess, Name: "authkit_federated_login_success_total", Help: "Successful federated logins."},
	{ID: authkit.MetricFederatedLoginFailure, Name: "authkit_federated_login_failure_total", Help: "Failed federated logins."},
	{ID: authkit.MetricPhoneCodeSent, Name: "authkit_phone_code_sent_total", Help: "Sent phone one-time codes."},
	{ID: authkit.MetricPhoneCodeSendFailure, Name: "authkit_phone_code_send_failure_total", Help: "Refused phone code sends."},
	{ID: authkit.MetricPhoneVerifySuccess, Name: "authkit_phone_verify_success_total", Help: "Successful phone verifications."},
	{ID: authkit.MetricPhoneVerifyFailure, Name: "authkit_phone_verify_failure_total", Help: "Failed phone verifications."},
	{ID: authkit.MetricLogout, Name: "authkit_logout_total", Help: "Logout operations."},
	{ID: authkit.MetricPasswordResetRequest, Name: "authkit_password_reset_request_total", Help: "Password reset requests."},
	{ID: authkit.MetricProfileUpdateSuccess, Name: "authkit_profile_update_success_total", Help: "Successful profile updates."},
	{ID: authkit.MetricProfileUpdateFailure, Name: "authkit_profile_update_failure_total", Help: "Failed profile updates."},
	{ID: authkit.MetricEnrollSuccess, Name: "authkit_enroll_success_total", Help: "Successful course enrollments."},
	{ID: authkit.MetricEnrollFailure, Name: "authkit_enroll_failure_total", Help: "Failed course enrollments."},
	{ID: authkit.MetricProgressUpdateSuccess, Name: "authkit_progress_update_success_total", Help: "Confirmed lecture progress updates."},
	{ID: authkit.MetricProgressUpdateFailure, Name: "authkit_progress_update_failure_total", Help: "Rolled-back lecture progress updates."},
	{ID: authkit.MetricStoreError, Name: "authkit_store_error_total", Help: "Session store failures."},
}

// HistogramDefs lists every histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: authkit.MetricExchangeLatency, Name: "authkit_exchange_latency_seconds", Help: "Backend exchange latency histogram."},
}

// HistogramBounds are the cumulative bucket upper bounds in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"1",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds in metric-name-safe form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"1",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into cumulative form.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
