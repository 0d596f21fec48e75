package internaldefs

import (
	"github.com/MrEthical07/bridgeAuth"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   bridgeAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   bridgeAuth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in rendering order.
var CounterDefs = []CounterDef{
	{ID: bridgeAuth.MetricLoginSuccess, Name: "bridgeauth_login_success_total", Help: "Logins that issued a session."},
	{ID: bridgeAuth.MetricLoginFailure, Name: "bridgeauth_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: bridgeAuth.MetricLoginRateLimited, Name: "bridgeauth_login_rate_limited_total", Help: "Logins refused by the throttle."},
	{ID: bridgeAuth.MetricStepUpRequired, Name: "bridgeauth_stepup_required_total", Help: "Logins paused for a second factor."},
	{ID: bridgeAuth.MetricStepUpSuccess, Name: "bridgeauth_stepup_success_total", Help: "Completed second-factor verifications."},
	{ID: bridgeAuth.MetricStepUpFailure, Name: "bridgeauth_stepup_failure_total", Help: "Rejected second-factor verifications."},
	{ID: bridgeAuth.MetricRefreshSuccess, Name: "bridgeauth_refresh_success_total", Help: "Access tokens reissued from a session."},
	{ID: bridgeAuth.MetricRefreshFailure, Name: "bridgeauth_refresh_failure_total", Help: "Refresh attempts with an unknown or expired session."},
	{ID: bridgeAuth.MetricRegisterSuccess, Name: "bridgeauth_register_success_total", Help: "Created accounts."},
	{ID: bridgeAuth.MetricRegisterConflict, Name: "bridgeauth_register_conflict_total", Help: "Registrations rejected for a duplicate email."},
	{ID: bridgeAuth.MetricRegisterDisabled, Name: "bridgeauth_register_disabled_total", Help: "Registrations refused outside multi-user mode."},
	{ID: bridgeAuth.MetricMirrorCreated, Name: "bridgeauth_mirror_created_total", Help: "Primary mirror records created."},
	{ID: bridgeAuth.MetricMirrorFailure, Name: "bridgeauth_mirror_failure_total", Help: "Mirror attempts that failed and were skipped."},
	{ID: bridgeAuth.MetricSessionCreated, Name: "bridgeauth_session_created_total", Help: "Created sessions."},
	{ID: bridgeAuth.MetricLogout, Name: "bridgeauth_logout_total", Help: "Deleted sessions."},
	{ID: bridgeAuth.MetricTokenRejected, Name: "bridgeauth_token_rejected_total", Help: "Access tokens refused by verification."},
	{ID: bridgeAuth.MetricAPIKeyRejected, Name: "bridgeauth_api_key_rejected_total", Help: "Rejected API keys."},
	{ID: bridgeAuth.MetricRateLimitHit, Name: "bridgeauth_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: bridgeAuth.MetricVerifyLatency, Name: "bridgeauth_verify_latency_seconds", Help: "Access token verification latency."},
}

// HistogramBounds are the upper bounds of the engine's latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
