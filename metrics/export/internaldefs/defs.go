// Package internaldefs holds the shared metric name table consumed by the
// Prometheus and OpenTelemetry exporters. It exists so both exporters emit
// identical series names without either importing the other.
package internaldefs

import (
	authguard "github.com/threatplane/authguard"
)

// CounterDef binds one engine counter to its exported series name.
type CounterDef struct {
	ID   authguard.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported engine counter.
var CounterDefs = []CounterDef{
	{ID: authguard.MetricLoginSuccess, Name: "authguard_login_success_total", Help: "Fully authenticated logins."},
	{ID: authguard.MetricLoginInvalidPayload, Name: "authguard_login_invalid_payload_total", Help: "Structurally invalid login submissions."},
	{ID: authguard.MetricLoginFailure, Name: "authguard_login_failure_total", Help: "Unknown-user and password-mismatch rejections."},
	{ID: authguard.MetricLoginRateLimited, Name: "authguard_login_rate_limited_total", Help: "Login attempts blocked by an active lockout."},
	{ID: authguard.MetricLockoutTriggered, Name: "authguard_lockout_triggered_total", Help: "Failures that tripped a new lockout."},
	{ID: authguard.MetricMFAChallenged, Name: "authguard_mfa_challenged_total", Help: "Logins that reached the MFA step."},
	{ID: authguard.MetricMFAMissing, Name: "authguard_mfa_missing_total", Help: "Required MFA steps with no token or stored secret."},
	{ID: authguard.MetricMFAFailure, Name: "authguard_mfa_failure_total", Help: "Rejected one-time codes."},
	{ID: authguard.MetricMFASuccess, Name: "authguard_mfa_success_total", Help: "Verified one-time codes."},
	{ID: authguard.MetricPasswordUpgraded, Name: "authguard_password_upgraded_total", Help: "Password hashes regenerated on login."},
}

// AuditDroppedName is the series for audit events lost to dispatcher
// backpressure.
const AuditDroppedName = "authguard_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
