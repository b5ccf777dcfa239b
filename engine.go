package authguard

import (
	"context"
	"fmt"
	"time"

	"github.com/threatplane/authguard/internal/limiter"
	"github.com/threatplane/authguard/password"
	"github.com/threatplane/authguard/totp"
)

// Engine is the login orchestrator. It composes the attempt limiter, the
// password hashers, and the TOTP verifier over the caller-supplied stores,
// and emits one audit event per terminal login outcome.
//
// Construct engines through [Builder.Build]; a zero Engine is not usable.
type Engine struct {
	config      Config
	limiter     *limiter.Limiter
	totp        *totp.Verifier
	hasher      password.Hasher
	users       UserStore
	memberships TenantMembershipStore
	audit       *auditDispatcher
	metrics     *Metrics
	now         func() time.Time
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// RateLimitStatus reports the current limiter decision for an ip/email
// pair without consuming an attempt. Request boundaries use it to answer
// locked-out clients with 429 and a Retry-After hint before the login body
// is even processed.
func (e *Engine) RateLimitStatus(ctx context.Context, ip, email string) (RateLimitStatus, error) {
	if e == nil || e.limiter == nil {
		return RateLimitStatus{}, ErrEngineNotReady
	}
	status, err := e.limiter.CheckStatus(ctx, ip, email)
	if err != nil {
		return RateLimitStatus{}, fmt.Errorf("rate limit check: %w", err)
	}
	return RateLimitStatus{
		Locked:      status.Locked,
		Remaining:   status.Remaining,
		LockedUntil: status.LockedUntil,
		BlockedBy:   LockScope(status.BlockedBy),
	}, nil
}

// GenerateMFAEnrollment produces a fresh TOTP secret and the otpauth://
// URI for the given account label. Persisting the secret on the user
// record is the caller's responsibility.
func (e *Engine) GenerateMFAEnrollment(account string) (MFAEnrollment, error) {
	if e == nil || e.totp == nil {
		return MFAEnrollment{}, ErrEngineNotReady
	}
	secret, err := e.totp.GenerateSecret()
	if err != nil {
		return MFAEnrollment{}, err
	}
	return MFAEnrollment{
		SecretBase32: secret,
		URI:          e.totp.ProvisionURI(secret, account),
	}, nil
}
