package authguard

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/threatplane/authguard/password"
)

// Login runs one authentication attempt through the full pipeline:
// payload validation, rate-limit gate, credential lookup, password check,
// tenant membership, conditional MFA. Rejections come back as the sentinel
// errors in errors.go; anything else is an infrastructure failure the
// caller should map to a generic unavailable response.
//
// Side effects are strictly ordered per terminal state: the rate-limit
// mutation happens before the audit emission, and emission before return.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*Identity, error) {
	if e == nil || e.users == nil || e.limiter == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(req.Email)

	// Structural failures are not attempts against the limiter: nothing
	// has been tried against an account yet.
	if !validPayload(email, req.Password, e.config.Password.MinLength) {
		e.metrics.Inc(MetricLoginInvalidPayload)
		e.emitAudit(ctx, req, auditFields{
			outcome: OutcomeInvalidPayload,
			email:   email,
		})
		return nil, ErrInvalidPayload
	}

	status, err := e.limiter.CheckStatus(ctx, req.IPAddress, email)
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if status.Locked {
		retryAfter := status.RetryAfter(e.now())
		e.metrics.Inc(MetricLoginRateLimited)
		e.emitAudit(ctx, req, auditFields{
			outcome:    OutcomeRateLimited,
			email:      email,
			suspicious: true,
			details: map[string]string{
				"blocked_by":  string(status.BlockedBy),
				"retry_after": retryAfter.String(),
			},
		})
		return nil, &RateLimitedError{
			Scope:      LockScope(status.BlockedBy),
			RetryAfter: retryAfter,
		}
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		// A dead user store is an infrastructure failure, not an unknown
		// user; conflating the two would corrupt the audit trail.
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, e.rejectWithFailure(ctx, req, auditFields{
			outcome: OutcomeUnknownUser,
			email:   email,
		}, ErrInvalidCredentials)
	}

	ok, verr := password.Verify(req.Password, user.PasswordHash)
	if verr != nil || !ok {
		return nil, e.rejectWithFailure(ctx, req, auditFields{
			outcome: OutcomeInvalidPassword,
			email:   email,
			userID:  user.ID,
		}, ErrInvalidCredentials)
	}

	e.maybeUpgradeHash(ctx, user, req.Password)

	tenantID := user.TenantID
	if e.memberships != nil {
		membership, err := e.memberships.FindMembership(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("membership lookup: %w", err)
		}
		if membership == nil {
			// Rejected without an audit event, mirroring the upstream
			// behavior; a distinguishable record would leak tenant
			// membership to whoever controls the account.
			return nil, ErrInvalidCredentials
		}
		tenantID = membership.TenantID
	}

	mfaUsed := false
	if e.mfaRequired(user) {
		e.metrics.Inc(MetricMFAChallenged)
		code := strings.TrimSpace(req.TOTPCode)
		if code == "" || user.MFASecret == "" {
			return nil, e.rejectWithFailure(ctx, req, auditFields{
				outcome:  OutcomeMFAMissing,
				email:    email,
				userID:   user.ID,
				tenantID: tenantID,
			}, ErrMFACodeRequired)
		}
		if !e.totp.Verify(user.MFASecret, code, e.now()) {
			return nil, e.rejectWithFailure(ctx, req, auditFields{
				outcome:  OutcomeMFAInvalid,
				email:    email,
				userID:   user.ID,
				tenantID: tenantID,
			}, ErrMFACodeInvalid)
		}
		e.metrics.Inc(MetricMFASuccess)
		mfaUsed = true
	}

	if err := e.limiter.RecordSuccess(ctx, req.IPAddress, email); err != nil {
		return nil, fmt.Errorf("rate limit reset: %w", err)
	}
	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, req, auditFields{
		outcome:  OutcomeSuccess,
		email:    email,
		userID:   user.ID,
		tenantID: tenantID,
		details: map[string]string{
			"mfa_used": strconv.FormatBool(mfaUsed),
		},
	})

	return &Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		TenantID: tenantID,
		MFAUsed:  mfaUsed,
	}, nil
}

// rejectWithFailure charges the limiter for a failed attempt, emits the
// audit event for the outcome, and returns the rejection. Failures that
// trip a new lockout are flagged suspicious.
func (e *Engine) rejectWithFailure(ctx context.Context, req LoginRequest, fields auditFields, rejection error) error {
	status, err := e.limiter.RecordFailure(ctx, req.IPAddress, fields.email)
	if err != nil {
		return fmt.Errorf("rate limit record: %w", err)
	}

	switch fields.outcome {
	case OutcomeMFAMissing:
		e.metrics.Inc(MetricMFAMissing)
	case OutcomeMFAInvalid:
		e.metrics.Inc(MetricMFAFailure)
	default:
		e.metrics.Inc(MetricLoginFailure)
	}
	if status.Locked {
		e.metrics.Inc(MetricLockoutTriggered)
		fields.suspicious = true
	}

	e.emitAudit(ctx, req, fields)
	return rejection
}

func (e *Engine) maybeUpgradeHash(ctx context.Context, user *UserRecord, submitted string) {
	if !e.config.Password.UpgradeOnLogin || e.hasher == nil {
		return
	}
	rehasher, ok := e.users.(PasswordRehasher)
	if !ok || !e.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	newHash, err := e.hasher.Hash(submitted)
	if err != nil {
		return
	}
	if err := rehasher.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		return
	}
	e.metrics.Inc(MetricPasswordUpgraded)
}

func (e *Engine) mfaRequired(user *UserRecord) bool {
	if !user.MFAEnabled {
		return false
	}
	if len(e.config.TOTP.RequiredRoles) == 0 {
		return true
	}
	for _, role := range e.config.TOTP.RequiredRoles {
		if role == user.Role {
			return true
		}
	}
	return false
}

type auditFields struct {
	outcome    Outcome
	email      string
	userID     string
	tenantID   string
	suspicious bool
	details    map[string]string
}

func (e *Engine) emitAudit(ctx context.Context, req LoginRequest, fields auditFields) {
	if e.audit == nil {
		return
	}
	e.audit.Record(ctx, AuditEvent{
		ID:         uuid.NewString(),
		Timestamp:  e.now().UTC(),
		Action:     fields.outcome,
		UserID:     fields.userID,
		TenantID:   fields.tenantID,
		Email:      fields.email,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
		Suspicious: fields.suspicious,
		Details:    fields.details,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validPayload(email, submittedPassword string, minLength int) bool {
	if email == "" {
		return false
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return false
	}
	return len(submittedPassword) >= minLength
}
