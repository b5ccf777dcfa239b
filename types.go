package authguard

import (
	"context"
	"time"
)

// Outcome is the closed set of terminal login results. Every value is a
// normal business outcome, not an exceptional condition; each one maps to
// exactly one audit emission per attempt.
type Outcome string

const (
	// OutcomeSuccess is the authenticated terminal state.
	OutcomeSuccess Outcome = "success"
	// OutcomeInvalidPayload marks a structurally invalid submission.
	OutcomeInvalidPayload Outcome = "invalid_payload"
	// OutcomeUnknownUser marks a lookup miss or a record with no credential.
	OutcomeUnknownUser Outcome = "unknown_user"
	// OutcomeInvalidPassword marks a credential mismatch.
	OutcomeInvalidPassword Outcome = "invalid_password"
	// OutcomeMFAMissing marks a required MFA step with no token or secret.
	OutcomeMFAMissing Outcome = "mfa_missing"
	// OutcomeMFAInvalid marks a rejected one-time code.
	OutcomeMFAInvalid Outcome = "mfa_invalid"
	// OutcomeRateLimited marks an attempt blocked by an active lockout.
	OutcomeRateLimited Outcome = "rate_limited"
)

// LockScope identifies which tracked key held the lockout that blocked an
// attempt.
type LockScope string

const (
	// LockScopeIP marks a lockout on the client IP key.
	LockScopeIP LockScope = "ip"
	// LockScopeEmail marks a lockout on the normalized email key.
	LockScopeEmail LockScope = "email"
)

// LoginRequest is one submitted login attempt.
type LoginRequest struct {
	Email     string
	Password  string
	TOTPCode  string
	IPAddress string
	UserAgent string
}

// Identity is returned on successful authentication. The caller's session
// layer is responsible for turning it into whatever session or token
// artifact it issues.
type Identity struct {
	UserID   string
	Email    string
	Role     string
	TenantID string
	MFAUsed  bool
}

// UserRecord is the account shape consumed from [UserStore].
type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	TenantID     string
	MFAEnabled   bool
	MFASecret    string
}

// UserStore is the credential lookup interface callers must implement.
//
// FindByEmail receives the normalized (trimmed, lower-cased) email and
// returns (nil, nil) when no account exists. A non-nil error means the
// backend itself failed and is surfaced to the caller as an infrastructure
// error, never conflated with an unknown user.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
}

// PasswordRehasher is an optional [UserStore] capability. When the store
// implements it and upgrade-on-login is enabled, hashes below the
// configured parameters are transparently regenerated after a successful
// password check.
type PasswordRehasher interface {
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
}

// Membership is an account's active tenant binding.
type Membership struct {
	TenantID string
}

// TenantMembershipStore resolves an account's active tenant. FindMembership
// returns (nil, nil) when the account has no active membership.
type TenantMembershipStore interface {
	FindMembership(ctx context.Context, userID string) (*Membership, error)
}

// MFAEnrollment holds the base32 secret and otpauth:// URI produced when
// enrolling an account in TOTP.
type MFAEnrollment struct {
	SecretBase32 string
	URI          string
}

// RateLimitStatus is the externally visible rate-limit decision for an
// identity pair, exposed for callers that surface retry-after hints.
type RateLimitStatus struct {
	Locked      bool
	Remaining   int
	LockedUntil time.Time
	BlockedBy   LockScope
}
