package authguard

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEngineNotReady is returned when required collaborators were not
	// supplied before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidPayload is returned for structurally invalid submissions.
	ErrInvalidPayload = errors.New("invalid login payload")
	// ErrInvalidCredentials is the uniform rejection for unknown users,
	// password mismatches, and missing tenant memberships. Callers should
	// present it verbatim to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned while a lockout is active. The
	// concrete error is a [*RateLimitedError] carrying the retry-after.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrMFACodeRequired is returned when MFA is required but no token or
	// stored secret is available.
	ErrMFACodeRequired = errors.New("mfa code required")
	// ErrMFACodeInvalid is returned when the submitted one-time code fails
	// verification.
	ErrMFACodeInvalid = errors.New("invalid mfa code")
)

// RateLimitedError is the concrete rejection for rate-limited attempts. It
// unwraps to [ErrLoginRateLimited] and carries the machine-readable
// retry-after derived from the lock expiry.
type RateLimitedError struct {
	Scope      LockScope
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("login rate limited (%s), retry after %s", e.Scope, e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrLoginRateLimited
}
