// Package limiter tracks failed login attempts per client IP and per
// normalized account email inside sliding windows, and enforces temporary
// lockouts once a key exhausts its attempt budget.
//
// # Window semantics
//
// Counting windows and lockouts expire lazily at access time; there is no
// background sweep. Key prefixes inside the backing store:
//   - lip: — login attempts per IP
//   - lem: — login attempts per normalized email
//
// # What this package must NOT do
//
//   - Decide what counts as a failure — the login flow does.
//   - Be imported outside the authguard module.
package limiter

import (
	"context"
	"strings"
	"time"
)

const (
	ipKeyPrefix    = "lip:"
	emailKeyPrefix = "lem:"
)

// Scope identifies which tracked key produced a lockout decision.
type Scope string

const (
	// ScopeIP marks a lockout held by the client IP key.
	ScopeIP Scope = "ip"
	// ScopeEmail marks a lockout held by the normalized email key.
	ScopeEmail Scope = "email"
)

// Config holds the attempt budget and window tuning for a [Limiter].
type Config struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// State is the per-key attempt record held by a [Store].
//
// A zero State means the key has never been observed. LockedUntil is the
// zero time while the key is not locked.
type State struct {
	Count       int
	WindowStart time.Time
	LockedUntil time.Time
}

// Store persists per-key attempt state. Update must apply the
// load-mutate-persist sequence atomically with respect to other calls for
// the same key: two concurrent failures against one key must both observe
// the other's increment.
type Store interface {
	Update(ctx context.Context, key string, fn func(s *State)) (State, error)
	Delete(ctx context.Context, keys ...string) error
}

// Status is the decision returned by [Limiter.CheckStatus] and
// [Limiter.RecordFailure].
type Status struct {
	Locked      bool
	Remaining   int
	LockedUntil time.Time
	BlockedBy   Scope
}

// RetryAfter returns how long the caller should wait before the lock
// expires, rounded up to a whole second. Zero when not locked.
func (s Status) RetryAfter(now time.Time) time.Duration {
	if !s.Locked || s.LockedUntil.IsZero() {
		return 0
	}
	d := s.LockedUntil.Sub(now)
	if d <= 0 {
		return 0
	}
	if r := d % time.Second; r != 0 {
		d += time.Second - r
	}
	return d
}

// Limiter enforces the failed-login budget for IP and email keys.
//
// Both keys are tracked independently: the IP key defends against
// credential stuffing from a single origin, the email key against
// distributed brute force on a single account. Missing keys are skipped,
// never an error.
type Limiter struct {
	store  Store
	config Config
	now    func() time.Time
}

// New creates a Limiter on top of the given store.
func New(store Store, cfg Config, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{store: store, config: cfg, now: now}
}

// CheckStatus reports whether an attempt for the ip/email pair may proceed,
// without consuming an attempt. The IP lock short-circuits; otherwise the
// email key decides. When the email key is present and unlocked, its
// remaining budget is reported; with no email the full budget is reported,
// since the email key is the one the remaining count is quoted against.
func (l *Limiter) CheckStatus(ctx context.Context, ip, email string) (Status, error) {
	now := l.now()
	status := Status{Remaining: l.config.MaxAttempts}

	if key := normalizeKey(ip); key != "" {
		state, err := l.store.Update(ctx, ipKeyPrefix+key, func(s *State) {
			l.rollover(s, now)
		})
		if err != nil {
			return Status{}, err
		}
		ipStatus := l.evaluate(state, now)
		if ipStatus.Locked {
			ipStatus.BlockedBy = ScopeIP
			return ipStatus, nil
		}
	}

	if key := normalizeKey(email); key != "" {
		state, err := l.store.Update(ctx, emailKeyPrefix+key, func(s *State) {
			l.rollover(s, now)
		})
		if err != nil {
			return Status{}, err
		}
		status = l.evaluate(state, now)
		if status.Locked {
			status.BlockedBy = ScopeEmail
		}
	}

	return status, nil
}

// RecordFailure consumes one attempt on both keys and returns the resulting
// status. A key reaching MaxAttempts is locked for the configured lockout.
// When both keys lock on the same call the email lock is the one reported;
// it is the account-scoped signal and survives an origin change.
func (l *Limiter) RecordFailure(ctx context.Context, ip, email string) (Status, error) {
	now := l.now()
	status := Status{Remaining: l.config.MaxAttempts}

	if key := normalizeKey(ip); key != "" {
		state, err := l.store.Update(ctx, ipKeyPrefix+key, l.bump(now))
		if err != nil {
			return Status{}, err
		}
		status = l.evaluate(state, now)
		if status.Locked {
			status.BlockedBy = ScopeIP
		}
	}

	if key := normalizeKey(email); key != "" {
		state, err := l.store.Update(ctx, emailKeyPrefix+key, l.bump(now))
		if err != nil {
			return Status{}, err
		}
		emailStatus := l.evaluate(state, now)
		if emailStatus.Locked {
			emailStatus.BlockedBy = ScopeEmail
			status = emailStatus
		} else if !status.Locked {
			status = emailStatus
		}
	}

	return status, nil
}

// RecordSuccess deletes stored state for both keys. A successful login
// forgives prior failures for that identity and origin.
func (l *Limiter) RecordSuccess(ctx context.Context, ip, email string) error {
	keys := make([]string, 0, 2)
	if key := normalizeKey(ip); key != "" {
		keys = append(keys, ipKeyPrefix+key)
	}
	if key := normalizeKey(email); key != "" {
		keys = append(keys, emailKeyPrefix+key)
	}
	if len(keys) == 0 {
		return nil
	}
	return l.store.Delete(ctx, keys...)
}

func (l *Limiter) bump(now time.Time) func(s *State) {
	return func(s *State) {
		l.rollover(s, now)
		s.Count++
		if s.Count >= l.config.MaxAttempts {
			s.LockedUntil = now.Add(l.config.Lockout)
		}
	}
}

// rollover applies the lazy expiry rule: an expired lock clears the lock
// and restarts the window; otherwise an expired window restarts the count.
func (l *Limiter) rollover(s *State, now time.Time) {
	if s.WindowStart.IsZero() {
		s.WindowStart = now
		return
	}
	switch {
	case !s.LockedUntil.IsZero() && !s.LockedUntil.After(now):
		s.LockedUntil = time.Time{}
		s.Count = 0
		s.WindowStart = now
	case s.LockedUntil.IsZero() && now.Sub(s.WindowStart) > l.config.Window:
		s.Count = 0
		s.WindowStart = now
	}
}

func (l *Limiter) evaluate(s State, now time.Time) Status {
	remaining := l.config.MaxAttempts - s.Count
	if remaining < 0 {
		remaining = 0
	}
	if !s.LockedUntil.IsZero() && s.LockedUntil.After(now) {
		return Status{Locked: true, Remaining: remaining, LockedUntil: s.LockedUntil}
	}
	return Status{Remaining: remaining}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
