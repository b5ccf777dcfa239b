package authguard

import (
	"errors"
	"time"

	"github.com/threatplane/authguard/password"
)

// Config gathers all engine tuning. Instances are set up before
// [Builder.Build] and treated as immutable afterwards.
type Config struct {
	RateLimit RateLimitConfig
	TOTP      TOTPConfig
	Password  PasswordConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig tunes the per-IP / per-email login attempt limiter.
type RateLimitConfig struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration

	// RedisPrefix namespaces attempt keys when a Redis-backed store is
	// used. Ignored by the in-memory store.
	RedisPrefix string

	// MaxTrackedKeys caps the in-memory attempt store; least recently
	// touched keys are evicted past the cap. Zero disables eviction.
	// Ignored by the Redis store, which expires records via TTL.
	MaxTrackedKeys int
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig tunes one-time code verification for the MFA login step.
type TOTPConfig struct {
	Digits    int
	Period    int // seconds per time step
	Skew      int // steps of clock drift tolerated either side
	Algorithm string
	Issuer    string

	// RequiredRoles limits the MFA requirement to the listed account
	// roles. Empty means every MFA-enrolled account is challenged.
	RequiredRoles []string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the hash family and payload policy.
type PasswordConfig struct {
	// Scheme is "bcrypt" (default, matches existing stored hashes) or
	// "argon2id". Verification always accepts both families; Scheme only
	// drives new hashes.
	Scheme         string
	BcryptCost     int
	Argon2         password.Argon2Config
	UpgradeOnLogin bool

	// MinLength is the structural minimum for submitted passwords, in
	// bytes. Shorter submissions are rejected as invalid payload before
	// any store access.
	MinLength int
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counter registry.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		RateLimit: RateLimitConfig{
			MaxAttempts: 5,
			Window:      15 * time.Minute,
			Lockout:     15 * time.Minute,
		},
		TOTP: TOTPConfig{
			Digits:    6,
			Period:    30,
			Skew:      1,
			Algorithm: "SHA1",
			Issuer:    "threatplane",
		},
		Password: PasswordConfig{
			Scheme:    "bcrypt",
			MinLength: 8,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.RateLimit.MaxAttempts <= 0 {
		return errors.New("rate limit max attempts must be positive")
	}
	if cfg.RateLimit.Window <= 0 || cfg.RateLimit.Lockout <= 0 {
		return errors.New("rate limit window and lockout must be positive")
	}
	if cfg.TOTP.Digits < 6 || cfg.TOTP.Digits > 10 {
		return errors.New("totp digits must be between 6 and 10")
	}
	if cfg.TOTP.Period <= 0 {
		return errors.New("totp period must be positive")
	}
	if cfg.TOTP.Skew < 0 {
		return errors.New("totp skew must not be negative")
	}
	switch cfg.TOTP.Algorithm {
	case "", "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("totp algorithm must be SHA1, SHA256, or SHA512")
	}
	switch cfg.Password.Scheme {
	case "", "bcrypt", "argon2id":
	default:
		return errors.New("password scheme must be bcrypt or argon2id")
	}
	if cfg.Password.MinLength < 0 {
		return errors.New("password min length must not be negative")
	}
	return nil
}
