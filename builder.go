package authguard

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/threatplane/authguard/internal/limiter"
	"github.com/threatplane/authguard/password"
	"github.com/threatplane/authguard/totp"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the engine handles a login.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users       UserStore
	memberships TenantMembershipStore
	recorder    AuditRecorder
	clock       func() time.Time
}

// New creates a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis backs the attempt limiter with Redis so lockouts are shared
// across replicas and survive restarts. Without it the limiter is
// process-local.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore supplies the credential lookup collaborator. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithMembershipStore supplies the tenant membership collaborator.
// Optional; without it the tenant comes from the user record.
func (b *Builder) WithMembershipStore(store TenantMembershipStore) *Builder {
	b.memberships = store
	return b
}

// WithAuditRecorder supplies the audit collaborator. Optional; without it
// events are dropped.
func (b *Builder) WithAuditRecorder(recorder AuditRecorder) *Builder {
	b.recorder = recorder
	return b
}

// WithClock overrides the time source. Tests use it to step through
// windows and lockouts deterministically.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build validates the configuration and assembles the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.users == nil {
		return nil, ErrEngineNotReady
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	var store limiter.Store
	if b.redis != nil {
		retention := b.config.RateLimit.Window
		if b.config.RateLimit.Lockout > retention {
			retention = b.config.RateLimit.Lockout
		}
		store = limiter.NewRedisStore(b.redis, b.config.RateLimit.RedisPrefix, retention)
	} else {
		store = limiter.NewMemoryStore(b.config.RateLimit.MaxTrackedKeys)
	}

	var hasher password.Hasher
	switch b.config.Password.Scheme {
	case "", "bcrypt":
		hasher = password.NewBcrypt(b.config.Password.BcryptCost)
	case "argon2id":
		hasher = password.NewArgon2id(b.config.Password.Argon2)
	}

	return &Engine{
		config: b.config,
		limiter: limiter.New(store, limiter.Config{
			MaxAttempts: b.config.RateLimit.MaxAttempts,
			Window:      b.config.RateLimit.Window,
			Lockout:     b.config.RateLimit.Lockout,
		}, clock),
		totp: totp.NewVerifier(totp.Config{
			Digits:    b.config.TOTP.Digits,
			Period:    b.config.TOTP.Period,
			Skew:      b.config.TOTP.Skew,
			Algorithm: b.config.TOTP.Algorithm,
			Issuer:    b.config.TOTP.Issuer,
		}),
		hasher:      hasher,
		users:       b.users,
		memberships: b.memberships,
		audit:       newAuditDispatcher(b.config.Audit, b.recorder),
		metrics:     NewMetrics(b.config.Metrics),
		now:         clock,
	}, nil
}
