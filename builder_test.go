package authguard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestBuildRequiresUserStore(t *testing.T) {
	if _, err := New().Build(); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimit.MaxAttempts = 0

	_, err := New().
		WithConfig(cfg).
		WithUserStore(newFakeUserStore()).
		Build()
	if err == nil {
		t.Fatal("expected config rejection")
	}
}

func TestBuildDefaults(t *testing.T) {
	engine, err := New().WithUserStore(newFakeUserStore()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if engine.limiter == nil || engine.totp == nil || engine.hasher == nil {
		t.Fatal("engine missing collaborators")
	}
	if engine.metrics == nil || engine.audit == nil {
		t.Fatal("engine missing ambient collaborators")
	}
}

func TestBuildWithRedisSharesLockoutAcrossEngines(t *testing.T) {
	_, rdb := newTestRedis(t)

	cfg := testLoginConfig()
	user := testUser(t)

	build := func() *Engine {
		engine, err := New().
			WithConfig(cfg).
			WithRedis(rdb).
			WithUserStore(newFakeUserStore(user)).
			WithClock(func() time.Time { return testClock }).
			Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		t.Cleanup(engine.Close)
		return engine
	}

	first := build()
	ctx := context.Background()

	bad := loginReq("")
	bad.Password = "wrong-password"
	for i := 0; i < 5; i++ {
		if _, err := first.Login(ctx, bad); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// A second engine over the same Redis observes the lock, the way a
	// second replica would.
	second := build()
	if _, err := second.Login(ctx, loginReq("")); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected shared lockout, got %v", err)
	}
}

func TestBuildArgon2Scheme(t *testing.T) {
	cfg := testLoginConfig()
	cfg.Password.Scheme = "argon2id"
	cfg.Password.Argon2.Memory = 8 * 1024
	cfg.Password.Argon2.Time = 1
	cfg.Password.Argon2.Parallelism = 1
	cfg.Password.Argon2.SaltLength = 16
	cfg.Password.Argon2.KeyLength = 32

	engine, err := New().
		WithConfig(cfg).
		WithUserStore(newFakeUserStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	hash, err := engine.hasher.Hash("hunter2hunter2")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) == 0 || hash[:9] != "$argon2id" {
		t.Fatalf("expected argon2id hash, got %q", hash)
	}
}

func TestGenerateMFAEnrollment(t *testing.T) {
	cfg := testLoginConfig()
	cfg.TOTP.Issuer = "threatplane"
	cfg.Password.BcryptCost = bcrypt.MinCost

	engine, _ := buildLoginTestEngine(t, cfg, newFakeUserStore())

	enrollment, err := engine.GenerateMFAEnrollment("analyst@example.com")
	if err != nil {
		t.Fatalf("GenerateMFAEnrollment failed: %v", err)
	}
	if enrollment.SecretBase32 == "" {
		t.Fatal("expected a secret")
	}
	if enrollment.URI == "" || enrollment.URI[:15] != "otpauth://totp/" {
		t.Fatalf("unexpected URI %q", enrollment.URI)
	}

	var nilEngine *Engine
	if _, err := nilEngine.GenerateMFAEnrollment("x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
