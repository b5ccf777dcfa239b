package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	authguard "github.com/threatplane/authguard"
)

type emptyUserStore struct{}

func (emptyUserStore) FindByEmail(context.Context, string) (*authguard.UserRecord, error) {
	return nil, nil
}

func newGuardTestEngine(t *testing.T) *authguard.Engine {
	t.Helper()

	cfg := authguard.Config{
		RateLimit: authguard.RateLimitConfig{
			MaxAttempts: 2,
			Window:      time.Minute,
			Lockout:     time.Minute,
		},
		TOTP:     authguard.TOTPConfig{Digits: 6, Period: 30},
		Password: authguard.PasswordConfig{BcryptCost: bcrypt.MinCost, MinLength: 8},
	}

	engine, err := authguard.New().
		WithConfig(cfg).
		WithUserStore(emptyUserStore{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func guardedRequest(t *testing.T, handler http.Handler, email string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "203.0.113.7:4444"
	if email != "" {
		req.Header.Set("X-Login-Email", email)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func emailHeader(r *http.Request) string {
	return r.Header.Get("X-Login-Email")
}

func TestRateLimitGuardPassesUnlockedRequests(t *testing.T) {
	engine := newGuardTestEngine(t)

	called := false
	handler := RateLimitGuard(engine, emailHeader)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	recorder := guardedRequest(t, handler, "analyst@example.com")
	if !called || recorder.Code != http.StatusOK {
		t.Fatalf("expected pass-through, called=%v code=%d", called, recorder.Code)
	}
}

func TestRateLimitGuardBlocksLockedPair(t *testing.T) {
	engine := newGuardTestEngine(t)
	ctx := context.Background()

	// Burn the two-attempt budget with unknown-user failures.
	req := authguard.LoginRequest{
		Email:     "analyst@example.com",
		Password:  "wrong-password",
		IPAddress: "203.0.113.7",
	}
	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, req); err == nil {
			t.Fatal("expected rejection")
		}
	}

	handler := RateLimitGuard(engine, emailHeader)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run for a locked pair")
	}))

	recorder := guardedRequest(t, handler, "analyst@example.com")
	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", recorder.Code)
	}
	retryAfter, err := strconv.Atoi(recorder.Header().Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After not numeric: %v", err)
	}
	if retryAfter < 1 || retryAfter > 60 {
		t.Fatalf("unexpected Retry-After %d", retryAfter)
	}

	// The guard consumed nothing: the lock still expires on schedule and
	// unrelated accounts from other origins pass.
	other := guardedRequest(t, RateLimitGuard(engine, emailHeader)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})), "")
	if other.Code != http.StatusTooManyRequests {
		t.Fatalf("same origin must stay blocked on the ip key, got %d", other.Code)
	}
}

func TestRateLimitGuardNilEngine(t *testing.T) {
	handler := RateLimitGuard(nil, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without an engine")
	}))

	recorder := guardedRequest(t, handler, "")
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", recorder.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.9:1234"
	if got := ClientIP(req); got != "198.51.100.9" {
		t.Fatalf("expected host only, got %q", got)
	}

	req.RemoteAddr = "no-port-here"
	if got := ClientIP(req); got != "no-port-here" {
		t.Fatalf("expected raw value, got %q", got)
	}
}
