package authguard

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := validateConfig(defaultConfig()); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()

	if cfg.RateLimit.MaxAttempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", cfg.RateLimit.MaxAttempts)
	}
	if cfg.RateLimit.Window != 15*time.Minute || cfg.RateLimit.Lockout != 15*time.Minute {
		t.Fatalf("unexpected window/lockout: %v/%v", cfg.RateLimit.Window, cfg.RateLimit.Lockout)
	}
	if cfg.TOTP.Digits != 6 || cfg.TOTP.Period != 30 || cfg.TOTP.Skew != 1 || cfg.TOTP.Algorithm != "SHA1" {
		t.Fatalf("unexpected totp defaults: %+v", cfg.TOTP)
	}
	if cfg.Password.Scheme != "bcrypt" || cfg.Password.MinLength != 8 {
		t.Fatalf("unexpected password defaults: %+v", cfg.Password)
	}
	if !cfg.Audit.Enabled || !cfg.Audit.DropIfFull {
		t.Fatalf("unexpected audit defaults: %+v", cfg.Audit)
	}
}

func TestValidateConfigRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{"zero attempts", func(cfg *Config) { cfg.RateLimit.MaxAttempts = 0 }, "max attempts"},
		{"negative window", func(cfg *Config) { cfg.RateLimit.Window = -time.Minute }, "window"},
		{"zero lockout", func(cfg *Config) { cfg.RateLimit.Lockout = 0 }, "lockout"},
		{"too few digits", func(cfg *Config) { cfg.TOTP.Digits = 5 }, "digits"},
		{"too many digits", func(cfg *Config) { cfg.TOTP.Digits = 11 }, "digits"},
		{"zero period", func(cfg *Config) { cfg.TOTP.Period = 0 }, "period"},
		{"negative skew", func(cfg *Config) { cfg.TOTP.Skew = -1 }, "skew"},
		{"unknown algorithm", func(cfg *Config) { cfg.TOTP.Algorithm = "MD5" }, "algorithm"},
		{"unknown scheme", func(cfg *Config) { cfg.Password.Scheme = "scrypt" }, "scheme"},
		{"negative min length", func(cfg *Config) { cfg.Password.MinLength = -1 }, "min length"},
	}

	for _, tc := range cases {
		cfg := defaultConfig()
		tc.mutate(&cfg)
		err := validateConfig(cfg)
		if err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
		if !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: expected error mentioning %q, got %v", tc.name, tc.wantErr, err)
		}
	}
}
