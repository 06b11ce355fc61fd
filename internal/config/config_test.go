package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.JWTIssuer != "student-portal" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "student-portal")
	}
	if cfg.JWTAudience != "student-portal-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "student-portal-api")
	}
	if cfg.TokenTTL != "60m" {
		t.Errorf("TokenTTL = %q, want %q", cfg.TokenTTL, "60m")
	}
	if cfg.SessionWindow != "30m" {
		t.Errorf("SessionWindow = %q, want %q", cfg.SessionWindow, "30m")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.JWTKey != "" {
		t.Errorf("JWTKey = %q, want empty default", cfg.JWTKey)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_KEY", "test-signing-key")
	os.Setenv("TOKEN_TTL", "2h")
	os.Setenv("SESSION_WINDOW", "45m")
	os.Setenv("BCRYPT_COST", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTKey != "test-signing-key" {
		t.Errorf("JWTKey = %q, want %q", cfg.JWTKey, "test-signing-key")
	}
	if got := cfg.TokenTTLDuration(); got != 2*time.Hour {
		t.Errorf("TokenTTLDuration = %v, want 2h", got)
	}
	if got := cfg.SessionWindowDuration(); got != 45*time.Minute {
		t.Errorf("SessionWindowDuration = %v, want 45m", got)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
}

func TestLoad_RejectsWindowLongerThanCeiling(t *testing.T) {
	os.Clearenv()
	os.Setenv("TOKEN_TTL", "30m")
	os.Setenv("SESSION_WINDOW", "60m")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted SESSION_WINDOW > TOKEN_TTL")
	}
}

func TestLoad_RejectsInvalidDurations(t *testing.T) {
	cases := []struct {
		name, key, value string
	}{
		{"bad token ttl", "TOKEN_TTL", "soon"},
		{"negative token ttl", "TOKEN_TTL", "-5m"},
		{"bad session window", "SESSION_WINDOW", "half an hour"},
		{"zero session window", "SESSION_WINDOW", "0s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load accepted %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_RejectsBcryptCostOutOfRange(t *testing.T) {
	os.Clearenv()
	os.Setenv("BCRYPT_COST", "3")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted BCRYPT_COST=3")
	}
}
