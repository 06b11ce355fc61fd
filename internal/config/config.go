// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN; empty until DB is wired.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTKey is the symmetric signing key for session tokens (HS256).
	// Required by anything that mints or verifies tokens; startup fails without it.
	JWTKey string `mapstructure:"JWT_KEY"`
	// JWTIssuer is the iss claim; empty disables issuer validation.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim; empty disables audience validation.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// TokenTTL is the hard expiration embedded in the signed token (e.g. "60m").
	// A token can never be validated past this instant, whatever the store says.
	TokenTTL string `mapstructure:"TOKEN_TTL"`
	// SessionWindow is the sliding expiration window for the session store
	// (e.g. "30m"). Each authorized request pushes the store expiry forward by
	// this much. Must not exceed TOKEN_TTL.
	SessionWindow string `mapstructure:"SESSION_WINDOW"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_KEY", "")
	v.SetDefault("JWT_ISSUER", "student-portal")
	v.SetDefault("JWT_AUDIENCE", "student-portal-api")
	v.SetDefault("TOKEN_TTL", "60m")
	v.SetDefault("SESSION_WINDOW", "30m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	ttl, err := time.ParseDuration(cfg.TokenTTL)
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("config: TOKEN_TTL must be a positive duration, got %q", cfg.TokenTTL)
	}
	window, err := time.ParseDuration(cfg.SessionWindow)
	if err != nil || window <= 0 {
		return nil, fmt.Errorf("config: SESSION_WINDOW must be a positive duration, got %q", cfg.SessionWindow)
	}
	if window > ttl {
		return nil, errors.New("config: SESSION_WINDOW must not exceed TOKEN_TTL; a window past the token's hard expiry can never be honored")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// TokenTTLDuration returns TokenTTL as a time.Duration. Returns 60m if unset or invalid.
func (c *Config) TokenTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil || d <= 0 {
		return 60 * time.Minute
	}
	return d
}

// SessionWindowDuration returns SessionWindow as a time.Duration. Returns 30m if unset or invalid.
func (c *Config) SessionWindowDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionWindow)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}
