// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Placeholder development secrets. Validate rejects them in production mode.
const (
	DevAccessSecret  = "dev-access-secret-change-in-production"
	DevRefreshSecret = "dev-refresh-secret-change-in-production"
)

// Config holds runtime settings for the authkeeper server.
//
// Fields:
//   - EndpointAddr: bind address for the public HTTP endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty means the in-memory store.
//   - AccessSecret / RefreshSecret: independent HMAC secrets for signing the
//     two token kinds (HS256). Neither is ever derived from the other.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - Production: when set, Validate refuses placeholder secrets.
type Config struct {
	EndpointAddr                 string
	DatabaseDSN                  string
	AccessSecret                 string
	RefreshSecret                string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	Production                   bool
}

// LoadDefaults populates Config with development defaults.
// NOTE: The secrets are placeholders and must be overridden outside of
// development; Validate enforces this in production mode.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = ""
	c.AccessSecret = DevAccessSecret
	c.RefreshSecret = DevRefreshSecret
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.Production = false
}

// Validate checks that the configuration is safe to start with.
// In production mode placeholder signing secrets are rejected.
func (c *Config) Validate() error {
	if !c.Production {
		return nil
	}
	if c.AccessSecret == DevAccessSecret || c.AccessSecret == "" {
		return errors.New("production mode requires a real access token secret")
	}
	if c.RefreshSecret == DevRefreshSecret || c.RefreshSecret == "" {
		return errors.New("production mode requires a real refresh token secret")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
