// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"NWC_DB_PATH" envDefault:"./data/nwc.db"`
	SessionSecret string `env:"NWC_SESSION_SECRET,required"`
	ServerHost    string `env:"NWC_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"NWC_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"NWC_ENV" envDefault:"development"`
	LogLevel      string `env:"NWC_LOG_LEVEL" envDefault:"info"`

	// Admin credentials; an empty value disables that path
	AdminCode  string `env:"NWC_ADMIN_CODE"`
	AdminEmail string `env:"NWC_ADMIN_EMAIL"`

	// Sliding-window limiter for abuse-prone public endpoints
	RateLimitWindow time.Duration `env:"NWC_RATE_LIMIT_WINDOW" envDefault:"60s"`
	RateLimitMax    int           `env:"NWC_RATE_LIMIT_MAX" envDefault:"5"`

	// Token-bucket throttle for all API routes
	APIRateLimit float64 `env:"NWC_API_RATE_LIMIT" envDefault:"20"`
	APIRateBurst int     `env:"NWC_API_RATE_BURST" envDefault:"40"`

	// Optional Redis for rate windows shared across instances
	RedisURL    string `env:"NWC_REDIS_URL"`
	RedisPrefix string `env:"NWC_REDIS_PREFIX" envDefault:"nwc:"`

	CORSOrigins []string `env:"NWC_CORS_ORIGINS" envSeparator:","`

	EventRetentionDays int           `env:"NWC_EVENT_RETENTION_DAYS" envDefault:"90"`
	FlagTimeout        time.Duration `env:"NWC_FLAG_TIMEOUT" envDefault:"5s"`
	// ModerationTerms is an optional JSON file of extra detector terms
	ModerationTerms string `env:"NWC_MODERATION_TERMS"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if Redis-backed rate limiting is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// EventRetention returns the event log retention as a duration.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
// The CSRF key derived from it must be 32 bytes.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("NWC_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}
	if cfg.AdminCode == "" && cfg.AdminEmail == "" {
		slog.Warn("no admin credential configured; admin routes will deny every request")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("NWC_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("NWC_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("NWC_ENV must be development or production, got %q", c.Env)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("NWC_RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("NWC_RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.APIRateLimit <= 0 || c.APIRateBurst <= 0 {
		return fmt.Errorf("NWC_API_RATE_LIMIT and NWC_API_RATE_BURST must be positive")
	}
	if c.EventRetentionDays < 0 {
		return fmt.Errorf("NWC_EVENT_RETENTION_DAYS must not be negative, got %d", c.EventRetentionDays)
	}

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
