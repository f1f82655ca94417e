// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"slices"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

// clearEnv unsets every NWC_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "NWC_") {
			t.Setenv(key, "")
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("NWC_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/nwc.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/nwc.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.RateLimitWindow != 60*time.Second {
		t.Errorf("RateLimitWindow = %v, want 60s", cfg.RateLimitWindow)
	}
	if cfg.RateLimitMax != 5 {
		t.Errorf("RateLimitMax = %d, want 5", cfg.RateLimitMax)
	}
	if cfg.APIRateLimit != 20 || cfg.APIRateBurst != 40 {
		t.Errorf("API throttle = %v/%d, want 20/40", cfg.APIRateLimit, cfg.APIRateBurst)
	}
	if cfg.RedisPrefix != "nwc:" {
		t.Errorf("RedisPrefix = %q, want %q", cfg.RedisPrefix, "nwc:")
	}
	if cfg.UseRedis() {
		t.Error("UseRedis() = true with no URL")
	}
	if cfg.EventRetention() != 90*24*time.Hour {
		t.Errorf("EventRetention() = %v, want 90 days", cfg.EventRetention())
	}
	if cfg.FlagTimeout != 5*time.Second {
		t.Errorf("FlagTimeout = %v, want 5s", cfg.FlagTimeout)
	}
	if cfg.AdminCode != "" || cfg.AdminEmail != "" {
		t.Error("admin credentials should default to empty")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	customSecret := "custom-secret-key-32-bytes-long!"
	t.Setenv("NWC_SESSION_SECRET", customSecret)
	t.Setenv("NWC_DB_PATH", "/custom/path.db")
	t.Setenv("NWC_SERVER_HOST", "0.0.0.0")
	t.Setenv("NWC_SERVER_PORT", "3000")
	t.Setenv("NWC_ENV", "production")
	t.Setenv("NWC_LOG_LEVEL", "debug")
	t.Setenv("NWC_ADMIN_CODE", "s3cret")
	t.Setenv("NWC_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("NWC_RATE_LIMIT_WINDOW", "2m")
	t.Setenv("NWC_RATE_LIMIT_MAX", "10")
	t.Setenv("NWC_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("NWC_CORS_ORIGINS", "https://app.example.com,https://m.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
	if cfg.AdminCode != "s3cret" || cfg.AdminEmail != "admin@example.com" {
		t.Errorf("admin credentials = %q/%q", cfg.AdminCode, cfg.AdminEmail)
	}
	if cfg.RateLimitWindow != 2*time.Minute || cfg.RateLimitMax != 10 {
		t.Errorf("rate limit = %v/%d, want 2m/10", cfg.RateLimitWindow, cfg.RateLimitMax)
	}
	if !cfg.UseRedis() {
		t.Error("UseRedis() = false with URL set")
	}
	want := []string{"https://app.example.com", "https://m.example.com"}
	if !slices.Equal(cfg.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Error("Load() should fail without NWC_SESSION_SECRET")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	clearEnv(t)
	t.Setenv("NWC_SESSION_SECRET", "short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail with short secret")
	}
	if !strings.Contains(err.Error(), "at least 32 bytes") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_SessionSecretMinimumLength(t *testing.T) {
	clearEnv(t)
	t.Setenv("NWC_SESSION_SECRET", strings.Repeat("a", MinSessionSecretLength))

	if _, err := Load(); err != nil {
		t.Errorf("Load() with exactly %d bytes should succeed: %v", MinSessionSecretLength, err)
	}
}

func TestLoad_KnownWeakSecret(t *testing.T) {
	for _, weak := range knownWeakSecrets {
		clearEnv(t)
		t.Setenv("NWC_SESSION_SECRET", weak)

		if _, err := Load(); err == nil {
			t.Errorf("Load() should reject %q", weak)
		}
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown env", "NWC_ENV", "staging"},
		{"zero window", "NWC_RATE_LIMIT_WINDOW", "0s"},
		{"zero max", "NWC_RATE_LIMIT_MAX", "0"},
		{"negative api rate", "NWC_API_RATE_LIMIT", "-1"},
		{"negative retention", "NWC_EVENT_RETENTION_DAYS", "-3"},
		{"unparseable port", "NWC_SERVER_PORT", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("NWC_SESSION_SECRET", testSecret)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() should fail with %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := Config{LogLevel: tt.level}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"aaaaaaaaaaaaaaaaAAAAAAAAAAAAAAAA", false},
		{"aaaaaaaaaaAAAAAAAAAA111111111111", true},
		{testSecret, true},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
