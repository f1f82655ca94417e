// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ratelimit provides a sliding-window request limiter keyed by client.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Config holds the sliding-window parameters.
type Config struct {
	// Window is the length of the sliding window (default: 60 seconds)
	Window time.Duration
	// MaxRequests is the number of requests admitted per window (default: 5)
	MaxRequests int
}

// DefaultConfig returns the limits used for abuse-prone public endpoints.
func DefaultConfig() Config {
	return Config{
		Window:      60 * time.Second,
		MaxRequests: 5,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.MaxRequests <= 0 {
		c.MaxRequests = def.MaxRequests
	}
	return c
}

// Result is the outcome of a single check.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is set on denial: the time until the oldest counted
	// request leaves the window.
	RetryAfter time.Duration
}

// Store holds the per-key windows. Hit prunes entries older than
// now-cfg.Window, denies without recording when the remaining count is
// already at cfg.MaxRequests, and otherwise records now. The whole
// sequence must be atomic per key.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, cfg Config) (Result, error)
}

// Limiter checks keys against a Store.
type Limiter struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter. A nil store defaults to a fresh MemoryStore.
func New(store Store, cfg Config, opts ...Option) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	l := &Limiter{
		store: store,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the effective configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Check records a request for key. Store failures fail open.
func (l *Limiter) Check(ctx context.Context, key string) Result {
	res, err := l.store.Hit(ctx, key, l.now(), l.cfg)
	if err != nil {
		slog.Error("rate limit store unavailable, allowing request",
			"error", err, "key", key, "category", "ratelimit")
		return Result{Allowed: true, Remaining: l.cfg.MaxRequests}
	}
	return res
}

// Sweep drops idle windows when the store supports it. It returns the
// number of keys removed.
func (l *Limiter) Sweep() int {
	s, ok := l.store.(interface{ Sweep(cutoff time.Time) int })
	if !ok {
		return 0
	}
	return s.Sweep(l.now().Add(-l.cfg.Window))
}
