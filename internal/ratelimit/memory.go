// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps windows in process memory. It is not shared between
// instances.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]time.Time),
	}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, cfg Config) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamps := prune(s.windows[key], now, cfg.Window)

	if len(stamps) >= cfg.MaxRequests {
		s.windows[key] = stamps
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: stamps[0].Add(cfg.Window).Sub(now),
		}, nil
	}

	stamps = append(stamps, now)
	s.windows[key] = stamps
	return Result{
		Allowed:   true,
		Remaining: cfg.MaxRequests - len(stamps),
	}, nil
}

// Sweep removes keys whose newest timestamp is not after cutoff.
func (s *MemoryStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, stamps := range s.windows {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Reset drops all windows.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = make(map[string][]time.Time)
}

// prune drops timestamps at or before now-window. stamps is ordered.
func prune(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(stamps) && now.Sub(stamps[i]) >= window {
		i++
	}
	if i == 0 {
		return stamps
	}
	// Copy so the backing array does not grow without bound.
	return append([]time.Time(nil), stamps[i:]...)
}
