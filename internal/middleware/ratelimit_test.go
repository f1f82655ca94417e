// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/metrics"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/ratelimit"
)

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Time, ratelimit.Config) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("store down")
}

func newTestLimiter(now *time.Time) *ratelimit.Limiter {
	return ratelimit.New(nil, ratelimit.Config{Window: time.Minute, MaxRequests: 5},
		ratelimit.WithClock(func() time.Time { return *now }))
}

func TestSlidingWindow_AllowsThenDenies(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := metrics.New()
	handler := SlidingWindow(newTestLimiter(&now), "signup", m)(simpleOKHandler)

	for i := 0; i < 5; i++ {
		w := executeFrom(handler, "/api/auth/signup", "10.0.0.1")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want %d", i+1, w.Code, http.StatusOK)
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "5" {
			t.Errorf("X-RateLimit-Limit = %q, want 5", got)
		}
	}

	now = now.Add(5 * time.Second)
	w := executeFrom(handler, "/api/auth/signup", "10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("6th request: status %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := w.Header().Get("Retry-After"); got != "55" {
		t.Errorf("Retry-After = %q, want 55", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	if code := decodeAPIError(t, w).Error.Code; code != "rate_limit_exceeded" {
		t.Errorf("code = %q, want rate_limit_exceeded", code)
	}
	if got := testutil.ToFloat64(m.RateLimitDenied.WithLabelValues("signup")); got != 1 {
		t.Errorf("denied counter = %v, want 1", got)
	}

	now = now.Add(55 * time.Second)
	if w := executeFrom(handler, "/api/auth/signup", "10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("after window: status %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSlidingWindow_RoutesHaveSeparateBudgets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := newTestLimiter(&now)
	signup := SlidingWindow(limiter, "signup", nil)(simpleOKHandler)
	reports := SlidingWindow(limiter, "reports", nil)(simpleOKHandler)

	for i := 0; i < 5; i++ {
		executeFrom(signup, "/api/auth/signup", "10.0.0.1")
	}
	if w := executeFrom(signup, "/api/auth/signup", "10.0.0.1"); w.Code != http.StatusTooManyRequests {
		t.Errorf("signup: status %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w := executeFrom(reports, "/api/reports", "10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("reports: status %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSlidingWindow_UnknownClientsShareBucket(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	handler := SlidingWindow(newTestLimiter(&now), "signup", nil)(simpleOKHandler)

	for i := 0; i < 5; i++ {
		executeFrom(handler, "/api/auth/signup", "")
	}
	if w := executeFrom(handler, "/api/auth/signup", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("status %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestSlidingWindow_FailsOpen(t *testing.T) {
	limiter := ratelimit.New(failingStore{}, ratelimit.DefaultConfig())
	handler := SlidingWindow(limiter, "signup", nil)(simpleOKHandler)

	for i := 0; i < 10; i++ {
		if w := executeFrom(handler, "/api/auth/signup", "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}
}
