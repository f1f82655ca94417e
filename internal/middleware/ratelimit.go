// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/metrics"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/ratelimit"
)

// SlidingWindow limits requests per client with the sliding-window limiter.
// Keys are namespaced by route so each endpoint has its own budget.
func SlidingWindow(limiter *ratelimit.Limiter, route string, m *metrics.Metrics) func(http.Handler) http.Handler {
	limit := strconv.Itoa(limiter.Config().MaxRequests)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ratelimit.Identify(r)
			res := limiter.Check(r.Context(), route+":"+client)

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				retry := int(math.Ceil(res.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))

				m.RateLimited(route)
				slog.Warn("rate limit exceeded",
					"route", route,
					"client", client,
					"method", r.Method,
					"path", r.URL.Path,
					"ip", client,
					"category", "ratelimit",
				)
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please wait a moment and try again.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
