// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics holds the operator-facing counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	FlagsRecorded     *prometheus.CounterVec
	FlagWriteFailures prometheus.Counter
	RateLimitDenied   *prometheus.CounterVec
	AdminAuthDenied   prometheus.Counter
}

// New creates and registers all counters.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FlagsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nwc_moderation_flags_recorded_total",
				Help: "Moderation flags persisted, by reason.",
			},
			[]string{"reason"},
		),
		FlagWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nwc_moderation_flag_write_failures_total",
			Help: "Moderation flag writes that failed and were dropped.",
		}),
		RateLimitDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nwc_ratelimit_denied_total",
				Help: "Requests rejected by the sliding-window limiter, by route.",
			},
			[]string{"route"},
		),
		AdminAuthDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nwc_admin_auth_denied_total",
			Help: "Requests to admin routes without a valid credential.",
		}),
	}

	m.registry.MustRegister(
		m.FlagsRecorded,
		m.FlagWriteFailures,
		m.RateLimitDenied,
		m.AdminAuthDenied,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// FlagRecorded counts one persisted flag. Safe on a nil receiver.
func (m *Metrics) FlagRecorded(reason string) {
	if m == nil {
		return
	}
	m.FlagsRecorded.WithLabelValues(reason).Inc()
}

// FlagWriteFailed counts one dropped flag write. Safe on a nil receiver.
func (m *Metrics) FlagWriteFailed() {
	if m == nil {
		return
	}
	m.FlagWriteFailures.Inc()
}

// RateLimited counts one denial on route. Safe on a nil receiver.
func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.RateLimitDenied.WithLabelValues(route).Inc()
}

// AdminDenied counts one rejected admin request. Safe on a nil receiver.
func (m *Metrics) AdminDenied() {
	if m == nil {
		return
	}
	m.AdminAuthDenied.Inc()
}
