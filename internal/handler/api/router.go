// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/auth"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/middleware"
)

// Route names double as rate-limit key namespaces.
const (
	routeSignup = "signup"
	routeLogin  = "login"
	routeReport = "report"
)

// requestTimeout bounds every request.
const requestTimeout = 30 * time.Second

// NewRouter mounts every route. chi's RealIP is not used: client keys are
// derived from the raw forwarding headers.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(h.IsDevelopment)))
	r.Use(middleware.Timeout(requestTimeout))
	if len(h.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", auth.AdminCodeHeader},
			ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(h.Sessions.LoadAndSave)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		if h.Throttle != nil {
			r.Use(h.Throttle.Middleware())
		}
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(h.CSRFKey, h.IsDevelopment, originHosts(h.CORSOrigins))))
		r.Use(middleware.LoadMember(h.Identities))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.SlidingWindow(h.Limiter, routeSignup, h.Metrics)).Post("/signup", h.Signup)
			r.With(middleware.SlidingWindow(h.Limiter, routeLogin, h.Metrics)).Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.With(middleware.RequireMember).Get("/me", h.Me)
		})

		r.Get("/cities", h.ListCities)

		r.With(middleware.RequireMember).Post("/posts", h.CreatePost)
		r.Get("/posts/{id}", h.GetPost)

		r.With(middleware.SlidingWindow(h.Limiter, routeReport, h.Metrics)).Post("/reports", h.CreateReport)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.Resolver, h.Metrics))

			r.Get("/whoami", h.WhoAmI)
			r.Get("/flags", h.ListFlags)
			r.Get("/flags/{id}", h.GetFlag)
			r.Patch("/flags/{id}", h.UpdateFlag)
			r.Get("/events", h.ListEvents)
			r.Get("/metrics", h.ServeMetrics)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	return r
}

// originHosts converts CORS origins (full URLs) to the host-only form the
// CSRF middleware trusts.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
