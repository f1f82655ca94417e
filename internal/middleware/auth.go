// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/auth"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/metrics"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/ratelimit"
)

// Context keys for request-scoped auth data.
const (
	ContextKeyIdentity   ContextKey = "identity"
	ContextKeyCredential ContextKey = "admin_credential"
)

// RequireAdmin creates middleware that admits only requests the resolver
// authorizes. Denials get a generic 401 that does not reveal which
// credential path was tried.
func RequireAdmin(resolver *auth.Resolver, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred := resolver.Resolve(r)
			if !cred.IsAdmin {
				m.AdminDenied()
				slog.Warn("admin access denied",
					"method", r.Method,
					"path", r.URL.Path,
					"ip", ratelimit.Identify(r),
					"category", "admin",
				)
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", nil)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyCredential, cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminCredential returns the credential stored by RequireAdmin.
func GetAdminCredential(r *http.Request) (auth.Credential, bool) {
	cred, ok := r.Context().Value(ContextKeyCredential).(auth.Credential)
	return cred, ok
}

// LoadMember creates middleware that loads the session identity into the
// request context when one exists. Lookup failures are logged and the
// request continues anonymously.
func LoadMember(identities auth.IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := identities.Identity(r)
			if err != nil {
				slog.Error("failed to load session identity", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMember rejects requests without a session identity.
// It must run after LoadMember.
func RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r) == nil {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Sign in required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetIdentity returns the session identity from the request context, or nil.
func GetIdentity(r *http.Request) *auth.Identity {
	if identity, ok := r.Context().Value(ContextKeyIdentity).(*auth.Identity); ok {
		return identity
	}
	return nil
}
