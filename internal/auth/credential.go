// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth resolves administrative credentials and hashes member
// passwords.
package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// AdminCodeHeader carries the shared admin code for scripted access.
const AdminCodeHeader = "X-Admin-Code"

// Via names the credential path that authorized a request.
type Via string

// Credential paths.
const (
	ViaHeader  Via = "header"
	ViaSession Via = "session"
)

// Credential is the per-request authorization result. It is never persisted.
type Credential struct {
	IsAdmin bool `json:"is_admin"`
	Via     Via  `json:"via,omitempty"`
}

// Identity is the member resolved from a session.
type Identity struct {
	MemberID string
	Email    string
}

// IdentityProvider resolves the caller's identity from request cookies.
// A nil identity with a nil error means the request carries no session.
type IdentityProvider interface {
	Identity(r *http.Request) (*Identity, error)
}

// Strategy is one credential path. definite reports whether the strategy
// reached a decision; when false the resolver moves to the next strategy.
type Strategy interface {
	Via() Via
	TryAuthorize(r *http.Request) (authorized, definite bool)
}

// HeaderCodeStrategy authorizes requests whose X-Admin-Code header equals
// the configured code.
type HeaderCodeStrategy struct {
	Code string
}

// Via implements Strategy.
func (s HeaderCodeStrategy) Via() Via { return ViaHeader }

// TryAuthorize implements Strategy.
// TODO: plain equality is kept pending a security review of timing exposure.
func (s HeaderCodeStrategy) TryAuthorize(r *http.Request) (bool, bool) {
	if s.Code == "" {
		return false, false
	}
	if r.Header.Get(AdminCodeHeader) == s.Code {
		return true, true
	}
	return false, false
}

// SessionEmailStrategy authorizes requests whose session identity carries
// the configured administrator email, compared case-insensitively.
type SessionEmailStrategy struct {
	Email      string
	Identities IdentityProvider
}

// Via implements Strategy.
func (s SessionEmailStrategy) Via() Via { return ViaSession }

// TryAuthorize implements Strategy. Lookup failures count as "no identity".
func (s SessionEmailStrategy) TryAuthorize(r *http.Request) (bool, bool) {
	if s.Email == "" || s.Identities == nil {
		return false, false
	}

	identity, err := s.Identities.Identity(r)
	if err != nil {
		slog.Debug("session identity lookup failed", "error", err, "path", r.URL.Path)
		return false, false
	}
	if identity == nil {
		return false, false
	}

	if strings.EqualFold(strings.TrimSpace(identity.Email), s.Email) {
		return true, true
	}
	return false, false
}

// Resolver tries each strategy in order and returns the first definite
// result. When no strategy decides, the request is denied.
type Resolver struct {
	strategies []Strategy
}

// NewResolver creates a resolver over the given strategies.
func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// NewAdminResolver builds the header-then-session resolver. An empty code or
// email leaves the corresponding path out entirely.
func NewAdminResolver(code, email string, identities IdentityProvider) *Resolver {
	var strategies []Strategy
	if code != "" {
		strategies = append(strategies, HeaderCodeStrategy{Code: code})
	}
	email = strings.TrimSpace(email)
	if email != "" && identities != nil {
		strategies = append(strategies, SessionEmailStrategy{Email: email, Identities: identities})
	}
	return NewResolver(strategies...)
}

// Append adds a strategy after the existing ones.
func (res *Resolver) Append(s Strategy) {
	res.strategies = append(res.strategies, s)
}

// Enabled reports whether any credential path is configured.
func (res *Resolver) Enabled() bool {
	return len(res.strategies) > 0
}

// Resolve returns the authorization decision for r.
func (res *Resolver) Resolve(r *http.Request) Credential {
	for _, s := range res.strategies {
		authorized, definite := s.TryAuthorize(r)
		if !definite {
			continue
		}
		if authorized {
			return Credential{IsAdmin: true, Via: s.Via()}
		}
		return Credential{}
	}
	return Credential{}
}

// IsAdmin is shorthand for Resolve(r).IsAdmin.
func (res *Resolver) IsAdmin(r *http.Request) bool {
	return res.Resolve(r).IsAdmin
}
