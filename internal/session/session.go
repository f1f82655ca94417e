// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session issues and verifies member sessions.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/auth"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
)

// KeyMemberID is the session key holding the signed-in member's ID.
const KeyMemberID = "member_id"

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// Login binds memberID to the session, renewing the token first so a
// pre-login token cannot be reused.
func Login(ctx context.Context, sm *scs.SessionManager, memberID string) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	sm.Put(ctx, KeyMemberID, memberID)
	return nil
}

// Logout destroys the session.
func Logout(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}

// Identities resolves the session's member. It must run behind
// sm.LoadAndSave.
type Identities struct {
	sm      *scs.SessionManager
	queries *store.Queries
}

// NewIdentities creates an identity provider backed by the members table.
func NewIdentities(sm *scs.SessionManager, db store.DBTX) *Identities {
	return &Identities{sm: sm, queries: store.New(db)}
}

// Identity implements auth.IdentityProvider.
func (i *Identities) Identity(r *http.Request) (*auth.Identity, error) {
	memberID := i.sm.GetString(r.Context(), KeyMemberID)
	if memberID == "" {
		return nil, nil
	}

	member, err := i.queries.GetMemberByID(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading member %s: %w", memberID, err)
	}

	return &auth.Identity{MemberID: member.ID, Email: member.Email}, nil
}
