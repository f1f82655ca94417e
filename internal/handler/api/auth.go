// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/auth"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/middleware"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/model"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/ratelimit"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/session"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
)

// Field limits for member signup.
const (
	minPasswordLen    = 8
	maxPasswordLen    = 128
	maxDisplayNameLen = 80
	maxCityLen        = 100
	maxEmailLen       = 254
)

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	City        string `json:"city"`
}

func (req *SignupRequest) validate() *model.ValidationError {
	ve := &model.ValidationError{}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		ve.Add("email", "Email is required")
	} else if len(req.Email) > maxEmailLen {
		ve.Add("email", "Email is too long")
	} else if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		ve.Add("email", "Email is invalid")
	}

	switch n := utf8.RuneCountInString(req.Password); {
	case n < minPasswordLen:
		ve.Add("password", "Password must be at least "+strconv.Itoa(minPasswordLen)+" characters")
	case n > maxPasswordLen:
		ve.Add("password", "Password is too long")
	}

	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		ve.Add("display_name", "Display name is required")
	} else if utf8.RuneCountInString(req.DisplayName) > maxDisplayNameLen {
		ve.Add("display_name", "Display name is too long")
	}

	if utf8.RuneCountInString(req.City) > maxCityLen {
		ve.Add("city", "City is too long")
	}

	return ve
}

// Signup creates a member and signs them in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ve := req.validate(); ve.HasErrors() {
		WriteValidationError(w, ve.Fields)
		return
	}

	ctx := r.Context()
	if _, err := h.queries.GetMemberByEmail(ctx, req.Email); err == nil {
		WriteValidationError(w, map[string]string{"email": "Email is already registered"})
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("failed to check email", "error", err)
		WriteInternalError(w, "Failed to create account")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		WriteInternalError(w, "Failed to create account")
		return
	}

	now := h.now().UTC()
	member, err := h.queries.CreateMember(ctx, store.CreateMemberParams{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		City:         nullCity(req.City),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		slog.Error("failed to create member", "error", err)
		WriteInternalError(w, "Failed to create account")
		return
	}

	if err := session.Login(ctx, h.Sessions, member.ID); err != nil {
		slog.Error("failed to start session", "error", err, "member_id", member.ID)
		WriteInternalError(w, "Failed to sign in")
		return
	}

	_ = h.Events.LogAuthEvent(ctx, model.EventLevelInfo, "member signed up", ratelimit.Identify(r), map[string]any{
		"member_id": member.ID,
	})
	WriteCreated(w, memberResponse(member))
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and starts a session. Every failure gets the
// same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		WriteValidationError(w, map[string]string{"credentials": "Email and password are required"})
		return
	}

	ctx := r.Context()
	ip := ratelimit.Identify(r)

	if locked, remaining := h.Lockout.IsAccountLocked(req.Email); locked {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
		WriteError(w, http.StatusTooManyRequests, "account_locked", "Too many failed sign-in attempts. Try again later.", nil)
		return
	}

	member, err := h.queries.GetMemberByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Error("failed to load member", "error", err)
		WriteInternalError(w, "Failed to sign in")
		return
	}

	valid := false
	if err == nil {
		valid, err = auth.CheckPassword(req.Password, member.PasswordHash)
		if err != nil {
			slog.Error("stored password hash is unreadable", "error", err, "member_id", member.ID)
			valid = false
		}
	}

	if !valid {
		h.Lockout.RecordFailedAttempt(req.Email)
		_ = h.Events.LogAuthEvent(ctx, model.EventLevelWarning, "login failed", ip, map[string]any{
			"email": strings.ToLower(req.Email),
		})
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	h.Lockout.RecordSuccessfulLogin(req.Email)
	if err := session.Login(ctx, h.Sessions, member.ID); err != nil {
		slog.Error("failed to start session", "error", err, "member_id", member.ID)
		WriteInternalError(w, "Failed to sign in")
		return
	}

	_ = h.Events.LogAuthEvent(ctx, model.EventLevelInfo, "member logged in", ip, map[string]any{
		"member_id": member.ID,
	})
	WriteSuccess(w, memberResponse(member), nil)
}

// Logout ends the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := session.Logout(r.Context(), h.Sessions); err != nil {
		slog.Error("failed to destroy session", "error", err)
		WriteInternalError(w, "Failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in member.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	member, err := h.queries.GetMemberByID(r.Context(), identity.MemberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteUnauthorized(w, "Sign in required")
			return
		}
		slog.Error("failed to load member", "error", err, "member_id", identity.MemberID)
		WriteInternalError(w, "Failed to load account")
		return
	}
	WriteSuccess(w, memberResponse(member), nil)
}
