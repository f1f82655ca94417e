// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/auth"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/middleware"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/moderation"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/ratelimit"
)

// headerActor labels changes made with the shared admin code.
const headerActor = "admin-code"

// ListFlags returns one page of moderation flags.
func (h *Handler) ListFlags(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)

	items, total, err := h.Reviewer.List(r.Context(), r.URL.Query().Get("status"),
		int64(perPage), int64((page-1)*perPage))
	if err != nil {
		if writeIfValidation(w, err) {
			return
		}
		slog.Error("failed to list flags", "error", err)
		WriteInternalError(w, "Failed to list flags")
		return
	}

	WriteSuccess(w, flagResponses(items), newMeta(total, page, perPage))
}

// GetFlag returns one flag.
func (h *Handler) GetFlag(w http.ResponseWriter, r *http.Request) {
	flag, err := h.Reviewer.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, moderation.ErrFlagNotFound) {
			WriteNotFound(w, "Flag not found")
			return
		}
		slog.Error("failed to load flag", "error", err)
		WriteInternalError(w, "Failed to retrieve flag")
		return
	}
	WriteSuccess(w, flagResponse(flag), nil)
}

// UpdateFlagRequest is the body of PATCH /api/admin/flags/{id}.
type UpdateFlagRequest struct {
	Status string `json:"status"`
}

// UpdateFlag moves a flag forward through its review states.
func (h *Handler) UpdateFlag(w http.ResponseWriter, r *http.Request) {
	var req UpdateFlagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	flag, err := h.Reviewer.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, h.actor(r))
	if err != nil {
		switch {
		case writeIfValidation(w, err):
		case errors.Is(err, moderation.ErrFlagNotFound):
			WriteNotFound(w, "Flag not found")
		case errors.Is(err, moderation.ErrInvalidTransition):
			WriteConflict(w, "invalid_transition", "Flag status cannot move backwards")
		case errors.Is(err, moderation.ErrConcurrentUpdate):
			WriteConflict(w, "conflict", "Flag was modified concurrently, retry")
		default:
			slog.Error("failed to update flag", "error", err)
			WriteInternalError(w, "Failed to update flag")
		}
		return
	}

	WriteSuccess(w, flagResponse(flag), nil)
}

// actor names the administrator for audit records.
func (h *Handler) actor(r *http.Request) moderation.Actor {
	cred, _ := middleware.GetAdminCredential(r)
	actor := moderation.Actor{
		ID:        headerActor,
		Via:       string(cred.Via),
		IPAddress: ratelimit.Identify(r),
	}
	if cred.Via == auth.ViaSession {
		if identity := middleware.GetIdentity(r); identity != nil {
			actor.ID = identity.MemberID
		}
	}
	return actor
}

// EventResponse is the admin view of an event log entry.
type EventResponse struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
	IPAddress string          `json:"ip_address,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListEvents returns recent event log entries, newest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, perPage := parsePagination(r)

	events, err := h.Events.ListEvents(r.Context(), int64(perPage), int64((page-1)*perPage))
	if err != nil {
		slog.Error("failed to list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}

	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		md := json.RawMessage(e.Metadata)
		if !json.Valid(md) {
			md = json.RawMessage("{}")
		}
		out = append(out, EventResponse{
			ID:        e.ID,
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			Metadata:  md,
			IPAddress: e.IpAddress,
			CreatedAt: e.CreatedAt,
		})
	}
	WriteSuccess(w, out, nil)
}

// ServeMetrics serves the Prometheus exposition.
func (h *Handler) ServeMetrics(w http.ResponseWriter, r *http.Request) {
	h.Metrics.Handler().ServeHTTP(w, r)
}

// WhoAmI reports which credential path authorized the caller.
func (h *Handler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	cred, _ := middleware.GetAdminCredential(r)
	WriteSuccess(w, cred, nil)
}
