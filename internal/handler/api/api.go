// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON HTTP handlers for the community API.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/auth"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/metrics"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/middleware"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/model"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/moderation"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/ratelimit"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/service"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/version"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Pagination bounds for list endpoints.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Deps carries everything the handlers and router need.
type Deps struct {
	DB         *sql.DB
	Sessions   *scs.SessionManager
	Identities auth.IdentityProvider
	Resolver   *auth.Resolver
	Limiter    *ratelimit.Limiter
	Throttle   *middleware.GlobalRateLimiter
	Lockout    *middleware.LoginProtection
	Recorder   *moderation.Recorder
	Screener   *moderation.Screener
	Reviewer   *moderation.Reviewer
	Events     *service.EventService
	Metrics    *metrics.Metrics
	Version    version.Info

	IsDevelopment bool
	CSRFKey       []byte
	CORSOrigins   []string
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	Deps
	queries *store.Queries
	now     func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		Deps:    d,
		queries: store.New(d.DB),
		now:     time.Now,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

func newMeta(total int64, page, perPage int) *Meta {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &Meta{Total: total, Page: page, PerPage: perPage, Pages: pages}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	middleware.WriteAPIError(w, statusCode, code, message, details)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusConflict, code, message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// writeIfValidation renders err as a 422 when it is a *model.ValidationError.
func writeIfValidation(w http.ResponseWriter, err error) bool {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		WriteValidationError(w, ve.Fields)
		return true
	}
	return false
}

// decodeJSON reads a bounded JSON body into dst. On failure the response
// has been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
		case errors.Is(err, io.EOF):
			WriteBadRequest(w, "Request body is empty", nil)
		default:
			WriteBadRequest(w, "Invalid JSON body", nil)
		}
		return false
	}
	return true
}

// parsePagination reads page and per_page query parameters.
func parsePagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return page, min(perPage, maxPerPage)
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok", Version: h.Version.Version})
}
