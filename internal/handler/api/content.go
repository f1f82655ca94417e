// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/middleware"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/model"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/moderation"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/ratelimit"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/sanitize"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/util"
)

// maxPostRunes caps the raw body of a post.
const maxPostRunes = 20000

// ListCities returns the deduplicated, canonical city list for filters.
func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	raw, err := h.queries.ListCities(r.Context())
	if err != nil {
		slog.Error("failed to list cities", "error", err)
		WriteInternalError(w, "Failed to list cities")
		return
	}

	cities := make([]*string, 0, len(raw))
	for _, c := range raw {
		cities = append(cities, util.PtrFromNullString(c))
	}
	WriteSuccess(w, util.DedupeCities(cities), nil)
}

// CreatePostRequest is the body of POST /api/posts. Exactly one of HTML
// or Markdown is set.
type CreatePostRequest struct {
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
	City     string `json:"city"`
}

func (req *CreatePostRequest) body() (string, *model.ValidationError) {
	ve := &model.ValidationError{}

	hasHTML := strings.TrimSpace(req.HTML) != ""
	hasMarkdown := strings.TrimSpace(req.Markdown) != ""
	switch {
	case hasHTML && hasMarkdown:
		ve.Add("body", "Provide either html or markdown, not both")
	case !hasHTML && !hasMarkdown:
		ve.Add("body", "Post body is required")
	case utf8.RuneCountInString(req.HTML)+utf8.RuneCountInString(req.Markdown) > maxPostRunes:
		ve.Add("body", "Post body is too long")
	}
	if utf8.RuneCountInString(req.City) > maxCityLen {
		ve.Add("city", "City is too long")
	}
	if ve.HasErrors() {
		return "", ve
	}

	var body string
	if hasMarkdown {
		rendered, err := sanitize.MarkdownToSafeHTML(req.Markdown)
		if err != nil {
			ve.Add("markdown", "Markdown could not be rendered")
			return "", ve
		}
		body = rendered
	} else {
		body = sanitize.Sanitize(req.HTML)
	}

	if strings.TrimSpace(sanitize.PlainText(body)) == "" {
		ve.Add("body", "Post has no content after sanitization")
		return "", ve
	}
	return body, nil
}

// CreatePost stores a sanitized post and screens it for moderation in the
// background. The post is saved whatever the screening outcome.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	body, ve := req.body()
	if ve.HasErrors() {
		WriteValidationError(w, ve.Fields)
		return
	}

	identity := middleware.GetIdentity(r)
	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		ID:        uuid.NewString(),
		AuthorID:  identity.MemberID,
		BodyHTML:  body,
		City:      nullCity(req.City),
		CreatedAt: h.now().UTC(),
	})
	if err != nil {
		slog.Error("failed to create post", "error", err, "author_id", identity.MemberID)
		WriteInternalError(w, "Failed to create post")
		return
	}

	if h.Screener != nil {
		h.Screener.Screen(r.Context(), moderation.Content{
			Type:     model.ContentTypePost,
			ID:       post.ID,
			AuthorID: post.AuthorID,
			Text:     sanitize.PlainText(post.BodyHTML),
		})
	}

	WriteCreated(w, postResponse(post))
}

// GetPost returns one post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requirePost(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	WriteSuccess(w, postResponse(post), nil)
}

// requirePost loads a post by ID. Returns false if the response was written.
func (h *Handler) requirePost(w http.ResponseWriter, r *http.Request, id string) (store.Post, bool) {
	if _, err := uuid.Parse(id); err != nil {
		WriteNotFound(w, "Post not found")
		return store.Post{}, false
	}

	post, err := h.queries.GetPostByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
		} else {
			slog.Error("failed to load post", "error", err, "post_id", id)
			WriteInternalError(w, "Failed to retrieve post")
		}
		return store.Post{}, false
	}
	return post, true
}

// ReportRequest is the body of POST /api/reports.
type ReportRequest struct {
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
	Reason      string `json:"reason"`
	Snippet     string `json:"snippet"`
}

// ReportResponse acknowledges a report.
type ReportResponse struct {
	Status string `json:"status"`
}

// CreateReport records a member or anonymous report as a pending flag.
// Reports against posts must reference an existing post.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ve := &model.ValidationError{}
	contentType, err := model.ParseContentType(strings.TrimSpace(req.ContentType))
	ve.Merge(err)
	reason, err := model.ParseReason(strings.TrimSpace(req.Reason))
	ve.Merge(err)
	req.ContentID = strings.TrimSpace(req.ContentID)
	if contentType == model.ContentTypePost && req.ContentID == "" {
		ve.Add("content_id", "content_id is required for posts")
	}
	if ve.HasErrors() {
		WriteValidationError(w, ve.Fields)
		return
	}

	flag := moderation.Flag{
		ContentType: contentType,
		ContentID:   req.ContentID,
		Reason:      reason,
		Snippet:     strings.TrimSpace(req.Snippet),
	}

	if contentType == model.ContentTypePost {
		post, ok := h.requirePost(w, r, req.ContentID)
		if !ok {
			return
		}
		flag.AuthorID = post.AuthorID
		if flag.Snippet == "" {
			flag.Snippet = sanitize.PlainText(post.BodyHTML)
		}
	}

	reporter := ""
	if identity := middleware.GetIdentity(r); identity != nil {
		reporter = identity.MemberID
	}
	slog.Info("content reported",
		"content_type", contentType,
		"content_id", req.ContentID,
		"reason", reason,
		"reporter", reporter,
		"ip", ratelimit.Identify(r),
		"category", model.EventCategoryModeration,
	)

	h.Recorder.RecordAsync(r.Context(), flag)
	WriteJSON(w, http.StatusAccepted, Response{Data: ReportResponse{Status: "received"}})
}
