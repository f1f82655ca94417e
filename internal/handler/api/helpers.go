// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/util"
)

func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

// MemberResponse is the public view of a member.
type MemberResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	City        *string   `json:"city"`
	CreatedAt   time.Time `json:"created_at"`
}

func memberResponse(m store.Member) MemberResponse {
	return MemberResponse{
		ID:          m.ID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		City:        util.PtrFromNullString(m.City),
		CreatedAt:   m.CreatedAt,
	}
}

// PostResponse is the public view of a post. BodyHTML is already sanitized.
type PostResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	BodyHTML  string    `json:"body_html"`
	City      *string   `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

func postResponse(p store.Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		BodyHTML:  p.BodyHTML,
		City:      util.PtrFromNullString(p.City),
		CreatedAt: p.CreatedAt,
	}
}

// FlagResponse is the admin view of a moderation flag.
type FlagResponse struct {
	ID          string    `json:"id"`
	ContentType string    `json:"content_type"`
	ContentID   *string   `json:"content_id"`
	Reason      string    `json:"reason"`
	Snippet     *string   `json:"snippet"`
	AuthorID    *string   `json:"author_id"`
	Status      string    `json:"status"`
	ReviewedBy  *string   `json:"reviewed_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func flagResponse(f store.FlaggedContent) FlagResponse {
	return FlagResponse{
		ID:          f.ID,
		ContentType: f.ContentType,
		ContentID:   util.PtrFromNullString(f.ContentID),
		Reason:      f.Reason,
		Snippet:     util.PtrFromNullString(f.Snippet),
		AuthorID:    util.PtrFromNullString(f.AuthorID),
		Status:      f.Status,
		ReviewedBy:  util.PtrFromNullString(f.ReviewedBy),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func flagResponses(items []store.FlaggedContent) []FlagResponse {
	out := make([]FlagResponse, 0, len(items))
	for _, f := range items {
		out = append(out, flagResponse(f))
	}
	return out
}

// nullCity canonicalizes an optional city for storage.
func nullCity(raw string) sql.NullString {
	return util.NullStringFromValue(util.CanonicalCity(raw))
}
