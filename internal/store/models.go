// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// Member is a registered community member.
type Member struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	City         sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Post is a social feed post. BodyHTML is always sanitized before insert.
type Post struct {
	ID        string
	AuthorID  string
	BodyHTML  string
	City      sql.NullString
	CreatedAt time.Time
}

// FlaggedContent is one moderation event raised against a piece of content.
type FlaggedContent struct {
	ID          string
	ContentType string
	ContentID   sql.NullString
	Reason      string
	Snippet     sql.NullString
	AuthorID    sql.NullString
	Status      string
	ReviewedBy  sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event is an operator-facing event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string // JSON object
	IpAddress string
	CreatedAt time.Time
}
