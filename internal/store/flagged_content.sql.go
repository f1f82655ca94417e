// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const flagColumns = `id, content_type, content_id, reason, snippet, author_id, status, reviewed_by, created_at, updated_at`

func scanFlag(row interface{ Scan(...any) error }) (FlaggedContent, error) {
	var f FlaggedContent
	err := row.Scan(
		&f.ID,
		&f.ContentType,
		&f.ContentID,
		&f.Reason,
		&f.Snippet,
		&f.AuthorID,
		&f.Status,
		&f.ReviewedBy,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	return f, err
}

const createFlaggedContent = `
INSERT INTO flagged_content (id, content_type, content_id, reason, snippet, author_id, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 'pending', ?, ?)
RETURNING ` + flagColumns

// CreateFlaggedContentParams holds the columns for a new flag. Status is
// always inserted as pending.
type CreateFlaggedContentParams struct {
	ID          string
	ContentType string
	ContentID   sql.NullString
	Reason      string
	Snippet     sql.NullString
	AuthorID    sql.NullString
	CreatedAt   time.Time
}

// CreateFlaggedContent inserts a pending flag.
func (q *Queries) CreateFlaggedContent(ctx context.Context, arg CreateFlaggedContentParams) (FlaggedContent, error) {
	row := q.db.QueryRowContext(ctx, createFlaggedContent,
		arg.ID,
		arg.ContentType,
		arg.ContentID,
		arg.Reason,
		arg.Snippet,
		arg.AuthorID,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanFlag(row)
}

const getFlaggedContent = `SELECT ` + flagColumns + ` FROM flagged_content WHERE id = ?`

// GetFlaggedContent returns sql.ErrNoRows when the flag does not exist.
func (q *Queries) GetFlaggedContent(ctx context.Context, id string) (FlaggedContent, error) {
	return scanFlag(q.db.QueryRowContext(ctx, getFlaggedContent, id))
}

const listFlaggedContent = `
SELECT ` + flagColumns + `
FROM flagged_content
WHERE (? IS NULL OR status = ?)
ORDER BY created_at DESC, id
LIMIT ? OFFSET ?
`

// ListFlaggedContentParams filters and pages the flag list. A null Status
// lists every status.
type ListFlaggedContentParams struct {
	Status sql.NullString
	Limit  int64
	Offset int64
}

// ListFlaggedContent returns flags newest first.
func (q *Queries) ListFlaggedContent(ctx context.Context, arg ListFlaggedContentParams) ([]FlaggedContent, error) {
	rows, err := q.db.QueryContext(ctx, listFlaggedContent, arg.Status, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []FlaggedContent
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countFlaggedContent = `SELECT COUNT(*) FROM flagged_content WHERE (? IS NULL OR status = ?)`

// CountFlaggedContent counts flags with the given status, or all flags when
// status is null.
func (q *Queries) CountFlaggedContent(ctx context.Context, status sql.NullString) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countFlaggedContent, status, status).Scan(&n)
	return n, err
}

const updateFlaggedContentStatus = `
UPDATE flagged_content
SET status = ?, reviewed_by = ?, updated_at = ?
WHERE id = ? AND status = ?
`

// UpdateFlaggedContentStatusParams describes a compare-and-set status change:
// the row is only updated while it still has FromStatus.
type UpdateFlaggedContentStatusParams struct {
	Status     string
	ReviewedBy sql.NullString
	UpdatedAt  time.Time
	ID         string
	FromStatus string
}

// UpdateFlaggedContentStatus applies the change and returns the number of rows
// updated (0 when the row is missing or its status moved underneath us).
func (q *Queries) UpdateFlaggedContentStatus(ctx context.Context, arg UpdateFlaggedContentStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateFlaggedContentStatus,
		arg.Status,
		arg.ReviewedBy,
		arg.UpdatedAt,
		arg.ID,
		arg.FromStatus,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
