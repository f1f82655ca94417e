// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const memberColumns = `id, email, password_hash, display_name, city, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (Member, error) {
	var m Member
	err := row.Scan(
		&m.ID,
		&m.Email,
		&m.PasswordHash,
		&m.DisplayName,
		&m.City,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

const createMember = `
INSERT INTO members (id, email, password_hash, display_name, city, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + memberColumns

// CreateMemberParams holds the columns for a new member row.
type CreateMemberParams struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	City         sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateMember inserts a member.
func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (Member, error) {
	row := q.db.QueryRowContext(ctx, createMember,
		arg.ID,
		arg.Email,
		arg.PasswordHash,
		arg.DisplayName,
		arg.City,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanMember(row)
}

const getMemberByID = `SELECT ` + memberColumns + ` FROM members WHERE id = ?`

// GetMemberByID returns sql.ErrNoRows when the member does not exist.
func (q *Queries) GetMemberByID(ctx context.Context, id string) (Member, error) {
	return scanMember(q.db.QueryRowContext(ctx, getMemberByID, id))
}

const getMemberByEmail = `SELECT ` + memberColumns + ` FROM members WHERE email = ? COLLATE NOCASE`

// GetMemberByEmail looks a member up by email, ignoring case.
func (q *Queries) GetMemberByEmail(ctx context.Context, email string) (Member, error) {
	return scanMember(q.db.QueryRowContext(ctx, getMemberByEmail, email))
}

const listCities = `
SELECT city FROM (
    SELECT city, created_at FROM members WHERE city IS NOT NULL
    UNION ALL
    SELECT city, created_at FROM posts WHERE city IS NOT NULL
)
ORDER BY created_at ASC
`

// ListCities returns every city captured on members and posts, oldest first,
// exactly as stored. Callers dedupe for display.
func (q *Queries) ListCities(ctx context.Context) ([]sql.NullString, error) {
	rows, err := q.db.QueryContext(ctx, listCities)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []sql.NullString
	for rows.Next() {
		var city sql.NullString
		if err := rows.Scan(&city); err != nil {
			return nil, err
		}
		items = append(items, city)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
