// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createPost = `
INSERT INTO posts (id, author_id, body_html, city, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, author_id, body_html, city, created_at
`

// CreatePostParams holds the columns for a new post row.
type CreatePostParams struct {
	ID        string
	AuthorID  string
	BodyHTML  string
	City      sql.NullString
	CreatedAt time.Time
}

// CreatePost inserts a post.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.ID,
		arg.AuthorID,
		arg.BodyHTML,
		arg.City,
		arg.CreatedAt,
	)
	var p Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.BodyHTML, &p.City, &p.CreatedAt)
	return p, err
}

const getPostByID = `SELECT id, author_id, body_html, city, created_at FROM posts WHERE id = ?`

// GetPostByID returns sql.ErrNoRows when the post does not exist.
func (q *Queries) GetPostByID(ctx context.Context, id string) (Post, error) {
	var p Post
	err := q.db.QueryRowContext(ctx, getPostByID, id).Scan(&p.ID, &p.AuthorID, &p.BodyHTML, &p.City, &p.CreatedAt)
	return p, err
}
