// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary test database with all migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "nwc-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// CreateTestMember inserts a member with a placeholder password hash.
func CreateTestMember(t *testing.T, db *sql.DB, email string) store.Member {
	t.Helper()

	now := time.Now().UTC()
	m, err := store.New(db).CreateMember(context.Background(), store.CreateMemberParams{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "x",
		DisplayName:  "Test Member",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	return m
}

// CreateTestFlag inserts a pending flag and returns it.
func CreateTestFlag(t *testing.T, db *sql.DB, contentType, reason string) store.FlaggedContent {
	t.Helper()

	f, err := store.New(db).CreateFlaggedContent(context.Background(), store.CreateFlaggedContentParams{
		ID:          uuid.NewString(),
		ContentType: contentType,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateFlaggedContent: %v", err)
	}
	return f
}
