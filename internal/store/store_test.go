// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"
)

// testDB creates a temporary migrated test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "nwc-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}

	return db, cleanup
}

func createTestMember(t *testing.T, q *Queries, id, email, city string) Member {
	t.Helper()
	now := time.Now().UTC()
	m, err := q.CreateMember(context.Background(), CreateMemberParams{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  "Test",
		City:         sql.NullString{String: city, Valid: city != ""},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	return m
}

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestCreateAndGetMember(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	created := createTestMember(t, q, "m-1", "jane@example.com", "Spokane")
	if created.Email != "jane@example.com" {
		t.Errorf("Email = %q, want %q", created.Email, "jane@example.com")
	}

	got, err := q.GetMemberByID(ctx, "m-1")
	if err != nil {
		t.Fatalf("GetMemberByID: %v", err)
	}
	if got.City.String != "Spokane" {
		t.Errorf("City = %q, want %q", got.City.String, "Spokane")
	}

	byEmail, err := q.GetMemberByEmail(ctx, "JANE@Example.com")
	if err != nil {
		t.Fatalf("GetMemberByEmail (case-insensitive): %v", err)
	}
	if byEmail.ID != "m-1" {
		t.Errorf("ID = %q, want %q", byEmail.ID, "m-1")
	}

	if _, err := q.GetMemberByID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetMemberByID(missing) error = %v, want sql.ErrNoRows", err)
	}
}

func TestCreateMember_DuplicateEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createTestMember(t, q, "m-1", "jane@example.com", "")

	now := time.Now().UTC()
	_, err := q.CreateMember(context.Background(), CreateMemberParams{
		ID:           "m-2",
		Email:        "Jane@Example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err == nil {
		t.Fatal("expected unique violation for email differing only in case")
	}
}

func TestListCities_OrderedByCreation(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	createTestMember(t, q, "m-1", "a@example.com", "Coeur D'Alene")
	createTestMember(t, q, "m-2", "b@example.com", "")

	_, err := q.CreatePost(ctx, CreatePostParams{
		ID:        "p-1",
		AuthorID:  "m-2",
		BodyHTML:  "<p>hi</p>",
		City:      sql.NullString{String: "Spokane", Valid: true},
		CreatedAt: time.Now().UTC().Add(time.Second),
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	cities, err := q.ListCities(ctx)
	if err != nil {
		t.Fatalf("ListCities: %v", err)
	}
	if len(cities) != 2 {
		t.Fatalf("len(cities) = %d, want 2", len(cities))
	}
	if cities[0].String != "Coeur D'Alene" || cities[1].String != "Spokane" {
		t.Errorf("cities = %v, want [Coeur D'Alene Spokane]", cities)
	}
}

func TestFlaggedContent_CreateListUpdate(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	now := time.Now().UTC()

	for i, id := range []string{"f-1", "f-2"} {
		_, err := q.CreateFlaggedContent(ctx, CreateFlaggedContentParams{
			ID:          id,
			ContentType: "post",
			ContentID:   sql.NullString{String: "p-1", Valid: true},
			Reason:      "profanity",
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("CreateFlaggedContent(%s): %v", id, err)
		}
	}

	flag, err := q.GetFlaggedContent(ctx, "f-1")
	if err != nil {
		t.Fatalf("GetFlaggedContent: %v", err)
	}
	if flag.Status != "pending" {
		t.Errorf("Status = %q, want pending", flag.Status)
	}

	n, err := q.UpdateFlaggedContentStatus(ctx, UpdateFlaggedContentStatusParams{
		Status:     "reviewed",
		ReviewedBy: sql.NullString{String: "admin@example.com", Valid: true},
		UpdatedAt:  now,
		ID:         "f-1",
		FromStatus: "pending",
	})
	if err != nil {
		t.Fatalf("UpdateFlaggedContentStatus: %v", err)
	}
	if n != 1 {
		t.Errorf("rows affected = %d, want 1", n)
	}

	// Stale FromStatus must not match.
	n, err = q.UpdateFlaggedContentStatus(ctx, UpdateFlaggedContentStatusParams{
		Status:     "resolved",
		UpdatedAt:  now,
		ID:         "f-1",
		FromStatus: "pending",
	})
	if err != nil {
		t.Fatalf("UpdateFlaggedContentStatus (stale): %v", err)
	}
	if n != 0 {
		t.Errorf("rows affected = %d, want 0 for stale status", n)
	}

	pending, err := q.ListFlaggedContent(ctx, ListFlaggedContentParams{
		Status: sql.NullString{String: "pending", Valid: true},
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("ListFlaggedContent: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "f-2" {
		t.Errorf("pending = %+v, want only f-2", pending)
	}

	all, err := q.CountFlaggedContent(ctx, sql.NullString{})
	if err != nil {
		t.Fatalf("CountFlaggedContent: %v", err)
	}
	if all != 2 {
		t.Errorf("count = %d, want 2", all)
	}
}

func TestFlaggedContent_RejectsUnknownStatus(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	now := time.Now().UTC()

	if _, err := q.CreateFlaggedContent(ctx, CreateFlaggedContentParams{
		ID: "f-1", ContentType: "post", Reason: "slur", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateFlaggedContent: %v", err)
	}

	_, err := q.UpdateFlaggedContentStatus(ctx, UpdateFlaggedContentStatusParams{
		Status: "archived", UpdatedAt: now, ID: "f-1", FromStatus: "pending",
	})
	if err == nil {
		t.Fatal("expected CHECK constraint failure for status 'archived'")
	}
}

func TestEvents_CreateListDelete(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	now := time.Now().UTC()

	old, err := q.CreateEvent(ctx, CreateEventParams{
		Level: "warning", Category: "system", Message: "old", Metadata: "{}", CreatedAt: now.Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if _, err := q.CreateEvent(ctx, CreateEventParams{
		Level: "info", Category: "admin", Message: "new", Metadata: "{}", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	deleted, err := q.DeleteEventsBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	events, err := q.ListEvents(ctx, ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID == old.ID {
		t.Errorf("events = %+v, want only the new event", events)
	}
}
