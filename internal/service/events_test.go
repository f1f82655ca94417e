// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/model"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/testutil"
)

func TestNewEventService(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db)
	if svc == nil {
		t.Error("NewEventService returned nil")
	}
}

func TestLogEvent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db)
	ctx := context.Background()

	err := svc.LogEvent(ctx, model.EventLevelInfo, model.EventCategorySystem, "Test message", "192.168.1.100", map[string]any{
		"key": "value",
	})
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	events, err := svc.ListEvents(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("event count = %d, want 1", len(events))
	}

	e := events[0]
	if e.Level != model.EventLevelInfo {
		t.Errorf("level = %q, want %q", e.Level, model.EventLevelInfo)
	}
	if e.Category != model.EventCategorySystem {
		t.Errorf("category = %q, want %q", e.Category, model.EventCategorySystem)
	}
	if e.Message != "Test message" {
		t.Errorf("message = %q, want %q", e.Message, "Test message")
	}
	if e.IpAddress != "192.168.1.100" {
		t.Errorf("ip_address = %q, want %q", e.IpAddress, "192.168.1.100")
	}
	if e.Metadata != `{"key":"value"}` {
		t.Errorf("metadata = %q, want %q", e.Metadata, `{"key":"value"}`)
	}
}

func TestLogEvent_NilMetadata(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db)
	ctx := context.Background()

	if err := svc.LogWarning(ctx, model.EventCategoryRateLimit, "limited", "", nil); err != nil {
		t.Fatalf("LogWarning failed: %v", err)
	}

	events, _ := svc.ListEvents(ctx, 10, 0)
	if len(events) != 1 || events[0].Metadata != "{}" {
		t.Errorf("events = %+v, want one with {} metadata", events)
	}
	if events[0].Level != model.EventLevelWarning {
		t.Errorf("level = %q, want warning", events[0].Level)
	}
}

func TestLogHelpers(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db)
	ctx := context.Background()

	if err := svc.LogInfo(ctx, model.EventCategoryModeration, "info", "", nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.LogAuthEvent(ctx, model.EventLevelWarning, "login failed", "10.0.0.1", nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.LogAdminAction(ctx, "flag status updated", "member-1", "header", "10.0.0.2", map[string]any{"flag_id": "f1"}); err != nil {
		t.Fatal(err)
	}

	events, err := svc.ListEvents(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("event count = %d, want 3", len(events))
	}

	byMessage := make(map[string]string)
	for _, e := range events {
		byMessage[e.Message] = e.Category
	}
	if byMessage["login failed"] != model.EventCategoryAuth {
		t.Errorf("auth event category = %q", byMessage["login failed"])
	}
	if byMessage["flag status updated"] != model.EventCategoryAdmin {
		t.Errorf("admin event category = %q", byMessage["flag status updated"])
	}

	for _, e := range events {
		if e.Message == "flag status updated" {
			want := `{"actor":"member-1","flag_id":"f1","via":"header"}`
			if e.Metadata != want {
				t.Errorf("admin metadata = %q, want %q", e.Metadata, want)
			}
		}
	}
}

func TestDeleteOldEvents(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewEventService(db)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	if err := svc.LogInfo(ctx, model.EventCategorySystem, "old", "", nil); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return base.Add(100 * 24 * time.Hour) }
	if err := svc.LogInfo(ctx, model.EventCategorySystem, "new", "", nil); err != nil {
		t.Fatal(err)
	}

	deleted, err := svc.DeleteOldEvents(ctx, 90*24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	events, _ := svc.ListEvents(ctx, 10, 0)
	if len(events) != 1 || events[0].Message != "new" {
		t.Errorf("remaining events = %+v", events)
	}
}
