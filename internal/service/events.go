// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic and service layer functionality
// including event logging for audit trails.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/model"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
)

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db store.DBTX) *EventService {
	return &EventService{
		queries: store.New(db),
		now:     time.Now,
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, ipAddress string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  metadataJSON,
		IpAddress: ipAddress,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		// Plain inner-handler logging only; an slog.Warn here would loop back
		// through the event log handler.
		slog.Debug("failed to log event", "error", err, "message", message)
		return err
	}

	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, ipAddress, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, ipAddress, metadata)
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, ipAddress, metadata)
}

// LogAdminAction records an administrative action. actor identifies who
// acted and via the credential path used.
func (s *EventService) LogAdminAction(ctx context.Context, message, actor, via, ipAddress string, metadata map[string]any) error {
	md := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		md[k] = v
	}
	md["actor"] = actor
	md["via"] = via
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryAdmin, message, ipAddress, md)
}

// ListEvents returns the newest events.
func (s *EventService) ListEvents(ctx context.Context, limit, offset int64) ([]store.Event, error) {
	return s.queries.ListEvents(ctx, store.ListEventsParams{Limit: limit, Offset: offset})
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-olderThan)
	return s.queries.DeleteEventsBefore(ctx, cutoff)
}

