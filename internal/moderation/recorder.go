// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package moderation raises, detects and reviews moderation flags against
// community content.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/metrics"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/model"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/util"
)

// MaxSnippetRunes bounds the stored excerpt of flagged content.
const MaxSnippetRunes = 280

// DefaultWriteTimeout bounds a single flag insert.
const DefaultWriteTimeout = 5 * time.Second

// Flag describes one moderation event. ContentID, Snippet and AuthorID
// are optional.
type Flag struct {
	ContentType model.ContentType
	ContentID   string
	Reason      model.Reason
	Snippet     string
	AuthorID    string
}

// FlagWriter persists flags. *store.Queries implements it.
type FlagWriter interface {
	CreateFlaggedContent(ctx context.Context, arg store.CreateFlaggedContentParams) (store.FlaggedContent, error)
}

// Recorder persists flags on a best-effort basis: failures are logged and
// counted, never returned.
type Recorder struct {
	writer  FlagWriter
	metrics *metrics.Metrics
	timeout time.Duration
	now     func() time.Time

	wg sync.WaitGroup
}

// NewRecorder creates a recorder. m may be nil. A non-positive timeout
// uses DefaultWriteTimeout.
func NewRecorder(w FlagWriter, m *metrics.Metrics, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &Recorder{
		writer:  w,
		metrics: m,
		timeout: timeout,
		now:     time.Now,
	}
}

// Record inserts a pending flag and waits for the write. It never fails
// visibly. The write is detached from ctx cancellation so an aborted
// request does not lose the flag.
func (r *Recorder) Record(ctx context.Context, f Flag) {
	defer func() {
		if p := recover(); p != nil {
			r.metrics.FlagWriteFailed()
			slog.Error("panic while recording moderation flag",
				"panic", fmt.Sprint(p), "content_type", f.ContentType, "category", "moderation")
		}
	}()

	if !f.ContentType.Valid() || !f.Reason.Valid() {
		r.metrics.FlagWriteFailed()
		slog.Error("dropping moderation flag with invalid vocabulary",
			"content_type", f.ContentType, "reason", f.Reason, "category", "moderation")
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	id := uuid.NewString()
	_, err := r.writer.CreateFlaggedContent(writeCtx, store.CreateFlaggedContentParams{
		ID:          id,
		ContentType: string(f.ContentType),
		ContentID:   util.NullStringFromValue(f.ContentID),
		Reason:      string(f.Reason),
		Snippet:     util.NullStringFromValue(truncateRunes(f.Snippet, MaxSnippetRunes)),
		AuthorID:    util.NullStringFromValue(f.AuthorID),
		CreatedAt:   r.now().UTC(),
	})
	if err != nil {
		r.metrics.FlagWriteFailed()
		slog.Error("failed to record moderation flag",
			"error", err,
			"content_type", f.ContentType,
			"content_id", f.ContentID,
			"reason", f.Reason,
			"category", "moderation",
		)
		return
	}

	r.metrics.FlagRecorded(string(f.Reason))
	slog.Info("moderation flag recorded",
		"flag_id", id, "content_type", f.ContentType, "content_id", f.ContentID, "reason", f.Reason)
}

// RecordAsync records f in the background; the caller never waits.
func (r *Recorder) RecordAsync(ctx context.Context, f Flag) {
	detached := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Record(detached, f)
	}()
}

// Wait blocks until all RecordAsync writes have finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
