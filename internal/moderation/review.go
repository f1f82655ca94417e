// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/model"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/service"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/util"
)

var (
	// ErrFlagNotFound is returned when the flag does not exist.
	ErrFlagNotFound = errors.New("flag not found")
	// ErrInvalidTransition is returned for a backward status move.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConcurrentUpdate is returned when the flag kept changing under
	// the update.
	ErrConcurrentUpdate = errors.New("flag was modified concurrently")
)

// maxUpdateAttempts bounds compare-and-set retries in UpdateStatus.
const maxUpdateAttempts = 3

// Actor identifies who performs a review action.
type Actor struct {
	// ID is the reviewer's member ID, or a fixed label for scripted access.
	ID        string
	Via       string
	IPAddress string
}

// Reviewer applies administrative status changes to flags.
type Reviewer struct {
	queries *store.Queries
	events  *service.EventService
	now     func() time.Time
}

// NewReviewer creates a reviewer. events may be nil.
func NewReviewer(db store.DBTX, events *service.EventService) *Reviewer {
	return &Reviewer{
		queries: store.New(db),
		events:  events,
		now:     time.Now,
	}
}

// Get returns one flag.
func (rv *Reviewer) Get(ctx context.Context, id string) (store.FlaggedContent, error) {
	flag, err := rv.queries.GetFlaggedContent(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.FlaggedContent{}, ErrFlagNotFound
		}
		return store.FlaggedContent{}, fmt.Errorf("loading flag %s: %w", id, err)
	}
	return flag, nil
}

// List returns one page of flags, optionally filtered by status, and the
// total count for that filter.
func (rv *Reviewer) List(ctx context.Context, rawStatus string, limit, offset int64) ([]store.FlaggedContent, int64, error) {
	var status sql.NullString
	if rawStatus != "" {
		s, err := model.ParseFlagStatus(rawStatus)
		if err != nil {
			return nil, 0, err
		}
		status = util.NullStringFromValue(string(s))
	}

	items, err := rv.queries.ListFlaggedContent(ctx, store.ListFlaggedContentParams{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing flags: %w", err)
	}

	total, err := rv.queries.CountFlaggedContent(ctx, status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting flags: %w", err)
	}

	return items, total, nil
}

// UpdateStatus moves a flag to rawStatus. Values outside the closed status
// set return a *model.ValidationError and leave the record unchanged.
// Backward moves return ErrInvalidTransition. Setting the current status
// again is a no-op.
func (rv *Reviewer) UpdateStatus(ctx context.Context, id, rawStatus string, actor Actor) (store.FlaggedContent, error) {
	next, err := model.ParseFlagStatus(rawStatus)
	if err != nil {
		return store.FlaggedContent{}, err
	}

	for range maxUpdateAttempts {
		flag, err := rv.Get(ctx, id)
		if err != nil {
			return store.FlaggedContent{}, err
		}

		current := model.FlagStatus(flag.Status)
		if !current.CanTransitionTo(next) {
			return flag, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, next)
		}
		if current == next {
			return flag, nil
		}

		n, err := rv.queries.UpdateFlaggedContentStatus(ctx, store.UpdateFlaggedContentStatusParams{
			Status:     string(next),
			ReviewedBy: util.NullStringFromValue(actor.ID),
			UpdatedAt:  rv.now().UTC(),
			ID:         id,
			FromStatus: string(current),
		})
		if err != nil {
			return store.FlaggedContent{}, fmt.Errorf("updating flag %s: %w", id, err)
		}
		if n == 0 {
			// Status moved since we read it; re-check against the new value.
			continue
		}

		rv.audit(ctx, flag, current, next, actor)
		return rv.Get(ctx, id)
	}

	return store.FlaggedContent{}, ErrConcurrentUpdate
}

func (rv *Reviewer) audit(ctx context.Context, flag store.FlaggedContent, from, to model.FlagStatus, actor Actor) {
	slog.Info("flag status updated",
		"flag_id", flag.ID, "from", from, "to", to, "actor", actor.ID, "via", actor.Via)

	if rv.events == nil {
		return
	}
	_ = rv.events.LogAdminAction(ctx, "flag status updated", actor.ID, actor.Via, actor.IPAddress, map[string]any{
		"flag_id":      flag.ID,
		"content_type": flag.ContentType,
		"from":         string(from),
		"to":           string(to),
	})
}
