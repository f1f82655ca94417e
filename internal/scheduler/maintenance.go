// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"time"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/ratelimit"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/service"
)

// Job names.
const (
	JobSweepRateWindows = "sweep_rate_windows"
	JobPruneThrottle    = "prune_throttle"
	JobPruneLockouts    = "prune_lockouts"
	JobEventRetention   = "event_retention"
)

// Maintenance holds the collaborators the built-in jobs clean up. Nil
// fields skip the corresponding job.
type Maintenance struct {
	Limiters []*ratelimit.Limiter
	// PruneThrottle drops idle per-client throttle state and reports
	// whether anything was cleared.
	PruneThrottle func() bool
	// PruneLockouts drops expired account lockouts and returns how many.
	PruneLockouts  func() int
	Events         *service.EventService
	EventRetention time.Duration
}

// RegisterMaintenance adds the built-in jobs: rate window sweeps and
// throttle pruning every minute, lockout pruning every ten minutes, event
// retention daily at 03:00.
func (s *Scheduler) RegisterMaintenance(m Maintenance) error {
	if len(m.Limiters) > 0 {
		err := s.Add(JobSweepRateWindows, "* * * * *", func(context.Context) error {
			removed := 0
			for _, l := range m.Limiters {
				removed += l.Sweep()
			}
			if removed > 0 {
				s.logger.Debug("swept idle rate windows", "removed", removed)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if m.PruneThrottle != nil {
		err := s.Add(JobPruneThrottle, "* * * * *", func(context.Context) error {
			if m.PruneThrottle() {
				s.logger.Info("api throttle cache cleared")
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if m.PruneLockouts != nil {
		err := s.Add(JobPruneLockouts, "*/10 * * * *", func(context.Context) error {
			if n := m.PruneLockouts(); n > 0 {
				s.logger.Debug("pruned login lockouts", "removed", n)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if m.Events != nil && m.EventRetention > 0 {
		err := s.Add(JobEventRetention, "0 3 * * *", func(ctx context.Context) error {
			deleted, err := m.Events.DeleteOldEvents(ctx, m.EventRetention)
			if err != nil {
				return err
			}
			s.logger.Info("deleted old events", "count", deleted, "retention", m.EventRetention)
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
