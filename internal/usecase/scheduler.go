package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/frc-sh/scores-api/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

// EventRefresher refreshes the event catalog for every tracked season.
type EventRefresher interface {
	RefreshAll(ctx context.Context) error
}

// MatchRefresher refreshes match data for events with incomplete results.
type MatchRefresher interface {
	RefreshPending(ctx context.Context) error
}

// SyncScheduler drives the periodic event and match refresh jobs. Each
// job runs once immediately and then on its own ticker; a tick is
// skipped when the previous run of the same job is still in flight.
type SyncScheduler struct {
	events  EventRefresher
	matches MatchRefresher
	logger  *logging.Logger

	eventInterval time.Duration
	matchInterval time.Duration

	eventBusy atomic.Bool
	matchBusy atomic.Bool
}

func NewSyncScheduler(events EventRefresher, matches MatchRefresher, eventInterval, matchInterval time.Duration, logger *logging.Logger) *SyncScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if eventInterval <= 0 {
		eventInterval = 24 * time.Hour
	}
	if matchInterval <= 0 {
		matchInterval = 5 * time.Minute
	}
	return &SyncScheduler{
		events:        events,
		matches:       matches,
		logger:        logger,
		eventInterval: eventInterval,
		matchInterval: matchInterval,
	}
}

// Run blocks until ctx is cancelled.
func (s *SyncScheduler) Run(ctx context.Context) {
	s.logger.InfoContext(ctx, "sync scheduler started",
		"event_interval", s.eventInterval.String(),
		"match_interval", s.matchInterval.String(),
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		s.loop(ctx, "events", s.eventInterval, &s.eventBusy, s.events.RefreshAll)
	})
	wg.Go(func() {
		s.loop(ctx, "matches", s.matchInterval, &s.matchBusy, s.matches.RefreshPending)
	})
	wg.Wait()

	s.logger.Info("sync scheduler stopped")
}

func (s *SyncScheduler) loop(ctx context.Context, job string, interval time.Duration, busy *atomic.Bool, run func(context.Context) error) {
	s.tick(ctx, job, busy, run)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job, busy, run)
		}
	}
}

func (s *SyncScheduler) tick(ctx context.Context, job string, busy *atomic.Bool, run func(context.Context) error) {
	if !busy.CompareAndSwap(false, true) {
		s.logger.WarnContext(ctx, "previous run still in progress, skipping tick", "job", job)
		return
	}
	defer busy.Store(false)

	started := time.Now()
	if err := run(ctx); err != nil {
		if ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "sync job failed", "job", job, "error", err)
		}
		return
	}
	s.logger.DebugContext(ctx, "sync job finished", "job", job, "duration", time.Since(started).String())
}
