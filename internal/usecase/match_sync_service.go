package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/frc-sh/scores-api/internal/domain/match"
	"github.com/frc-sh/scores-api/internal/platform/logging"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"
)

const defaultMatchSyncWorkers = 4

// MatchSyncService reconciles stored matches and results against the
// external match source, one event at a time.
type MatchSyncService struct {
	source  MatchSource
	matches match.Repository
	logger  *logging.Logger
	workers int
}

func NewMatchSyncService(source MatchSource, matches match.Repository, workers int, logger *logging.Logger) *MatchSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers < 1 {
		workers = defaultMatchSyncWorkers
	}
	return &MatchSyncService{
		source:  source,
		matches: matches,
		logger:  logger,
		workers: workers,
	}
}

// Refresh fetches the event's schedule and score lists, joins them, and
// replaces the event's stored match set. The three fetches are independent
// reads and run concurrently. An empty schedule makes the refresh a no-op
// so a source flake never erases previously stored matches.
func (s *MatchSyncService) Refresh(ctx context.Context, year int, firstCode string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchSyncService.Refresh")
	defer span.End()

	var schedule []ExternalScheduleMatch
	var qualScores, playoffScores []ExternalMatchScore

	fetches := pool.New().WithContext(ctx)
	fetches.Go(func(ctx context.Context) error {
		var err error
		schedule, err = s.source.GetSchedule(ctx, year, firstCode)
		return err
	})
	fetches.Go(func(ctx context.Context) error {
		var err error
		qualScores, err = s.source.ListScores(ctx, year, firstCode, match.LevelQuals)
		return err
	})
	fetches.Go(func(ctx context.Context) error {
		var err error
		playoffScores, err = s.source.ListScores(ctx, year, firstCode, match.LevelPlayoffs)
		return err
	})
	if err := fetches.Wait(); err != nil {
		return fmt.Errorf("fetch match data year=%d event=%s: %w", year, firstCode, err)
	}

	if len(schedule) == 0 {
		s.logger.DebugContext(ctx, "no schedule published, skipping refresh", "year", year, "event", firstCode)
		return nil
	}

	items, err := buildMatches(schedule, qualScores, playoffScores)
	if err != nil {
		return fmt.Errorf("transform match data year=%d event=%s: %w", year, firstCode, err)
	}

	summary, err := s.matches.ReplaceEventMatches(ctx, year, firstCode, items)
	if err != nil {
		return fmt.Errorf("save matches year=%d event=%s: %w", year, firstCode, err)
	}

	if summary.Inserted > 0 || summary.Deleted > 0 || summary.Results > 0 {
		s.logger.InfoContext(ctx, "matches reconciled",
			"year", year,
			"event", firstCode,
			"inserted", summary.Inserted,
			"deleted", summary.Deleted,
			"results", summary.Results,
		)
	}

	return nil
}

// RefreshPending refreshes every event that still has incomplete match
// data, using a bounded worker pool. A failing event is logged and does
// not stop the remaining events.
func (s *MatchSyncService) RefreshPending(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchSyncService.RefreshPending")
	defer span.End()

	pending, err := s.matches.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending events: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	s.logger.InfoContext(ctx, "refreshing pending events", "count", len(pending))

	workers, err := ants.NewPool(s.workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer workers.Release()

	var wg sync.WaitGroup
	var failed atomic.Int32
	for _, item := range pending {
		item := item
		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()
			if err := s.Refresh(ctx, item.Year, item.FirstCode); err != nil {
				failed.Add(1)
				if ctx.Err() == nil {
					s.logger.ErrorContext(ctx, "refresh matches failed",
						"year", item.Year,
						"event", item.FirstCode,
						"error", err,
					)
				}
			}
		}); err != nil {
			wg.Done()
			return fmt.Errorf("submit refresh task: %w", err)
		}
	}
	wg.Wait()

	if n := failed.Load(); n > 0 {
		s.logger.WarnContext(ctx, "pending refresh finished with failures",
			"total", len(pending),
			"failed", n,
		)
	}

	return ctx.Err()
}

type scoreKey struct {
	level  match.Level
	number int
}

// buildMatches joins schedule entries to score entries by (level, number).
// Schedule entries without a score persist as unplayed matches.
func buildMatches(schedule []ExternalScheduleMatch, qualScores, playoffScores []ExternalMatchScore) ([]match.Match, error) {
	scores := make(map[scoreKey]ExternalMatchScore, len(qualScores)+len(playoffScores))
	for _, list := range [][]ExternalMatchScore{qualScores, playoffScores} {
		for _, score := range list {
			scores[scoreKey{level: score.Level, number: score.Number}] = score
		}
	}

	items := make([]match.Match, 0, len(schedule))
	for _, sched := range schedule {
		m := match.Match{
			Level:  sched.Level,
			Number: sched.Number,
		}

		if score, ok := scores[scoreKey{level: sched.Level, number: sched.Number}]; ok {
			result, err := buildResult(sched, score)
			if err != nil {
				return nil, err
			}
			m.Result = &result
		}

		items = append(items, m)
	}

	return items, nil
}

// buildResult derives the persisted result for a scored match: winning
// alliance score minus fouls, and the winner's three team numbers.
func buildResult(sched ExternalScheduleMatch, score ExternalMatchScore) (match.Result, error) {
	if sched.StartTime == nil {
		return match.Result{}, fmt.Errorf("match %s %d has a score but no start time", sched.Level, sched.Number)
	}

	// The source reports a nil winning alliance for ties; upstream data
	// treats Blue as the winner in that case.
	winner := AllianceBlue
	if score.WinningAlliance != nil && *score.WinningAlliance == WinningAllianceRed {
		winner = AllianceRed
	}

	var alliance *ExternalAllianceScore
	for i := range score.Alliances {
		if score.Alliances[i].Alliance == winner {
			alliance = &score.Alliances[i]
			break
		}
	}
	if alliance == nil {
		return match.Result{}, fmt.Errorf("match %s %d is missing the %s alliance score", sched.Level, sched.Number, winner)
	}

	var teams [match.AllianceSize]int
	idx := 0
	for _, team := range sched.Teams {
		if idx == match.AllianceSize {
			break
		}
		if strings.HasPrefix(team.Station, winner) {
			teams[idx] = team.TeamNumber
			idx++
		}
	}

	return match.Result{
		Score:        alliance.TotalPoints - alliance.FoulPoints,
		WinningTeams: teams,
		Timestamp:    sched.StartTime.UTC(),
	}, nil
}
