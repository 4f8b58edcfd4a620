package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/frc-sh/scores-api/internal/domain/event"
	"github.com/frc-sh/scores-api/internal/domain/match"
	"github.com/frc-sh/scores-api/internal/domain/record"
)

const maxEventCodeLength = 64

// HighScoreService answers high-score progression queries from stored
// match results.
type HighScoreService struct {
	events  event.Repository
	matches match.Repository
	now     func() time.Time
}

func NewHighScoreService(events event.Repository, matches match.Repository) *HighScoreService {
	return &HighScoreService{
		events:  events,
		matches: matches,
		now:     time.Now,
	}
}

// ListByYear returns the chronological record progression across every
// event of a season.
func (s *HighScoreService) ListByYear(ctx context.Context, year int) ([]record.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HighScoreService.ListByYear")
	defer span.End()

	if err := s.validateYear(year); err != nil {
		return nil, err
	}

	matches, err := s.matches.ListWithResultsByYear(ctx, year, "")
	if err != nil {
		return nil, fmt.Errorf("list scored matches year=%d: %w", year, err)
	}

	return record.Compute(matches), nil
}

// ListByEvent returns the record progression within a single event. The
// event code is matched case-insensitively.
func (s *HighScoreService) ListByEvent(ctx context.Context, year int, code string) ([]record.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HighScoreService.ListByEvent")
	defer span.End()

	if err := s.validateYear(year); err != nil {
		return nil, err
	}

	code = event.NormalizeCode(code)
	if code == "" || len(code) > maxEventCodeLength {
		return nil, fmt.Errorf("%w: event code must be between 1 and %d characters", ErrInvalidInput, maxEventCodeLength)
	}

	_, found, err := s.events.GetByCode(ctx, year, code)
	if err != nil {
		return nil, fmt.Errorf("look up event %d/%s: %w", year, code, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: event %s not found in %d", ErrNotFound, code, year)
	}

	matches, err := s.matches.ListWithResultsByYear(ctx, year, code)
	if err != nil {
		return nil, fmt.Errorf("list scored matches year=%d event=%s: %w", year, code, err)
	}

	return record.Compute(matches), nil
}

func (s *HighScoreService) validateYear(year int) error {
	maxYear := s.now().UTC().Year()
	if year < MinYear || year > maxYear {
		return fmt.Errorf("%w: year must be between %d and %d", ErrInvalidInput, MinYear, maxYear)
	}
	return nil
}
