package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/frc-sh/scores-api/internal/domain/match"
)

// MatchRepository is an in-memory match.Repository backed by an
// EventRepository for event lookups.
type MatchRepository struct {
	mu      sync.RWMutex
	events  *EventRepository
	nextID  int64
	byEvent map[int64][]match.Match
}

func NewMatchRepository(events *EventRepository) *MatchRepository {
	return &MatchRepository{
		events:  events,
		nextID:  1,
		byEvent: make(map[int64][]match.Match),
	}
}

func (r *MatchRepository) ReplaceEventMatches(_ context.Context, year int, firstCode string, items []match.Match) (match.ReplaceSummary, error) {
	evt, ok := r.events.getByFirstCode(year, firstCode)
	if !ok {
		return match.ReplaceSummary{}, fmt.Errorf("no event stored for %d/%s", year, firstCode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var summary match.ReplaceSummary
	summary.Deleted = len(r.byEvent[evt.ID])

	stored := make([]match.Match, 0, len(items))
	for _, item := range items {
		item.ID = r.nextID
		r.nextID++
		item.EventID = evt.ID
		if item.Result != nil {
			result := *item.Result
			item.Result = &result
			summary.Results++
		}
		stored = append(stored, item)
	}
	r.byEvent[evt.ID] = stored
	summary.Inserted = len(stored)

	return summary, nil
}

func (r *MatchRepository) ListWithResultsByYear(ctx context.Context, year int, eventCode string) ([]match.ScoredMatch, error) {
	events, err := r.events.ListByYear(ctx, year)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []match.ScoredMatch
	for _, evt := range events {
		if eventCode != "" && evt.Code != eventCode {
			continue
		}
		for _, item := range r.byEvent[evt.ID] {
			if item.Result == nil {
				continue
			}
			out = append(out, match.ScoredMatch{
				Event:  evt,
				Level:  item.Level,
				Number: item.Number,
				Result: *item.Result,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.Timestamp.Before(out[j].Result.Timestamp)
	})
	return out, nil
}

func (r *MatchRepository) ListPending(_ context.Context) ([]match.PendingEvent, error) {
	r.events.mu.RLock()
	defer r.events.mu.RUnlock()
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []match.PendingEvent
	for year, byCode := range r.events.byYear {
		for _, evt := range byCode {
			matches := r.byEvent[evt.ID]
			pending := len(matches) == 0
			for _, item := range matches {
				if item.Result == nil {
					pending = true
					break
				}
			}
			if pending {
				out = append(out, match.PendingEvent{Year: year, FirstCode: evt.FirstCode})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].FirstCode < out[j].FirstCode
	})
	return out, nil
}
