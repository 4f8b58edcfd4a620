package memory

import (
	"context"
	"sync"

	"github.com/frc-sh/scores-api/internal/domain/event"
)

// EventRepository is an in-memory event.Repository used by tests and
// local development.
type EventRepository struct {
	mu     sync.RWMutex
	nextID int64
	byYear map[int]map[string]event.Event
}

func NewEventRepository() *EventRepository {
	return &EventRepository{
		nextID: 1,
		byYear: make(map[int]map[string]event.Event),
	}
}

func (r *EventRepository) ReplaceYear(_ context.Context, year int, items []event.Event) (event.ReplaceSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.byYear[year]
	if stored == nil {
		stored = make(map[string]event.Event)
		r.byYear[year] = stored
	}

	var summary event.ReplaceSummary
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item.Year = year
		seen[item.Code] = struct{}{}
		if existing, ok := stored[item.Code]; ok {
			item.ID = existing.ID
			if existing != item {
				summary.Updated++
			}
		} else {
			item.ID = r.nextID
			r.nextID++
			summary.Inserted++
		}
		stored[item.Code] = item
	}

	for code := range stored {
		if _, ok := seen[code]; !ok {
			delete(stored, code)
			summary.Deleted++
		}
	}

	return summary, nil
}

func (r *EventRepository) ListByYear(_ context.Context, year int) ([]event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byYear[year]
	out := make([]event.Event, 0, len(stored))
	for _, item := range stored {
		out = append(out, item)
	}
	return out, nil
}

func (r *EventRepository) GetByCode(_ context.Context, year int, code string) (event.Event, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byYear[year][event.NormalizeCode(code)]
	return item, ok, nil
}

func (r *EventRepository) getByFirstCode(year int, firstCode string) (event.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.byYear[year] {
		if item.FirstCode == firstCode {
			return item, true
		}
	}
	return event.Event{}, false
}
