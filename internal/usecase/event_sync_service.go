package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/frc-sh/scores-api/internal/domain/event"
	"github.com/frc-sh/scores-api/internal/platform/logging"
)

// MinYear is the oldest season the system tracks.
const MinYear = 2023

// Championship divisions and finals carry no week number upstream; they
// always land in week 8 of the season.
const championshipWeek = 8

var ignoredEventTypes = map[int]struct{}{
	EventTypeUnlabeled: {},
	EventTypeOffseason: {},
	EventTypePreseason: {},
}

// EventSyncService reconciles the local event catalog against the external
// event source, one year at a time.
type EventSyncService struct {
	catalog EventCatalog
	events  event.Repository
	logger  *logging.Logger
	now     func() time.Time
}

func NewEventSyncService(catalog EventCatalog, events event.Repository, logger *logging.Logger) *EventSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &EventSyncService{
		catalog: catalog,
		events:  events,
		logger:  logger,
		now:     time.Now,
	}
}

// Refresh fetches the year's events from the catalog source, normalizes
// them, and reconciles the stored set: fetched events are upserted by
// (year, code) and stored events absent from the fetch are deleted. A
// malformed upstream event (missing week outside the championship
// exception) fails the whole year without committing anything.
func (s *EventSyncService) Refresh(ctx context.Context, year int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventSyncService.Refresh")
	defer span.End()

	raw, err := s.catalog.ListEvents(ctx, year)
	if err != nil {
		return fmt.Errorf("list events year=%d: %w", year, err)
	}

	items := make([]event.Event, 0, len(raw))
	for _, item := range raw {
		if item.FirstEventCode == nil {
			continue
		}
		if _, ignored := ignoredEventTypes[item.EventType]; ignored {
			continue
		}

		week, err := normalizeWeek(item)
		if err != nil {
			return err
		}

		items = append(items, event.Event{
			Year:       item.Year,
			Code:       event.NormalizeCode(item.EventCode),
			Name:       item.Name,
			WeekNumber: week,
			FirstCode:  event.NormalizeCode(*item.FirstEventCode),
		})
	}

	summary, err := s.events.ReplaceYear(ctx, year, items)
	if err != nil {
		return fmt.Errorf("save events year=%d: %w", year, err)
	}

	if summary.Inserted > 0 || summary.Updated > 0 || summary.Deleted > 0 {
		s.logger.InfoContext(ctx, "events reconciled",
			"year", year,
			"inserted", summary.Inserted,
			"updated", summary.Updated,
			"deleted", summary.Deleted,
		)
	}

	return nil
}

// RefreshAll runs Refresh for every supported year. A failing year is
// logged and skipped; it never aborts the remaining years.
func (s *EventSyncService) RefreshAll(ctx context.Context) error {
	maxYear := s.now().UTC().Year()
	s.logger.InfoContext(ctx, "refreshing events", "from", MinYear, "to", maxYear)

	for year := MinYear; year <= maxYear; year++ {
		if err := s.Refresh(ctx, year); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.ErrorContext(ctx, "refresh events failed", "year", year, "error", err)
		}
	}

	return nil
}

// normalizeWeek converts the catalog's 0-indexed week to 1-indexed.
// Championship events have no week upstream and resolve to week 8; any
// other event missing a week is a data error.
func normalizeWeek(item ExternalEvent) (int, error) {
	if item.Week != nil {
		return *item.Week + 1, nil
	}

	if item.EventType == EventTypeCmpDivision || item.EventType == EventTypeCmpFinals {
		return championshipWeek, nil
	}

	return 0, fmt.Errorf("event %d %s is missing a week number", item.Year, item.EventCode)
}
