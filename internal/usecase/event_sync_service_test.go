package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/frc-sh/scores-api/internal/infrastructure/repository/memory"
)

type stubEventCatalog struct {
	byYear map[int][]ExternalEvent
	err    error
	calls  []int
}

func (s *stubEventCatalog) ListEvents(_ context.Context, year int) ([]ExternalEvent, error) {
	s.calls = append(s.calls, year)
	if s.err != nil {
		return nil, s.err
	}
	return s.byYear[year], nil
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestEventSyncService_Refresh_FiltersAndNormalizes(t *testing.T) {
	t.Parallel()

	catalog := &stubEventCatalog{byYear: map[int][]ExternalEvent{
		2024: {
			{Year: 2024, Name: "Lake Superior Regional", EventCode: "milsu", EventType: EventTypeRegional, Week: intPtr(0), FirstEventCode: strPtr("MILSU")},
			{Year: 2024, Name: "Offseason Bash", EventCode: "offs", EventType: EventTypeOffseason, Week: intPtr(5), FirstEventCode: strPtr("OFFS")},
			{Year: 2024, Name: "Week Zero", EventCode: "wk0", EventType: EventTypePreseason, Week: intPtr(0), FirstEventCode: strPtr("WK0")},
			{Year: 2024, Name: "Mystery", EventCode: "mys", EventType: EventTypeUnlabeled, Week: intPtr(2), FirstEventCode: strPtr("MYS")},
			{Year: 2024, Name: "No FIRST Code", EventCode: "nofc", EventType: EventTypeRegional, Week: intPtr(1)},
			{Year: 2024, Name: "Archimedes Division", EventCode: "arc", EventType: EventTypeCmpDivision, FirstEventCode: strPtr("ARCHIMEDES")},
			{Year: 2024, Name: "Einstein Field", EventCode: "cmptx", EventType: EventTypeCmpFinals, FirstEventCode: strPtr("CMPTX")},
		},
	}}
	events := memory.NewEventRepository()
	svc := NewEventSyncService(catalog, events, nil)

	if err := svc.Refresh(context.Background(), 2024); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	stored, err := events.ListByYear(context.Background(), 2024)
	if err != nil {
		t.Fatalf("ListByYear returned error: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored events, got %d", len(stored))
	}

	byCode := make(map[string]int)
	for _, evt := range stored {
		if evt.Code != strings.ToUpper(evt.Code) {
			t.Fatalf("event code %q not stored upper-case", evt.Code)
		}
		byCode[evt.Code] = evt.WeekNumber
	}
	if got := byCode["MILSU"]; got != 1 {
		t.Fatalf("expected MILSU in week 1, got %d", got)
	}
	if got := byCode["ARC"]; got != 8 {
		t.Fatalf("expected championship division in week 8, got %d", got)
	}
	if got := byCode["CMPTX"]; got != 8 {
		t.Fatalf("expected championship finals in week 8, got %d", got)
	}
}

func TestEventSyncService_Refresh_MissingWeekFailsYear(t *testing.T) {
	t.Parallel()

	catalog := &stubEventCatalog{byYear: map[int][]ExternalEvent{
		2024: {
			{Year: 2024, Name: "Good", EventCode: "good", EventType: EventTypeRegional, Week: intPtr(1), FirstEventCode: strPtr("GOOD")},
			{Year: 2024, Name: "Broken", EventCode: "bad", EventType: EventTypeRegional, FirstEventCode: strPtr("BAD")},
		},
	}}
	events := memory.NewEventRepository()
	svc := NewEventSyncService(catalog, events, nil)

	if err := svc.Refresh(context.Background(), 2024); err == nil {
		t.Fatal("expected an error for an event without a week number")
	}

	stored, err := events.ListByYear(context.Background(), 2024)
	if err != nil {
		t.Fatalf("ListByYear returned error: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected nothing committed for a failing year, got %d events", len(stored))
	}
}

func TestEventSyncService_Refresh_DeletesOrphans(t *testing.T) {
	t.Parallel()

	catalog := &stubEventCatalog{byYear: map[int][]ExternalEvent{
		2023: {
			{Year: 2023, Name: "Kept", EventCode: "keep", EventType: EventTypeRegional, Week: intPtr(0), FirstEventCode: strPtr("KEEP")},
			{Year: 2023, Name: "Dropped", EventCode: "drop", EventType: EventTypeRegional, Week: intPtr(0), FirstEventCode: strPtr("DROP")},
		},
	}}
	events := memory.NewEventRepository()
	svc := NewEventSyncService(catalog, events, nil)

	if err := svc.Refresh(context.Background(), 2023); err != nil {
		t.Fatalf("first Refresh returned error: %v", err)
	}

	catalog.byYear[2023] = catalog.byYear[2023][:1]
	if err := svc.Refresh(context.Background(), 2023); err != nil {
		t.Fatalf("second Refresh returned error: %v", err)
	}

	stored, err := events.ListByYear(context.Background(), 2023)
	if err != nil {
		t.Fatalf("ListByYear returned error: %v", err)
	}
	if len(stored) != 1 || stored[0].Code != "KEEP" {
		t.Fatalf("expected only KEEP to survive, got %+v", stored)
	}
}

func TestEventSyncService_RefreshAll_CoversSupportedYears(t *testing.T) {
	t.Parallel()

	catalog := &stubEventCatalog{byYear: map[int][]ExternalEvent{}}
	svc := NewEventSyncService(catalog, memory.NewEventRepository(), nil)
	svc.now = fixedNow(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))

	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}

	sort.Ints(catalog.calls)
	want := []int{2023, 2024, 2025}
	if len(catalog.calls) != len(want) {
		t.Fatalf("expected %d catalog calls, got %v", len(want), catalog.calls)
	}
	for i, year := range want {
		if catalog.calls[i] != year {
			t.Fatalf("expected calls %v, got %v", want, catalog.calls)
		}
	}
}

func TestEventSyncService_RefreshAll_ContinuesPastFailingYear(t *testing.T) {
	t.Parallel()

	catalog := &stubEventCatalog{err: errors.New("upstream down")}
	svc := NewEventSyncService(catalog, memory.NewEventRepository(), nil)
	svc.now = fixedNow(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}
	if len(catalog.calls) != 2 {
		t.Fatalf("expected both years attempted despite failures, got %v", catalog.calls)
	}
}
