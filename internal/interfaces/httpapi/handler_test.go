package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/frc-sh/scores-api/internal/domain/event"
	"github.com/frc-sh/scores-api/internal/domain/match"
	"github.com/frc-sh/scores-api/internal/infrastructure/repository/memory"
	"github.com/frc-sh/scores-api/internal/usecase"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	events := memory.NewEventRepository()
	matches := memory.NewMatchRepository(events)

	_, err := events.ReplaceYear(context.Background(), 2024, []event.Event{
		{Year: 2024, Code: "MILSU", Name: "Lake Superior Regional", WeekNumber: 1, FirstCode: "MILSU"},
		{Year: 2024, Code: "TXWAC", Name: "Waco District", WeekNumber: 2, FirstCode: "TXWAC"},
	})
	if err != nil {
		t.Fatalf("seed events: %v", err)
	}

	base := time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC)
	result := func(score int, at time.Time) *match.Result {
		return &match.Result{Score: score, WinningTeams: [3]int{111, 222, 333}, Timestamp: at}
	}
	if _, err := matches.ReplaceEventMatches(context.Background(), 2024, "MILSU", []match.Match{
		{Level: match.LevelQuals, Number: 1, Result: result(40, base)},
		{Level: match.LevelQuals, Number: 2, Result: result(35, base.Add(10*time.Minute))},
	}); err != nil {
		t.Fatalf("seed MILSU matches: %v", err)
	}
	if _, err := matches.ReplaceEventMatches(context.Background(), 2024, "TXWAC", []match.Match{
		{Level: match.LevelPlayoffs, Number: 3, Result: result(55, base.Add(7*24*time.Hour))},
	}); err != nil {
		t.Fatalf("seed TXWAC matches: %v", err)
	}

	svc := usecase.NewHighScoreService(events, matches)
	return NewRouter(NewHandler(svc, nil), nil)
}

func doRequest(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandlerHealth(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestRouter(t), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var body map[string]string
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandlerListYearHighScores(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestRouter(t), "/scores/year/2024")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var body highScoresDTO
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.HighScores) != 2 {
		t.Fatalf("expected 2 records, got %d", len(body.HighScores))
	}

	first := body.HighScores[0]
	if first.Event.Code != "MILSU" || first.Score != 40 {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if first.Match.Level != "quals" || first.Match.Number != 1 {
		t.Fatalf("unexpected first match: %+v", first.Match)
	}
	if first.Timestamp != "2024-03-02T09:00:00Z" {
		t.Fatalf("unexpected timestamp: %s", first.Timestamp)
	}
	if first.WinningTeams != [3]int{111, 222, 333} {
		t.Fatalf("unexpected winning teams: %v", first.WinningTeams)
	}
	if first.RecordHeldFor != "PT168H" {
		t.Fatalf("broken record must carry an ISO 8601 duration, got %s", first.RecordHeldFor)
	}

	last := body.HighScores[1]
	if last.Event.Code != "TXWAC" || last.Score != 55 {
		t.Fatalf("unexpected last record: %+v", last)
	}
	if last.RecordHeldFor != "forever" {
		t.Fatalf("standing record must render forever, got %s", last.RecordHeldFor)
	}
}

func TestHandlerListEventHighScores(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestRouter(t), "/scores/year/2024/event/milsu")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var body highScoresDTO
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.HighScores) != 1 {
		t.Fatalf("expected 1 record within MILSU, got %d", len(body.HighScores))
	}
	if body.HighScores[0].RecordHeldFor != "forever" {
		t.Fatalf("event-scoped record should be standing, got %s", body.HighScores[0].RecordHeldFor)
	}
}

func TestHandlerErrorStatuses(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	cases := []struct {
		name string
		path string
		want int
	}{
		{name: "non numeric year", path: "/scores/year/banana", want: http.StatusBadRequest},
		{name: "year below range", path: "/scores/year/2022", want: http.StatusBadRequest},
		{name: "year in far future", path: "/scores/year/3024", want: http.StatusBadRequest},
		{name: "unknown event", path: "/scores/year/2024/event/nosuch", want: http.StatusNotFound},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(t, router, tc.path)
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d body=%s", tc.want, rec.Code, rec.Body.String())
			}

			var body errorEnvelope
			if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error == nil || body.Error.Code != tc.want {
				t.Fatalf("unexpected error envelope: %+v", body.Error)
			}
		})
	}
}
