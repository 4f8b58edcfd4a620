package frcevents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frc-sh/scores-api/internal/domain/match"
	"github.com/frc-sh/scores-api/internal/platform/resilience"
	"github.com/frc-sh/scores-api/internal/usecase"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		Username:       "frc-user",
		APIKey:         "frc-secret",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestClientGetSchedule_MergesLevelsAndMapsTeams(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, key, ok := r.BasicAuth()
		if !ok || user != "frc-user" || key != "frc-secret" {
			t.Fatalf("unexpected basic auth: %s %s %v", user, key, ok)
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("tournamentLevel") {
		case "Qualification":
			_, _ = w.Write([]byte(`{"Schedule": [
				{"matchNumber": 1, "tournamentLevel": "Qualification", "startTime": "2024-03-02T09:00:00",
				 "teams": [
					{"teamNumber": 111, "station": "Red1"},
					{"teamNumber": null, "station": "Red2"},
					{"teamNumber": 333, "station": "Red3"},
					{"teamNumber": 444, "station": "Blue1"},
					{"teamNumber": 555, "station": "Blue2"},
					{"teamNumber": 666, "station": "Blue3"}
				 ]}
			]}`))
		case "Playoff":
			_, _ = w.Write([]byte(`{"Schedule": [
				{"matchNumber": 1, "tournamentLevel": "Playoff", "startTime": null, "teams": []}
			]}`))
		default:
			t.Fatalf("unexpected tournamentLevel: %s", r.URL.Query().Get("tournamentLevel"))
		}
	}))
	defer srv.Close()

	schedule, err := newTestClient(srv).GetSchedule(context.Background(), 2024, "MILSU")
	if err != nil {
		t.Fatalf("GetSchedule failed: %v", err)
	}
	if len(schedule) != 2 {
		t.Fatalf("expected 2 merged entries, got %d", len(schedule))
	}

	qual := schedule[0]
	if qual.Level != match.LevelQuals || qual.Number != 1 {
		t.Fatalf("unexpected qual entry: %+v", qual)
	}
	want := time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC)
	if qual.StartTime == nil || !qual.StartTime.Equal(want) {
		t.Fatalf("unexpected start time: %v", qual.StartTime)
	}
	if qual.Teams[1].TeamNumber != 0 {
		t.Fatalf("expected null team number mapped to 0, got %d", qual.Teams[1].TeamNumber)
	}

	playoff := schedule[1]
	if playoff.Level != match.LevelPlayoffs {
		t.Fatalf("unexpected playoff level: %s", playoff.Level)
	}
	if playoff.StartTime != nil {
		t.Fatalf("expected nil start time for unscheduled match, got %v", playoff.StartTime)
	}
}

func TestClientListScores_ReportedWinnerIsAuthoritative(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2024/scores/MILSU/Qualification" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"MatchScores": [
			{"matchLevel": "Qualification", "matchNumber": 1, "winningAlliance": 1, "alliances": [
				{"alliance": "Red", "totalPoints": 58, "foulPoints": 6},
				{"alliance": "Blue", "totalPoints": 40, "foulPoints": 0}
			]},
			{"matchLevel": "Qualification", "matchNumber": 2, "winningAlliance": null, "alliances": [
				{"alliance": "Red", "totalPoints": 30, "foulPoints": 0},
				{"alliance": "Blue", "totalPoints": 30, "foulPoints": 5}
			]},
			{"matchLevel": "Qualification", "matchNumber": 3, "winningAlliance": 1, "alliances": [
				{"alliance": "Red", "totalPoints": 30, "foulPoints": 0},
				{"alliance": "Blue", "totalPoints": 30, "foulPoints": 5}
			]}
		]}`))
	}))
	defer srv.Close()

	scores, err := newTestClient(srv).ListScores(context.Background(), 2024, "MILSU", match.LevelQuals)
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}

	if scores[0].WinningAlliance == nil || *scores[0].WinningAlliance != usecase.WinningAllianceRed {
		t.Fatalf("expected red winner, got %v", scores[0].WinningAlliance)
	}
	if scores[1].WinningAlliance != nil {
		t.Fatalf("expected nil winner for a tie, got %d", *scores[1].WinningAlliance)
	}
	// Equal totals with a reported winner happens in playoffs when the
	// tiebreaker criteria decide the match.
	if scores[2].WinningAlliance == nil || *scores[2].WinningAlliance != usecase.WinningAllianceRed {
		t.Fatalf("expected red winner on tiebreaker, got %v", scores[2].WinningAlliance)
	}
	if scores[0].Alliances[0].TotalPoints != 58 || scores[0].Alliances[0].FoulPoints != 6 {
		t.Fatalf("unexpected alliance scoring: %+v", scores[0].Alliances[0])
	}
}

func TestClientListScores_UnregisteredEventIsEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"Message": "Event milsu has not been registered to return GameSpecificScoreDetails"}`))
	}))
	defer srv.Close()

	scores, err := newTestClient(srv).ListScores(context.Background(), 2024, "MILSU", match.LevelPlayoffs)
	if err != nil {
		t.Fatalf("expected unregistered event to yield no scores, got %v", err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected empty score list, got %d", len(scores))
	}
}

func TestClientListScores_PlayoffLevelPath(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2024/scores/MILSU/Playoff" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"MatchScores": []}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).ListScores(context.Background(), 2024, "MILSU", match.LevelPlayoffs); err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
}
