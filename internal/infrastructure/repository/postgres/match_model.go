package postgres

import (
	"fmt"
	"time"

	"github.com/frc-sh/scores-api/internal/domain/event"
	"github.com/frc-sh/scores-api/internal/domain/match"
	"github.com/lib/pq"
)

type scoredMatchRow struct {
	EventID        int64         `db:"event_id"`
	EventYear      int           `db:"event_year"`
	EventCode      string        `db:"event_code"`
	EventName      string        `db:"event_name"`
	EventWeek      int           `db:"event_week"`
	EventFirstCode string        `db:"event_first_code"`
	Level          string        `db:"match_level"`
	Number         int           `db:"match_number"`
	Score          int           `db:"score"`
	WinningTeams   pq.Int64Array `db:"winning_teams"`
	ResultTime     time.Time     `db:"result_time"`
}

func (m scoredMatchRow) toDomain() (match.ScoredMatch, error) {
	level, err := match.ParseLevel(m.Level)
	if err != nil {
		return match.ScoredMatch{}, err
	}
	if len(m.WinningTeams) != match.AllianceSize {
		return match.ScoredMatch{}, fmt.Errorf("match %s %d: expected %d winning teams, got %d",
			m.Level, m.Number, match.AllianceSize, len(m.WinningTeams))
	}

	var teams [match.AllianceSize]int
	for i, team := range m.WinningTeams {
		teams[i] = int(team)
	}

	return match.ScoredMatch{
		Event: event.Event{
			ID:         m.EventID,
			Year:       m.EventYear,
			Code:       m.EventCode,
			Name:       m.EventName,
			WeekNumber: m.EventWeek,
			FirstCode:  m.EventFirstCode,
		},
		Level:  level,
		Number: m.Number,
		Result: match.Result{
			Score:        m.Score,
			WinningTeams: teams,
			Timestamp:    m.ResultTime.UTC(),
		},
	}, nil
}
