package postgres

import (
	"context"
	"fmt"

	"github.com/frc-sh/scores-api/internal/domain/match"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) ReplaceEventMatches(ctx context.Context, year int, firstCode string, items []match.Match) (match.ReplaceSummary, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return match.ReplaceSummary{}, fmt.Errorf("begin replace matches tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var eventID int64
	err = tx.GetContext(ctx, &eventID,
		`SELECT id FROM events WHERE year = $1 AND first_code = $2`,
		year, firstCode,
	)
	if isNotFound(err) {
		return match.ReplaceSummary{}, fmt.Errorf("no event stored for %d/%s", year, firstCode)
	}
	if err != nil {
		return match.ReplaceSummary{}, fmt.Errorf("select event id %d/%s: %w", year, firstCode, err)
	}

	var summary match.ReplaceSummary

	// Results go with their matches via ON DELETE CASCADE.
	result, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE event_id = $1`, eventID)
	if err != nil {
		return match.ReplaceSummary{}, fmt.Errorf("delete matches event_id=%d: %w", eventID, err)
	}
	if deleted, err := result.RowsAffected(); err == nil {
		summary.Deleted = int(deleted)
	}

	for _, item := range items {
		var matchID int64
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO matches (event_id, match_level, match_number)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			eventID, string(item.Level), item.Number,
		).Scan(&matchID)
		if err != nil {
			return match.ReplaceSummary{}, fmt.Errorf("insert match %s %d: %w", item.Level, item.Number, err)
		}
		summary.Inserted++

		if item.Result == nil {
			continue
		}

		teams := make(pq.Int64Array, 0, match.AllianceSize)
		for _, team := range item.Result.WinningTeams {
			teams = append(teams, int64(team))
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO match_results (match_id, score, winning_teams, result_time)
			 VALUES ($1, $2, $3, $4)`,
			matchID, item.Result.Score, teams, item.Result.Timestamp,
		)
		if err != nil {
			return match.ReplaceSummary{}, fmt.Errorf("insert result for match %s %d: %w", item.Level, item.Number, err)
		}
		summary.Results++
	}

	if err := tx.Commit(); err != nil {
		return match.ReplaceSummary{}, fmt.Errorf("commit replace matches tx: %w", err)
	}
	return summary, nil
}

const scoredMatchColumns = `
	e.id AS event_id,
	e.year AS event_year,
	e.code AS event_code,
	e.name AS event_name,
	e.week_number AS event_week,
	e.first_code AS event_first_code,
	m.match_level,
	m.match_number,
	r.score,
	r.winning_teams,
	r.result_time`

func (r *MatchRepository) ListWithResultsByYear(ctx context.Context, year int, eventCode string) ([]match.ScoredMatch, error) {
	query := `SELECT ` + scoredMatchColumns + `
		FROM match_results r
		JOIN matches m ON m.id = r.match_id
		JOIN events e ON e.id = m.event_id
		WHERE e.year = $1`
	args := []any{year}
	if eventCode != "" {
		query += ` AND e.code = $2`
		args = append(args, eventCode)
	}
	query += ` ORDER BY r.result_time, m.match_number`

	var rows []scoredMatchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select scored matches year=%d: %w", year, err)
	}

	out := make([]match.ScoredMatch, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("scored matches year=%d: %w", year, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *MatchRepository) ListPending(ctx context.Context) ([]match.PendingEvent, error) {
	var rows []struct {
		Year      int    `db:"year"`
		FirstCode string `db:"first_code"`
	}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT e.year, e.first_code
		 FROM events e
		 LEFT JOIN matches m ON m.event_id = e.id
		 LEFT JOIN match_results r ON r.match_id = m.id
		 GROUP BY e.id, e.year, e.first_code
		 HAVING COUNT(m.id) = 0 OR COUNT(m.id) > COUNT(r.match_id)
		 ORDER BY e.year, e.first_code`,
	)
	if err != nil {
		return nil, fmt.Errorf("select pending events: %w", err)
	}

	out := make([]match.PendingEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.PendingEvent{Year: row.Year, FirstCode: row.FirstCode})
	}
	return out, nil
}
