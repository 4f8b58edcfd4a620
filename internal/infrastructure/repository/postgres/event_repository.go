package postgres

import (
	"context"
	"fmt"

	"github.com/frc-sh/scores-api/internal/domain/event"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const upsertEventQuery = `
INSERT INTO events (year, code, name, week_number, first_code)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (year, code) DO UPDATE SET
	name = EXCLUDED.name,
	week_number = EXCLUDED.week_number,
	first_code = EXCLUDED.first_code,
	updated_at = NOW()
WHERE (events.name, events.week_number, events.first_code)
	IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.week_number, EXCLUDED.first_code)
RETURNING (xmax = 0) AS inserted`

func (r *EventRepository) ReplaceYear(ctx context.Context, year int, items []event.Event) (event.ReplaceSummary, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return event.ReplaceSummary{}, fmt.Errorf("begin replace events tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var summary event.ReplaceSummary
	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.Code)

		var inserted bool
		err := tx.QueryRowxContext(ctx, upsertEventQuery,
			year, item.Code, item.Name, item.WeekNumber, item.FirstCode,
		).Scan(&inserted)
		if isNotFound(err) {
			// Conflict row already matched; the WHERE clause suppressed
			// the update and nothing came back.
			continue
		}
		if err != nil {
			return event.ReplaceSummary{}, fmt.Errorf("upsert event %d/%s: %w", year, item.Code, err)
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Updated++
		}
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM events WHERE year = $1 AND NOT (code = ANY($2))`,
		year, pq.Array(codes),
	)
	if err != nil {
		return event.ReplaceSummary{}, fmt.Errorf("delete orphan events year=%d: %w", year, err)
	}
	if deleted, err := result.RowsAffected(); err == nil {
		summary.Deleted = int(deleted)
	}

	if err := tx.Commit(); err != nil {
		return event.ReplaceSummary{}, fmt.Errorf("commit replace events tx: %w", err)
	}
	return summary, nil
}

func (r *EventRepository) ListByYear(ctx context.Context, year int) ([]event.Event, error) {
	var rows []eventTableModel
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, year, code, name, week_number, first_code
		 FROM events
		 WHERE year = $1
		 ORDER BY week_number, code`,
		year,
	)
	if err != nil {
		return nil, fmt.Errorf("select events by year: %w", err)
	}

	out := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *EventRepository) GetByCode(ctx context.Context, year int, code string) (event.Event, bool, error) {
	var row eventTableModel
	err := r.db.GetContext(ctx, &row,
		`SELECT id, year, code, name, week_number, first_code
		 FROM events
		 WHERE year = $1 AND code = $2`,
		year, code,
	)
	if isNotFound(err) {
		return event.Event{}, false, nil
	}
	if err != nil {
		return event.Event{}, false, fmt.Errorf("select event %d/%s: %w", year, code, err)
	}
	return row.toDomain(), true, nil
}
