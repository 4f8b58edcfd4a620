package postgres

import "github.com/frc-sh/scores-api/internal/domain/event"

type eventTableModel struct {
	ID         int64  `db:"id"`
	Year       int    `db:"year"`
	Code       string `db:"code"`
	Name       string `db:"name"`
	WeekNumber int    `db:"week_number"`
	FirstCode  string `db:"first_code"`
}

func (m eventTableModel) toDomain() event.Event {
	return event.Event{
		ID:         m.ID,
		Year:       m.Year,
		Code:       m.Code,
		Name:       m.Name,
		WeekNumber: m.WeekNumber,
		FirstCode:  m.FirstCode,
	}
}
