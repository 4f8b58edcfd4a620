package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/frc-sh/scores-api/internal/domain/event"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EventRepositoryTestSuite struct {
	suite.Suite
	db   *sqlx.DB
	mock sqlmock.Sqlmock
	repo *EventRepository
}

func (suite *EventRepositoryTestSuite) SetupTest() {
	mockDB, mock, err := sqlmock.New()
	require.NoError(suite.T(), err)

	suite.db = sqlx.NewDb(mockDB, "sqlmock")
	suite.mock = mock
	suite.repo = NewEventRepository(suite.db)
}

func (suite *EventRepositoryTestSuite) TearDownTest() {
	suite.db.Close()
}

func (suite *EventRepositoryTestSuite) TestReplaceYear_UpsertsAndDeletesOrphans() {
	items := []event.Event{
		{Year: 2024, Code: "MILSU", Name: "Lake Superior Regional", WeekNumber: 1, FirstCode: "MILSU"},
		{Year: 2024, Code: "TXWAC", Name: "Waco District", WeekNumber: 2, FirstCode: "TXWAC"},
	}

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(2024, "MILSU", "Lake Superior Regional", 1, "MILSU").
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))
	suite.mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(2024, "TXWAC", "Waco District", 2, "TXWAC").
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(false))
	suite.mock.ExpectExec(`DELETE FROM events WHERE year = \$1 AND NOT \(code = ANY\(\$2\)\)`).
		WithArgs(2024, pq.Array([]string{"MILSU", "TXWAC"})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	suite.mock.ExpectCommit()

	summary, err := suite.repo.ReplaceYear(context.Background(), 2024, items)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, summary.Inserted)
	assert.Equal(suite.T(), 1, summary.Updated)
	assert.Equal(suite.T(), 1, summary.Deleted)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *EventRepositoryTestSuite) TestReplaceYear_UnchangedRowCountsAsNeither() {
	items := []event.Event{
		{Year: 2024, Code: "MILSU", Name: "Lake Superior Regional", WeekNumber: 1, FirstCode: "MILSU"},
	}

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(2024, "MILSU", "Lake Superior Regional", 1, "MILSU").
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}))
	suite.mock.ExpectExec(`DELETE FROM events`).
		WithArgs(2024, pq.Array([]string{"MILSU"})).
		WillReturnResult(sqlmock.NewResult(0, 0))
	suite.mock.ExpectCommit()

	summary, err := suite.repo.ReplaceYear(context.Background(), 2024, items)

	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), summary.Inserted)
	assert.Zero(suite.T(), summary.Updated)
	assert.Zero(suite.T(), summary.Deleted)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *EventRepositoryTestSuite) TestReplaceYear_UpsertFailureRollsBack() {
	items := []event.Event{
		{Year: 2024, Code: "MILSU", Name: "Lake Superior Regional", WeekNumber: 1, FirstCode: "MILSU"},
	}

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(2024, "MILSU", "Lake Superior Regional", 1, "MILSU").
		WillReturnError(errors.New("connection reset"))
	suite.mock.ExpectRollback()

	_, err := suite.repo.ReplaceYear(context.Background(), 2024, items)

	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "upsert event 2024/MILSU")
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *EventRepositoryTestSuite) TestGetByCode_Found() {
	rows := sqlmock.NewRows([]string{"id", "year", "code", "name", "week_number", "first_code"}).
		AddRow(int64(7), 2024, "MILSU", "Lake Superior Regional", 1, "MILSU")
	suite.mock.ExpectQuery(`SELECT id, year, code, name, week_number, first_code`).
		WithArgs(2024, "MILSU").
		WillReturnRows(rows)

	evt, found, err := suite.repo.GetByCode(context.Background(), 2024, "MILSU")

	require.NoError(suite.T(), err)
	assert.True(suite.T(), found)
	assert.Equal(suite.T(), int64(7), evt.ID)
	assert.Equal(suite.T(), "Lake Superior Regional", evt.Name)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *EventRepositoryTestSuite) TestGetByCode_Missing() {
	suite.mock.ExpectQuery(`SELECT id, year, code, name, week_number, first_code`).
		WithArgs(2024, "NOPE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "year", "code", "name", "week_number", "first_code"}))

	_, found, err := suite.repo.GetByCode(context.Background(), 2024, "NOPE")

	require.NoError(suite.T(), err)
	assert.False(suite.T(), found)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *EventRepositoryTestSuite) TestListByYear() {
	rows := sqlmock.NewRows([]string{"id", "year", "code", "name", "week_number", "first_code"}).
		AddRow(int64(1), 2024, "MILSU", "Lake Superior Regional", 1, "MILSU").
		AddRow(int64(2), 2024, "TXWAC", "Waco District", 2, "TXWAC")
	suite.mock.ExpectQuery(`SELECT id, year, code, name, week_number, first_code`).
		WithArgs(2024).
		WillReturnRows(rows)

	events, err := suite.repo.ListByYear(context.Background(), 2024)

	require.NoError(suite.T(), err)
	require.Len(suite.T(), events, 2)
	assert.Equal(suite.T(), "MILSU", events[0].Code)
	assert.Equal(suite.T(), 2, events[1].WeekNumber)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func TestEventRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(EventRepositoryTestSuite))
}
