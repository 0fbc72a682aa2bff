package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/scheduling-api/internal/models"
)

func newRuleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func ruleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "teacher_id", "day_of_week", "start_time", "end_time", "is_recurring", "specific_date", "created_at", "updated_at"})
}

func TestAvailabilityRuleRepositoryListRelevant(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	now := time.Now()
	oneOffDate := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	rows := ruleRows().
		AddRow("r1", "teacher-1", 1, "09:00:00", "12:00:00", true, nil, now, now).
		AddRow("r2", "teacher-1", 1, "14:00:00", "16:00:00", false, oneOffDate, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, day_of_week, start_time, end_time, is_recurring, specific_date, created_at, updated_at FROM availability_rules WHERE teacher_id = $1 AND (is_recurring OR specific_date >= CURRENT_DATE) ORDER BY day_of_week ASC, start_time ASC")).
		WithArgs("teacher-1").
		WillReturnRows(rows)

	rules, err := repo.ListRelevant(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "r1", rules[0].ID)
	assert.Equal(t, models.ClockTime(9*60), rules[0].StartTime)
	assert.True(t, rules[0].IsRecurring)
	assert.Nil(t, rules[0].SpecificDate)

	assert.False(t, rules[1].IsRecurring)
	require.NotNil(t, rules[1].SpecificDate)
	assert.Equal(t, "2026-09-07", rules[1].SpecificDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRuleRepositoryFindByIDNoRows(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	mock.ExpectQuery("SELECT .+ FROM availability_rules WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRuleRepositoryResolutionBatch(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, day_of_week, start_time, end_time, is_recurring, specific_date, created_at, updated_at FROM availability_rules WHERE teacher_id = $1 AND day_of_week = $2 ORDER BY start_time ASC FOR UPDATE")).
		WithArgs("teacher-1", 1).
		WillReturnRows(ruleRows().AddRow("r1", "teacher-1", 1, "10:00:00", "12:00:00", false, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), now, now))
	mock.ExpectExec("DELETE FROM availability_rules WHERE id = ANY\\(\\$1\\)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE availability_rules SET start_time = \\$2, end_time = \\$3").
		WithArgs("r2", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO availability_rules").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	snapshot, err := repo.ListForUpdateTx(ctx, tx, "teacher-1", 1)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "r1", snapshot[0].ID)

	require.NoError(t, repo.DeleteTx(ctx, tx, []string{"r1"}))
	require.NoError(t, repo.UpdateWindowTx(ctx, tx, "r2", models.ClockTime(9*60), models.ClockTime(10*60)))

	rule := &models.AvailabilityRule{
		TeacherID:   "teacher-1",
		DayOfWeek:   1,
		StartTime:   models.ClockTime(9 * 60),
		EndTime:     models.ClockTime(12 * 60),
		IsRecurring: true,
	}
	require.NoError(t, repo.InsertTx(ctx, tx, rule))
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRuleRepositoryDeleteTxSkipsEmptyBatch(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteTx(ctx, tx, nil))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRuleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	mock.ExpectExec("DELETE FROM availability_rules WHERE id = \\$1").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
