package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/scheduling-api/internal/models"
)

func blockRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "teacher_id", "blocked_date", "blocked_start", "blocked_end", "reason", "created_at"})
}

func TestUnavailableBlockRepositoryListInRange(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewUnavailableBlockRepository(db)

	now := time.Now()
	blockedDate := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	rows := blockRows().
		AddRow("b1", "teacher-1", blockedDate, "12:00:00", "13:00:00", "lunch", now).
		AddRow("b2", "teacher-1", blockedDate, "15:00:00", "16:00:00", nil, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, blocked_date, blocked_start, blocked_end, reason, created_at FROM unavailable_blocks WHERE teacher_id = $1 AND blocked_date BETWEEN $2 AND $3 ORDER BY blocked_date ASC, blocked_start ASC")).
		WithArgs("teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	from, _ := models.ParseDateOnly("2026-09-01")
	to, _ := models.ParseDateOnly("2026-09-14")
	blocks, err := repo.ListInRange(context.Background(), "teacher-1", from, to)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, "2026-09-07", blocks[0].BlockedDate.String())
	assert.Equal(t, models.ClockTime(12*60), blocks[0].BlockedStart)
	require.NotNil(t, blocks[0].Reason)
	assert.Equal(t, "lunch", *blocks[0].Reason)
	assert.Nil(t, blocks[1].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnavailableBlockRepositoryListFuture(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewUnavailableBlockRepository(db)

	mock.ExpectQuery("SELECT .+ FROM unavailable_blocks WHERE teacher_id = \\$1 AND blocked_date >= CURRENT_DATE").
		WithArgs("teacher-1").
		WillReturnRows(blockRows())

	blocks, err := repo.ListFuture(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Empty(t, blocks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnavailableBlockRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewUnavailableBlockRepository(db)

	mock.ExpectExec("INSERT INTO unavailable_blocks").
		WillReturnResult(sqlmock.NewResult(1, 1))

	blockedDate, _ := models.ParseDateOnly("2026-09-07")
	block := &models.UnavailableBlock{
		TeacherID:    "teacher-1",
		BlockedDate:  blockedDate,
		BlockedStart: models.ClockTime(12 * 60),
		BlockedEnd:   models.ClockTime(13 * 60),
	}
	require.NoError(t, repo.Create(context.Background(), block))
	assert.NotEmpty(t, block.ID)
	assert.False(t, block.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnavailableBlockRepositoryFindByIDNoRows(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewUnavailableBlockRepository(db)

	mock.ExpectQuery("SELECT .+ FROM unavailable_blocks WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnavailableBlockRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewUnavailableBlockRepository(db)

	mock.ExpectExec("DELETE FROM unavailable_blocks WHERE id = \\$1").
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "b1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
