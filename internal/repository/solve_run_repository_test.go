package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classtable-engine/internal/models"
)

func newSolveRunRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSolveRunRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newSolveRunRepoMock(t)
	defer cleanup()
	repo := NewSolveRunRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM solve_runs WHERE instance_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO solve_runs")).
		WithArgs(sqlmock.AnyArg(), "inst-1", 3, string(models.SolveRunStatusCompleted), "", false, int64(120), types.JSONText(`{}`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	run := &models.SolveRun{
		InstanceID: "inst-1",
		Status:     models.SolveRunStatusCompleted,
		ElapsedMs:  120,
	}
	err := repo.CreateVersioned(context.Background(), nil, run)
	require.NoError(t, err)
	assert.Equal(t, 3, run.Version)
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolveRunRepositoryListByInstance(t *testing.T) {
	db, mock, cleanup := newSolveRunRepoMock(t)
	defer cleanup()
	repo := NewSolveRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "instance_id", "version", "status", "reason", "partial", "elapsed_ms", "meta", "created_at", "updated_at"}).
		AddRow("run-1", "inst-1", 2, string(models.SolveRunStatusCompleted), "", false, 100, types.JSONText(`{}`), time.Now(), time.Now()).
		AddRow("run-0", "inst-1", 1, string(models.SolveRunStatusInfeasible), "no qualified teacher", false, 40, types.JSONText(`{}`), time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, instance_id, version, status, reason, partial, elapsed_ms, meta, created_at, updated_at")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	runs, err := repo.ListByInstance(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolveRunRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newSolveRunRepoMock(t)
	defer cleanup()
	repo := NewSolveRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM solve_runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "run-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolveRunRepositoryUpsertAssignmentsEmpty(t *testing.T) {
	db, mock, cleanup := newSolveRunRepoMock(t)
	defer cleanup()
	repo := NewSolveRunRepository(db)

	err := repo.UpsertAssignments(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSolveRunRepositoryListAssignments(t *testing.T) {
	db, mock, cleanup := newSolveRunRepoMock(t)
	defer cleanup()
	repo := NewSolveRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "solve_run_id", "candidate_index", "class_id", "subject_id", "teacher_id", "room_id", "day", "period", "created_at"}).
		AddRow("a-1", "run-1", 0, "c1", "math", "t1", "r1", 0, 0, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, solve_run_id, candidate_index, class_id, subject_id, teacher_id, room_id, day, period, created_at")).
		WithArgs("run-1").
		WillReturnRows(rows)

	assignments, err := repo.ListAssignments(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
	assert.Equal(t, "c1", assignments[0].ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
