package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/classtable-engine/internal/models"
	"github.com/noah-isme/classtable-engine/internal/scheduler"
	appErrors "github.com/noah-isme/classtable-engine/pkg/errors"
)

type instanceLoaderStub struct {
	instance scheduler.Instance
	err      error
}

func (s instanceLoaderStub) Load(ctx context.Context, instanceID string) (scheduler.Instance, error) {
	return s.instance, s.err
}

type solveRunStoreStub struct {
	runs        []models.SolveRun
	assignments map[string][]models.SolveAssignment
}

func (s *solveRunStoreStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, run *models.SolveRun) error {
	run.ID = uuidString(len(s.runs) + 1)
	run.Version = len(s.runs) + 1
	s.runs = append(s.runs, *run)
	return nil
}

func (s *solveRunStoreStub) ListByInstance(ctx context.Context, instanceID string) ([]models.SolveRun, error) {
	var out []models.SolveRun
	for _, r := range s.runs {
		if r.InstanceID == instanceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *solveRunStoreStub) FindByID(ctx context.Context, id string) (*models.SolveRun, error) {
	for _, r := range s.runs {
		if r.ID == id {
			run := r
			return &run, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *solveRunStoreStub) Delete(ctx context.Context, id string) error {
	for idx, r := range s.runs {
		if r.ID == id {
			s.runs = append(s.runs[:idx], s.runs[idx+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *solveRunStoreStub) UpsertAssignments(ctx context.Context, exec sqlx.ExtContext, assignments []models.SolveAssignment) error {
	if s.assignments == nil {
		s.assignments = make(map[string][]models.SolveAssignment)
	}
	for _, a := range assignments {
		s.assignments[a.SolveRunID] = append(s.assignments[a.SolveRunID], a)
	}
	return nil
}

func (s *solveRunStoreStub) ListAssignments(ctx context.Context, solveRunID string) ([]models.SolveAssignment, error) {
	return s.assignments[solveRunID], nil
}

func uuidString(v int) string {
	return fmt.Sprintf("run-%d", v)
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func fixtureInstance() scheduler.Instance {
	return scheduler.Instance{
		Teachers: []scheduler.Teacher{{ID: "t1", Name: "Ms. Ortega"}},
		Rooms:    []scheduler.Room{{ID: "r1", Name: "Room A", Capacity: 30}},
		Subjects: []scheduler.Subject{{ID: "math", Name: "Mathematics", DefaultPeriods: 1}},
		Classes:  []scheduler.Class{{ID: "c1", Name: "9A", StudentCount: 20}},
		Qualifications: []scheduler.Qualification{
			{TeacherID: "t1", SubjectID: "math"},
		},
		Requirements: []scheduler.ClassSubjectRequirement{
			{ClassID: "c1", SubjectID: "math", PeriodsPerWeek: 2},
		},
		Days:          5,
		PeriodsPerDay: 4,
	}
}

func TestSolveServiceSolveReturnsProposal(t *testing.T) {
	svc := NewSolveService(
		instanceLoaderStub{instance: fixtureInstance()},
		&solveRunStoreStub{},
		nil,
		validator.New(),
		zap.NewNop(),
		NewSolveMetrics(),
		NewResultCache(nil, zap.NewNop()),
		SolveServiceConfig{},
	)

	outcome, proposalID, err := svc.Solve(context.Background(), SolveRequest{
		InstanceID:       "inst-1",
		SolutionLimit:    3,
		TimeLimitSeconds: 5,
		Seed:             1,
		HasSeed:          true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, proposalID)
	assert.Equal(t, scheduler.StatusCompleted, outcome.Status)
}

func TestSolveServiceSolveRejectsMissingInstanceID(t *testing.T) {
	svc := NewSolveService(
		instanceLoaderStub{instance: fixtureInstance()},
		&solveRunStoreStub{},
		nil,
		validator.New(),
		zap.NewNop(),
		NewSolveMetrics(),
		NewResultCache(nil, zap.NewNop()),
		SolveServiceConfig{},
	)

	_, _, err := svc.Solve(context.Background(), SolveRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSolveServiceSolveInstanceNotFound(t *testing.T) {
	svc := NewSolveService(
		instanceLoaderStub{err: sql.ErrNoRows},
		&solveRunStoreStub{},
		nil,
		validator.New(),
		zap.NewNop(),
		NewSolveMetrics(),
		NewResultCache(nil, zap.NewNop()),
		SolveServiceConfig{},
	)

	_, _, err := svc.Solve(context.Background(), SolveRequest{InstanceID: "missing"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSolveServicePersistCommits(t *testing.T) {
	txp, mock := newTxProviderMock(t)
	runs := &solveRunStoreStub{}
	svc := NewSolveService(
		instanceLoaderStub{instance: fixtureInstance()},
		runs,
		txp,
		validator.New(),
		zap.NewNop(),
		NewSolveMetrics(),
		NewResultCache(nil, zap.NewNop()),
		SolveServiceConfig{},
	)

	_, proposalID, err := svc.Solve(context.Background(), SolveRequest{
		InstanceID:       "inst-1",
		SolutionLimit:    2,
		TimeLimitSeconds: 5,
		Seed:             7,
		HasSeed:          true,
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	runID, err := svc.Persist(context.Background(), proposalID)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.Len(t, runs.runs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = svc.Persist(context.Background(), proposalID)
	assert.Error(t, err, "a consumed proposal must not be persisted twice")
}

func TestSolveServicePersistUnknownProposal(t *testing.T) {
	txp, _ := newTxProviderMock(t)
	svc := NewSolveService(
		instanceLoaderStub{instance: fixtureInstance()},
		&solveRunStoreStub{},
		txp,
		validator.New(),
		zap.NewNop(),
		NewSolveMetrics(),
		NewResultCache(nil, zap.NewNop()),
		SolveServiceConfig{},
	)

	_, err := svc.Persist(context.Background(), "does-not-exist")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSolveServiceGetNotFound(t *testing.T) {
	svc := NewSolveService(
		instanceLoaderStub{instance: fixtureInstance()},
		&solveRunStoreStub{},
		nil,
		validator.New(),
		zap.NewNop(),
		NewSolveMetrics(),
		NewResultCache(nil, zap.NewNop()),
		SolveServiceConfig{},
	)

	_, _, err := svc.Get(context.Background(), "missing-run")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
