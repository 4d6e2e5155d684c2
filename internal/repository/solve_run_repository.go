package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/classtable-engine/internal/models"
)

// SolveRunRepository persists versioned solve attempts and their ranked
// candidate assignments: CreateVersioned/ListByInstance/FindByID/Delete
// for the run itself, UpsertAssignments/ListAssignments for its slots.
type SolveRunRepository struct {
	db *sqlx.DB
}

// NewSolveRunRepository constructs the repository.
func NewSolveRunRepository(db *sqlx.DB) *SolveRunRepository {
	return &SolveRunRepository{db: db}
}

func (r *SolveRunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a solve run assigning the next version for its
// instance.
func (r *SolveRunRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, run *models.SolveRun) error {
	if run == nil {
		return fmt.Errorf("solve run payload is nil")
	}
	if run.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if len(run.Meta) == 0 {
		run.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM solve_runs WHERE instance_id = $1`
	if err := sqlx.GetContext(ctx, target, &run.Version, nextVersionQuery, run.InstanceID); err != nil {
		return fmt.Errorf("compute next solve run version: %w", err)
	}

	const insertQuery = `
INSERT INTO solve_runs (id, instance_id, version, status, reason, partial, elapsed_ms, meta, created_at, updated_at)
VALUES (:id, :instance_id, :version, :status, :reason, :partial, :elapsed_ms, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, run); err != nil {
		return fmt.Errorf("insert solve run: %w", err)
	}
	return nil
}

// ListByInstance returns every run recorded for an instance, newest version first.
func (r *SolveRunRepository) ListByInstance(ctx context.Context, instanceID string) ([]models.SolveRun, error) {
	const query = `SELECT id, instance_id, version, status, reason, partial, elapsed_ms, meta, created_at, updated_at
FROM solve_runs WHERE instance_id = $1 ORDER BY version DESC`
	var runs []models.SolveRun
	if err := r.db.SelectContext(ctx, &runs, query, instanceID); err != nil {
		return nil, fmt.Errorf("list solve runs: %w", err)
	}
	return runs, nil
}

// FindByID loads a run by its identifier.
func (r *SolveRunRepository) FindByID(ctx context.Context, id string) (*models.SolveRun, error) {
	const query = `SELECT id, instance_id, version, status, reason, partial, elapsed_ms, meta, created_at, updated_at FROM solve_runs WHERE id = $1`
	var run models.SolveRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// Delete removes a stored run and, via ON DELETE CASCADE, its assignments.
func (r *SolveRunRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM solve_runs WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete solve run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("solve run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpsertAssignments batch-inserts every candidate's assignments for a run.
func (r *SolveRunRepository) UpsertAssignments(ctx context.Context, exec sqlx.ExtContext, assignments []models.SolveAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range assignments {
		if assignments[i].ID == "" {
			assignments[i].ID = uuid.NewString()
		}
		if assignments[i].CreatedAt.IsZero() {
			assignments[i].CreatedAt = now
		}
	}
	target := r.exec(exec)
	const query = `
INSERT INTO solve_assignments (id, solve_run_id, candidate_index, class_id, subject_id, teacher_id, room_id, day, period, created_at)
VALUES (:id, :solve_run_id, :candidate_index, :class_id, :subject_id, :teacher_id, :room_id, :day, :period, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, assignments); err != nil {
		return fmt.Errorf("insert solve assignments: %w", err)
	}
	return nil
}

// ListAssignments returns every candidate's assignments for a run, ordered
// so callers can regroup by candidate_index without re-sorting in memory.
func (r *SolveRunRepository) ListAssignments(ctx context.Context, solveRunID string) ([]models.SolveAssignment, error) {
	const query = `SELECT id, solve_run_id, candidate_index, class_id, subject_id, teacher_id, room_id, day, period, created_at
FROM solve_assignments WHERE solve_run_id = $1 ORDER BY candidate_index ASC, class_id ASC, day ASC, period ASC`
	var assignments []models.SolveAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, solveRunID); err != nil {
		return nil, fmt.Errorf("list solve assignments: %w", err)
	}
	return assignments, nil
}
