package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SolveRunStatus mirrors scheduler.Status for persisted runs.
type SolveRunStatus string

const (
	SolveRunStatusCompleted    SolveRunStatus = "COMPLETED"
	SolveRunStatusTimedOut     SolveRunStatus = "TIMED_OUT"
	SolveRunStatusInfeasible   SolveRunStatus = "INFEASIBLE"
	SolveRunStatusInvalidInput SolveRunStatus = "INVALID_INPUT"
	SolveRunStatusCancelled    SolveRunStatus = "CANCELLED"
	SolveRunStatusInternal     SolveRunStatus = "INTERNAL"
)

// SolveRun is a versioned record of one Solve() invocation against an
// instance: it versions every attempt to solve a given InstanceID,
// successful or not.
type SolveRun struct {
	ID         string         `db:"id" json:"id"`
	InstanceID string         `db:"instance_id" json:"instance_id"`
	Version    int            `db:"version" json:"version"`
	Status     SolveRunStatus `db:"status" json:"status"`
	Reason     string         `db:"reason" json:"reason,omitempty"`
	Partial    bool           `db:"partial" json:"partial"`
	ElapsedMs  int64          `db:"elapsed_ms" json:"elapsed_ms"`
	Meta       types.JSONText `db:"meta" json:"meta"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// SolveAssignment is one committed placement belonging to one ranked
// candidate of a SolveRun.
type SolveAssignment struct {
	ID             string    `db:"id" json:"id"`
	SolveRunID     string    `db:"solve_run_id" json:"solve_run_id"`
	CandidateIndex int       `db:"candidate_index" json:"candidate_index"`
	ClassID        string    `db:"class_id" json:"class_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	RoomID         string    `db:"room_id" json:"room_id"`
	Day            int       `db:"day" json:"day"`
	Period         int       `db:"period" json:"period"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// SolveRunSummary is the lightweight list-view projection of a SolveRun.
type SolveRunSummary struct {
	ID         string         `json:"id"`
	InstanceID string         `json:"instance_id"`
	Version    int            `json:"version"`
	Status     SolveRunStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

// InstanceRecord is the normalized row-set backing one schedulable instance
// (a school's data for one term), as loaded by InstanceRepository.
type InstanceRecord struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Days          int    `db:"days" json:"days"`
	PeriodsPerDay int    `db:"periods_per_day" json:"periods_per_day"`
}

// TeacherRow is a teacher row as stored, before availability/preference
// documents are decoded into scheduler.TeacherAvailabilityDoc/TeacherPreferenceDoc.
type TeacherRow struct {
	ID           string         `db:"id" json:"id"`
	InstanceID   string         `db:"instance_id" json:"instance_id"`
	Name         string         `db:"name" json:"name"`
	Availability types.JSONText `db:"availability" json:"availability"`
	Preferences  types.JSONText `db:"preferences" json:"preferences"`
}

// RoomRow, SubjectRow, ClassRow, QualificationRow, RequirementRow and
// ConsecutiveRow are the remaining Instance component tables.
type RoomRow struct {
	ID         string         `db:"id" json:"id"`
	InstanceID string         `db:"instance_id" json:"instance_id"`
	Name       string         `db:"name" json:"name"`
	Capacity   int            `db:"capacity" json:"capacity"`
	Features   types.JSONText `db:"features" json:"features"`
}

type SubjectRow struct {
	ID               string         `db:"id" json:"id"`
	InstanceID       string         `db:"instance_id" json:"instance_id"`
	Name             string         `db:"name" json:"name"`
	RequiredFeatures types.JSONText `db:"required_features" json:"required_features"`
	DefaultPeriods   int            `db:"default_periods" json:"default_periods"`
}

type ClassRow struct {
	ID           string `db:"id" json:"id"`
	InstanceID   string `db:"instance_id" json:"instance_id"`
	Name         string `db:"name" json:"name"`
	StudentCount int    `db:"student_count" json:"student_count"`
}

type QualificationRow struct {
	InstanceID string `db:"instance_id" json:"instance_id"`
	TeacherID  string `db:"teacher_id" json:"teacher_id"`
	SubjectID  string `db:"subject_id" json:"subject_id"`
}

type RequirementRow struct {
	InstanceID     string `db:"instance_id" json:"instance_id"`
	ClassID        string `db:"class_id" json:"class_id"`
	SubjectID      string `db:"subject_id" json:"subject_id"`
	PeriodsPerWeek int    `db:"periods_per_week" json:"periods_per_week"`
}

type ConsecutiveRow struct {
	InstanceID string `db:"instance_id" json:"instance_id"`
	ClassID    string `db:"class_id" json:"class_id"`
	SubjectID  string `db:"subject_id" json:"subject_id"`
	BlockSize  int    `db:"block_size" json:"block_size"`
}
