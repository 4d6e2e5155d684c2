package dto

import (
	"time"

	"github.com/noah-isme/classtable-engine/internal/models"
)

// AssignmentView is the wire-format projection of one committed placement.
type AssignmentView struct {
	ClassID   string `json:"class_id"`
	SubjectID string `json:"subject_id"`
	TeacherID string `json:"teacher_id"`
	RoomID    string `json:"room_id"`
	Day       int    `json:"day"`
	Period    int    `json:"period"`
}

// CandidateView groups one ranked candidate's assignments.
type CandidateView struct {
	Index       int              `json:"index"`
	Assignments []AssignmentView `json:"assignments"`
}

// SolveRunView is the read-only response for GET /v1/solves/{id}.
type SolveRunView struct {
	ID         string                  `json:"id"`
	InstanceID string                  `json:"instance_id"`
	Version    int                     `json:"version"`
	Status     models.SolveRunStatus   `json:"status"`
	Reason     string                  `json:"reason,omitempty"`
	Partial    bool                    `json:"partial"`
	ElapsedMs  int64                   `json:"elapsed_ms"`
	CreatedAt  time.Time               `json:"created_at"`
	Candidates []CandidateView         `json:"candidates"`
}

// NewSolveRunView assembles a SolveRunView from a stored run and its
// flattened assignment rows, regrouping by candidate index.
func NewSolveRunView(run *models.SolveRun, assignments []models.SolveAssignment) SolveRunView {
	byIndex := make(map[int][]AssignmentView)
	order := make([]int, 0)
	seen := make(map[int]struct{})
	for _, a := range assignments {
		if _, ok := seen[a.CandidateIndex]; !ok {
			seen[a.CandidateIndex] = struct{}{}
			order = append(order, a.CandidateIndex)
		}
		byIndex[a.CandidateIndex] = append(byIndex[a.CandidateIndex], AssignmentView{
			ClassID:   a.ClassID,
			SubjectID: a.SubjectID,
			TeacherID: a.TeacherID,
			RoomID:    a.RoomID,
			Day:       a.Day,
			Period:    a.Period,
		})
	}

	candidates := make([]CandidateView, 0, len(order))
	for _, idx := range order {
		candidates = append(candidates, CandidateView{Index: idx, Assignments: byIndex[idx]})
	}

	return SolveRunView{
		ID:         run.ID,
		InstanceID: run.InstanceID,
		Version:    run.Version,
		Status:     run.Status,
		Reason:     run.Reason,
		Partial:    run.Partial,
		ElapsedMs:  run.ElapsedMs,
		CreatedAt:  run.CreatedAt,
		Candidates: candidates,
	}
}
