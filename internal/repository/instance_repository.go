package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classtable-engine/internal/models"
	"github.com/noah-isme/classtable-engine/internal/scheduler"
)

// InstanceRepository loads a schedulable instance's full row-set and decodes
// it into the scheduler's normalized Instance value, using SelectContext
// against a join-free, instance-scoped table set.
type InstanceRepository struct {
	db *sqlx.DB
}

// NewInstanceRepository constructs the repository.
func NewInstanceRepository(db *sqlx.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// Load assembles a scheduler.Instance from every component table scoped to
// instanceID. It never applies defaults or validates; that is Solve's job.
func (r *InstanceRepository) Load(ctx context.Context, instanceID string) (scheduler.Instance, error) {
	var meta models.InstanceRecord
	if err := r.db.GetContext(ctx, &meta, `SELECT id, name, days, periods_per_day FROM instances WHERE id = $1`, instanceID); err != nil {
		return scheduler.Instance{}, fmt.Errorf("load instance %s: %w", instanceID, err)
	}

	var teacherRows []models.TeacherRow
	if err := r.db.SelectContext(ctx, &teacherRows, `SELECT id, instance_id, name, availability, preferences FROM teachers WHERE instance_id = $1 ORDER BY id`, instanceID); err != nil {
		return scheduler.Instance{}, fmt.Errorf("load teachers: %w", err)
	}
	teachers := make([]scheduler.Teacher, 0, len(teacherRows))
	for _, row := range teacherRows {
		t := scheduler.Teacher{ID: row.ID, Name: row.Name}
		if len(row.Availability) > 0 {
			if err := json.Unmarshal(row.Availability, &t.Availability); err != nil {
				return scheduler.Instance{}, fmt.Errorf("decode teacher %s availability: %w", row.ID, err)
			}
		}
		if len(row.Preferences) > 0 {
			if err := json.Unmarshal(row.Preferences, &t.Preferences); err != nil {
				return scheduler.Instance{}, fmt.Errorf("decode teacher %s preferences: %w", row.ID, err)
			}
		}
		teachers = append(teachers, t)
	}

	var roomRows []models.RoomRow
	if err := r.db.SelectContext(ctx, &roomRows, `SELECT id, instance_id, name, capacity, features FROM rooms WHERE instance_id = $1 ORDER BY id`, instanceID); err != nil {
		return scheduler.Instance{}, fmt.Errorf("load rooms: %w", err)
	}
	rooms := make([]scheduler.Room, 0, len(roomRows))
	for _, row := range roomRows {
		room := scheduler.Room{ID: row.ID, Name: row.Name, Capacity: row.Capacity}
		if len(row.Features) > 0 {
			if err := json.Unmarshal(row.Features, &room.Features); err != nil {
				return scheduler.Instance{}, fmt.Errorf("decode room %s features: %w", row.ID, err)
			}
		}
		rooms = append(rooms, room)
	}

	var subjectRows []models.SubjectRow
	if err := r.db.SelectContext(ctx, &subjectRows, `SELECT id, instance_id, name, required_features, default_periods FROM subjects WHERE instance_id = $1 ORDER BY id`, instanceID); err != nil {
		return scheduler.Instance{}, fmt.Errorf("load subjects: %w", err)
	}
	subjects := make([]scheduler.Subject, 0, len(subjectRows))
	for _, row := range subjectRows {
		subj := scheduler.Subject{ID: row.ID, Name: row.Name, DefaultPeriods: row.DefaultPeriods}
		if len(row.RequiredFeatures) > 0 {
			if err := json.Unmarshal(row.RequiredFeatures, &subj.RequiredFeatures); err != nil {
				return scheduler.Instance{}, fmt.Errorf("decode subject %s required features: %w", row.ID, err)
			}
		}
		subjects = append(subjects, subj)
	}

	var classRows []models.ClassRow
	if err := r.db.SelectContext(ctx, &classRows, `SELECT id, instance_id, name, student_count FROM classes WHERE instance_id = $1 ORDER BY id`, instanceID); err != nil {
		return scheduler.Instance{}, fmt.Errorf("load classes: %w", err)
	}
	classes := make([]scheduler.Class, 0, len(classRows))
	for _, row := range classRows {
		classes = append(classes, scheduler.Class{ID: row.ID, Name: row.Name, StudentCount: row.StudentCount})
	}

	var qualificationRows []models.QualificationRow
	if err := r.db.SelectContext(ctx, &qualificationRows, `SELECT instance_id, teacher_id, subject_id FROM qualifications WHERE instance_id = $1`, instanceID); err != nil {
		return scheduler.Instance{}, fmt.Errorf("load qualifications: %w", err)
	}
	qualifications := make([]scheduler.Qualification, 0, len(qualificationRows))
	for _, row := range qualificationRows {
		qualifications = append(qualifications, scheduler.Qualification{TeacherID: row.TeacherID, SubjectID: row.SubjectID})
	}

	var requirementRows []models.RequirementRow
	if err := r.db.SelectContext(ctx, &requirementRows, `SELECT instance_id, class_id, subject_id, periods_per_week FROM class_subject_requirements WHERE instance_id = $1`, instanceID); err != nil {
		return scheduler.Instance{}, fmt.Errorf("load requirements: %w", err)
	}
	requirements := make([]scheduler.ClassSubjectRequirement, 0, len(requirementRows))
	for _, row := range requirementRows {
		requirements = append(requirements, scheduler.ClassSubjectRequirement{ClassID: row.ClassID, SubjectID: row.SubjectID, PeriodsPerWeek: row.PeriodsPerWeek})
	}

	var consecutiveRows []models.ConsecutiveRow
	if err := r.db.SelectContext(ctx, &consecutiveRows, `SELECT instance_id, class_id, subject_id, block_size FROM consecutive_requirements WHERE instance_id = $1`, instanceID); err != nil {
		return scheduler.Instance{}, fmt.Errorf("load consecutive requirements: %w", err)
	}
	consecutive := make([]scheduler.ConsecutiveRequirement, 0, len(consecutiveRows))
	for _, row := range consecutiveRows {
		consecutive = append(consecutive, scheduler.ConsecutiveRequirement{ClassID: row.ClassID, SubjectID: row.SubjectID, BlockSize: row.BlockSize})
	}

	return scheduler.Instance{
		Teachers:       teachers,
		Rooms:          rooms,
		Subjects:       subjects,
		Classes:        classes,
		Qualifications: qualifications,
		Requirements:   requirements,
		Consecutive:    consecutive,
		Days:           meta.Days,
		PeriodsPerDay:  meta.PeriodsPerDay,
	}, nil
}
