package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestInstanceRepositoryLoad(t *testing.T) {
	db, mock, cleanup := newInstanceRepoMock(t)
	defer cleanup()
	repo := NewInstanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, days, periods_per_day FROM instances WHERE id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "days", "periods_per_day"}).
			AddRow("inst-1", "Fall Term", 5, 8))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, instance_id, name, availability, preferences FROM teachers WHERE instance_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instance_id", "name", "availability", "preferences"}).
			AddRow("t1", "inst-1", "Ms. Ortega", []byte(`{"days":{}}`), []byte(`{}`)))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, instance_id, name, capacity, features FROM rooms WHERE instance_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instance_id", "name", "capacity", "features"}).
			AddRow("r1", "inst-1", "Lab A", 30, []byte(`{"lab":true}`)))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, instance_id, name, required_features, default_periods FROM subjects WHERE instance_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instance_id", "name", "required_features", "default_periods"}).
			AddRow("math", "inst-1", "Mathematics", []byte(`{}`), 1))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, instance_id, name, student_count FROM classes WHERE instance_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instance_id", "name", "student_count"}).
			AddRow("c1", "inst-1", "9A", 28))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT instance_id, teacher_id, subject_id FROM qualifications WHERE instance_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"instance_id", "teacher_id", "subject_id"}).
			AddRow("inst-1", "t1", "math"))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT instance_id, class_id, subject_id, periods_per_week FROM class_subject_requirements WHERE instance_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"instance_id", "class_id", "subject_id", "periods_per_week"}).
			AddRow("inst-1", "c1", "math", 4))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT instance_id, class_id, subject_id, block_size FROM consecutive_requirements WHERE instance_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"instance_id", "class_id", "subject_id", "block_size"}))

	instance, err := repo.Load(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, 5, instance.Days)
	assert.Equal(t, 8, instance.PeriodsPerDay)
	require.Len(t, instance.Teachers, 1)
	assert.Equal(t, "Ms. Ortega", instance.Teachers[0].Name)
	require.Len(t, instance.Rooms, 1)
	assert.Equal(t, map[string]bool{"lab": true}, instance.Rooms[0].Features)
	require.Len(t, instance.Requirements, 1)
	assert.Equal(t, 4, instance.Requirements[0].PeriodsPerWeek)
	assert.Empty(t, instance.Consecutive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceRepositoryLoadMissing(t *testing.T) {
	db, mock, cleanup := newInstanceRepoMock(t)
	defer cleanup()
	repo := NewInstanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, days, periods_per_day FROM instances WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sqlmock.ErrCancelled)

	_, err := repo.Load(context.Background(), "missing")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
