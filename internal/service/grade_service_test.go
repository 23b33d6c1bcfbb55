package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ermix/school-api/internal/models"
	appErrors "github.com/ermix/school-api/pkg/errors"
)

type mockGradeRepo struct {
	grades       map[string]models.Grade
	averages     map[string]*float64
	averageCalls int
	created      *models.Grade
	updated      *models.Grade
	deleted      []string
}

func (m *mockGradeRepo) List(ctx context.Context) ([]models.Grade, error) {
	var list []models.Grade
	for _, g := range m.grades {
		list = append(list, g)
	}
	return list, nil
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error) {
	var list []models.Grade
	for _, g := range m.grades {
		if g.EnrollmentID == enrollmentID {
			list = append(list, g)
		}
	}
	return list, nil
}

func (m *mockGradeRepo) ListByType(ctx context.Context, gradeType models.GradeType) ([]models.Grade, error) {
	return nil, nil
}

func (m *mockGradeRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Grade, error) {
	return nil, nil
}

func (m *mockGradeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	return nil, nil
}

func (m *mockGradeRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Grade, error) {
	return nil, nil
}

func (m *mockGradeRepo) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Grade, error) {
	return nil, nil
}

func (m *mockGradeRepo) AverageForEnrollment(ctx context.Context, enrollmentID string) (*float64, error) {
	m.averageCalls++
	return m.averages["enrollment:"+enrollmentID], nil
}

func (m *mockGradeRepo) AverageForStudent(ctx context.Context, studentID string) (*float64, error) {
	m.averageCalls++
	return m.averages["student:"+studentID], nil
}

func (m *mockGradeRepo) AverageForCourse(ctx context.Context, courseID string) (*float64, error) {
	m.averageCalls++
	return m.averages["course:"+courseID], nil
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	if m.grades == nil {
		m.grades = make(map[string]models.Grade)
	}
	if grade.ID == "" {
		grade.ID = "new-grade"
	}
	m.grades[grade.ID] = *grade
	m.created = grade
	return nil
}

func (m *mockGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	m.grades[grade.ID] = *grade
	m.updated = grade
	return nil
}

func (m *mockGradeRepo) Delete(ctx context.Context, id string) error {
	delete(m.grades, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockEnrollmentReader struct {
	enrollments map[string]models.Enrollment
}

func (m *mockEnrollmentReader) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

type memoryCache struct {
	values  map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
		m.deleted = append(m.deleted, key)
	}
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func gradeFixture() (*mockGradeRepo, *mockEnrollmentReader) {
	repo := &mockGradeRepo{
		grades:   map[string]models.Grade{},
		averages: map[string]*float64{},
	}
	enrollments := &mockEnrollmentReader{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", Status: models.EnrollmentStatusActive},
	}}
	return repo, enrollments
}

func TestAverageNilWhenNoGrades(t *testing.T) {
	repo, enrollments := gradeFixture()
	svc := NewGradeService(repo, enrollments, nil, 0, nil, nil, nil)

	average, err := svc.AverageForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Nil(t, average)
}

func TestAverageReturnsValue(t *testing.T) {
	repo, enrollments := gradeFixture()
	repo.averages["course:crs-1"] = floatPtr(87.5)
	svc := NewGradeService(repo, enrollments, nil, 0, nil, nil, nil)

	average, err := svc.AverageForCourse(context.Background(), "crs-1")
	require.NoError(t, err)
	require.NotNil(t, average)
	assert.InDelta(t, 87.5, *average, 0.0001)
}

func TestAverageServedFromCache(t *testing.T) {
	repo, enrollments := gradeFixture()
	repo.averages["student:stu-1"] = floatPtr(91.0)
	cache := newMemoryCache()
	svc := NewGradeService(repo, enrollments, cache, time.Minute, nil, nil, nil)

	first, err := svc.AverageForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, repo.averageCalls)

	second, err := svc.AverageForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.InDelta(t, 91.0, *second, 0.0001)
	assert.Equal(t, 1, repo.averageCalls)
}

func TestNilAverageIsCachedToo(t *testing.T) {
	repo, enrollments := gradeFixture()
	cache := newMemoryCache()
	svc := NewGradeService(repo, enrollments, cache, time.Minute, nil, nil, nil)

	first, err := svc.AverageForEnrollment(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Nil(t, first)

	second, err := svc.AverageForEnrollment(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Equal(t, 1, repo.averageCalls)
}

func TestCreateGradeInvalidatesAverages(t *testing.T) {
	repo, enrollments := gradeFixture()
	cache := newMemoryCache()
	svc := NewGradeService(repo, enrollments, cache, time.Minute, nil, nil, nil)

	grade, err := svc.Create(context.Background(), GradeRequest{
		EnrollmentID: "enr-1",
		GradeValue:   88,
		GradeType:    "QUIZ",
		DateRecorded: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, models.GradeTypeQuiz, grade.GradeType)
	assert.ElementsMatch(t, []string{
		"grades:avg:enrollment:enr-1",
		"grades:avg:student:stu-1",
		"grades:avg:course:crs-1",
	}, cache.deleted)
}

func TestCreateGradeEnrollmentNotFound(t *testing.T) {
	repo, enrollments := gradeFixture()
	svc := NewGradeService(repo, enrollments, nil, 0, nil, nil, nil)

	_, err := svc.Create(context.Background(), GradeRequest{
		EnrollmentID: "missing",
		GradeValue:   70,
		GradeType:    "FINAL",
		DateRecorded: time.Now(),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "enrollment not found", appErr.Message)
	assert.Nil(t, repo.created)
}

func TestCreateGradeRejectsUnknownType(t *testing.T) {
	repo, enrollments := gradeFixture()
	svc := NewGradeService(repo, enrollments, nil, 0, nil, nil, nil)

	_, err := svc.Create(context.Background(), GradeRequest{
		EnrollmentID: "enr-1",
		GradeValue:   70,
		GradeType:    "PARTICIPATION",
		DateRecorded: time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateGradeAcceptsValuesAboveOneHundred(t *testing.T) {
	repo, enrollments := gradeFixture()
	svc := NewGradeService(repo, enrollments, nil, 0, nil, nil, nil)

	grade, err := svc.Create(context.Background(), GradeRequest{
		EnrollmentID: "enr-1",
		GradeValue:   150,
		GradeType:    "QUIZ",
		DateRecorded: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, grade.GradeValue)
}

func TestCreateGradeRejectsOutOfRangeValue(t *testing.T) {
	repo, enrollments := gradeFixture()
	svc := NewGradeService(repo, enrollments, nil, 0, nil, nil, nil)

	_, err := svc.Create(context.Background(), GradeRequest{
		EnrollmentID: "enr-1",
		GradeValue:   1000,
		GradeType:    "QUIZ",
		DateRecorded: time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateGradeKeepsEnrollmentReference(t *testing.T) {
	repo, enrollments := gradeFixture()
	repo.grades["grd-1"] = models.Grade{
		ID:           "grd-1",
		EnrollmentID: "enr-1",
		GradeValue:   60,
		GradeType:    models.GradeTypeQuiz,
	}
	svc := NewGradeService(repo, enrollments, nil, 0, nil, nil, nil)

	grade, err := svc.Update(context.Background(), "grd-1", GradeRequest{
		EnrollmentID: "someone-elses",
		GradeValue:   75,
		GradeType:    "MIDTERM",
		DateRecorded: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "enr-1", grade.EnrollmentID)
	assert.InDelta(t, 75.0, grade.GradeValue, 0.0001)
	assert.Equal(t, models.GradeTypeMidterm, grade.GradeType)
}

func TestDeleteGradeInvalidatesAverages(t *testing.T) {
	repo, enrollments := gradeFixture()
	repo.grades["grd-1"] = models.Grade{ID: "grd-1", EnrollmentID: "enr-1"}
	cache := newMemoryCache()
	svc := NewGradeService(repo, enrollments, cache, time.Minute, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "grd-1"))
	assert.Equal(t, []string{"grd-1"}, repo.deleted)
	assert.Contains(t, cache.deleted, "grades:avg:enrollment:enr-1")
}
