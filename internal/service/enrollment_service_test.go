package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ermix/school-api/internal/models"
	appErrors "github.com/ermix/school-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	byPair      map[string]string
	created     *models.Enrollment
	reactivated []string
	status      map[string]models.EnrollmentStatus
	activeCount map[string]int
}

func pairKey(studentID, courseID string) string { return studentID + "|" + courseID }

func (m *mockEnrollmentRepo) List(ctx context.Context) ([]models.Enrollment, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		list = append(list, e)
	}
	return list, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	if id, ok := m.byPair[pairKey(studentID, courseID)]; ok {
		e := m.enrollments[id]
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *mockEnrollmentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *mockEnrollmentRepo) ListByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		if e.Status == status {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *mockEnrollmentRepo) ListByStudentAndStatus(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.Status == status {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *mockEnrollmentRepo) ListByCourseAndStatus(ctx context.Context, courseID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		if e.CourseID == courseID && e.Status == status {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *mockEnrollmentRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Enrollment, error) {
	return nil, nil
}

func (m *mockEnrollmentRepo) CountActiveByCourse(ctx context.Context, courseID string) (int, error) {
	return m.activeCount[courseID], nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if m.byPair == nil {
		m.byPair = make(map[string]string)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enrollment"
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.byPair[pairKey(enrollment.StudentID, enrollment.CourseID)] = enrollment.ID
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.EnrollmentStatus)
	}
	m.status[id] = status
	if e, ok := m.enrollments[id]; ok {
		e.Status = status
		m.enrollments[id] = e
	}
	return nil
}

func (m *mockEnrollmentRepo) Reactivate(ctx context.Context, id string, enrollmentDate time.Time) error {
	m.reactivated = append(m.reactivated, id)
	if e, ok := m.enrollments[id]; ok {
		e.Status = models.EnrollmentStatusActive
		e.EnrollmentDate = enrollmentDate
		m.enrollments[id] = e
	}
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.enrollments, id)
	return nil
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseReader struct {
	courses map[string]models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockAvailability struct {
	available bool
	calls     int
}

func (m *mockAvailability) IsAvailable(ctx context.Context, courseID string) (bool, error) {
	m.calls++
	return m.available, nil
}

func enrollFixture(existingStatus models.EnrollmentStatus) (*mockEnrollmentRepo, *mockStudentReader, *mockCourseReader) {
	repo := &mockEnrollmentRepo{
		enrollments: map[string]models.Enrollment{},
		byPair:      map[string]string{},
	}
	if existingStatus != "" {
		repo.enrollments["enr-1"] = models.Enrollment{
			ID:             "enr-1",
			StudentID:      "stu-1",
			CourseID:       "crs-1",
			Status:         existingStatus,
			EnrollmentDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		}
		repo.byPair[pairKey("stu-1", "crs-1")] = "enr-1"
	}
	students := &mockStudentReader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", FirstName: "Ada", LastName: "Lovelace"},
	}}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"crs-1": {ID: "crs-1", CourseCode: "CS101", Title: "Algorithms"},
	}}
	return repo, students, courses
}

func TestEnrollCreatesActiveEnrollment(t *testing.T) {
	repo, students, courses := enrollFixture("")
	availability := &mockAvailability{available: true}
	svc := NewEnrollmentService(repo, students, courses, availability, nil, nil, nil)

	date := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{
		StudentID:      "stu-1",
		CourseID:       "crs-1",
		EnrollmentDate: date,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, date, enrollment.EnrollmentDate)
	assert.Equal(t, 1, availability.calls)
}

func TestEnrollStudentNotFound(t *testing.T) {
	repo, students, courses := enrollFixture("")
	svc := NewEnrollmentService(repo, students, courses, &mockAvailability{available: true}, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{
		StudentID:      "missing",
		CourseID:       "crs-1",
		EnrollmentDate: time.Now(),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "student not found", appErr.Message)
}

func TestEnrollCourseNotFound(t *testing.T) {
	repo, students, courses := enrollFixture("")
	svc := NewEnrollmentService(repo, students, courses, &mockAvailability{available: true}, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{
		StudentID:      "stu-1",
		CourseID:       "missing",
		EnrollmentDate: time.Now(),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "course not found", appErr.Message)
}

func TestEnrollActiveConflict(t *testing.T) {
	repo, students, courses := enrollFixture(models.EnrollmentStatusActive)
	availability := &mockAvailability{available: true}
	svc := NewEnrollmentService(repo, students, courses, availability, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{
		StudentID:      "stu-1",
		CourseID:       "crs-1",
		EnrollmentDate: time.Now(),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "student is already enrolled in this course", appErr.Message)
	assert.Zero(t, availability.calls)
}

func TestEnrollReactivatesDroppedWithoutCapacityCheck(t *testing.T) {
	repo, students, courses := enrollFixture(models.EnrollmentStatusDropped)
	availability := &mockAvailability{available: false}
	svc := NewEnrollmentService(repo, students, courses, availability, nil, nil, nil)

	date := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{
		StudentID:      "stu-1",
		CourseID:       "crs-1",
		EnrollmentDate: date,
	})
	require.NoError(t, err)
	assert.Equal(t, "enr-1", enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, date, enrollment.EnrollmentDate)
	assert.Equal(t, []string{"enr-1"}, repo.reactivated)
	assert.Zero(t, availability.calls)
	assert.Nil(t, repo.created)
}

func TestEnrollCompletedCreatesSecondEnrollment(t *testing.T) {
	repo, students, courses := enrollFixture(models.EnrollmentStatusCompleted)
	availability := &mockAvailability{available: true}
	svc := NewEnrollmentService(repo, students, courses, availability, nil, nil, nil)

	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{
		StudentID:      "stu-1",
		CourseID:       "crs-1",
		EnrollmentDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, availability.calls)
	assert.NotEqual(t, "enr-1", enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	// the completed row survives alongside the new one
	assert.Equal(t, models.EnrollmentStatusCompleted, repo.enrollments["enr-1"].Status)
}

func TestEnrollCourseFull(t *testing.T) {
	repo, students, courses := enrollFixture("")
	svc := NewEnrollmentService(repo, students, courses, &mockAvailability{available: false}, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{
		StudentID:      "stu-1",
		CourseID:       "crs-1",
		EnrollmentDate: time.Now(),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "course is full", appErr.Message)
	assert.Nil(t, repo.created)
}

func TestEnrollValidatesRequiredFields(t *testing.T) {
	repo, students, courses := enrollFixture("")
	svc := NewEnrollmentService(repo, students, courses, &mockAvailability{available: true}, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{CourseID: "crs-1", EnrollmentDate: time.Now()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusAllowsAnyTransition(t *testing.T) {
	repo, students, courses := enrollFixture(models.EnrollmentStatusCompleted)
	svc := NewEnrollmentService(repo, students, courses, &mockAvailability{available: true}, nil, nil, nil)

	enrollment, err := svc.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, models.EnrollmentStatusActive, repo.status["enr-1"])
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo, students, courses := enrollFixture("")
	svc := NewEnrollmentService(repo, students, courses, &mockAvailability{available: true}, nil, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "missing", models.EnrollmentStatusDropped)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	repo, students, courses := enrollFixture(models.EnrollmentStatusActive)
	svc := NewEnrollmentService(repo, students, courses, &mockAvailability{available: true}, nil, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "enr-1", "PAUSED")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
