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

type mockStudentRepo struct {
	students     map[string]models.Student
	saved        *models.Student
	lastCriteria models.StudentSearchCriteria
	searchResult []models.Student
}

func (m *mockStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	var list []models.Student
	for _, s := range m.students {
		list = append(list, s)
	}
	return list, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	for _, s := range m.students {
		if s.Email == email {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ListByLastName(ctx context.Context, lastName string) ([]models.Student, error) {
	return nil, nil
}

func (m *mockStudentRepo) ListByName(ctx context.Context, firstName, lastName string) ([]models.Student, error) {
	return nil, nil
}

func (m *mockStudentRepo) ListByEnrollmentDate(ctx context.Context, date time.Time) ([]models.Student, error) {
	return nil, nil
}

func (m *mockStudentRepo) ListByDateOfBirthRange(ctx context.Context, start, end time.Time) ([]models.Student, error) {
	return nil, nil
}

func (m *mockStudentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Student, error) {
	return nil, nil
}

func (m *mockStudentRepo) Search(ctx context.Context, criteria models.StudentSearchCriteria) ([]models.Student, error) {
	m.lastCriteria = criteria
	return m.searchResult, nil
}

func (m *mockStudentRepo) Upsert(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.students[student.ID] = *student
	m.saved = student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	delete(m.students, id)
	return nil
}

type mockTranscriptGrades struct {
	grades   map[string][]models.Grade
	averages map[string]*float64
}

func (m *mockTranscriptGrades) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error) {
	return m.grades[enrollmentID], nil
}

func (m *mockTranscriptGrades) AverageForEnrollment(ctx context.Context, enrollmentID string) (*float64, error) {
	return m.averages[enrollmentID], nil
}

func studentServiceFixture() (*StudentService, *mockStudentRepo) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
	}}
	enrollments := &mockEnrollmentRepo{
		enrollments: map[string]models.Enrollment{
			"enr-1": {ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", Status: models.EnrollmentStatusCompleted,
				EnrollmentDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)},
			"enr-2": {ID: "enr-2", StudentID: "stu-1", CourseID: "crs-2", Status: models.EnrollmentStatusActive,
				EnrollmentDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"crs-1": {ID: "crs-1", CourseCode: "CS101", Title: "Algorithms", Credits: 5},
		"crs-2": {ID: "crs-2", CourseCode: "MA201", Title: "Linear Algebra", Credits: 4},
	}}
	grades := &mockTranscriptGrades{
		grades: map[string][]models.Grade{
			"enr-1": {{ID: "grd-1", EnrollmentID: "enr-1", GradeValue: 95, GradeType: models.GradeTypeFinal}},
		},
		averages: map[string]*float64{
			"enr-1": floatPtr(95),
		},
	}
	return NewStudentService(repo, enrollments, courses, grades, nil, nil), repo
}

func TestStudentSearchPassesCriteriaThrough(t *testing.T) {
	svc, repo := studentServiceFixture()
	repo.searchResult = []models.Student{{ID: "stu-1"}}

	date := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	criteria := models.StudentSearchCriteria{Email: "ada@example.com", EnrollmentDate: &date}
	students, err := svc.Search(context.Background(), criteria)
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, criteria, repo.lastCriteria)
}

func TestStudentSearchEmptyResultIsNotAnError(t *testing.T) {
	svc, repo := studentServiceFixture()
	repo.searchResult = nil

	students, err := svc.Search(context.Background(), models.StudentSearchCriteria{LastName: "Nobody"})
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestStudentCreateGeneratesID(t *testing.T) {
	svc, repo := studentServiceFixture()

	student, err := svc.Create(context.Background(), StudentRequest{
		FirstName:      "Grace",
		LastName:       "Hopper",
		Email:          "grace@example.com",
		DateOfBirth:    time.Date(1998, 12, 9, 0, 0, 0, 0, time.UTC),
		EnrollmentDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, "grace@example.com", repo.saved.Email)
}

func TestStudentCreateRejectsBadEmail(t *testing.T) {
	svc, _ := studentServiceFixture()

	_, err := svc.Create(context.Background(), StudentRequest{
		FirstName:      "Grace",
		LastName:       "Hopper",
		Email:          "not-an-email",
		DateOfBirth:    time.Date(1998, 12, 9, 0, 0, 0, 0, time.UTC),
		EnrollmentDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentUpdateIsUpsert(t *testing.T) {
	svc, repo := studentServiceFixture()

	student, err := svc.Update(context.Background(), "stu-new", StudentRequest{
		FirstName:      "Grace",
		LastName:       "Hopper",
		Email:          "grace@example.com",
		DateOfBirth:    time.Date(1998, 12, 9, 0, 0, 0, 0, time.UTC),
		EnrollmentDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "stu-new", student.ID)
	_, ok := repo.students["stu-new"]
	assert.True(t, ok)
}

func TestTranscriptAssemblesEntries(t *testing.T) {
	svc, _ := studentServiceFixture()

	transcript, err := svc.Transcript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", transcript.Student.ID)
	require.Len(t, transcript.Entries, 2)

	byCode := map[string]TranscriptEntry{}
	for _, entry := range transcript.Entries {
		byCode[entry.CourseCode] = entry
	}
	completed := byCode["CS101"]
	assert.Equal(t, models.EnrollmentStatusCompleted, completed.Status)
	require.NotNil(t, completed.Average)
	assert.InDelta(t, 95.0, *completed.Average, 0.0001)
	assert.Len(t, completed.Grades, 1)

	active := byCode["MA201"]
	assert.Equal(t, models.EnrollmentStatusActive, active.Status)
	assert.Nil(t, active.Average)
	assert.Empty(t, active.Grades)
}

func TestTranscriptStudentNotFound(t *testing.T) {
	svc, _ := studentServiceFixture()

	_, err := svc.Transcript(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
