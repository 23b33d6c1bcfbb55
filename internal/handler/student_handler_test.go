package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ermix/school-api/internal/models"
	"github.com/ermix/school-api/internal/service"
)

type studentRepoStub struct {
	students     map[string]*models.Student
	lastCriteria models.StudentSearchCriteria
	searchResult []models.Student
	upserted     *models.Student
}

func (s *studentRepoStub) List(ctx context.Context) ([]models.Student, error) { return nil, nil }

func (s *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := s.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentRepoStub) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	return nil, sql.ErrNoRows
}

func (s *studentRepoStub) ListByLastName(ctx context.Context, lastName string) ([]models.Student, error) {
	return nil, nil
}

func (s *studentRepoStub) ListByName(ctx context.Context, firstName, lastName string) ([]models.Student, error) {
	return nil, nil
}

func (s *studentRepoStub) ListByEnrollmentDate(ctx context.Context, date time.Time) ([]models.Student, error) {
	return nil, nil
}

func (s *studentRepoStub) ListByDateOfBirthRange(ctx context.Context, start, end time.Time) ([]models.Student, error) {
	return nil, nil
}

func (s *studentRepoStub) ListByCourse(ctx context.Context, courseID string) ([]models.Student, error) {
	return nil, nil
}

func (s *studentRepoStub) Search(ctx context.Context, criteria models.StudentSearchCriteria) ([]models.Student, error) {
	s.lastCriteria = criteria
	return s.searchResult, nil
}

func (s *studentRepoStub) Upsert(ctx context.Context, student *models.Student) error {
	s.upserted = student
	return nil
}

func (s *studentRepoStub) Delete(ctx context.Context, id string) error { return nil }

type courseCatalogStub struct {
	courses map[string]*models.Course
}

func (s *courseCatalogStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := s.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

type transcriptGradesStub struct {
	grades   map[string][]models.Grade
	averages map[string]*float64
}

func (s *transcriptGradesStub) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error) {
	return s.grades[enrollmentID], nil
}

func (s *transcriptGradesStub) AverageForEnrollment(ctx context.Context, enrollmentID string) (*float64, error) {
	return s.averages[enrollmentID], nil
}

func transcriptFixture() *TranscriptHandler {
	average := 91.5
	students := &studentRepoStub{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
	}}
	enrollments := &enrollmentRepoStub{}
	enrollments.byStudent = []models.Enrollment{
		{ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", Status: models.EnrollmentStatusCompleted,
			EnrollmentDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)},
	}
	courses := &courseCatalogStub{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", CourseCode: "CS101", Title: "Intro to CS", Credits: 5},
	}}
	grades := &transcriptGradesStub{
		grades:   map[string][]models.Grade{"enr-1": {{ID: "grd-1", EnrollmentID: "enr-1", GradeValue: 91.5}}},
		averages: map[string]*float64{"enr-1": &average},
	}
	svc := service.NewStudentService(students, enrollments, courses, grades, nil, nil)
	return NewTranscriptHandler(svc)
}

func TestSearchWithoutMatchesReturns204(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &studentRepoStub{}
	handler := NewStudentHandler(service.NewStudentService(repo, &enrollmentRepoStub{}, &courseCatalogStub{}, &transcriptGradesStub{}, nil, nil))

	c, w := newGinContext(http.MethodGet, "/students/search", nil)
	c.Request.URL.RawQuery = url.Values{"lastName": {"Nobody"}}.Encode()
	handler.Search(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Nobody", repo.lastCriteria.LastName)
}

func TestSearchParsesCriteria(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &studentRepoStub{searchResult: []models.Student{{ID: "stu-1"}}}
	handler := NewStudentHandler(service.NewStudentService(repo, &enrollmentRepoStub{}, &courseCatalogStub{}, &transcriptGradesStub{}, nil, nil))

	c, w := newGinContext(http.MethodGet, "/students/search", nil)
	c.Request.URL.RawQuery = url.Values{
		"email":            {"ada@example.com"},
		"courseId":         {"crs-1"},
		"dateOfBirthStart": {"2000-01-01"},
		"dateOfBirthEnd":   {"2005-12-31"},
	}.Encode()
	handler.Search(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada@example.com", repo.lastCriteria.Email)
	assert.Equal(t, "crs-1", repo.lastCriteria.CourseID)
	require.NotNil(t, repo.lastCriteria.DateOfBirthStart)
	assert.Equal(t, 2000, repo.lastCriteria.DateOfBirthStart.Year())
	require.NotNil(t, repo.lastCriteria.DateOfBirthEnd)
}

func TestSearchRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &studentRepoStub{}
	handler := NewStudentHandler(service.NewStudentService(repo, &enrollmentRepoStub{}, &courseCatalogStub{}, &transcriptGradesStub{}, nil, nil))

	c, w := newGinContext(http.MethodGet, "/students/search", nil)
	c.Request.URL.RawQuery = url.Values{"dateOfBirthStart": {"01-01-2000"}}.Encode()
	handler.Search(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateStudentRejectsBadEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &studentRepoStub{}
	handler := NewStudentHandler(service.NewStudentService(repo, &enrollmentRepoStub{}, &courseCatalogStub{}, &transcriptGradesStub{}, nil, nil))

	payload, _ := json.Marshal(map[string]string{
		"first_name":      "Ada",
		"last_name":       "Lovelace",
		"email":           "not-an-email",
		"date_of_birth":   "2000-01-01",
		"enrollment_date": "2025-09-01",
	})
	c, w := newGinContext(http.MethodPost, "/students", payload)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, repo.upserted)
}

func TestTranscriptJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	transcripts := transcriptFixture()

	c, w := newGinContext(http.MethodGet, "/students/stu-1/transcript", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	transcripts.Get(c)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data service.Transcript `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "stu-1", envelope.Data.Student.ID)
	require.Len(t, envelope.Data.Entries, 1)
	assert.Equal(t, "CS101", envelope.Data.Entries[0].CourseCode)
	require.NotNil(t, envelope.Data.Entries[0].Average)
	assert.Equal(t, 91.5, *envelope.Data.Entries[0].Average)
}

func TestTranscriptCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	transcripts := transcriptFixture()

	c, w := newGinContext(http.MethodGet, "/students/stu-1/transcript", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	c.Request.URL.RawQuery = "format=csv"
	transcripts.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "transcript-stu-1.csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Course Code,Course,Credits,Status,Enrolled,Average", lines[0])
	assert.Equal(t, "CS101,Intro to CS,5,COMPLETED,2025-09-01,91.50", lines[1])
}

func TestTranscriptUnknownStudentReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	transcripts := transcriptFixture()

	c, w := newGinContext(http.MethodGet, "/students/stu-missing/transcript", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-missing"}}
	transcripts.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranscriptUnsupportedFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	transcripts := transcriptFixture()

	c, w := newGinContext(http.MethodGet, "/students/stu-1/transcript", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	c.Request.URL.RawQuery = "format=xml"
	transcripts.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
