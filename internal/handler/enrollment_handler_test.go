package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ermix/school-api/internal/models"
	"github.com/ermix/school-api/internal/service"
	"github.com/ermix/school-api/pkg/response"
)

type enrollmentRepoStub struct {
	existing  *models.Enrollment
	byStudent []models.Enrollment
	created   *models.Enrollment
	reactived bool
}

func (s *enrollmentRepoStub) List(ctx context.Context) ([]models.Enrollment, error) { return nil, nil }

func (s *enrollmentRepoStub) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if s.existing != nil && s.existing.ID == id {
		return s.existing, nil
	}
	return nil, sql.ErrNoRows
}

func (s *enrollmentRepoStub) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	if s.existing != nil {
		return s.existing, nil
	}
	return nil, sql.ErrNoRows
}

func (s *enrollmentRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return s.byStudent, nil
}

func (s *enrollmentRepoStub) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	return nil, nil
}

func (s *enrollmentRepoStub) ListByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	return nil, nil
}

func (s *enrollmentRepoStub) ListByStudentAndStatus(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	return nil, nil
}

func (s *enrollmentRepoStub) ListByCourseAndStatus(ctx context.Context, courseID string, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	return nil, nil
}

func (s *enrollmentRepoStub) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Enrollment, error) {
	return nil, nil
}

func (s *enrollmentRepoStub) CountActiveByCourse(ctx context.Context, courseID string) (int, error) {
	return 0, nil
}

func (s *enrollmentRepoStub) Create(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = "enr-new"
	s.created = enrollment
	return nil
}

func (s *enrollmentRepoStub) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	return nil
}

func (s *enrollmentRepoStub) Reactivate(ctx context.Context, id string, enrollmentDate time.Time) error {
	s.reactived = true
	return nil
}

func (s *enrollmentRepoStub) Delete(ctx context.Context, id string) error { return nil }

type studentReaderStub struct{ found bool }

func (s *studentReaderStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s.found {
		return &models.Student{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

type courseReaderStub struct{ found bool }

func (s *courseReaderStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if s.found {
		return &models.Course{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

type availabilityStub struct{ available bool }

func (s *availabilityStub) IsAvailable(ctx context.Context, courseID string) (bool, error) {
	return s.available, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func enrollBody(t *testing.T) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]string{
		"student_id":      "stu-1",
		"course_id":       "crs-1",
		"enrollment_date": "2025-09-01",
	})
	require.NoError(t, err)
	return payload
}

func newEnrollmentHandler(repo *enrollmentRepoStub, students *studentReaderStub, courses *courseReaderStub, availability *availabilityStub) *EnrollmentHandler {
	svc := service.NewEnrollmentService(repo, students, courses, availability, nil, nil, nil)
	return NewEnrollmentHandler(svc)
}

func TestEnrollReturns201(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &enrollmentRepoStub{}
	handler := newEnrollmentHandler(repo, &studentReaderStub{found: true}, &courseReaderStub{found: true}, &availabilityStub{available: true})

	c, w := newGinContext(http.MethodPost, "/enrollments/enroll", enrollBody(t))
	handler.Enroll(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)
}

func TestEnrollUnknownStudentReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollmentRepoStub{}, &studentReaderStub{found: false}, &courseReaderStub{found: true}, &availabilityStub{available: true})

	c, w := newGinContext(http.MethodPost, "/enrollments/enroll", enrollBody(t))
	handler.Enroll(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "student not found")
}

func TestEnrollDuplicateReturns409(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &enrollmentRepoStub{existing: &models.Enrollment{
		ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", Status: models.EnrollmentStatusActive,
	}}
	handler := newEnrollmentHandler(repo, &studentReaderStub{found: true}, &courseReaderStub{found: true}, &availabilityStub{available: true})

	c, w := newGinContext(http.MethodPost, "/enrollments/enroll", enrollBody(t))
	handler.Enroll(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already enrolled")
}

func TestEnrollFullCourseReturns409(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollmentRepoStub{}, &studentReaderStub{found: true}, &courseReaderStub{found: true}, &availabilityStub{available: false})

	c, w := newGinContext(http.MethodPost, "/enrollments/enroll", enrollBody(t))
	handler.Enroll(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "course is full")
}

func TestEnrollBadDateReturns400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollmentRepoStub{}, &studentReaderStub{found: true}, &courseReaderStub{found: true}, &availabilityStub{available: true})

	payload, _ := json.Marshal(map[string]string{
		"student_id":      "stu-1",
		"course_id":       "crs-1",
		"enrollment_date": "01/09/2025",
	})
	c, w := newGinContext(http.MethodPost, "/enrollments/enroll", payload)
	handler.Enroll(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmptyEnrollmentListReturns204(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandler(&enrollmentRepoStub{}, &studentReaderStub{found: true}, &courseReaderStub{found: true}, &availabilityStub{available: true})

	c, w := newGinContext(http.MethodGet, "/enrollments", nil)
	handler.List(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}
