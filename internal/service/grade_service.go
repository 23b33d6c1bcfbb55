package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ermix/school-api/internal/models"
	appErrors "github.com/ermix/school-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context) ([]models.Grade, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error)
	ListByType(ctx context.Context, gradeType models.GradeType) ([]models.Grade, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Grade, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Grade, error)
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Grade, error)
	AverageForEnrollment(ctx context.Context, enrollmentID string) (*float64, error)
	AverageForStudent(ctx context.Context, studentID string) (*float64, error)
	AverageForCourse(ctx context.Context, courseID string) (*float64, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
}

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type averageCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// GradeRequest is the write payload for grades.
type GradeRequest struct {
	EnrollmentID string    `json:"enrollment_id" validate:"required"`
	GradeValue   float64   `json:"grade_value" validate:"gte=0,lt=1000"`
	GradeType    string    `json:"grade_type" validate:"required"`
	Comment      *string   `json:"comment"`
	DateRecorded time.Time `json:"date_recorded" validate:"required"`
}

// cachedAverage wraps the nullable average so that "no grades" is itself a
// cacheable result distinct from a cache miss.
type cachedAverage struct {
	Value *float64 `json:"value"`
}

// GradeService records assessments and computes grade averages. Averages are
// served through a cache with mutation-driven invalidation; a nil average
// means the underlying grade set is empty.
type GradeService struct {
	repo        gradeRepository
	enrollments enrollmentReader
	cache       averageCache
	cacheTTL    time.Duration
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService. cache may be nil, in which case
// averages always hit the database; metrics may be nil.
func NewGradeService(repo gradeRepository, enrollments enrollmentReader, cache averageCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, enrollments: enrollments, cache: cache, cacheTTL: cacheTTL, metrics: metrics, validator: validate, logger: logger}
}

// List returns all grades.
func (s *GradeService) List(ctx context.Context) ([]models.Grade, error) {
	grades, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// Get returns a grade by id.
func (s *GradeService) Get(ctx context.Context, id string) (*models.Grade, error) {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return grade, nil
}

// ListByEnrollment returns grades recorded against an enrollment.
func (s *GradeService) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error) {
	grades, err := s.repo.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListByType returns grades of the given assessment type.
func (s *GradeService) ListByType(ctx context.Context, gradeType models.GradeType) ([]models.Grade, error) {
	if !gradeType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade type")
	}
	grades, err := s.repo.ListByType(ctx, gradeType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListByDateRange returns grades recorded within the inclusive range.
func (s *GradeService) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Grade, error) {
	grades, err := s.repo.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListByStudent returns every grade across a student's enrollments.
func (s *GradeService) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	grades, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListByCourse returns every grade recorded in a course.
func (s *GradeService) ListByCourse(ctx context.Context, courseID string) ([]models.Grade, error) {
	grades, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListByStudentAndCourse returns a student's grades within one course.
func (s *GradeService) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Grade, error) {
	grades, err := s.repo.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// AverageForEnrollment returns the mean grade of an enrollment, or nil when
// no grades exist.
func (s *GradeService) AverageForEnrollment(ctx context.Context, enrollmentID string) (*float64, error) {
	return s.average(ctx, averageKey("enrollment", enrollmentID), func() (*float64, error) {
		return s.repo.AverageForEnrollment(ctx, enrollmentID)
	})
}

// AverageForStudent returns the mean of a student's grades across all
// enrollments, or nil when no grades exist.
func (s *GradeService) AverageForStudent(ctx context.Context, studentID string) (*float64, error) {
	return s.average(ctx, averageKey("student", studentID), func() (*float64, error) {
		return s.repo.AverageForStudent(ctx, studentID)
	})
}

// AverageForCourse returns the mean of all grades recorded in a course, or
// nil when no grades exist.
func (s *GradeService) AverageForCourse(ctx context.Context, courseID string) (*float64, error) {
	return s.average(ctx, averageKey("course", courseID), func() (*float64, error) {
		return s.repo.AverageForCourse(ctx, courseID)
	})
}

func (s *GradeService) average(ctx context.Context, key string, load func() (*float64, error)) (*float64, error) {
	if s.cache != nil {
		var cached cachedAverage
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return cached.Value, nil
		}
		s.metrics.RecordCacheLookup(false)
	}
	value, err := load()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute average")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedAverage{Value: value}, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache average", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}

// Create records a new grade against an existing enrollment.
func (s *GradeService) Create(ctx context.Context, req GradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	gradeType := models.GradeType(req.GradeType)
	if !gradeType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade type")
	}
	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	grade := &models.Grade{
		EnrollmentID: req.EnrollmentID,
		GradeValue:   req.GradeValue,
		GradeType:    gradeType,
		Comment:      req.Comment,
		DateRecorded: req.DateRecorded,
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}
	s.invalidateAverages(ctx, enrollment)
	s.metrics.RecordGrade()
	s.logger.Info("grade recorded",
		zap.String("grade_id", grade.ID),
		zap.String("enrollment_id", grade.EnrollmentID),
		zap.Float64("value", grade.GradeValue))
	return grade, nil
}

// Update overwrites the mutable fields of an existing grade. The enrollment
// reference never changes.
func (s *GradeService) Update(ctx context.Context, id string, req GradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	gradeType := models.GradeType(req.GradeType)
	if !gradeType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown grade type")
	}
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	grade.GradeValue = req.GradeValue
	grade.GradeType = gradeType
	grade.Comment = req.Comment
	grade.DateRecorded = req.DateRecorded
	if err := s.repo.Update(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}
	if enrollment, err := s.enrollments.FindByID(ctx, grade.EnrollmentID); err == nil {
		s.invalidateAverages(ctx, enrollment)
	}
	return grade, nil
}

// Delete removes a grade by id.
func (s *GradeService) Delete(ctx context.Context, id string) error {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	if enrollment, err := s.enrollments.FindByID(ctx, grade.EnrollmentID); err == nil {
		s.invalidateAverages(ctx, enrollment)
	}
	return nil
}

func (s *GradeService) invalidateAverages(ctx context.Context, enrollment *models.Enrollment) {
	if s.cache == nil || enrollment == nil {
		return
	}
	keys := []string{
		averageKey("enrollment", enrollment.ID),
		averageKey("student", enrollment.StudentID),
		averageKey("course", enrollment.CourseID),
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate cached averages", zap.Error(err))
	}
}

func averageKey(scope, id string) string {
	return fmt.Sprintf("grades:avg:%s:%s", scope, id)
}
