package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ermix/school-api/internal/models"
	appErrors "github.com/ermix/school-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	ListByTitle(ctx context.Context, title string) ([]models.Course, error)
	ListByCredits(ctx context.Context, credits int) ([]models.Course, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error)
	ListBySpecialty(ctx context.Context, specialty string) ([]models.Course, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Course, error)
	ListWithAvailableSeats(ctx context.Context) ([]models.Course, error)
	Upsert(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type activeEnrollmentCounter interface {
	CountActiveByCourse(ctx context.Context, courseID string) (int, error)
}

// CourseRequest is the write payload for courses.
type CourseRequest struct {
	CourseCode  string  `json:"course_code" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Credits     int     `json:"credits" validate:"required,gt=0"`
	TeacherID   *string `json:"teacher_id"`
	MaxStudents *int    `json:"max_students" validate:"omitempty,gt=0"`
}

// CourseService exposes course CRUD, lookups and the seat-availability rule.
type CourseService struct {
	repo        courseRepository
	enrollments activeEnrollmentCounter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, enrollments activeEnrollmentCounter, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, enrollments: enrollments, validator: validate, logger: logger}
}

// List returns all courses.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// GetByCode returns a course by its unique course code.
func (s *CourseService) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	course, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListByTitle returns courses whose title contains the fragment.
func (s *CourseService) ListByTitle(ctx context.Context, title string) ([]models.Course, error) {
	courses, err := s.repo.ListByTitle(ctx, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListByCredits returns courses worth exactly the given credits.
func (s *CourseService) ListByCredits(ctx context.Context, credits int) ([]models.Course, error) {
	courses, err := s.repo.ListByCredits(ctx, credits)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListByTeacher returns courses taught by the teacher.
func (s *CourseService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	courses, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListBySpecialty returns courses whose teacher has the given specialty.
func (s *CourseService) ListBySpecialty(ctx context.Context, specialty string) ([]models.Course, error) {
	courses, err := s.repo.ListBySpecialty(ctx, specialty)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListByStudent returns courses the student is enrolled in.
func (s *CourseService) ListByStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	courses, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListWithAvailableSeats returns courses that can still accept enrollments.
func (s *CourseService) ListWithAvailableSeats(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.ListWithAvailableSeats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// IsAvailable reports whether the course can accept another active
// enrollment. A course that does not exist is simply unavailable, not an
// error. A nil MaxStudents means unlimited capacity. The count compares
// strictly, so a course at exactly max capacity is full.
func (s *CourseService) IsAvailable(ctx context.Context, courseID string) (bool, error) {
	course, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.MaxStudents == nil {
		return true, nil
	}
	active, err := s.enrollments.CountActiveByCourse(ctx, courseID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	return active < *course.MaxStudents, nil
}

// Create stores a new course with a generated id.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		ID:          uuid.NewString(),
		CourseCode:  req.CourseCode,
		Title:       req.Title,
		Description: req.Description,
		Credits:     req.Credits,
		TeacherID:   req.TeacherID,
		MaxStudents: req.MaxStudents,
	}
	if err := s.repo.Upsert(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("course_code", course.CourseCode))
	return course, nil
}

// Update writes the course under the given id, creating the row when it does
// not exist yet and overwriting every scalar field when it does.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		ID:          id,
		CourseCode:  req.CourseCode,
		Title:       req.Title,
		Description: req.Description,
		Credits:     req.Credits,
		TeacherID:   req.TeacherID,
		MaxStudents: req.MaxStudents,
	}
	if err := s.repo.Upsert(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course")
	}
	return course, nil
}

// Delete removes a course; its enrollments and their grades cascade at the
// storage layer.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
