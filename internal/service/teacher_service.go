package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ermix/school-api/internal/models"
	appErrors "github.com/ermix/school-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	ListByLastName(ctx context.Context, lastName string) ([]models.Teacher, error)
	ListByName(ctx context.Context, firstName, lastName string) ([]models.Teacher, error)
	ListBySpecialty(ctx context.Context, specialty string) ([]models.Teacher, error)
	ListHiredAfter(ctx context.Context, date time.Time) ([]models.Teacher, error)
	FindByCourse(ctx context.Context, courseID string) (*models.Teacher, error)
	Upsert(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

// TeacherRequest is the write payload for teachers.
type TeacherRequest struct {
	FirstName        string    `json:"first_name" validate:"required"`
	LastName         string    `json:"last_name" validate:"required"`
	Email            string    `json:"email" validate:"required,email"`
	HireDate         time.Time `json:"hire_date" validate:"required"`
	SubjectSpecialty string    `json:"subject_specialty" validate:"required"`
}

// TeacherService exposes teacher CRUD and lookups.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns all teachers.
func (s *TeacherService) List(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// GetByEmail returns a teacher by unique email.
func (s *TeacherService) GetByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// ListByLastName returns teachers matching the last name exactly.
func (s *TeacherService) ListByLastName(ctx context.Context, lastName string) ([]models.Teacher, error) {
	teachers, err := s.repo.ListByLastName(ctx, lastName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// ListByName returns teachers matching first and last name exactly.
func (s *TeacherService) ListByName(ctx context.Context, firstName, lastName string) ([]models.Teacher, error) {
	teachers, err := s.repo.ListByName(ctx, firstName, lastName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// ListBySpecialty returns teachers with the given subject specialty.
func (s *TeacherService) ListBySpecialty(ctx context.Context, specialty string) ([]models.Teacher, error) {
	teachers, err := s.repo.ListBySpecialty(ctx, specialty)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// ListHiredAfter returns teachers hired strictly after the date.
func (s *TeacherService) ListHiredAfter(ctx context.Context, date time.Time) ([]models.Teacher, error) {
	teachers, err := s.repo.ListHiredAfter(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// GetByCourse returns the teacher assigned to a course.
func (s *TeacherService) GetByCourse(ctx context.Context, courseID string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create stores a new teacher with a generated id.
func (s *TeacherService) Create(ctx context.Context, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher := &models.Teacher{
		ID:               uuid.NewString(),
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		HireDate:         req.HireDate,
		SubjectSpecialty: req.SubjectSpecialty,
	}
	if err := s.repo.Upsert(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save teacher")
	}
	s.logger.Info("teacher created", zap.String("teacher_id", teacher.ID))
	return teacher, nil
}

// Update writes the teacher under the given id, creating the row when it
// does not exist yet and overwriting every scalar field when it does.
func (s *TeacherService) Update(ctx context.Context, id string, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher := &models.Teacher{
		ID:               id,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		HireDate:         req.HireDate,
		SubjectSpecialty: req.SubjectSpecialty,
	}
	if err := s.repo.Upsert(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save teacher")
	}
	return teacher, nil
}

// Delete removes a teacher. Courses they taught keep existing with no
// assigned teacher.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}
