package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ermix/school-api/internal/models"
	appErrors "github.com/ermix/school-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	ListByLastName(ctx context.Context, lastName string) ([]models.Student, error)
	ListByName(ctx context.Context, firstName, lastName string) ([]models.Student, error)
	ListByEnrollmentDate(ctx context.Context, date time.Time) ([]models.Student, error)
	ListByDateOfBirthRange(ctx context.Context, start, end time.Time) ([]models.Student, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Student, error)
	Search(ctx context.Context, criteria models.StudentSearchCriteria) ([]models.Student, error)
	Upsert(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type studentEnrollmentLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type enrollmentGradeLister interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error)
	AverageForEnrollment(ctx context.Context, enrollmentID string) (*float64, error)
}

// StudentRequest is the write payload for students.
type StudentRequest struct {
	FirstName      string    `json:"first_name" validate:"required"`
	LastName       string    `json:"last_name" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
	DateOfBirth    time.Time `json:"date_of_birth" validate:"required"`
	Address        *string   `json:"address"`
	PhoneNumber    *string   `json:"phone_number"`
	EnrollmentDate time.Time `json:"enrollment_date" validate:"required"`
}

// TranscriptEntry is one course line of a student transcript.
type TranscriptEntry struct {
	CourseCode string                  `json:"course_code"`
	CourseName string                  `json:"course_name"`
	Credits    int                     `json:"credits"`
	Status     models.EnrollmentStatus `json:"status"`
	EnrolledAt time.Time               `json:"enrolled_at"`
	Grades     []models.Grade          `json:"grades"`
	Average    *float64                `json:"average"`
}

// Transcript is the full academic record of one student.
type Transcript struct {
	Student models.Student    `json:"student"`
	Entries []TranscriptEntry `json:"entries"`
}

// StudentService exposes student CRUD, the criteria search and transcript
// assembly.
type StudentService struct {
	repo        studentRepository
	enrollments studentEnrollmentLister
	courses     courseReader
	grades      enrollmentGradeLister
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, enrollments studentEnrollmentLister, courses courseReader, grades enrollmentGradeLister, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, enrollments: enrollments, courses: courses, grades: grades, validator: validate, logger: logger}
}

// List returns all students.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetByEmail returns a student by unique email.
func (s *StudentService) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	student, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// ListByLastName returns students matching the last name exactly.
func (s *StudentService) ListByLastName(ctx context.Context, lastName string) ([]models.Student, error) {
	students, err := s.repo.ListByLastName(ctx, lastName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// ListByName returns students matching first and last name exactly.
func (s *StudentService) ListByName(ctx context.Context, firstName, lastName string) ([]models.Student, error) {
	students, err := s.repo.ListByName(ctx, firstName, lastName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// ListByEnrollmentDate returns students who joined on the given date.
func (s *StudentService) ListByEnrollmentDate(ctx context.Context, date time.Time) ([]models.Student, error) {
	students, err := s.repo.ListByEnrollmentDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// ListByDateOfBirthRange returns students born within the inclusive range.
func (s *StudentService) ListByDateOfBirthRange(ctx context.Context, start, end time.Time) ([]models.Student, error) {
	students, err := s.repo.ListByDateOfBirthRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// ListByCourse returns students enrolled in the course.
func (s *StudentService) ListByCourse(ctx context.Context, courseID string) ([]models.Student, error) {
	students, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Search combines the optional criteria into a single filtered listing.
// Empty criteria return every student.
func (s *StudentService) Search(ctx context.Context, criteria models.StudentSearchCriteria) ([]models.Student, error) {
	students, err := s.repo.Search(ctx, criteria)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search students")
	}
	return students, nil
}

// Create stores a new student with a generated id.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		ID:             uuid.NewString(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		DateOfBirth:    req.DateOfBirth,
		Address:        req.Address,
		PhoneNumber:    req.PhoneNumber,
		EnrollmentDate: req.EnrollmentDate,
	}
	if err := s.repo.Upsert(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update writes the student under the given id, creating the row when it
// does not exist yet and overwriting every scalar field when it does.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		ID:             id,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		DateOfBirth:    req.DateOfBirth,
		Address:        req.Address,
		PhoneNumber:    req.PhoneNumber,
		EnrollmentDate: req.EnrollmentDate,
	}
	if err := s.repo.Upsert(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student")
	}
	return student, nil
}

// Delete removes a student; enrollments and grades cascade at the storage
// layer.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

// Transcript assembles the full academic record of a student: one entry per
// enrollment with its course, grades and per-enrollment average.
func (s *StudentService) Transcript(ctx context.Context, studentID string) (*Transcript, error) {
	student, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	entries := make([]TranscriptEntry, 0, len(enrollments))
	for _, enrollment := range enrollments {
		course, err := s.courses.FindByID(ctx, enrollment.CourseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to load course %s", enrollment.CourseID))
		}
		grades, err := s.grades.ListByEnrollment(ctx, enrollment.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
		}
		average, err := s.grades.AverageForEnrollment(ctx, enrollment.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute average")
		}
		entries = append(entries, TranscriptEntry{
			CourseCode: course.CourseCode,
			CourseName: course.Title,
			Credits:    course.Credits,
			Status:     enrollment.Status,
			EnrolledAt: enrollment.EnrollmentDate,
			Grades:     grades,
			Average:    average,
		})
	}
	return &Transcript{Student: *student, Entries: entries}, nil
}
