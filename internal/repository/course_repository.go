package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ermix/school-api/internal/models"
)

const courseColumns = "c.id, c.course_code, c.title, c.description, c.credits, c.teacher_id, c.max_students, c.created_at, c.updated_at"

// CourseRepository manages persistence for course records.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns all courses.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses c ORDER BY c.course_code", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses c WHERE c.id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByCode fetches a course by its unique course code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses c WHERE c.course_code = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListByTitle returns courses with the exact title.
func (r *CourseRepository) ListByTitle(ctx context.Context, title string) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses c WHERE c.title = $1", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, title); err != nil {
		return nil, fmt.Errorf("list courses by title: %w", err)
	}
	return courses, nil
}

// ListByCredits returns courses worth the given credit count.
func (r *CourseRepository) ListByCredits(ctx context.Context, credits int) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses c WHERE c.credits = $1", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, credits); err != nil {
		return nil, fmt.Errorf("list courses by credits: %w", err)
	}
	return courses, nil
}

// ListByTeacher returns courses taught by the given teacher.
func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses c WHERE c.teacher_id = $1", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, teacherID); err != nil {
		return nil, fmt.Errorf("list courses by teacher: %w", err)
	}
	return courses, nil
}

// ListBySpecialty returns courses taught by teachers with the specialty.
func (r *CourseRepository) ListBySpecialty(ctx context.Context, specialty string) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        JOIN teachers t ON t.id = c.teacher_id
        WHERE t.subject_specialty = $1`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, specialty); err != nil {
		return nil, fmt.Errorf("list courses by specialty: %w", err)
	}
	return courses, nil
}

// ListByStudent returns courses the given student has an enrollment in.
func (r *CourseRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        JOIN enrollments e ON e.course_id = c.id
        WHERE e.student_id = $1`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list courses by student: %w", err)
	}
	return courses, nil
}

// ListWithAvailableSeats returns capacity-bounded courses whose active
// enrollment count is below max_students. Unlimited courses are excluded,
// matching the capacity report this query backs.
func (r *CourseRepository) ListWithAvailableSeats(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        WHERE c.max_students IS NOT NULL AND c.max_students >
            (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id AND e.status = $1)`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list courses with available seats: %w", err)
	}
	return courses, nil
}

// Upsert inserts the course, or replaces every scalar field when a row with
// the same id already exists.
func (r *CourseRepository) Upsert(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, course_code, title, description, credits, teacher_id, max_students, created_at, updated_at)
        VALUES (:id, :course_code, :title, :description, :credits, :teacher_id, :max_students, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
            course_code = EXCLUDED.course_code,
            title = EXCLUDED.title,
            description = EXCLUDED.description,
            credits = EXCLUDED.credits,
            teacher_id = EXCLUDED.teacher_id,
            max_students = EXCLUDED.max_students,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	return nil
}

// Delete removes a course; enrollments and their grades cascade.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
