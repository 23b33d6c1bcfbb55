package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ermix/school-api/internal/models"
)

const teacherColumns = "t.id, t.first_name, t.last_name, t.email, t.hire_date, t.subject_specialty, t.created_at, t.updated_at"

// TeacherRepository manages persistence for teacher records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns all teachers.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers t ORDER BY t.last_name, t.first_name", teacherColumns)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers t WHERE t.id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByEmail fetches a teacher by its unique email.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers t WHERE t.email = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, email); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ListByLastName returns teachers with an exact last name match.
func (r *TeacherRepository) ListByLastName(ctx context.Context, lastName string) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers t WHERE t.last_name = $1", teacherColumns)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, lastName); err != nil {
		return nil, fmt.Errorf("list teachers by last name: %w", err)
	}
	return teachers, nil
}

// ListByName returns teachers matching both first and last name.
func (r *TeacherRepository) ListByName(ctx context.Context, firstName, lastName string) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers t WHERE t.first_name = $1 AND t.last_name = $2", teacherColumns)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, firstName, lastName); err != nil {
		return nil, fmt.Errorf("list teachers by name: %w", err)
	}
	return teachers, nil
}

// ListBySpecialty returns teachers with the given subject specialty.
func (r *TeacherRepository) ListBySpecialty(ctx context.Context, specialty string) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers t WHERE t.subject_specialty = $1", teacherColumns)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, specialty); err != nil {
		return nil, fmt.Errorf("list teachers by specialty: %w", err)
	}
	return teachers, nil
}

// ListHiredAfter returns teachers hired strictly after the given date.
func (r *TeacherRepository) ListHiredAfter(ctx context.Context, date time.Time) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers t WHERE t.hire_date > $1", teacherColumns)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, date); err != nil {
		return nil, fmt.Errorf("list teachers hired after: %w", err)
	}
	return teachers, nil
}

// FindByCourse returns the teacher assigned to the given course.
func (r *TeacherRepository) FindByCourse(ctx context.Context, courseID string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers t
        JOIN courses c ON c.teacher_id = t.id
        WHERE c.id = $1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, courseID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Upsert inserts the teacher, or replaces every scalar field when a row with
// the same id already exists.
func (r *TeacherRepository) Upsert(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, first_name, last_name, email, hire_date, subject_specialty, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :email, :hire_date, :subject_specialty, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
            first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            email = EXCLUDED.email,
            hire_date = EXCLUDED.hire_date,
            subject_specialty = EXCLUDED.subject_specialty,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("upsert teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher; courses keep existing with teacher_id cleared.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM teachers WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}
