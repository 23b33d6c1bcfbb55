package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ermix/school-api/internal/models"
)

const gradeColumns = "g.id, g.enrollment_id, g.grade_value, g.grade_type, g.comment, g.date_recorded, g.created_at, g.updated_at"

// GradeRepository handles persistence of grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns all grades.
func (r *GradeRepository) List(ctx context.Context) ([]models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades g ORDER BY g.date_recorded DESC", gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FindByID returns a grade by its ID.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades g WHERE g.id = $1", gradeColumns)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// ListByEnrollment returns the grades recorded against an enrollment.
func (r *GradeRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades g WHERE g.enrollment_id = $1", gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list grades by enrollment: %w", err)
	}
	return grades, nil
}

// ListByType returns grades with the given assessment type.
func (r *GradeRepository) ListByType(ctx context.Context, gradeType models.GradeType) ([]models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades g WHERE g.grade_type = $1", gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, gradeType); err != nil {
		return nil, fmt.Errorf("list grades by type: %w", err)
	}
	return grades, nil
}

// ListByDateRange returns grades recorded within the inclusive range.
func (r *GradeRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Grade, error) {
	query := fmt.Sprintf("SELECT %s FROM grades g WHERE g.date_recorded BETWEEN $1 AND $2", gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, start, end); err != nil {
		return nil, fmt.Errorf("list grades by date range: %w", err)
	}
	return grades, nil
}

// ListByStudent returns a student's grades joined through enrollments.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades g
        JOIN enrollments e ON e.id = g.enrollment_id
        WHERE e.student_id = $1`, gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list grades by student: %w", err)
	}
	return grades, nil
}

// ListByCourse returns a course's grades joined through enrollments.
func (r *GradeRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades g
        JOIN enrollments e ON e.id = g.enrollment_id
        WHERE e.course_id = $1`, gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, courseID); err != nil {
		return nil, fmt.Errorf("list grades by course: %w", err)
	}
	return grades, nil
}

// ListByStudentAndCourse returns grades scoped to one (student, course) pair.
func (r *GradeRepository) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades g
        JOIN enrollments e ON e.id = g.enrollment_id
        WHERE e.student_id = $1 AND e.course_id = $2`, gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list grades by student and course: %w", err)
	}
	return grades, nil
}

// AverageForEnrollment returns the mean grade value for an enrollment, or
// nil when no grades have been recorded. Callers must distinguish nil from
// an average of zero.
func (r *GradeRepository) AverageForEnrollment(ctx context.Context, enrollmentID string) (*float64, error) {
	const query = `SELECT AVG(g.grade_value) FROM grades g WHERE g.enrollment_id = $1`
	return r.average(ctx, query, enrollmentID)
}

// AverageForStudent returns the mean grade value across all of a student's
// enrollments, or nil when no grades exist.
func (r *GradeRepository) AverageForStudent(ctx context.Context, studentID string) (*float64, error) {
	const query = `SELECT AVG(g.grade_value) FROM grades g
        JOIN enrollments e ON e.id = g.enrollment_id
        WHERE e.student_id = $1`
	return r.average(ctx, query, studentID)
}

// AverageForCourse returns the mean grade value across all enrollments in a
// course, or nil when no grades exist.
func (r *GradeRepository) AverageForCourse(ctx context.Context, courseID string) (*float64, error) {
	const query = `SELECT AVG(g.grade_value) FROM grades g
        JOIN enrollments e ON e.id = g.enrollment_id
        WHERE e.course_id = $1`
	return r.average(ctx, query, courseID)
}

func (r *GradeRepository) average(ctx context.Context, query, arg string) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, query, arg); err != nil {
		return nil, fmt.Errorf("average grade: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// Create inserts a new grade record.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, enrollment_id, grade_value, grade_type, comment, date_recorded, created_at, updated_at)
        VALUES (:id, :enrollment_id, :grade_value, :grade_type, :comment, :date_recorded, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a grade.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET grade_value = :grade_value, grade_type = :grade_type, comment = :comment, date_recorded = :date_recorded, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete removes a grade by id.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM grades WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}
