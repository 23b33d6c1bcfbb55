package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ermix/school-api/internal/models"
)

const studentColumns = "s.id, s.first_name, s.last_name, s.email, s.date_of_birth, s.address, s.phone_number, s.enrollment_date, s.created_at, s.updated_at"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns all students.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s ORDER BY s.last_name, s.first_name", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByEmail fetches a student by its unique email.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.email = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, email); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByLastName returns students with an exact last name match.
func (r *StudentRepository) ListByLastName(ctx context.Context, lastName string) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.last_name = $1", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, lastName); err != nil {
		return nil, fmt.Errorf("list students by last name: %w", err)
	}
	return students, nil
}

// ListByName returns students matching both first and last name.
func (r *StudentRepository) ListByName(ctx context.Context, firstName, lastName string) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.first_name = $1 AND s.last_name = $2", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, firstName, lastName); err != nil {
		return nil, fmt.Errorf("list students by name: %w", err)
	}
	return students, nil
}

// ListByEnrollmentDate returns students enrolled on the given date.
func (r *StudentRepository) ListByEnrollmentDate(ctx context.Context, date time.Time) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.enrollment_date = $1", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, date); err != nil {
		return nil, fmt.Errorf("list students by enrollment date: %w", err)
	}
	return students, nil
}

// ListByDateOfBirthRange returns students born within the inclusive range.
func (r *StudentRepository) ListByDateOfBirthRange(ctx context.Context, start, end time.Time) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.date_of_birth BETWEEN $1 AND $2", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, start, end); err != nil {
		return nil, fmt.Errorf("list students by date of birth range: %w", err)
	}
	return students, nil
}

// ListByCourse returns students with an enrollment in the given course.
func (r *StudentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM students s
        JOIN enrollments e ON e.student_id = s.id
        WHERE e.course_id = $1`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list students by course: %w", err)
	}
	return students, nil
}

// Search composes the sparse criteria into a single conjunctive query.
// Absent fields contribute no clause; empty criteria returns all students.
// The date-of-birth range applies only when both bounds are supplied, and
// the course filter joins through enrollments with DISTINCT so a student
// enrolled more than once is not repeated.
func (r *StudentRepository) Search(ctx context.Context, criteria models.StudentSearchCriteria) ([]models.Student, error) {
	base := "FROM students s"
	var conditions []string
	var args []interface{}
	distinct := ""

	if criteria.CourseID != "" {
		base += " JOIN enrollments e ON e.student_id = s.id"
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, criteria.CourseID)
		distinct = "DISTINCT "
	}
	if criteria.Email != "" {
		conditions = append(conditions, fmt.Sprintf("s.email = $%d", len(args)+1))
		args = append(args, criteria.Email)
	}
	if criteria.FirstName != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.first_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(criteria.FirstName)+"%")
	}
	if criteria.LastName != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.last_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(criteria.LastName)+"%")
	}
	if criteria.EnrollmentDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.enrollment_date = $%d", len(args)+1))
		args = append(args, *criteria.EnrollmentDate)
	}
	if criteria.DateOfBirthStart != nil && criteria.DateOfBirthEnd != nil {
		conditions = append(conditions, fmt.Sprintf("s.date_of_birth BETWEEN $%d AND $%d", len(args)+1, len(args)+2))
		args = append(args, *criteria.DateOfBirthStart, *criteria.DateOfBirthEnd)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s%s %s ORDER BY s.last_name, s.first_name", distinct, studentColumns, base+clause)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}

// Upsert inserts the student, or replaces every scalar field when a row with
// the same id already exists.
func (r *StudentRepository) Upsert(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, first_name, last_name, email, date_of_birth, address, phone_number, enrollment_date, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :email, :date_of_birth, :address, :phone_number, :enrollment_date, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
            first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            email = EXCLUDED.email,
            date_of_birth = EXCLUDED.date_of_birth,
            address = EXCLUDED.address,
            phone_number = EXCLUDED.phone_number,
            enrollment_date = EXCLUDED.enrollment_date,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

// Delete removes a student; enrollments and their grades cascade.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM students WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
