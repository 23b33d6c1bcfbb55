package models

import "time"

// Course represents a course offering. MaxStudents is nil when the course
// has no seat limit; TeacherID is nil when no instructor is assigned yet.
type Course struct {
	ID          string    `db:"id" json:"id"`
	CourseCode  string    `db:"course_code" json:"course_code"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Credits     int       `db:"credits" json:"credits"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	MaxStudents *int      `db:"max_students" json:"max_students,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
