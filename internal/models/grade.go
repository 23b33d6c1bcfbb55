package models

import "time"

// GradeType tags the kind of assessment a grade belongs to.
type GradeType string

const (
	GradeTypeAssignment GradeType = "ASSIGNMENT"
	GradeTypeQuiz       GradeType = "QUIZ"
	GradeTypeMidterm    GradeType = "MIDTERM"
	GradeTypeFinal      GradeType = "FINAL"
	GradeTypeProject    GradeType = "PROJECT"
)

// Valid reports whether the grade type is one of the known values.
func (t GradeType) Valid() bool {
	switch t {
	case GradeTypeAssignment, GradeTypeQuiz, GradeTypeMidterm, GradeTypeFinal, GradeTypeProject:
		return true
	}
	return false
}

// Grade is a single assessment result recorded against an enrollment.
// GradeValue is stored as numeric(5,2) in the database.
type Grade struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	GradeValue   float64   `db:"grade_value" json:"grade_value"`
	GradeType    GradeType `db:"grade_type" json:"grade_type"`
	Comment      *string   `db:"comment" json:"comment,omitempty"`
	DateRecorded time.Time `db:"date_recorded" json:"date_recorded"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
