package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID             string    `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	DateOfBirth    time.Time `db:"date_of_birth" json:"date_of_birth"`
	Address        *string   `db:"address" json:"address,omitempty"`
	PhoneNumber    *string   `db:"phone_number" json:"phone_number,omitempty"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StudentSearchCriteria captures the optional filters for the student search
// endpoint. Every field is independently optional; absent fields contribute
// no predicate. The date-of-birth range is honored only when both bounds are
// present.
type StudentSearchCriteria struct {
	Email            string
	FirstName        string
	LastName         string
	EnrollmentDate   *time.Time
	DateOfBirthStart *time.Time
	DateOfBirthEnd   *time.Time
	CourseID         string
}