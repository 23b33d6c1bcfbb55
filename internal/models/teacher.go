package models

import "time"

// Teacher represents an instructor employed by the institution.
type Teacher struct {
	ID               string    `db:"id" json:"id"`
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	Email            string    `db:"email" json:"email"`
	HireDate         time.Time `db:"hire_date" json:"hire_date"`
	SubjectSpecialty string    `db:"subject_specialty" json:"subject_specialty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
