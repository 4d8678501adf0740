package models

import (
	"time"

	"github.com/noah-isme/academic-grading-api/pkg/grading"
)

// Program is a degree programme made of numbered semesters.
type Program struct {
	ID             string    `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	TotalSemesters int       `db:"total_semesters" json:"total_semesters"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Semester is one numbered period of a program.
type Semester struct {
	ID        string    `db:"id" json:"id"`
	ProgramID string    `db:"program_id" json:"program_id"`
	Number    int       `db:"number" json:"number"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Course is taught within a semester and carries its weightage scheme.
type Course struct {
	ID         string               `db:"id" json:"id"`
	SemesterID string               `db:"semester_id" json:"semester_id"`
	Code       string               `db:"code" json:"code"`
	Name       string               `db:"name" json:"name"`
	Credits    float64              `db:"credits" json:"credits"`
	CreatedAt  time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time            `db:"updated_at" json:"updated_at"`
	Components []WeightageComponent `json:"components"`
}

// WeightageComponent is one ordered (name, max marks) pair of a course scheme.
type WeightageComponent struct {
	ID       string  `db:"id" json:"id"`
	CourseID string  `db:"course_id" json:"course_id"`
	Name     string  `db:"name" json:"name"`
	MaxMarks float64 `db:"max_marks" json:"max_marks"`
	Position int     `db:"position" json:"position"`
}

// Scheme converts the stored components into the grading scheme.
func (c Course) Scheme() grading.Scheme {
	scheme := make(grading.Scheme, 0, len(c.Components))
	for _, comp := range c.Components {
		scheme = append(scheme, grading.Component{Name: comp.Name, MaxMarks: comp.MaxMarks})
	}
	return scheme
}

// SemesterFilter scopes semester listings.
type SemesterFilter struct {
	ProgramID string
}

// CourseFilter scopes course listings.
type CourseFilter struct {
	SemesterID string
	Search     string
}
