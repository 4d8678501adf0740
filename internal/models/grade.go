package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/academic-grading-api/pkg/grading"
)

// CourseMark stores the value entered for one component of a course.
type CourseMark struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Component string    `db:"component" json:"component"`
	Value     float64   `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseMarkSheet pairs a course scheme with a student's entered marks.
type CourseMarkSheet struct {
	StudentID  string               `json:"student_id"`
	CourseID   string               `json:"course_id"`
	Credits    float64              `json:"credits"`
	Weightage  []WeightageComponent `json:"weightage"`
	Marks      map[string]float64   `json:"marks"`
	TotalMarks float64              `json:"total_marks"`
}

// CourseGrade is the persisted grade of a student in one course.
type CourseGrade struct {
	ID              string         `db:"id" json:"id"`
	SemesterGradeID string         `db:"semester_grade_id" json:"semester_grade_id"`
	StudentID       string         `db:"student_id" json:"student_id"`
	CourseID        string         `db:"course_id" json:"course_id"`
	TotalMarks      float64        `db:"total_marks" json:"total_marks"`
	Credits         float64        `db:"credits" json:"credits"`
	GradePoint      int            `db:"grade_point" json:"grade_point"`
	Grade           string         `db:"grade" json:"grade"`
	Status          grading.Status `db:"status" json:"status"`
	GradePoints     float64        `db:"grade_points" json:"grade_points"`
	MaxGradePoints  float64        `db:"max_grade_points" json:"max_grade_points"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Result exposes the grading view of the record.
func (g CourseGrade) Result() grading.CourseResult {
	return grading.CourseResult{
		CourseID:       g.CourseID,
		TotalMarks:     g.TotalMarks,
		Credits:        g.Credits,
		GradePoint:     g.GradePoint,
		Grade:          g.Grade,
		Status:         g.Status,
		GradePoints:    g.GradePoints,
		MaxGradePoints: g.MaxGradePoints,
	}
}

// Apply copies a computed result onto the record.
func (g *CourseGrade) Apply(res grading.CourseResult) {
	g.CourseID = res.CourseID
	g.TotalMarks = res.TotalMarks
	g.Credits = res.Credits
	g.GradePoint = res.GradePoint
	g.Grade = res.Grade
	g.Status = res.Status
	g.GradePoints = res.GradePoints
	g.MaxGradePoints = res.MaxGradePoints
}

// SemesterGrade aggregates a student's course grades for one semester.
type SemesterGrade struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	SemesterID     string    `db:"semester_id" json:"semester_id"`
	GradePoints    float64   `db:"grade_points" json:"grade_points"`
	MaxGradePoints float64   `db:"max_grade_points" json:"max_grade_points"`
	SGPA           float64   `db:"sgpa" json:"sgpa"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Apply copies a computed aggregate onto the record.
func (g *SemesterGrade) Apply(res grading.SemesterResult) {
	g.GradePoints = res.GradePoints
	g.MaxGradePoints = res.MaxGradePoints
	g.SGPA = res.SGPA
}

// SemesterGradeRow joins a semester grade with display data for exports.
type SemesterGradeRow struct {
	SemesterGrade
	RollNumber  string `db:"roll_number" json:"roll_number"`
	StudentName string `db:"student_name" json:"student_name"`
}

// ProgramGrade aggregates semester grades across a program.
type ProgramGrade struct {
	ID             string         `db:"id" json:"id"`
	StudentID      string         `db:"student_id" json:"student_id"`
	ProgramID      string         `db:"program_id" json:"program_id"`
	CGPA           float64        `db:"cgpa" json:"cgpa"`
	SemesterGrades SemesterGPAMap `db:"semester_grades" json:"semester_grades"`
	CalculatedAt   time.Time      `db:"calculated_at" json:"calculated_at"`
}

// SemesterGPAMap maps semester IDs to SGPA, persisted as JSONB.
type SemesterGPAMap map[string]float64

// Value marshals the map to JSON for persistence.
func (m SemesterGPAMap) Value() (driver.Value, error) {
	if m == nil {
		m = SemesterGPAMap{}
	}
	data, err := json.Marshal(map[string]float64(m))
	if err != nil {
		return nil, fmt.Errorf("marshal semester grades: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the map.
func (m *SemesterGPAMap) Scan(value interface{}) error {
	if value == nil {
		*m = SemesterGPAMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for SemesterGPAMap", value)
	}
	if len(data) == 0 {
		*m = SemesterGPAMap{}
		return nil
	}
	decoded := map[string]float64{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("unmarshal semester grades: %w", err)
	}
	*m = decoded
	return nil
}

// SemesterGradeFilter scopes semester grade listings.
type SemesterGradeFilter struct {
	SemesterID string
	StudentID  string
}

// ProgramGradeFilter scopes program grade listings.
type ProgramGradeFilter struct {
	ProgramID string
	StudentID string
}

// RosterCourse is one course cell of a roster row.
type RosterCourse struct {
	CourseID   string               `json:"course_id"`
	CourseCode string               `json:"course_code"`
	Credits    float64              `json:"credits"`
	Weightage  []WeightageComponent `json:"weightage"`
	Marks      map[string]float64   `json:"marks"`
	TotalMarks float64              `json:"total_marks"`
	Grade      *CourseGrade         `json:"grade,omitempty"`
}

// RosterEntry lists one student's courses for a semester.
type RosterEntry struct {
	Student       Student        `json:"student"`
	SemesterGrade *SemesterGrade `json:"semester_grade,omitempty"`
	Courses       []RosterCourse `json:"courses"`
}

// Roster is the grading worksheet of a program semester.
type Roster struct {
	ProgramID  string        `json:"program_id"`
	SemesterID string        `json:"semester_id"`
	Entries    []RosterEntry `json:"entries"`
}
