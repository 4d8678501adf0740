package grading

import (
	"math"
	"strings"
)

// Status reports whether a course grade counts as a pass.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// MaxGradePoint is the top of the grade point scale.
const MaxGradePoint = 10

type threshold struct {
	minMarks float64
	point    int
}

// ladder is evaluated highest-first; anything below the last step is 0.
var ladder = []threshold{
	{91, 10},
	{81, 9},
	{71, 8},
	{61, 7},
	{51, 6},
	{41, 5},
	{35, 4},
}

var letters = map[int]string{
	10: "O",
	9:  "A+",
	8:  "A",
	7:  "B+",
	6:  "B",
	5:  "C",
	4:  "P",
	0:  "F",
}

var pointsByLetter = func() map[string]int {
	out := make(map[string]int, len(letters))
	for point, letter := range letters {
		out[letter] = point
	}
	return out
}()

// CourseResult is the derived grade for one student in one course.
type CourseResult struct {
	CourseID       string  `json:"course_id"`
	TotalMarks     float64 `json:"total_marks"`
	Credits        float64 `json:"credits"`
	GradePoint     int     `json:"grade_point"`
	Grade          string  `json:"grade"`
	Status         Status  `json:"status"`
	GradePoints    float64 `json:"grade_points"`
	MaxGradePoints float64 `json:"max_grade_points"`
}

// SemesterResult aggregates course results for one student and semester.
type SemesterResult struct {
	GradePoints    float64 `json:"grade_points"`
	MaxGradePoints float64 `json:"max_grade_points"`
	SGPA           float64 `json:"sgpa"`
}

// SemesterSummary is the per-semester input to program aggregation.
type SemesterSummary struct {
	SemesterID     string
	GradePoints    float64
	MaxGradePoints float64
}

// ProgramResult aggregates semester results across a program.
type ProgramResult struct {
	CGPA           float64            `json:"cgpa"`
	SemesterGrades map[string]float64 `json:"semester_grades"`
}

// GradePointFromMarks maps total marks onto the 0-10 grade point ladder.
func GradePointFromMarks(totalMarks float64) int {
	for _, step := range ladder {
		if totalMarks >= step.minMarks {
			return step.point
		}
	}
	return 0
}

// GradeLetterFromPoint returns the letter for a grade point. Points the
// ladder never produces map to "F".
func GradeLetterFromPoint(point int) string {
	if letter, ok := letters[point]; ok {
		return letter
	}
	return letters[0]
}

// GradePointFromLetter is the inverse of GradeLetterFromPoint.
func GradePointFromLetter(letter string) (int, bool) {
	point, ok := pointsByLetter[strings.ToUpper(strings.TrimSpace(letter))]
	return point, ok
}

// RoundMarks rounds to two decimals so float noise from summing fractional
// components cannot move a total across a ladder step.
func RoundMarks(marks float64) float64 {
	return math.Round(marks*100) / 100
}

// NewCourseGrade computes the course grade for the given marks and credits.
func NewCourseGrade(courseID string, totalMarks, credits float64) CourseResult {
	totalMarks = RoundMarks(totalMarks)
	point := GradePointFromMarks(totalMarks)
	status := StatusPassed
	if point == 0 {
		status = StatusFailed
	}
	return CourseResult{
		CourseID:       courseID,
		TotalMarks:     totalMarks,
		Credits:        credits,
		GradePoint:     point,
		Grade:          GradeLetterFromPoint(point),
		Status:         status,
		GradePoints:    float64(point) * credits,
		MaxGradePoints: MaxGradePoint * credits,
	}
}

// InitialSemesterGrade returns the zeroed aggregate used before any course
// grade exists.
func InitialSemesterGrade() SemesterResult {
	return SemesterResult{}
}

// RecalculateSemesterGrade sums the full set of course results. It never
// starts from a previous aggregate, so repeated calls on the same input are
// identical.
func RecalculateSemesterGrade(courses []CourseResult) SemesterResult {
	var result SemesterResult
	for _, course := range courses {
		result.GradePoints += course.GradePoints
		result.MaxGradePoints += course.MaxGradePoints
	}
	result.SGPA = average(result.GradePoints, result.MaxGradePoints)
	return result
}

// RecalculateProgramGrade computes a credit weighted CGPA across semesters.
func RecalculateProgramGrade(semesters []SemesterSummary) ProgramResult {
	result := ProgramResult{SemesterGrades: make(map[string]float64, len(semesters))}
	var points, maxPoints float64
	for _, semester := range semesters {
		points += semester.GradePoints
		maxPoints += semester.MaxGradePoints
		result.SemesterGrades[semester.SemesterID] = average(semester.GradePoints, semester.MaxGradePoints)
	}
	result.CGPA = average(points, maxPoints)
	return result
}

func average(points, maxPoints float64) float64 {
	if maxPoints <= 0 {
		return 0
	}
	return points / (maxPoints / MaxGradePoint)
}
