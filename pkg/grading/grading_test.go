package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradePointFromMarksLadder(t *testing.T) {
	cases := []struct {
		marks float64
		point int
	}{
		{100, 10}, {91, 10}, {90.5, 9}, {81, 9}, {80, 8}, {71, 8},
		{70, 7}, {61, 7}, {60, 6}, {51, 6}, {50, 5}, {41, 5},
		{40, 4}, {35, 4}, {34.9, 0}, {0, 0}, {-5, 0}, {120, 10},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.point, GradePointFromMarks(tc.marks), "marks %.1f", tc.marks)
	}
}

func TestGradePointBelowPassIsFail(t *testing.T) {
	for marks := 0; marks <= 34; marks++ {
		res := NewCourseGrade("c", float64(marks), 3)
		assert.Equal(t, 0, res.GradePoint)
		assert.Equal(t, "F", res.Grade)
		assert.Equal(t, StatusFailed, res.Status)
	}
	for marks := 35; marks <= 40; marks++ {
		res := NewCourseGrade("c", float64(marks), 3)
		assert.Equal(t, 4, res.GradePoint)
		assert.Equal(t, "P", res.Grade)
		assert.Equal(t, StatusPassed, res.Status)
	}
}

func TestGradeLetterRoundTrip(t *testing.T) {
	for _, point := range []int{0, 4, 5, 6, 7, 8, 9, 10} {
		letter := GradeLetterFromPoint(point)
		back, ok := GradePointFromLetter(letter)
		require.True(t, ok, letter)
		assert.Equal(t, point, back)
	}
	assert.Equal(t, "F", GradeLetterFromPoint(3))
	assert.Equal(t, "F", GradeLetterFromPoint(11))
	_, ok := GradePointFromLetter("Z")
	assert.False(t, ok)

	point, ok := GradePointFromLetter(" a+ ")
	require.True(t, ok)
	assert.Equal(t, 9, point)
}

func TestNewCourseGradeRoundsFloatNoise(t *testing.T) {
	res := NewCourseGrade("math", 40.999999999999993, 4)
	assert.Equal(t, 41.0, res.TotalMarks)
	assert.Equal(t, 5, res.GradePoint)
	assert.Equal(t, "C", res.Grade)
}

func TestNewCourseGrade(t *testing.T) {
	res := NewCourseGrade("math", 85, 3)
	assert.Equal(t, 9, res.GradePoint)
	assert.Equal(t, "A+", res.Grade)
	assert.Equal(t, StatusPassed, res.Status)
	assert.Equal(t, 27.0, res.GradePoints)
	assert.Equal(t, 30.0, res.MaxGradePoints)
}

func TestRecalculateSemesterGrade(t *testing.T) {
	courses := []CourseResult{NewCourseGrade("a", 85, 3), NewCourseGrade("b", 30, 4)}

	first := RecalculateSemesterGrade(courses)
	assert.Equal(t, 27.0, first.GradePoints)
	assert.Equal(t, 70.0, first.MaxGradePoints)
	assert.InDelta(t, 3.857, first.SGPA, 0.001)

	second := RecalculateSemesterGrade(courses)
	assert.Equal(t, first, second)
}

func TestRecalculateSemesterGradeEmpty(t *testing.T) {
	res := RecalculateSemesterGrade(nil)
	assert.Equal(t, InitialSemesterGrade(), res)
	assert.Zero(t, res.SGPA)
}

func TestRecalculateProgramGrade(t *testing.T) {
	res := RecalculateProgramGrade([]SemesterSummary{
		{SemesterID: "s1", GradePoints: 27, MaxGradePoints: 70},
		{SemesterID: "s2", GradePoints: 90, MaxGradePoints: 100},
		{SemesterID: "s3"},
	})
	assert.InDelta(t, 117.0/17.0, res.CGPA, 0.0001)
	assert.InDelta(t, 3.857, res.SemesterGrades["s1"], 0.001)
	assert.Equal(t, 9.0, res.SemesterGrades["s2"])
	assert.Zero(t, res.SemesterGrades["s3"])

	empty := RecalculateProgramGrade(nil)
	assert.Zero(t, empty.CGPA)
	assert.NotNil(t, empty.SemesterGrades)
}
