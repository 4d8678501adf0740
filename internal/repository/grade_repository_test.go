package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-grading-api/internal/models"
)

var courseGradeRowColumns = []string{"id", "semester_grade_id", "student_id", "course_id", "total_marks", "credits",
	"grade_point", "grade", "status", "grade_points", "max_grade_points", "created_at", "updated_at"}

func TestSemesterGradeRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSemesterGradeRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM semester_grades sg WHERE sg.semester_id = $1 AND sg.student_id = $2 ORDER BY sg.updated_at DESC")).
		WithArgs("sem-1", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "semester_id", "grade_points", "max_grade_points", "sgpa", "created_at", "updated_at"}).
			AddRow("sg-1", "stu-1", "sem-1", 57.0, 70.0, 8.142857, now, now))

	grades, err := repo.List(context.Background(), models.SemesterGradeFilter{SemesterID: "sem-1", StudentID: "stu-1"})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, 57.0, grades[0].GradePoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterGradeRepositoryUpdateTotalsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSemesterGradeRepository(db)

	mock.ExpectExec("UPDATE semester_grades SET grade_points").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateTotals(context.Background(), &models.SemesterGrade{ID: "sg-x"})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseGradeRepositoryUpsertKeepsExistingID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseGradeRepository(db)

	created := time.Now().Add(-time.Hour)
	mock.ExpectQuery("(?s)INSERT INTO course_grades .* ON CONFLICT \\(semester_grade_id, course_id\\)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("cg-existing", created))

	grade := &models.CourseGrade{SemesterGradeID: "sg-1", StudentID: "stu-1", CourseID: "math", TotalMarks: 85, Credits: 4, GradePoint: 9, Grade: "A+"}
	require.NoError(t, repo.Upsert(context.Background(), grade))
	assert.Equal(t, "cg-existing", grade.ID)
	assert.True(t, grade.CreatedAt.Equal(created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseGradeRepositoryListBySemesterGroups(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseGradeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(courseGradeRowColumns).
		AddRow("cg-1", "sg-1", "stu-1", "math", 85.0, 4.0, 9, "A+", "passed", 36.0, 40.0, now, now).
		AddRow("cg-2", "sg-1", "stu-1", "phy", 70.0, 3.0, 7, "B+", "passed", 21.0, 30.0, now, now).
		AddRow("cg-3", "sg-2", "stu-2", "math", 30.0, 4.0, 0, "F", "failed", 0.0, 40.0, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sg.semester_id = $1")).
		WithArgs("sem-1").
		WillReturnRows(rows)

	grouped, err := repo.ListBySemester(context.Background(), "sem-1")
	require.NoError(t, err)
	assert.Len(t, grouped, 2)
	assert.Len(t, grouped["stu-1"], 2)
	assert.Equal(t, "F", grouped["stu-2"]["math"].Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseGradeRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseGradeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_grades WHERE id = $1")).
		WithArgs("cg-x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "cg-x")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseMarkRepositoryReplaceForCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseMarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_marks WHERE student_id = $1 AND course_id = $2")).
		WithArgs("stu-1", "math").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO course_marks").
		WithArgs(sqlmock.AnyArg(), "stu-1", "math", "Internal", 25.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO course_marks").
		WithArgs(sqlmock.AnyArg(), "stu-1", "math", "Final", 60.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	marks := []models.CourseMark{{Component: "Internal", Value: 25}, {Component: "Final", Value: 60}}
	require.NoError(t, repo.ReplaceForCourse(context.Background(), "stu-1", "math", marks))
	assert.NotEmpty(t, marks[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseMarkRepositoryReplaceRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseMarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM course_marks").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO course_marks").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := repo.ReplaceForCourse(context.Background(), "stu-1", "math", []models.CourseMark{{Component: "Final", Value: 60}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseMarkRepositoryListByCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseMarkRepository(db)

	empty, err := repo.ListByCourses(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_marks WHERE course_id IN ($1,$2)")).
		WithArgs("math", "phy").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "course_id", "component", "value", "created_at", "updated_at"}).
			AddRow("m1", "stu-1", "math", "Internal", 25.0, now, now).
			AddRow("m2", "stu-1", "math", "Final", 60.0, now, now).
			AddRow("m3", "stu-1", "phy", "Lab", 30.0, now, now))

	byStudent, err := repo.ListByCourses(context.Background(), []string{"math", "phy"})
	require.NoError(t, err)
	assert.Len(t, byStudent["stu-1"]["math"], 2)
	assert.Len(t, byStudent["stu-1"]["phy"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramGradeRepositoryUpsertAndDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramGradeRepository(db)

	mock.ExpectQuery("(?s)INSERT INTO program_grades .* ON CONFLICT \\(student_id, program_id\\)").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("pg-1"))
	grade := &models.ProgramGrade{StudentID: "stu-1", ProgramID: "prog-1", CGPA: 8.78, SemesterGrades: models.SemesterGPAMap{"sem-1": 8.14}}
	require.NoError(t, repo.Upsert(context.Background(), grade))
	assert.Equal(t, "pg-1", grade.ID)
	assert.False(t, grade.CalculatedAt.IsZero())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM program_grades WHERE id = $1")).
		WithArgs("pg-2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "pg-2"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
