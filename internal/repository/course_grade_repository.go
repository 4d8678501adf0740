package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-grading-api/internal/models"
)

const courseGradeColumns = `cg.id, cg.semester_grade_id, cg.student_id, cg.course_id, cg.total_marks, cg.credits,
        cg.grade_point, cg.grade, cg.status, cg.grade_points, cg.max_grade_points, cg.created_at, cg.updated_at`

// CourseGradeRepository persists derived course grades.
type CourseGradeRepository struct {
	db *sqlx.DB
}

// NewCourseGradeRepository creates a new course grade repository.
func NewCourseGradeRepository(db *sqlx.DB) *CourseGradeRepository {
	return &CourseGradeRepository{db: db}
}

// ListBySemesterGrade returns every course grade attached to a semester grade.
func (r *CourseGradeRepository) ListBySemesterGrade(ctx context.Context, semesterGradeID string) ([]models.CourseGrade, error) {
	query := "SELECT " + courseGradeColumns + " FROM course_grades cg WHERE cg.semester_grade_id = $1 ORDER BY cg.course_id"
	var grades []models.CourseGrade
	if err := r.db.SelectContext(ctx, &grades, query, semesterGradeID); err != nil {
		return nil, fmt.Errorf("list course grades: %w", err)
	}
	return grades, nil
}

// ListBySemester returns course grades of a semester keyed by student then course.
func (r *CourseGradeRepository) ListBySemester(ctx context.Context, semesterID string) (map[string]map[string]models.CourseGrade, error) {
	query := "SELECT " + courseGradeColumns + ` FROM course_grades cg
        JOIN semester_grades sg ON sg.id = cg.semester_grade_id
        WHERE sg.semester_id = $1`
	rows, err := r.db.QueryxContext(ctx, query, semesterID)
	if err != nil {
		return nil, fmt.Errorf("fetch semester course grades: %w", err)
	}
	defer rows.Close()
	result := make(map[string]map[string]models.CourseGrade)
	for rows.Next() {
		var grade models.CourseGrade
		if err := rows.StructScan(&grade); err != nil {
			return nil, fmt.Errorf("scan course grade: %w", err)
		}
		byCourse, ok := result[grade.StudentID]
		if !ok {
			byCourse = make(map[string]models.CourseGrade)
			result[grade.StudentID] = byCourse
		}
		byCourse[grade.CourseID] = grade
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course grades: %w", err)
	}
	return result, nil
}

// FindByID returns a course grade by ID.
func (r *CourseGradeRepository) FindByID(ctx context.Context, id string) (*models.CourseGrade, error) {
	query := "SELECT " + courseGradeColumns + " FROM course_grades cg WHERE cg.id = $1"
	var grade models.CourseGrade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// FindBySemesterGradeAndCourse returns the course grade for a (semester grade, course) key.
func (r *CourseGradeRepository) FindBySemesterGradeAndCourse(ctx context.Context, semesterGradeID, courseID string) (*models.CourseGrade, error) {
	query := "SELECT " + courseGradeColumns + " FROM course_grades cg WHERE cg.semester_grade_id = $1 AND cg.course_id = $2"
	var grade models.CourseGrade
	if err := r.db.GetContext(ctx, &grade, query, semesterGradeID, courseID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Upsert inserts a course grade or replaces the existing one for the same key in place.
func (r *CourseGradeRepository) Upsert(ctx context.Context, grade *models.CourseGrade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO course_grades (id, semester_grade_id, student_id, course_id, total_marks, credits, grade_point, grade, status, grade_points, max_grade_points, created_at, updated_at)
        VALUES (:id, :semester_grade_id, :student_id, :course_id, :total_marks, :credits, :grade_point, :grade, :status, :grade_points, :max_grade_points, :created_at, :updated_at)
        ON CONFLICT (semester_grade_id, course_id)
        DO UPDATE SET total_marks = EXCLUDED.total_marks, credits = EXCLUDED.credits, grade_point = EXCLUDED.grade_point,
            grade = EXCLUDED.grade, status = EXCLUDED.status, grade_points = EXCLUDED.grade_points,
            max_grade_points = EXCLUDED.max_grade_points, updated_at = EXCLUDED.updated_at
        RETURNING id, created_at`
	rows, err := r.db.NamedQueryContext(ctx, query, grade)
	if err != nil {
		return fmt.Errorf("upsert course grade: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&grade.ID, &grade.CreatedAt); err != nil {
			return fmt.Errorf("scan course grade id: %w", err)
		}
	}
	return rows.Err()
}

// Delete removes a course grade.
func (r *CourseGradeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM course_grades WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete course grade: %w", err)
	}
	return expectAffected(res)
}
