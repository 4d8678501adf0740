package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-grading-api/internal/models"
)

const courseMarkColumns = "id, student_id, course_id, component, value, created_at, updated_at"

// CourseMarkRepository persists per-component marks.
type CourseMarkRepository struct {
	db *sqlx.DB
}

// NewCourseMarkRepository creates a new course mark repository.
func NewCourseMarkRepository(db *sqlx.DB) *CourseMarkRepository {
	return &CourseMarkRepository{db: db}
}

// ListByStudentCourse returns the marks a student holds in one course.
func (r *CourseMarkRepository) ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]models.CourseMark, error) {
	query := "SELECT " + courseMarkColumns + " FROM course_marks WHERE student_id = $1 AND course_id = $2 ORDER BY component"
	var marks []models.CourseMark
	if err := r.db.SelectContext(ctx, &marks, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list course marks: %w", err)
	}
	return marks, nil
}

// ListByCourses returns marks for the given courses keyed by student then course.
func (r *CourseMarkRepository) ListByCourses(ctx context.Context, courseIDs []string) (map[string]map[string][]models.CourseMark, error) {
	result := make(map[string]map[string][]models.CourseMark)
	if len(courseIDs) == 0 {
		return result, nil
	}
	placeholders, args := inPlaceholders(1, courseIDs)
	query := fmt.Sprintf("SELECT %s FROM course_marks WHERE course_id IN (%s)", courseMarkColumns, placeholders)
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch course marks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mark models.CourseMark
		if err := rows.StructScan(&mark); err != nil {
			return nil, fmt.Errorf("scan course mark: %w", err)
		}
		byCourse, ok := result[mark.StudentID]
		if !ok {
			byCourse = make(map[string][]models.CourseMark)
			result[mark.StudentID] = byCourse
		}
		byCourse[mark.CourseID] = append(byCourse[mark.CourseID], mark)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course marks: %w", err)
	}
	return result, nil
}

// ReplaceForCourse swaps a student's marks for a course in a single transaction.
func (r *CourseMarkRepository) ReplaceForCourse(ctx context.Context, studentID, courseID string, marks []models.CourseMark) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM course_marks WHERE student_id = $1 AND course_id = $2", studentID, courseID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear course marks: %w", err)
	}
	now := time.Now().UTC()
	const insertMark = `INSERT INTO course_marks (id, student_id, course_id, component, value, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :component, :value, :created_at, :updated_at)`
	for i := range marks {
		if marks[i].ID == "" {
			marks[i].ID = uuid.NewString()
		}
		marks[i].StudentID = studentID
		marks[i].CourseID = courseID
		if marks[i].CreatedAt.IsZero() {
			marks[i].CreatedAt = now
		}
		marks[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertMark, marks[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert course mark: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit course marks: %w", err)
	}
	return nil
}
