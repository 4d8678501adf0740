package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-grading-api/internal/models"
)

const semesterGradeColumns = "sg.id, sg.student_id, sg.semester_id, sg.grade_points, sg.max_grade_points, sg.sgpa, sg.created_at, sg.updated_at"

// SemesterGradeRepository persists per-semester aggregates.
type SemesterGradeRepository struct {
	db *sqlx.DB
}

// NewSemesterGradeRepository creates a new semester grade repository.
func NewSemesterGradeRepository(db *sqlx.DB) *SemesterGradeRepository {
	return &SemesterGradeRepository{db: db}
}

// List returns semester grades matching the filter.
func (r *SemesterGradeRepository) List(ctx context.Context, filter models.SemesterGradeFilter) ([]models.SemesterGrade, error) {
	var conditions []string
	var args []interface{}
	if filter.SemesterID != "" {
		conditions = append(conditions, fmt.Sprintf("sg.semester_id = $%d", len(args)+1))
		args = append(args, filter.SemesterID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("sg.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	query := "SELECT " + semesterGradeColumns + " FROM semester_grades sg"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY sg.updated_at DESC"
	var grades []models.SemesterGrade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list semester grades: %w", err)
	}
	return grades, nil
}

// FindByID returns a semester grade by ID.
func (r *SemesterGradeRepository) FindByID(ctx context.Context, id string) (*models.SemesterGrade, error) {
	query := "SELECT " + semesterGradeColumns + " FROM semester_grades sg WHERE sg.id = $1"
	var grade models.SemesterGrade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// FindByStudentSemester returns the semester grade for a (student, semester) key.
func (r *SemesterGradeRepository) FindByStudentSemester(ctx context.Context, studentID, semesterID string) (*models.SemesterGrade, error) {
	query := "SELECT " + semesterGradeColumns + " FROM semester_grades sg WHERE sg.student_id = $1 AND sg.semester_id = $2"
	var grade models.SemesterGrade
	if err := r.db.GetContext(ctx, &grade, query, studentID, semesterID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create inserts a semester grade. The (student_id, semester_id) pair is unique.
func (r *SemesterGradeRepository) Create(ctx context.Context, grade *models.SemesterGrade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO semester_grades (id, student_id, semester_id, grade_points, max_grade_points, sgpa, created_at, updated_at)
        VALUES (:id, :student_id, :semester_id, :grade_points, :max_grade_points, :sgpa, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create semester grade: %w", err)
	}
	return nil
}

// UpdateTotals stores a recomputed aggregate.
func (r *SemesterGradeRepository) UpdateTotals(ctx context.Context, grade *models.SemesterGrade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE semester_grades SET grade_points = :grade_points, max_grade_points = :max_grade_points, sgpa = :sgpa, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, grade)
	if err != nil {
		return fmt.Errorf("update semester grade: %w", err)
	}
	return expectAffected(res)
}

// ListByStudentProgram returns a student's semester grades across a program's semesters.
func (r *SemesterGradeRepository) ListByStudentProgram(ctx context.Context, studentID, programID string) ([]models.SemesterGrade, error) {
	query := "SELECT " + semesterGradeColumns + ` FROM semester_grades sg
        JOIN semesters s ON s.id = sg.semester_id
        WHERE sg.student_id = $1 AND s.program_id = $2
        ORDER BY s.number`
	var grades []models.SemesterGrade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, programID); err != nil {
		return nil, fmt.Errorf("list program semester grades: %w", err)
	}
	return grades, nil
}

// ListRowsBySemester returns semester grades joined with student details for exports.
func (r *SemesterGradeRepository) ListRowsBySemester(ctx context.Context, semesterID string) ([]models.SemesterGradeRow, error) {
	query := "SELECT " + semesterGradeColumns + `, st.roll_number, st.full_name AS student_name
        FROM semester_grades sg
        JOIN students st ON st.id = sg.student_id
        WHERE sg.semester_id = $1
        ORDER BY st.roll_number`
	var rows []models.SemesterGradeRow
	if err := r.db.SelectContext(ctx, &rows, query, semesterID); err != nil {
		return nil, fmt.Errorf("list semester grade rows: %w", err)
	}
	return rows, nil
}
