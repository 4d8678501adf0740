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

const programGradeColumns = "id, student_id, program_id, cgpa, semester_grades, calculated_at"

// ProgramGradeRepository persists cumulative program aggregates.
type ProgramGradeRepository struct {
	db *sqlx.DB
}

// NewProgramGradeRepository creates a new program grade repository.
func NewProgramGradeRepository(db *sqlx.DB) *ProgramGradeRepository {
	return &ProgramGradeRepository{db: db}
}

// List returns program grades matching the filter.
func (r *ProgramGradeRepository) List(ctx context.Context, filter models.ProgramGradeFilter) ([]models.ProgramGrade, error) {
	var conditions []string
	var args []interface{}
	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	query := "SELECT " + programGradeColumns + " FROM program_grades"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY cgpa DESC"
	var grades []models.ProgramGrade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list program grades: %w", err)
	}
	return grades, nil
}

// FindByID returns a program grade by ID.
func (r *ProgramGradeRepository) FindByID(ctx context.Context, id string) (*models.ProgramGrade, error) {
	query := "SELECT " + programGradeColumns + " FROM program_grades WHERE id = $1"
	var grade models.ProgramGrade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Upsert stores the aggregate for a (student, program) pair.
func (r *ProgramGradeRepository) Upsert(ctx context.Context, grade *models.ProgramGrade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CalculatedAt.IsZero() {
		grade.CalculatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO program_grades (id, student_id, program_id, cgpa, semester_grades, calculated_at)
        VALUES (:id, :student_id, :program_id, :cgpa, :semester_grades, :calculated_at)
        ON CONFLICT (student_id, program_id)
        DO UPDATE SET cgpa = EXCLUDED.cgpa, semester_grades = EXCLUDED.semester_grades, calculated_at = EXCLUDED.calculated_at
        RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, grade)
	if err != nil {
		return fmt.Errorf("upsert program grade: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&grade.ID); err != nil {
			return fmt.Errorf("scan program grade id: %w", err)
		}
	}
	return rows.Err()
}

// Delete removes a program grade.
func (r *ProgramGradeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM program_grades WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete program grade: %w", err)
	}
	return expectAffected(res)
}
