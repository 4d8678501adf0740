package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-grading-api/internal/models"
)

const courseColumns = "id, semester_id, code, name, credits, created_at, updated_at"

// CourseRepository manages courses and their weightage components.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the filter, each with its components.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE 1=1"
	var args []interface{}
	if filter.SemesterID != "" {
		query += fmt.Sprintf(" AND semester_id = $%d", len(args)+1)
		args = append(args, filter.SemesterID)
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	query += " ORDER BY code"

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if err := r.attachComponents(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// FindByID returns a course with its components.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE id = $1"
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	components, err := r.loadComponents(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Components = components
	return &course, nil
}

// ExistsByCode checks for a code clash within a semester, excluding an optional ID.
func (r *CourseRepository) ExistsByCode(ctx context.Context, semesterID, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM courses WHERE semester_id = $1 AND code = $2"
	args := []interface{}{semesterID, code}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create inserts a course with its components.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const insertCourse = `INSERT INTO courses (id, semester_id, code, name, credits, created_at, updated_at)
        VALUES (:id, :semester_id, :code, :name, :credits, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertCourse, course); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert course: %w", err)
	}
	if err := r.replaceComponentsTx(ctx, tx, course.ID, course.Components); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit course: %w", err)
	}
	return nil
}

// Update applies changes to course metadata and replaces its components.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	course.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE courses SET code = :code, name = :name, credits = :credits, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateQuery, course); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update course: %w", err)
	}
	if err := r.replaceComponentsTx(ctx, tx, course.ID, course.Components); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit course: %w", err)
	}
	return nil
}

// Delete removes a course; components cascade in the schema.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return expectAffected(res)
}

// replaceComponentsTx rewrites course components in a transaction.
func (r *CourseRepository) replaceComponentsTx(ctx context.Context, tx *sqlx.Tx, courseID string, components []models.WeightageComponent) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM course_components WHERE course_id = $1", courseID); err != nil {
		return fmt.Errorf("clear course components: %w", err)
	}
	const insertComponent = `INSERT INTO course_components (id, course_id, name, max_marks, position)
        VALUES (:id, :course_id, :name, :max_marks, :position)`
	for i := range components {
		if components[i].ID == "" {
			components[i].ID = uuid.NewString()
		}
		components[i].CourseID = courseID
		components[i].Position = i + 1
		if _, err := tx.NamedExecContext(ctx, insertComponent, components[i]); err != nil {
			return fmt.Errorf("insert course component: %w", err)
		}
	}
	return nil
}

func (r *CourseRepository) loadComponents(ctx context.Context, courseID string) ([]models.WeightageComponent, error) {
	const query = `SELECT id, course_id, name, max_marks, position FROM course_components WHERE course_id = $1 ORDER BY position`
	var components []models.WeightageComponent
	if err := r.db.SelectContext(ctx, &components, query, courseID); err != nil {
		return nil, fmt.Errorf("load course components: %w", err)
	}
	return components, nil
}

func (r *CourseRepository) attachComponents(ctx context.Context, courses []models.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, len(courses))
	for i, course := range courses {
		ids[i] = course.ID
	}
	placeholders, args := inPlaceholders(1, ids)
	query := fmt.Sprintf(`SELECT id, course_id, name, max_marks, position FROM course_components
        WHERE course_id IN (%s) ORDER BY course_id, position`, placeholders)
	var components []models.WeightageComponent
	if err := r.db.SelectContext(ctx, &components, query, args...); err != nil {
		return fmt.Errorf("load course components: %w", err)
	}
	byCourse := make(map[string][]models.WeightageComponent, len(courses))
	for _, comp := range components {
		byCourse[comp.CourseID] = append(byCourse[comp.CourseID], comp)
	}
	for i := range courses {
		courses[i].Components = byCourse[courses[i].ID]
	}
	return nil
}

// inPlaceholders renders "$n,$n+1,..." for an IN clause starting at position start.
func inPlaceholders(start int, ids []string) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", start+i)
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}
