package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/academic-grading-api/internal/dto"
	"github.com/noah-isme/academic-grading-api/internal/models"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
	"github.com/noah-isme/academic-grading-api/pkg/grading"
)

type courseGradeRepository interface {
	ListBySemesterGrade(ctx context.Context, semesterGradeID string) ([]models.CourseGrade, error)
	FindByID(ctx context.Context, id string) (*models.CourseGrade, error)
	FindBySemesterGradeAndCourse(ctx context.Context, semesterGradeID, courseID string) (*models.CourseGrade, error)
	Upsert(ctx context.Context, grade *models.CourseGrade) error
	Delete(ctx context.Context, id string) error
}

type semesterGradeRepository interface {
	List(ctx context.Context, filter models.SemesterGradeFilter) ([]models.SemesterGrade, error)
	FindByID(ctx context.Context, id string) (*models.SemesterGrade, error)
	FindByStudentSemester(ctx context.Context, studentID, semesterID string) (*models.SemesterGrade, error)
	Create(ctx context.Context, grade *models.SemesterGrade) error
	UpdateTotals(ctx context.Context, grade *models.SemesterGrade) error
}

type gradeCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

type semesterLookup interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type rosterStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListActiveByProgram(ctx context.Context, programID string) ([]models.Student, error)
}

// CheckGradeRequest previews a course grade from stored marks.
type CheckGradeRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// CourseGradeRequest records a course grade against an initialized semester grade.
// TotalMarks is optional; when omitted the stored component marks are summed.
type CourseGradeRequest struct {
	SemesterGradeID string   `json:"semester_grade_id" validate:"required"`
	CourseID        string   `json:"course_id" validate:"required"`
	TotalMarks      *float64 `json:"total_marks,omitempty"`
}

// InitSemesterGradeRequest initializes the aggregate of a student for a semester.
type InitSemesterGradeRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	SemesterID string `json:"semester_id" validate:"required"`
}

// CourseGradeResult pairs a stored course grade with the recomputed semester aggregate.
type CourseGradeResult struct {
	CourseGrade   *models.CourseGrade   `json:"course_grade"`
	SemesterGrade *models.SemesterGrade `json:"semester_grade"`
}

// GradeService records course grades, keeps semester aggregates in sync and runs batch operations.
type GradeService struct {
	students       rosterStudentReader
	semesters      semesterLookup
	courses        gradeCourseReader
	marks          courseMarkRepository
	courseGrades   courseGradeRepository
	semesterGrades semesterGradeRepository
	cache          *CacheService
	metrics        *MetricsService
	concurrency    int
	validator      *validator.Validate
	logger         *zap.Logger
}

// GradeServiceDeps groups the collaborators of GradeService.
type GradeServiceDeps struct {
	Students       rosterStudentReader
	Semesters      semesterLookup
	Courses        gradeCourseReader
	Marks          courseMarkRepository
	CourseGrades   courseGradeRepository
	SemesterGrades semesterGradeRepository
	Cache          *CacheService
	Metrics        *MetricsService
	// Concurrency bounds in-flight students per batch; 0 launches all of them.
	Concurrency int
}

// NewGradeService constructs GradeService.
func NewGradeService(deps GradeServiceDeps, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		students:       deps.Students,
		semesters:      deps.Semesters,
		courses:        deps.Courses,
		marks:          deps.Marks,
		courseGrades:   deps.CourseGrades,
		semesterGrades: deps.SemesterGrades,
		cache:          deps.Cache,
		metrics:        deps.Metrics,
		concurrency:    deps.Concurrency,
		validator:      validate,
		logger:         logger,
	}
}

// CheckCourse computes a course grade from stored marks without persisting it.
func (s *GradeService) CheckCourse(ctx context.Context, req CheckGradeRequest) (*grading.CourseResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check payload")
	}
	if _, err := s.loadStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}
	course, err := loadCourse(ctx, s.courses, req.CourseID)
	if err != nil {
		return nil, err
	}
	result, err := s.gradeFromMarks(ctx, req.StudentID, course)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListCourseGrades returns the course grades recorded under a semester grade.
func (s *GradeService) ListCourseGrades(ctx context.Context, semesterGradeID string) ([]models.CourseGrade, error) {
	if semesterGradeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semesterGradeId is required")
	}
	grades, err := s.courseGrades.ListBySemesterGrade(ctx, semesterGradeID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list course grades")
	}
	return grades, nil
}

// RecordCourseGrade creates the course grade for a (semester grade, course) pair.
func (s *GradeService) RecordCourseGrade(ctx context.Context, req CourseGradeRequest) (*CourseGradeResult, error) {
	return s.storeCourseGrade(ctx, req, false)
}

// UpdateCourseGrade replaces an existing course grade in place.
func (s *GradeService) UpdateCourseGrade(ctx context.Context, req CourseGradeRequest) (*CourseGradeResult, error) {
	return s.storeCourseGrade(ctx, req, true)
}

// DeleteCourseGrade removes a course grade and recomputes its semester aggregate.
func (s *GradeService) DeleteCourseGrade(ctx context.Context, id string) (*models.SemesterGrade, error) {
	grade, err := s.courseGrades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course grade not found")
		}
		return nil, appErrors.Internal(err, "failed to load course grade")
	}
	semesterGrade, err := s.loadSemesterGrade(ctx, grade.SemesterGradeID)
	if err != nil {
		return nil, err
	}
	if err := s.courseGrades.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course grade not found")
		}
		return nil, appErrors.Internal(err, "failed to delete course grade")
	}
	if err := s.recalculate(ctx, semesterGrade); err != nil {
		return nil, err
	}
	s.invalidateRoster(ctx, semesterGrade.SemesterID)
	return semesterGrade, nil
}

// ListSemesterGrades returns semester aggregates matching the filter.
func (s *GradeService) ListSemesterGrades(ctx context.Context, filter models.SemesterGradeFilter) ([]models.SemesterGrade, error) {
	grades, err := s.semesterGrades.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list semester grades")
	}
	return grades, nil
}

// InitializeSemesterGrade creates the zeroed aggregate of a student for a semester.
func (s *GradeService) InitializeSemesterGrade(ctx context.Context, req InitSemesterGradeRequest) (*models.SemesterGrade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester grade payload")
	}
	student, err := s.loadStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	semester, err := s.loadSemester(ctx, req.SemesterID)
	if err != nil {
		return nil, err
	}
	if semester.ProgramID != student.ProgramID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester does not belong to the student's program")
	}
	_, err = s.semesterGrades.FindByStudentSemester(ctx, req.StudentID, req.SemesterID)
	switch {
	case err == nil:
		return nil, appErrors.Clone(appErrors.ErrConflict, "semester grade already initialized")
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load semester grade")
	}
	grade, err := s.createSemesterGrade(ctx, req.StudentID, req.SemesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to initialize semester grade")
	}
	s.invalidateRoster(ctx, req.SemesterID)
	return grade, nil
}

// RecalculateSemesterGrade recomputes an aggregate from its current course grades.
func (s *GradeService) RecalculateSemesterGrade(ctx context.Context, id string) (*models.SemesterGrade, error) {
	grade, err := s.loadSemesterGrade(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrPreconditionFailed) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester grade not found")
		}
		return nil, err
	}
	if err := s.recalculate(ctx, grade); err != nil {
		return nil, err
	}
	s.invalidateRoster(ctx, grade.SemesterID)
	return grade, nil
}

// CheckAll previews course grades for every active student of a program semester.
func (s *GradeService) CheckAll(ctx context.Context, req dto.BatchGradeRequest) (*dto.BatchGradeResponse, error) {
	return s.runBatch(ctx, dto.BatchCheck, req)
}

// UploadAll records course grades for every active student, initializing missing aggregates.
func (s *GradeService) UploadAll(ctx context.Context, req dto.BatchGradeRequest) (*dto.BatchGradeResponse, error) {
	return s.runBatch(ctx, dto.BatchUpload, req)
}

// UpdateAll replaces course grades for every active student with an initialized aggregate.
func (s *GradeService) UpdateAll(ctx context.Context, req dto.BatchGradeRequest) (*dto.BatchGradeResponse, error) {
	return s.runBatch(ctx, dto.BatchUpdate, req)
}

func (s *GradeService) storeCourseGrade(ctx context.Context, req CourseGradeRequest, replace bool) (*CourseGradeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course grade payload")
	}
	semesterGrade, err := s.loadSemesterGrade(ctx, req.SemesterGradeID)
	if err != nil {
		return nil, err
	}
	course, err := loadCourse(ctx, s.courses, req.CourseID)
	if err != nil {
		return nil, err
	}
	if course.SemesterID != semesterGrade.SemesterID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course does not belong to the semester")
	}

	existing, err := s.courseGrades.FindBySemesterGradeAndCourse(ctx, semesterGrade.ID, course.ID)
	switch {
	case err == nil && !replace:
		return nil, appErrors.Clone(appErrors.ErrConflict, "course grade already recorded")
	case errors.Is(err, sql.ErrNoRows) && replace:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course grade not found")
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load course grade")
	}

	var result grading.CourseResult
	if req.TotalMarks != nil {
		total := *req.TotalMarks
		if total < 0 || total > grading.MaxTotalMarks {
			return nil, appErrors.Clone(appErrors.ErrInvalidMarks, fmt.Sprintf("total marks must be between 0 and %d", grading.MaxTotalMarks))
		}
		result = grading.NewCourseGrade(course.ID, total, course.Credits)
	} else {
		result, err = s.gradeFromMarks(ctx, semesterGrade.StudentID, course)
		if err != nil {
			return nil, err
		}
	}

	grade := &models.CourseGrade{SemesterGradeID: semesterGrade.ID, StudentID: semesterGrade.StudentID}
	if existing != nil {
		grade = existing
	}
	grade.Apply(result)
	if err := s.courseGrades.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Internal(err, "failed to store course grade")
	}
	if err := s.recalculate(ctx, semesterGrade); err != nil {
		return nil, err
	}
	s.invalidateRoster(ctx, semesterGrade.SemesterID)
	return &CourseGradeResult{CourseGrade: grade, SemesterGrade: semesterGrade}, nil
}

func (s *GradeService) runBatch(ctx context.Context, op dto.BatchOperation, req dto.BatchGradeRequest) (*dto.BatchGradeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	semester, err := s.loadSemester(ctx, req.SemesterID)
	if err != nil {
		return nil, err
	}
	if semester.ProgramID != req.ProgramID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester does not belong to the program")
	}
	courses, err := s.batchCourses(ctx, req)
	if err != nil {
		return nil, err
	}
	students, err := s.students.ListActiveByProgram(ctx, req.ProgramID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load roster")
	}

	start := time.Now()
	items := make([]dto.BatchGradeItem, len(students))
	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i := range students {
		i, student := i, students[i]
		g.Go(func() error {
			items[i] = s.gradeStudent(ctx, op, student.ID, semester.ID, courses, req.CourseID == "")
			return nil
		})
	}
	_ = g.Wait()

	resp := &dto.BatchGradeResponse{Operation: op, Total: len(items), Items: items}
	for _, item := range items {
		done := item.Status == dto.BatchItemDone
		if done {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
		s.metrics.RecordBatchItem(string(op), done)
	}
	s.metrics.ObserveBatch(string(op), time.Since(start))
	if op != dto.BatchCheck {
		s.invalidateRoster(ctx, semester.ID)
	}
	s.logger.Info("batch grading finished",
		zap.String("operation", string(op)),
		zap.String("program_id", req.ProgramID),
		zap.String("semester_id", req.SemesterID),
		zap.Int("total", resp.Total),
		zap.Int("failed", resp.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

func (s *GradeService) batchCourses(ctx context.Context, req dto.BatchGradeRequest) ([]models.Course, error) {
	if req.CourseID != "" {
		course, err := loadCourse(ctx, s.courses, req.CourseID)
		if err != nil {
			return nil, err
		}
		if course.SemesterID != req.SemesterID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course does not belong to the semester")
		}
		return []models.Course{*course}, nil
	}
	courses, err := s.courses.List(ctx, models.CourseFilter{SemesterID: req.SemesterID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "semester has no courses")
	}
	return courses, nil
}

// gradeStudent runs one batch operation for one student. Failures are reported
// on the item and never escape to sibling tasks.
func (s *GradeService) gradeStudent(ctx context.Context, op dto.BatchOperation, studentID, semesterID string, courses []models.Course, fullSemester bool) (item dto.BatchGradeItem) {
	item = dto.BatchGradeItem{StudentID: studentID, Status: dto.BatchItemDone}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("batch grading panicked", zap.String("student_id", studentID), zap.Any("panic", r))
			item = dto.BatchGradeItem{StudentID: studentID, Status: dto.BatchItemFailed, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	fail := func(err error) dto.BatchGradeItem {
		s.logger.Warn("batch grading item failed",
			zap.String("operation", string(op)),
			zap.String("student_id", studentID),
			zap.Error(err),
		)
		return dto.BatchGradeItem{StudentID: studentID, Status: dto.BatchItemFailed, Error: appErrors.FromError(err).Message}
	}

	results := make([]grading.CourseResult, 0, len(courses))
	for i := range courses {
		result, err := s.gradeFromMarks(ctx, studentID, &courses[i])
		if err != nil {
			return fail(err)
		}
		results = append(results, result)
	}
	item.Courses = results

	if op == dto.BatchCheck {
		if fullSemester {
			preview := grading.RecalculateSemesterGrade(results)
			item.Semester = &preview
		}
		return item
	}

	semesterGrade, err := s.semesterGrades.FindByStudentSemester(ctx, studentID, semesterID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fail(appErrors.Internal(err, "failed to load semester grade"))
		}
		if op == dto.BatchUpdate {
			return fail(appErrors.Clone(appErrors.ErrPreconditionFailed, "semester grade not initialized"))
		}
		semesterGrade, err = s.createSemesterGrade(ctx, studentID, semesterID)
		if err != nil {
			return fail(appErrors.Internal(err, "failed to initialize semester grade"))
		}
	}

	for _, result := range results {
		grade := &models.CourseGrade{SemesterGradeID: semesterGrade.ID, StudentID: studentID}
		grade.Apply(result)
		if err := s.courseGrades.Upsert(ctx, grade); err != nil {
			return fail(appErrors.Internal(err, "failed to store course grade"))
		}
	}
	if err := s.recalculate(ctx, semesterGrade); err != nil {
		return fail(err)
	}
	summary := grading.SemesterResult{
		GradePoints:    semesterGrade.GradePoints,
		MaxGradePoints: semesterGrade.MaxGradePoints,
		SGPA:           semesterGrade.SGPA,
	}
	item.Semester = &summary
	return item
}

func (s *GradeService) gradeFromMarks(ctx context.Context, studentID string, course *models.Course) (grading.CourseResult, error) {
	marks, err := s.marks.ListByStudentCourse(ctx, studentID, course.ID)
	if err != nil {
		return grading.CourseResult{}, appErrors.Internal(err, "failed to load marks")
	}
	if len(marks) == 0 {
		return grading.CourseResult{}, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("no marks entered for course %s", course.Code))
	}
	result, err := courseResultFromMarks(course, marks)
	if err != nil {
		return grading.CourseResult{}, appErrors.Wrap(err, appErrors.ErrInvalidMarks.Code, appErrors.ErrInvalidMarks.Status, err.Error())
	}
	return result, nil
}

// recalculate rebuilds the aggregate from the full current set of course grades.
func (s *GradeService) recalculate(ctx context.Context, semesterGrade *models.SemesterGrade) error {
	grades, err := s.courseGrades.ListBySemesterGrade(ctx, semesterGrade.ID)
	if err != nil {
		return appErrors.Internal(err, "failed to load course grades")
	}
	results := make([]grading.CourseResult, len(grades))
	for i, grade := range grades {
		results[i] = grade.Result()
	}
	semesterGrade.Apply(grading.RecalculateSemesterGrade(results))
	if err := s.semesterGrades.UpdateTotals(ctx, semesterGrade); err != nil {
		return appErrors.Internal(err, "failed to update semester grade")
	}
	return nil
}

func (s *GradeService) createSemesterGrade(ctx context.Context, studentID, semesterID string) (*models.SemesterGrade, error) {
	grade := &models.SemesterGrade{StudentID: studentID, SemesterID: semesterID}
	grade.Apply(grading.InitialSemesterGrade())
	if err := s.semesterGrades.Create(ctx, grade); err != nil {
		return nil, err
	}
	return grade, nil
}

func (s *GradeService) loadSemesterGrade(ctx context.Context, id string) (*models.SemesterGrade, error) {
	grade, err := s.semesterGrades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "semester grade not initialized")
		}
		return nil, appErrors.Internal(err, "failed to load semester grade")
	}
	return grade, nil
}

func (s *GradeService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

func (s *GradeService) loadSemester(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.semesters.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Internal(err, "failed to load semester")
	}
	return semester, nil
}

func (s *GradeService) invalidateRoster(ctx context.Context, semesterID string) {
	if err := s.cache.Invalidate(ctx, rosterPattern(semesterID)); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.String("semester_id", semesterID), zap.Error(err))
	}
}
