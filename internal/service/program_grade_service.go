package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-grading-api/internal/models"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
	"github.com/noah-isme/academic-grading-api/pkg/grading"
)

type programGradeRepository interface {
	List(ctx context.Context, filter models.ProgramGradeFilter) ([]models.ProgramGrade, error)
	FindByID(ctx context.Context, id string) (*models.ProgramGrade, error)
	Upsert(ctx context.Context, grade *models.ProgramGrade) error
	Delete(ctx context.Context, id string) error
}

type programSemesterGradeReader interface {
	ListByStudentProgram(ctx context.Context, studentID, programID string) ([]models.SemesterGrade, error)
}

// RecomputeProgramGradeRequest asks for a student's CGPA over a program.
type RecomputeProgramGradeRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ProgramID string `json:"program_id" validate:"required"`
}

// ProgramGradeService aggregates semester grades into program CGPA.
type ProgramGradeService struct {
	repo           programGradeRepository
	semesterGrades programSemesterGradeReader
	students       studentLookup
	cache          *CacheService
	cacheTTL       time.Duration
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewProgramGradeService constructs a ProgramGradeService.
func NewProgramGradeService(repo programGradeRepository, semesterGrades programSemesterGradeReader, students studentLookup, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ProgramGradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramGradeService{
		repo:           repo,
		semesterGrades: semesterGrades,
		students:       students,
		cache:          cache,
		cacheTTL:       cacheTTL,
		validator:      validate,
		logger:         logger,
	}
}

// List returns program grades, serving from cache when possible. The boolean reports a cache hit.
func (s *ProgramGradeService) List(ctx context.Context, filter models.ProgramGradeFilter) ([]models.ProgramGrade, bool, error) {
	key := fmt.Sprintf("program_grades:%s:%s", filter.ProgramID, filter.StudentID)
	return readThrough(ctx, s.cache, key, s.cacheTTL, func() ([]models.ProgramGrade, error) {
		grades, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list program grades")
		}
		return grades, nil
	})
}

// Get returns a stored program grade.
func (s *ProgramGradeService) Get(ctx context.Context, id string) (*models.ProgramGrade, error) {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program grade not found")
		}
		return nil, appErrors.Internal(err, "failed to load program grade")
	}
	return grade, nil
}

// Recompute rebuilds and stores a student's CGPA from their semester grades.
func (s *ProgramGradeService) Recompute(ctx context.Context, req RecomputeProgramGradeRequest) (*models.ProgramGrade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program grade payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	if student.ProgramID != req.ProgramID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in the program")
	}
	semesterGrades, err := s.semesterGrades.ListByStudentProgram(ctx, req.StudentID, req.ProgramID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load semester grades")
	}
	summaries := make([]grading.SemesterSummary, len(semesterGrades))
	for i, sg := range semesterGrades {
		summaries[i] = grading.SemesterSummary{SemesterID: sg.SemesterID, GradePoints: sg.GradePoints, MaxGradePoints: sg.MaxGradePoints}
	}
	result := grading.RecalculateProgramGrade(summaries)
	grade := &models.ProgramGrade{
		StudentID:      req.StudentID,
		ProgramID:      req.ProgramID,
		CGPA:           result.CGPA,
		SemesterGrades: models.SemesterGPAMap(result.SemesterGrades),
		CalculatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Internal(err, "failed to store program grade")
	}
	s.invalidate(ctx)
	return grade, nil
}

// Delete removes a stored program grade.
func (s *ProgramGradeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "program grade not found")
		}
		return appErrors.Internal(err, "failed to delete program grade")
	}
	s.invalidate(ctx)
	return nil
}

func (s *ProgramGradeService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "program_grades:*"); err != nil {
		s.logger.Warn("failed to invalidate program grade cache", zap.Error(err))
	}
}
