package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-grading-api/internal/models"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByRollNumber(ctx context.Context, rollNumber string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

type programLookup interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	ProgramID  string `json:"program_id" validate:"required"`
	RollNumber string `json:"roll_number" validate:"required"`
	FullName   string `json:"full_name" validate:"required"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	ProgramID  string `json:"program_id" validate:"required"`
	RollNumber string `json:"roll_number" validate:"required"`
	FullName   string `json:"full_name" validate:"required"`
	Active     bool   `json:"active"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	programs  programLookup
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, programs programLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, programs: programs, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	filter = filter.Normalize()
	pagination := models.NewPagination(filter.Page, filter.PageSize, total)
	return students, pagination, nil
}

// Get returns a student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

// Create registers a new student in a program.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.ensureProgram(ctx, req.ProgramID); err != nil {
		return nil, err
	}
	roll := strings.TrimSpace(req.RollNumber)
	if err := s.ensureRollNumberFree(ctx, roll, ""); err != nil {
		return nil, err
	}
	student := &models.Student{
		ProgramID:  req.ProgramID,
		RollNumber: roll,
		FullName:   strings.TrimSpace(req.FullName),
		Active:     true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Internal(err, "failed to create student")
	}
	s.invalidateRosters(ctx)
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ProgramID != student.ProgramID {
		if err := s.ensureProgram(ctx, req.ProgramID); err != nil {
			return nil, err
		}
	}
	roll := strings.TrimSpace(req.RollNumber)
	if err := s.ensureRollNumberFree(ctx, roll, id); err != nil {
		return nil, err
	}
	student.ProgramID = req.ProgramID
	student.RollNumber = roll
	student.FullName = strings.TrimSpace(req.FullName)
	student.Active = req.Active
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Internal(err, "failed to update student")
	}
	s.invalidateRosters(ctx)
	return student, nil
}

// Deactivate marks a student inactive so batch runs skip them.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to deactivate student")
	}
	s.invalidateRosters(ctx)
	return nil
}

func (s *StudentService) ensureProgram(ctx context.Context, programID string) error {
	if _, err := s.programs.FindByID(ctx, programID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Internal(err, "failed to load program")
	}
	return nil
}

func (s *StudentService) ensureRollNumberFree(ctx context.Context, roll, excludeID string) error {
	exists, err := s.repo.ExistsByRollNumber(ctx, roll, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to validate roll number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "roll number already used")
	}
	return nil
}

func (s *StudentService) invalidateRosters(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, rosterPattern("*")); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
	}
}
