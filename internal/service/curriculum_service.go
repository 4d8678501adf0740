package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-grading-api/internal/models"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
)

type programRepository interface {
	List(ctx context.Context) ([]models.Program, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, program *models.Program) error
}

type semesterRepository interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	Exists(ctx context.Context, programID string, number int, excludeID string) (bool, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
	Delete(ctx context.Context, id string) error
}

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, semesterID, code, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// CreateProgramRequest is the payload for creating programs.
type CreateProgramRequest struct {
	Code           string `json:"code" validate:"required"`
	Name           string `json:"name" validate:"required"`
	TotalSemesters int    `json:"total_semesters" validate:"required,min=1,max=16"`
}

// SemesterRequest is the payload for creating or updating semesters.
type SemesterRequest struct {
	ProgramID string `json:"program_id" validate:"required"`
	Number    int    `json:"number" validate:"required,min=1"`
	Name      string `json:"name"`
}

// ComponentRequest describes one weightage component.
type ComponentRequest struct {
	Name     string  `json:"name" validate:"required"`
	MaxMarks float64 `json:"max_marks" validate:"gt=0"`
}

// CourseRequest is the payload for creating or updating courses.
type CourseRequest struct {
	SemesterID string             `json:"semester_id" validate:"required"`
	Code       string             `json:"code" validate:"required"`
	Name       string             `json:"name" validate:"required"`
	Credits    float64            `json:"credits" validate:"gt=0"`
	Components []ComponentRequest `json:"components" validate:"required,min=1,dive"`
}

// CurriculumService manages programs, semesters and courses.
type CurriculumService struct {
	programs  programRepository
	semesters semesterRepository
	courses   courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCurriculumService constructs a CurriculumService.
func NewCurriculumService(programs programRepository, semesters semesterRepository, courses courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CurriculumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{programs: programs, semesters: semesters, courses: courses, cache: cache, validator: validate, logger: logger}
}

// ListPrograms returns all programs.
func (s *CurriculumService) ListPrograms(ctx context.Context) ([]models.Program, error) {
	programs, err := s.programs.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list programs")
	}
	return programs, nil
}

// GetProgram returns a single program.
func (s *CurriculumService) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Internal(err, "failed to load program")
	}
	return program, nil
}

// CreateProgram registers a new program.
func (s *CurriculumService) CreateProgram(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	code := strings.TrimSpace(req.Code)
	exists, err := s.programs.ExistsByCode(ctx, code)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check program code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "program code already exists")
	}
	program := &models.Program{Code: code, Name: strings.TrimSpace(req.Name), TotalSemesters: req.TotalSemesters}
	if err := s.programs.Create(ctx, program); err != nil {
		return nil, appErrors.Internal(err, "failed to create program")
	}
	s.logger.Info("program created", zap.String("program_id", program.ID), zap.String("code", program.Code))
	return program, nil
}

// ListSemesters returns semesters matching the filter.
func (s *CurriculumService) ListSemesters(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, error) {
	semesters, err := s.semesters.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list semesters")
	}
	return semesters, nil
}

// GetSemester returns a single semester.
func (s *CurriculumService) GetSemester(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.semesters.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Internal(err, "failed to load semester")
	}
	return semester, nil
}

// CreateSemester adds a numbered semester to a program.
func (s *CurriculumService) CreateSemester(ctx context.Context, req SemesterRequest) (*models.Semester, error) {
	if err := s.validateSemester(ctx, req, ""); err != nil {
		return nil, err
	}
	semester := &models.Semester{ProgramID: req.ProgramID, Number: req.Number, Name: semesterName(req)}
	if err := s.semesters.Create(ctx, semester); err != nil {
		return nil, appErrors.Internal(err, "failed to create semester")
	}
	return semester, nil
}

// UpdateSemester renumbers or renames a semester within its program.
func (s *CurriculumService) UpdateSemester(ctx context.Context, id string, req SemesterRequest) (*models.Semester, error) {
	existing, err := s.GetSemester(ctx, id)
	if err != nil {
		return nil, err
	}
	req.ProgramID = existing.ProgramID
	if err := s.validateSemester(ctx, req, id); err != nil {
		return nil, err
	}
	existing.Number = req.Number
	existing.Name = semesterName(req)
	if err := s.semesters.Update(ctx, existing); err != nil {
		return nil, appErrors.Internal(err, "failed to update semester")
	}
	return existing, nil
}

// DeleteSemester removes a semester.
func (s *CurriculumService) DeleteSemester(ctx context.Context, id string) error {
	if err := s.semesters.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return appErrors.Internal(err, "failed to delete semester")
	}
	s.invalidateRosters(ctx, id)
	return nil
}

// ListCourses returns courses with their weightage schemes.
func (s *CurriculumService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	return courses, nil
}

// GetCourse returns a course with its weightage scheme.
func (s *CurriculumService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

// CreateCourse adds a course and its weightage scheme to a semester.
func (s *CurriculumService) CreateCourse(ctx context.Context, req CourseRequest) (*models.Course, error) {
	course, err := s.buildCourse(ctx, req, "")
	if err != nil {
		return nil, err
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Internal(err, "failed to create course")
	}
	s.invalidateRosters(ctx, course.SemesterID)
	return course, nil
}

// UpdateCourse replaces course metadata and its weightage scheme.
func (s *CurriculumService) UpdateCourse(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	existing, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	req.SemesterID = existing.SemesterID
	course, err := s.buildCourse(ctx, req, id)
	if err != nil {
		return nil, err
	}
	course.ID = existing.ID
	course.CreatedAt = existing.CreatedAt
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Internal(err, "failed to update course")
	}
	s.invalidateRosters(ctx, course.SemesterID)
	return course, nil
}

// DeleteCourse removes a course.
func (s *CurriculumService) DeleteCourse(ctx context.Context, id string) error {
	existing, err := s.GetCourse(ctx, id)
	if err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Internal(err, "failed to delete course")
	}
	s.invalidateRosters(ctx, existing.SemesterID)
	return nil
}

func (s *CurriculumService) validateSemester(ctx context.Context, req SemesterRequest, excludeID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	program, err := s.GetProgram(ctx, req.ProgramID)
	if err != nil {
		return err
	}
	if req.Number > program.TotalSemesters {
		return appErrors.Clone(appErrors.ErrValidation, "semester number exceeds program length")
	}
	exists, err := s.semesters.Exists(ctx, req.ProgramID, req.Number, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check semester")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "semester number already used in program")
	}
	return nil
}

func (s *CurriculumService) buildCourse(ctx context.Context, req CourseRequest, excludeID string) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.GetSemester(ctx, req.SemesterID); err != nil {
		return nil, err
	}
	course := &models.Course{
		SemesterID: req.SemesterID,
		Code:       strings.TrimSpace(req.Code),
		Name:       strings.TrimSpace(req.Name),
		Credits:    req.Credits,
		Components: make([]models.WeightageComponent, 0, len(req.Components)),
	}
	for _, comp := range req.Components {
		course.Components = append(course.Components, models.WeightageComponent{Name: strings.TrimSpace(comp.Name), MaxMarks: comp.MaxMarks})
	}
	if err := course.Scheme().Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidWeights.Code, appErrors.ErrInvalidWeights.Status, err.Error())
	}
	exists, err := s.courses.ExistsByCode(ctx, course.SemesterID, course.Code, excludeID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists in semester")
	}
	return course, nil
}

func (s *CurriculumService) invalidateRosters(ctx context.Context, semesterID string) {
	if err := s.cache.Invalidate(ctx, rosterPattern(semesterID)); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.String("semester_id", semesterID), zap.Error(err))
	}
}

func semesterName(req SemesterRequest) string {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "Semester " + strconv.Itoa(req.Number)
	}
	return name
}
