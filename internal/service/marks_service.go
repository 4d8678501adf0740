package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-grading-api/internal/models"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
	"github.com/noah-isme/academic-grading-api/pkg/grading"
)

type courseMarkRepository interface {
	ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]models.CourseMark, error)
	ListByCourses(ctx context.Context, courseIDs []string) (map[string]map[string][]models.CourseMark, error)
	ReplaceForCourse(ctx context.Context, studentID, courseID string, marks []models.CourseMark) error
}

type courseLookup interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// UpsertMarksRequest replaces a student's component marks for a course.
type UpsertMarksRequest struct {
	StudentID string             `json:"student_id" validate:"required"`
	CourseID  string             `json:"course_id" validate:"required"`
	Marks     map[string]float64 `json:"marks" validate:"required"`
}

// MarksService manages component mark entry.
type MarksService struct {
	marks     courseMarkRepository
	courses   courseLookup
	students  studentLookup
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarksService constructs a MarksService.
func NewMarksService(marks courseMarkRepository, courses courseLookup, students studentLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *MarksService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarksService{marks: marks, courses: courses, students: students, cache: cache, validator: validate, logger: logger}
}

// GetSheet returns the course scheme together with the student's entered marks.
func (s *MarksService) GetSheet(ctx context.Context, studentID, courseID string) (*models.CourseMarkSheet, error) {
	if studentID == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId and courseId are required")
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}
	course, err := loadCourse(ctx, s.courses, courseID)
	if err != nil {
		return nil, err
	}
	marks, err := s.marks.ListByStudentCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load marks")
	}
	return buildSheet(studentID, course, marks), nil
}

// UpsertSheet validates and stores a full set of component marks.
func (s *MarksService) UpsertSheet(ctx context.Context, req UpsertMarksRequest) (*models.CourseMarkSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	if err := s.ensureStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}
	course, err := loadCourse(ctx, s.courses, req.CourseID)
	if err != nil {
		return nil, err
	}
	scheme := course.Scheme()
	if _, err := scheme.Total(req.Marks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidMarks.Code, appErrors.ErrInvalidMarks.Status, err.Error())
	}
	rows := make([]models.CourseMark, 0, len(req.Marks))
	for name, value := range req.Marks {
		canonical, _ := scheme.Canonical(name)
		rows = append(rows, models.CourseMark{Component: canonical, Value: value})
	}
	if err := s.marks.ReplaceForCourse(ctx, req.StudentID, req.CourseID, rows); err != nil {
		return nil, appErrors.Internal(err, "failed to store marks")
	}
	if err := s.cache.Invalidate(ctx, rosterPattern(course.SemesterID)); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.String("semester_id", course.SemesterID), zap.Error(err))
	}
	return buildSheet(req.StudentID, course, rows), nil
}

func (s *MarksService) ensureStudent(ctx context.Context, studentID string) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Internal(err, "failed to load student")
	}
	return nil
}

func loadCourse(ctx context.Context, courses courseLookup, courseID string) (*models.Course, error) {
	course, err := courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

// marksTotal sums stored marks after checking them against the current scheme.
func marksTotal(course *models.Course, marks []models.CourseMark) (float64, error) {
	entered := make(map[string]float64, len(marks))
	for _, mark := range marks {
		entered[mark.Component] = mark.Value
	}
	return course.Scheme().Total(entered)
}

func buildSheet(studentID string, course *models.Course, marks []models.CourseMark) *models.CourseMarkSheet {
	sheet := &models.CourseMarkSheet{
		StudentID: studentID,
		CourseID:  course.ID,
		Credits:   course.Credits,
		Weightage: course.Components,
		Marks:     make(map[string]float64, len(marks)),
	}
	for _, mark := range marks {
		sheet.Marks[mark.Component] = mark.Value
		sheet.TotalMarks += mark.Value
	}
	sheet.TotalMarks = grading.RoundMarks(sheet.TotalMarks)
	return sheet
}

// courseResultFromMarks grades a course from the marks stored for it.
func courseResultFromMarks(course *models.Course, marks []models.CourseMark) (grading.CourseResult, error) {
	total, err := marksTotal(course, marks)
	if err != nil {
		return grading.CourseResult{}, err
	}
	return grading.NewCourseGrade(course.ID, total, course.Credits), nil
}
