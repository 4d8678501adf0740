package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-grading-api/internal/models"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
)

type rosterCourseGradeReader interface {
	ListBySemester(ctx context.Context, semesterID string) (map[string]map[string]models.CourseGrade, error)
}

type rosterSemesterGradeReader interface {
	List(ctx context.Context, filter models.SemesterGradeFilter) ([]models.SemesterGrade, error)
}

type rosterCourseReader interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

type rosterStudentLister interface {
	ListActiveByProgram(ctx context.Context, programID string) ([]models.Student, error)
}

// RosterService assembles the grading worksheet of a program semester.
type RosterService struct {
	students       rosterStudentLister
	semesters      semesterLookup
	courses        rosterCourseReader
	marks          courseMarkRepository
	courseGrades   rosterCourseGradeReader
	semesterGrades rosterSemesterGradeReader
	cache          *CacheService
	cacheTTL       time.Duration
	logger         *zap.Logger
}

// RosterServiceDeps groups the collaborators of RosterService.
type RosterServiceDeps struct {
	Students       rosterStudentLister
	Semesters      semesterLookup
	Courses        rosterCourseReader
	Marks          courseMarkRepository
	CourseGrades   rosterCourseGradeReader
	SemesterGrades rosterSemesterGradeReader
	Cache          *CacheService
	CacheTTL       time.Duration
}

// NewRosterService constructs a RosterService.
func NewRosterService(deps RosterServiceDeps, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		students:       deps.Students,
		semesters:      deps.Semesters,
		courses:        deps.Courses,
		marks:          deps.Marks,
		courseGrades:   deps.CourseGrades,
		semesterGrades: deps.SemesterGrades,
		cache:          deps.Cache,
		cacheTTL:       deps.CacheTTL,
		logger:         logger,
	}
}

// Get returns the roster of active students with per-course marks and grades.
// The boolean reports whether the roster came from cache.
func (s *RosterService) Get(ctx context.Context, programID, semesterID string) (*models.Roster, bool, error) {
	if programID == "" || semesterID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "programId and semesterId are required")
	}
	return readThrough(ctx, s.cache, rosterKey(programID, semesterID), s.cacheTTL, func() (*models.Roster, error) {
		return s.build(ctx, programID, semesterID)
	})
}

func (s *RosterService) build(ctx context.Context, programID, semesterID string) (*models.Roster, error) {
	semester, err := s.semesters.FindByID(ctx, semesterID)
	if err != nil {
		return nil, mapLookupError(err, "semester")
	}
	if semester.ProgramID != programID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester does not belong to the program")
	}
	students, err := s.students.ListActiveByProgram(ctx, programID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load students")
	}
	courses, err := s.courses.List(ctx, models.CourseFilter{SemesterID: semesterID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}
	courseIDs := make([]string, len(courses))
	for i, course := range courses {
		courseIDs[i] = course.ID
	}
	marks, err := s.marks.ListByCourses(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load marks")
	}
	grades, err := s.courseGrades.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course grades")
	}
	semesterGrades, err := s.semesterGrades.List(ctx, models.SemesterGradeFilter{SemesterID: semesterID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load semester grades")
	}
	byStudent := make(map[string]models.SemesterGrade, len(semesterGrades))
	for _, sg := range semesterGrades {
		byStudent[sg.StudentID] = sg
	}

	roster := &models.Roster{ProgramID: programID, SemesterID: semesterID, Entries: make([]models.RosterEntry, 0, len(students))}
	for _, student := range students {
		entry := models.RosterEntry{Student: student, Courses: make([]models.RosterCourse, 0, len(courses))}
		if sg, ok := byStudent[student.ID]; ok {
			sg := sg
			entry.SemesterGrade = &sg
		}
		for _, course := range courses {
			cell := models.RosterCourse{
				CourseID:   course.ID,
				CourseCode: course.Code,
				Credits:    course.Credits,
				Weightage:  course.Components,
				Marks:      map[string]float64{},
			}
			for _, mark := range marks[student.ID][course.ID] {
				cell.Marks[mark.Component] = mark.Value
				cell.TotalMarks += mark.Value
			}
			if grade, ok := grades[student.ID][course.ID]; ok {
				grade := grade
				cell.Grade = &grade
			}
			entry.Courses = append(entry.Courses, cell)
		}
		roster.Entries = append(roster.Entries, entry)
	}
	return roster, nil
}

func rosterKey(programID, semesterID string) string {
	return fmt.Sprintf("roster:%s:%s", programID, semesterID)
}

// rosterPattern matches every cached roster of a semester; "*" matches all rosters.
func rosterPattern(semesterID string) string {
	return "roster:*:" + semesterID
}

func mapLookupError(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	}
	return appErrors.Internal(err, "failed to load "+resource)
}
