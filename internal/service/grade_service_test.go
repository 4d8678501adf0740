package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-grading-api/internal/dto"
	"github.com/noah-isme/academic-grading-api/internal/models"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
	"github.com/noah-isme/academic-grading-api/pkg/grading"
)

type fakeStudents struct {
	students []models.Student
}

func (f *fakeStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for _, s := range f.students {
		if s.ID == id {
			student := s
			return &student, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudents) ListActiveByProgram(ctx context.Context, programID string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range f.students {
		if s.ProgramID == programID && s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeSemesters struct {
	semesters map[string]models.Semester
}

func (f *fakeSemesters) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	if s, ok := f.semesters[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type fakeCourses struct {
	courses []models.Course
}

func (f *fakeCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	for _, c := range f.courses {
		if c.ID == id {
			course := c
			return &course, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourses) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	var out []models.Course
	for _, c := range f.courses {
		if filter.SemesterID == "" || c.SemesterID == filter.SemesterID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeMarks struct {
	mu       sync.Mutex
	marks    map[string]map[string][]models.CourseMark
	failFor  map[string]error
	replaced int
}

func newFakeMarks() *fakeMarks {
	return &fakeMarks{marks: map[string]map[string][]models.CourseMark{}, failFor: map[string]error{}}
}

func (f *fakeMarks) put(studentID, courseID string, values map[string]float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marks[studentID] == nil {
		f.marks[studentID] = map[string][]models.CourseMark{}
	}
	rows := make([]models.CourseMark, 0, len(values))
	for name, value := range values {
		rows = append(rows, models.CourseMark{StudentID: studentID, CourseID: courseID, Component: name, Value: value})
	}
	f.marks[studentID][courseID] = rows
}

func (f *fakeMarks) ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]models.CourseMark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[studentID]; err != nil {
		return nil, err
	}
	return f.marks[studentID][courseID], nil
}

func (f *fakeMarks) ListByCourses(ctx context.Context, courseIDs []string) (map[string]map[string][]models.CourseMark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marks, nil
}

func (f *fakeMarks) ReplaceForCourse(ctx context.Context, studentID, courseID string, marks []models.CourseMark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marks[studentID] == nil {
		f.marks[studentID] = map[string][]models.CourseMark{}
	}
	f.marks[studentID][courseID] = marks
	f.replaced++
	return nil
}

type fakeCourseGrades struct {
	mu     sync.Mutex
	grades map[string]models.CourseGrade
	seq    int
}

func newFakeCourseGrades() *fakeCourseGrades {
	return &fakeCourseGrades{grades: map[string]models.CourseGrade{}}
}

func (f *fakeCourseGrades) ListBySemesterGrade(ctx context.Context, semesterGradeID string) ([]models.CourseGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CourseGrade
	for _, g := range f.grades {
		if g.SemesterGradeID == semesterGradeID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeCourseGrades) ListBySemester(ctx context.Context, semesterID string) (map[string]map[string]models.CourseGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]map[string]models.CourseGrade{}
	for _, g := range f.grades {
		if out[g.StudentID] == nil {
			out[g.StudentID] = map[string]models.CourseGrade{}
		}
		out[g.StudentID][g.CourseID] = g
	}
	return out, nil
}

func (f *fakeCourseGrades) FindByID(ctx context.Context, id string) (*models.CourseGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.grades[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseGrades) FindBySemesterGradeAndCourse(ctx context.Context, semesterGradeID, courseID string) (*models.CourseGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.grades {
		if g.SemesterGradeID == semesterGradeID && g.CourseID == courseID {
			grade := g
			return &grade, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseGrades) Upsert(ctx context.Context, grade *models.CourseGrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, g := range f.grades {
		if g.SemesterGradeID == grade.SemesterGradeID && g.CourseID == grade.CourseID {
			grade.ID = id
		}
	}
	if grade.ID == "" {
		f.seq++
		grade.ID = fmt.Sprintf("cg-%d", f.seq)
	}
	f.grades[grade.ID] = *grade
	return nil
}

func (f *fakeCourseGrades) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.grades[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.grades, id)
	return nil
}

type fakeSemesterGrades struct {
	mu     sync.Mutex
	grades map[string]models.SemesterGrade
	seq    int
}

func newFakeSemesterGrades() *fakeSemesterGrades {
	return &fakeSemesterGrades{grades: map[string]models.SemesterGrade{}}
}

func (f *fakeSemesterGrades) List(ctx context.Context, filter models.SemesterGradeFilter) ([]models.SemesterGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SemesterGrade
	for _, g := range f.grades {
		if filter.SemesterID != "" && g.SemesterID != filter.SemesterID {
			continue
		}
		if filter.StudentID != "" && g.StudentID != filter.StudentID {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeSemesterGrades) FindByID(ctx context.Context, id string) (*models.SemesterGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.grades[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSemesterGrades) FindByStudentSemester(ctx context.Context, studentID, semesterID string) (*models.SemesterGrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.grades {
		if g.StudentID == studentID && g.SemesterID == semesterID {
			grade := g
			return &grade, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSemesterGrades) Create(ctx context.Context, grade *models.SemesterGrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	grade.ID = fmt.Sprintf("sg-%d", f.seq)
	f.grades[grade.ID] = *grade
	return nil
}

func (f *fakeSemesterGrades) UpdateTotals(ctx context.Context, grade *models.SemesterGrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.grades[grade.ID]; !ok {
		return sql.ErrNoRows
	}
	f.grades[grade.ID] = *grade
	return nil
}

type gradeFixture struct {
	svc            *GradeService
	students       *fakeStudents
	courses        *fakeCourses
	marks          *fakeMarks
	courseGrades   *fakeCourseGrades
	semesterGrades *fakeSemesterGrades
}

func newGradeFixture(t *testing.T, studentCount int) *gradeFixture {
	t.Helper()
	students := &fakeStudents{}
	for i := 1; i <= studentCount; i++ {
		students.students = append(students.students, models.Student{
			ID:         fmt.Sprintf("stu-%d", i),
			ProgramID:  "prog-1",
			RollNumber: fmt.Sprintf("R%03d", i),
			Active:     true,
		})
	}
	semesters := &fakeSemesters{semesters: map[string]models.Semester{
		"sem-1": {ID: "sem-1", ProgramID: "prog-1", Number: 1, Name: "Semester 1"},
	}}
	courses := &fakeCourses{courses: []models.Course{
		{ID: "math", SemesterID: "sem-1", Code: "MA101", Credits: 4, Components: []models.WeightageComponent{
			{Name: "Internal", MaxMarks: 30}, {Name: "Final", MaxMarks: 70},
		}},
		{ID: "phy", SemesterID: "sem-1", Code: "PH101", Credits: 3, Components: []models.WeightageComponent{
			{Name: "Lab", MaxMarks: 40}, {Name: "Theory", MaxMarks: 60},
		}},
	}}
	fx := &gradeFixture{
		students:       students,
		courses:        courses,
		marks:          newFakeMarks(),
		courseGrades:   newFakeCourseGrades(),
		semesterGrades: newFakeSemesterGrades(),
	}
	fx.svc = NewGradeService(GradeServiceDeps{
		Students:       students,
		Semesters:      semesters,
		Courses:        courses,
		Marks:          fx.marks,
		CourseGrades:   fx.courseGrades,
		SemesterGrades: fx.semesterGrades,
		Metrics:        NewMetricsService(),
		Concurrency:    2,
	}, nil, zap.NewNop())
	return fx
}

func (fx *gradeFixture) enterAllMarks() {
	for _, s := range fx.students.students {
		fx.marks.put(s.ID, "math", map[string]float64{"Internal": 25, "Final": 60})
		fx.marks.put(s.ID, "phy", map[string]float64{"Lab": 30, "Theory": 40})
	}
}

func TestGradeServiceCheckCourse(t *testing.T) {
	fx := newGradeFixture(t, 1)
	fx.enterAllMarks()

	result, err := fx.svc.CheckCourse(context.Background(), CheckGradeRequest{StudentID: "stu-1", CourseID: "math"})
	require.NoError(t, err)
	assert.Equal(t, 85.0, result.TotalMarks)
	assert.Equal(t, 9, result.GradePoint)
	assert.Equal(t, "A+", result.Grade)
	assert.Equal(t, 36.0, result.GradePoints)
	assert.Equal(t, 40.0, result.MaxGradePoints)
	assert.Empty(t, fx.courseGrades.grades)
}

func TestGradeServiceCheckCourseWithoutMarks(t *testing.T) {
	fx := newGradeFixture(t, 1)

	_, err := fx.svc.CheckCourse(context.Background(), CheckGradeRequest{StudentID: "stu-1", CourseID: "math"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceCheckCourseUnknownStudent(t *testing.T) {
	fx := newGradeFixture(t, 1)

	_, err := fx.svc.CheckCourse(context.Background(), CheckGradeRequest{StudentID: "ghost", CourseID: "math"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceInitializeSemesterGrade(t *testing.T) {
	fx := newGradeFixture(t, 1)
	ctx := context.Background()

	grade, err := fx.svc.InitializeSemesterGrade(ctx, InitSemesterGradeRequest{StudentID: "stu-1", SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, grade.ID)
	assert.Zero(t, grade.GradePoints)
	assert.Zero(t, grade.MaxGradePoints)
	assert.Zero(t, grade.SGPA)

	_, err = fx.svc.InitializeSemesterGrade(ctx, InitSemesterGradeRequest{StudentID: "stu-1", SemesterID: "sem-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceRecordCourseGradeRecomputesSemester(t *testing.T) {
	fx := newGradeFixture(t, 1)
	fx.enterAllMarks()
	ctx := context.Background()
	sg, err := fx.svc.InitializeSemesterGrade(ctx, InitSemesterGradeRequest{StudentID: "stu-1", SemesterID: "sem-1"})
	require.NoError(t, err)

	res, err := fx.svc.RecordCourseGrade(ctx, CourseGradeRequest{SemesterGradeID: sg.ID, CourseID: "math"})
	require.NoError(t, err)
	assert.Equal(t, 36.0, res.SemesterGrade.GradePoints)
	assert.Equal(t, 40.0, res.SemesterGrade.MaxGradePoints)
	assert.InDelta(t, 9.0, res.SemesterGrade.SGPA, 0.0001)

	res, err = fx.svc.RecordCourseGrade(ctx, CourseGradeRequest{SemesterGradeID: sg.ID, CourseID: "phy"})
	require.NoError(t, err)
	// 70 marks -> 7 points * 3 credits
	assert.Equal(t, 57.0, res.SemesterGrade.GradePoints)
	assert.Equal(t, 70.0, res.SemesterGrade.MaxGradePoints)
	assert.InDelta(t, 57.0/7.0, res.SemesterGrade.SGPA, 0.0001)

	_, err = fx.svc.RecordCourseGrade(ctx, CourseGradeRequest{SemesterGradeID: sg.ID, CourseID: "phy"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceUpdateCourseGradeIsIdempotent(t *testing.T) {
	fx := newGradeFixture(t, 1)
	fx.enterAllMarks()
	ctx := context.Background()
	sg, err := fx.svc.InitializeSemesterGrade(ctx, InitSemesterGradeRequest{StudentID: "stu-1", SemesterID: "sem-1"})
	require.NoError(t, err)
	_, err = fx.svc.RecordCourseGrade(ctx, CourseGradeRequest{SemesterGradeID: sg.ID, CourseID: "math"})
	require.NoError(t, err)

	total := 30.0
	first, err := fx.svc.UpdateCourseGrade(ctx, CourseGradeRequest{SemesterGradeID: sg.ID, CourseID: "math", TotalMarks: &total})
	require.NoError(t, err)
	second, err := fx.svc.UpdateCourseGrade(ctx, CourseGradeRequest{SemesterGradeID: sg.ID, CourseID: "math", TotalMarks: &total})
	require.NoError(t, err)

	assert.Equal(t, grading.StatusFailed, second.CourseGrade.Status)
	assert.Equal(t, "F", second.CourseGrade.Grade)
	assert.Equal(t, first.SemesterGrade.GradePoints, second.SemesterGrade.GradePoints)
	assert.Equal(t, 0.0, second.SemesterGrade.GradePoints)
	assert.Equal(t, 40.0, second.SemesterGrade.MaxGradePoints)
	assert.Len(t, fx.courseGrades.grades, 1)
}

func TestGradeServiceUpdateMissingCourseGrade(t *testing.T) {
	fx := newGradeFixture(t, 1)
	fx.enterAllMarks()
	ctx := context.Background()
	sg, err := fx.svc.InitializeSemesterGrade(ctx, InitSemesterGradeRequest{StudentID: "stu-1", SemesterID: "sem-1"})
	require.NoError(t, err)

	_, err = fx.svc.UpdateCourseGrade(ctx, CourseGradeRequest{SemesterGradeID: sg.ID, CourseID: "math"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceRecordRequiresInitializedSemester(t *testing.T) {
	fx := newGradeFixture(t, 1)
	fx.enterAllMarks()

	_, err := fx.svc.RecordCourseGrade(context.Background(), CourseGradeRequest{SemesterGradeID: "missing", CourseID: "math"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceRecordRejectsOutOfRangeTotal(t *testing.T) {
	fx := newGradeFixture(t, 1)
	ctx := context.Background()
	sg, err := fx.svc.InitializeSemesterGrade(ctx, InitSemesterGradeRequest{StudentID: "stu-1", SemesterID: "sem-1"})
	require.NoError(t, err)

	total := 120.0
	_, err = fx.svc.RecordCourseGrade(ctx, CourseGradeRequest{SemesterGradeID: sg.ID, CourseID: "math", TotalMarks: &total})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidMarks.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceDeleteCourseGradeRecomputes(t *testing.T) {
	fx := newGradeFixture(t, 1)
	fx.enterAllMarks()
	ctx := context.Background()
	sg, err := fx.svc.InitializeSemesterGrade(ctx, InitSemesterGradeRequest{StudentID: "stu-1", SemesterID: "sem-1"})
	require.NoError(t, err)
	mathRes, err := fx.svc.RecordCourseGrade(ctx, CourseGradeRequest{SemesterGradeID: sg.ID, CourseID: "math"})
	require.NoError(t, err)
	_, err = fx.svc.RecordCourseGrade(ctx, CourseGradeRequest{SemesterGradeID: sg.ID, CourseID: "phy"})
	require.NoError(t, err)

	updated, err := fx.svc.DeleteCourseGrade(ctx, mathRes.CourseGrade.ID)
	require.NoError(t, err)
	assert.Equal(t, 21.0, updated.GradePoints)
	assert.Equal(t, 30.0, updated.MaxGradePoints)
	assert.InDelta(t, 7.0, updated.SGPA, 0.0001)

	_, err = fx.svc.DeleteCourseGrade(ctx, mathRes.CourseGrade.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceRecalculateMissingSemesterGrade(t *testing.T) {
	fx := newGradeFixture(t, 1)

	_, err := fx.svc.RecalculateSemesterGrade(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceUploadAllIsolatesFailures(t *testing.T) {
	fx := newGradeFixture(t, 5)
	fx.enterAllMarks()
	fx.marks.failFor["stu-3"] = errors.New("connection reset")

	resp, err := fx.svc.UploadAll(context.Background(), dto.BatchGradeRequest{ProgramID: "prog-1", SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.Equal(t, dto.BatchUpload, resp.Operation)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 4, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)

	for _, item := range resp.Items {
		if item.StudentID == "stu-3" {
			assert.Equal(t, dto.BatchItemFailed, item.Status)
			assert.Equal(t, "failed to load marks", item.Error)
			continue
		}
		assert.Equal(t, dto.BatchItemDone, item.Status, item.StudentID)
		require.NotNil(t, item.Semester)
		assert.Equal(t, 57.0, item.Semester.GradePoints)
	}
	assert.Len(t, fx.semesterGrades.grades, 4)
	assert.Len(t, fx.courseGrades.grades, 8)
}

func TestGradeServiceUploadAllIsolatesInvalidMarks(t *testing.T) {
	fx := newGradeFixture(t, 5)
	fx.enterAllMarks()
	fx.marks.put("stu-2", "math", map[string]float64{"Internal": 25, "Final": 85})

	resp, err := fx.svc.UploadAll(context.Background(), dto.BatchGradeRequest{ProgramID: "prog-1", SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)

	for _, item := range resp.Items {
		if item.StudentID != "stu-2" {
			assert.Equal(t, dto.BatchItemDone, item.Status, item.StudentID)
			continue
		}
		assert.Equal(t, dto.BatchItemFailed, item.Status)
		assert.Contains(t, item.Error, "Final must be between 0 and 70.00")
		assert.Nil(t, item.Semester)
	}
	_, err = fx.semesterGrades.FindByStudentSemester(context.Background(), "stu-2", "sem-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Len(t, fx.semesterGrades.grades, 4)
}

func TestGradeServiceCheckCourseFractionalMarksAreStable(t *testing.T) {
	fx := newGradeFixture(t, 1)
	fx.courses.courses = append(fx.courses.courses, models.Course{
		ID: "bio", SemesterID: "sem-1", Code: "BI101", Credits: 2, Components: []models.WeightageComponent{
			{Name: "Quiz", MaxMarks: 10}, {Name: "Assignments", MaxMarks: 40}, {Name: "Exam", MaxMarks: 50},
		},
	})
	fx.marks.put("stu-1", "bio", map[string]float64{"Quiz": 0.3, "Assignments": 33.3, "Exam": 7.4})

	for i := 0; i < 100; i++ {
		result, err := fx.svc.CheckCourse(context.Background(), CheckGradeRequest{StudentID: "stu-1", CourseID: "bio"})
		require.NoError(t, err)
		require.Equal(t, 41.0, result.TotalMarks)
		require.Equal(t, "C", result.Grade)
	}
}

func TestGradeServiceUploadAllSkipsInactiveStudents(t *testing.T) {
	fx := newGradeFixture(t, 3)
	fx.students.students[1].Active = false
	fx.enterAllMarks()

	resp, err := fx.svc.UploadAll(context.Background(), dto.BatchGradeRequest{ProgramID: "prog-1", SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 2, resp.Succeeded)
}

func TestGradeServiceCheckAllDoesNotPersist(t *testing.T) {
	fx := newGradeFixture(t, 3)
	fx.enterAllMarks()

	resp, err := fx.svc.CheckAll(context.Background(), dto.BatchGradeRequest{ProgramID: "prog-1", SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Succeeded)
	for _, item := range resp.Items {
		require.Len(t, item.Courses, 2)
		require.NotNil(t, item.Semester)
		assert.InDelta(t, 57.0/7.0, item.Semester.SGPA, 0.0001)
	}
	assert.Empty(t, fx.semesterGrades.grades)
	assert.Empty(t, fx.courseGrades.grades)
}

func TestGradeServiceCheckAllSingleCourseHasNoSemesterPreview(t *testing.T) {
	fx := newGradeFixture(t, 2)
	fx.enterAllMarks()

	resp, err := fx.svc.CheckAll(context.Background(), dto.BatchGradeRequest{ProgramID: "prog-1", SemesterID: "sem-1", CourseID: "math"})
	require.NoError(t, err)
	for _, item := range resp.Items {
		require.Len(t, item.Courses, 1)
		assert.Nil(t, item.Semester)
	}
}

func TestGradeServiceUpdateAllRequiresInitializedAggregate(t *testing.T) {
	fx := newGradeFixture(t, 2)
	fx.enterAllMarks()
	ctx := context.Background()
	_, err := fx.svc.InitializeSemesterGrade(ctx, InitSemesterGradeRequest{StudentID: "stu-1", SemesterID: "sem-1"})
	require.NoError(t, err)

	resp, err := fx.svc.UpdateAll(ctx, dto.BatchGradeRequest{ProgramID: "prog-1", SemesterID: "sem-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	for _, item := range resp.Items {
		if item.StudentID == "stu-2" {
			assert.Equal(t, "semester grade not initialized", item.Error)
		}
	}
}

func TestGradeServiceBatchRejectsForeignSemester(t *testing.T) {
	fx := newGradeFixture(t, 1)

	_, err := fx.svc.UploadAll(context.Background(), dto.BatchGradeRequest{ProgramID: "prog-2", SemesterID: "sem-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceBatchRecordsMetrics(t *testing.T) {
	fx := newGradeFixture(t, 3)
	fx.enterAllMarks()
	fx.marks.failFor["stu-1"] = errors.New("boom")

	_, err := fx.svc.UploadAll(context.Background(), dto.BatchGradeRequest{ProgramID: "prog-1", SemesterID: "sem-1"})
	require.NoError(t, err)
	snapshot := fx.svc.metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.Batch.Done)
	assert.Equal(t, uint64(1), snapshot.Batch.Failed)
}
