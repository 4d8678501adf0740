package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-grading-api/internal/middleware"
	"github.com/noah-isme/academic-grading-api/internal/models"
	"github.com/noah-isme/academic-grading-api/internal/service"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
)

type programGradeServiceMock struct {
	hit        bool
	lastFilter models.ProgramGradeFilter
	recompute  service.RecomputeProgramGradeRequest
	deleted    string
	deleteErr  error
}

func (m *programGradeServiceMock) List(ctx context.Context, filter models.ProgramGradeFilter) ([]models.ProgramGrade, bool, error) {
	m.lastFilter = filter
	return []models.ProgramGrade{{ID: "pg-1", CGPA: 8.78}}, m.hit, nil
}

func (m *programGradeServiceMock) Get(ctx context.Context, id string) (*models.ProgramGrade, error) {
	if id != "pg-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program grade not found")
	}
	return &models.ProgramGrade{ID: id}, nil
}

func (m *programGradeServiceMock) Recompute(ctx context.Context, req service.RecomputeProgramGradeRequest) (*models.ProgramGrade, error) {
	m.recompute = req
	return &models.ProgramGrade{ID: "pg-1", StudentID: req.StudentID, ProgramID: req.ProgramID, CGPA: 8.78}, nil
}

func (m *programGradeServiceMock) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return m.deleteErr
}

type rosterServiceMock struct {
	hit bool
	err error
}

func (m *rosterServiceMock) Get(ctx context.Context, programID, semesterID string) (*models.Roster, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return &models.Roster{ProgramID: programID, SemesterID: semesterID}, m.hit, nil
}

type marksServiceMock struct {
	upserted service.UpsertMarksRequest
	err      error
}

func (m *marksServiceMock) GetSheet(ctx context.Context, studentID, courseID string) (*models.CourseMarkSheet, error) {
	return &models.CourseMarkSheet{StudentID: studentID, CourseID: courseID, Marks: map[string]float64{}}, nil
}

func (m *marksServiceMock) UpsertSheet(ctx context.Context, req service.UpsertMarksRequest) (*models.CourseMarkSheet, error) {
	m.upserted = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.CourseMarkSheet{StudentID: req.StudentID, CourseID: req.CourseID, Marks: req.Marks}, nil
}

func TestProgramGradeHandlerListReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &programGradeServiceMock{hit: true}
	h := NewProgramGradeHandler(svc)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.GET("/program-grades", h.List)

	w := doJSON(r, http.MethodGet, "/program-grades?programId=prog-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "prog-1", svc.lastFilter.ProgramID)
	meta := decodeEnvelope(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, true, meta["cache_hit"])
}

func TestProgramGradeHandlerRecomputeGetDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &programGradeServiceMock{}
	h := NewProgramGradeHandler(svc)
	r := gin.New()
	r.GET("/program-grades/:id", h.Get)
	r.POST("/program-grades/recompute", h.Recompute)
	r.DELETE("/program-grades/:id", h.Delete)

	w := doJSON(r, http.MethodPost, "/program-grades/recompute", `{"student_id":"stu-1","program_id":"prog-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "prog-1", svc.recompute.ProgramID)

	w = doJSON(r, http.MethodPost, "/program-grades/recompute", `[]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/program-grades/pg-2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/program-grades/pg-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "pg-1", svc.deleted)
}

func TestRosterHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRosterHandler(&rosterServiceMock{})
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.GET("/rosters", h.Get)

	w := doJSON(r, http.MethodGet, "/rosters?programId=prog-1&semesterId=sem-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "sem-1", data["semester_id"])
	assert.Equal(t, false, body["meta"].(map[string]interface{})["cache_hit"])
}

func TestRosterHandlerValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRosterHandler(&rosterServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "programId and semesterId are required")})
	r := gin.New()
	r.GET("/rosters", h.Get)

	w := doJSON(r, http.MethodGet, "/rosters", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarksHandlerUpsert(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &marksServiceMock{}
	h := NewMarksHandler(svc)
	r := gin.New()
	r.GET("/marks", h.Get)
	r.PUT("/marks", h.Upsert)

	w := doJSON(r, http.MethodPut, "/marks", `{"student_id":"stu-1","course_id":"math","marks":{"Internal":25,"Final":60}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 60.0, svc.upserted.Marks["Final"])

	w = doJSON(r, http.MethodGet, "/marks?studentId=stu-1&courseId=math", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "math", data["course_id"])
}

func TestMarksHandlerRejectsOutOfRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &marksServiceMock{err: appErrors.Clone(appErrors.ErrInvalidMarks, "Final must be between 0 and 70")}
	h := NewMarksHandler(svc)
	r := gin.New()
	r.PUT("/marks", h.Upsert)

	w := doJSON(r, http.MethodPut, "/marks", `{"student_id":"stu-1","course_id":"math","marks":{"Final":90}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decodeEnvelope(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_MARKS", errBody["code"])
}
