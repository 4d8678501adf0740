package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-grading-api/internal/dto"
	"github.com/noah-isme/academic-grading-api/internal/middleware"
	"github.com/noah-isme/academic-grading-api/internal/models"
	"github.com/noah-isme/academic-grading-api/internal/service"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
	"github.com/noah-isme/academic-grading-api/pkg/grading"
	"github.com/noah-isme/academic-grading-api/pkg/response"
)

type gradeService interface {
	CheckCourse(ctx context.Context, req service.CheckGradeRequest) (*grading.CourseResult, error)
	ListCourseGrades(ctx context.Context, semesterGradeID string) ([]models.CourseGrade, error)
	RecordCourseGrade(ctx context.Context, req service.CourseGradeRequest) (*service.CourseGradeResult, error)
	UpdateCourseGrade(ctx context.Context, req service.CourseGradeRequest) (*service.CourseGradeResult, error)
	DeleteCourseGrade(ctx context.Context, id string) (*models.SemesterGrade, error)
	ListSemesterGrades(ctx context.Context, filter models.SemesterGradeFilter) ([]models.SemesterGrade, error)
	InitializeSemesterGrade(ctx context.Context, req service.InitSemesterGradeRequest) (*models.SemesterGrade, error)
	RecalculateSemesterGrade(ctx context.Context, id string) (*models.SemesterGrade, error)
	CheckAll(ctx context.Context, req dto.BatchGradeRequest) (*dto.BatchGradeResponse, error)
	UploadAll(ctx context.Context, req dto.BatchGradeRequest) (*dto.BatchGradeResponse, error)
	UpdateAll(ctx context.Context, req dto.BatchGradeRequest) (*dto.BatchGradeResponse, error)
}

type resultExporter interface {
	SemesterResults(ctx context.Context, semesterID string, format service.ExportFormat) (*service.ExportResult, error)
}

// GradeHandler exposes course grade, semester grade and batch endpoints.
type GradeHandler struct {
	grades  gradeService
	exports resultExporter
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades gradeService, exports resultExporter) *GradeHandler {
	return &GradeHandler{grades: grades, exports: exports}
}

// Check godoc
// @Summary Preview a course grade
// @Description Computes the grade from stored marks without saving it.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.CheckGradeRequest true "Check payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /grades/check [post]
func (h *GradeHandler) Check(c *gin.Context) {
	var req service.CheckGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.grades.CheckCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Batch godoc
// @Summary Run a batch grading operation
// @Description check previews, upload records and initializes, update re-records. Each student succeeds or fails independently.
// @Tags Grades
// @Accept json
// @Produce json
// @Param operation path string true "check, upload or update"
// @Param payload body dto.BatchGradeRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /grades/batch/{operation} [post]
func (h *GradeHandler) Batch(c *gin.Context) {
	var req dto.BatchGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	var (
		res *dto.BatchGradeResponse
		err error
	)
	ctx := c.Request.Context()
	switch dto.BatchOperation(c.Param("operation")) {
	case dto.BatchCheck:
		res, err = h.grades.CheckAll(ctx, req)
	case dto.BatchUpload:
		res, err = h.grades.UploadAll(ctx, req)
	case dto.BatchUpdate:
		res, err = h.grades.UpdateAll(ctx, req)
	default:
		err = appErrors.Clone(appErrors.ErrNotFound, "unknown batch operation")
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "failed", res.Failed)
	response.JSON(c, http.StatusOK, res, nil, middleware.ExtractMeta(c))
}

// ListCourseGrades godoc
// @Summary List course grades of a semester grade
// @Tags Grades
// @Produce json
// @Param semesterGradeId query string true "Semester grade ID"
// @Success 200 {object} response.Envelope
// @Router /course-grades [get]
func (h *GradeHandler) ListCourseGrades(c *gin.Context) {
	grades, err := h.grades.ListCourseGrades(c.Request.Context(), c.Query("semesterGradeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// CreateCourseGrade godoc
// @Summary Record a course grade
// @Description Requires an initialized semester grade; the semester aggregate is recomputed.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.CourseGradeRequest true "Course grade payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /course-grades [post]
func (h *GradeHandler) CreateCourseGrade(c *gin.Context) {
	var req service.CourseGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.grades.RecordCourseGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// UpdateCourseGrade godoc
// @Summary Re-record a course grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.CourseGradeRequest true "Course grade payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /course-grades [put]
func (h *GradeHandler) UpdateCourseGrade(c *gin.Context) {
	var req service.CourseGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.grades.UpdateCourseGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// DeleteCourseGrade godoc
// @Summary Delete a course grade
// @Tags Grades
// @Produce json
// @Param id path string true "Course grade ID"
// @Success 200 {object} response.Envelope
// @Router /course-grades/{id} [delete]
func (h *GradeHandler) DeleteCourseGrade(c *gin.Context) {
	semesterGrade, err := h.grades.DeleteCourseGrade(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesterGrade, nil)
}

// ListSemesterGrades godoc
// @Summary List semester grades
// @Tags Grades
// @Produce json
// @Param semesterId query string false "Semester ID"
// @Param studentId query string false "Student ID"
// @Success 200 {object} response.Envelope
// @Router /semester-grades [get]
func (h *GradeHandler) ListSemesterGrades(c *gin.Context) {
	filter := models.SemesterGradeFilter{SemesterID: c.Query("semesterId"), StudentID: c.Query("studentId")}
	grades, err := h.grades.ListSemesterGrades(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// InitSemesterGrade godoc
// @Summary Initialize a semester grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.InitSemesterGradeRequest true "Semester grade payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /semester-grades [post]
func (h *GradeHandler) InitSemesterGrade(c *gin.Context) {
	var req service.InitSemesterGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	grade, err := h.grades.InitializeSemesterGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// RecalculateSemesterGrade godoc
// @Summary Recompute a semester grade
// @Tags Grades
// @Produce json
// @Param id path string true "Semester grade ID"
// @Success 200 {object} response.Envelope
// @Router /semester-grades/{id}/recalculate [post]
func (h *GradeHandler) RecalculateSemesterGrade(c *gin.Context) {
	grade, err := h.grades.RecalculateSemesterGrade(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// ExportSemesterGrades godoc
// @Summary Download semester results
// @Tags Grades
// @Produce text/csv
// @Produce application/pdf
// @Param semesterId query string true "Semester ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /semester-grades/export [get]
func (h *GradeHandler) ExportSemesterGrades(c *gin.Context) {
	result, err := h.exports.SemesterResults(c.Request.Context(), c.Query("semesterId"), service.ExportFormat(c.DefaultQuery("format", "csv")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Payload)
}
