package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-grading-api/internal/models"
	"github.com/noah-isme/academic-grading-api/internal/service"
	"github.com/noah-isme/academic-grading-api/pkg/response"
)

type marksService interface {
	GetSheet(ctx context.Context, studentID, courseID string) (*models.CourseMarkSheet, error)
	UpsertSheet(ctx context.Context, req service.UpsertMarksRequest) (*models.CourseMarkSheet, error)
}

// MarksHandler exposes component mark entry.
type MarksHandler struct {
	marks marksService
}

// NewMarksHandler constructs MarksHandler.
func NewMarksHandler(marks marksService) *MarksHandler {
	return &MarksHandler{marks: marks}
}

// Get godoc
// @Summary Get marks sheet
// @Tags Marks
// @Produce json
// @Param studentId query string true "Student ID"
// @Param courseId query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /marks [get]
func (h *MarksHandler) Get(c *gin.Context) {
	sheet, err := h.marks.GetSheet(c.Request.Context(), c.Query("studentId"), c.Query("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Upsert godoc
// @Summary Replace marks sheet
// @Description Each component must lie within its maximum and the total within 100.
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.UpsertMarksRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /marks [put]
func (h *MarksHandler) Upsert(c *gin.Context) {
	var req service.UpsertMarksRequest
	if !bindJSON(c, &req) {
		return
	}
	sheet, err := h.marks.UpsertSheet(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}
