package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-grading-api/internal/models"
	"github.com/noah-isme/academic-grading-api/internal/service"
	"github.com/noah-isme/academic-grading-api/pkg/response"
)

type programGradeService interface {
	List(ctx context.Context, filter models.ProgramGradeFilter) ([]models.ProgramGrade, bool, error)
	Get(ctx context.Context, id string) (*models.ProgramGrade, error)
	Recompute(ctx context.Context, req service.RecomputeProgramGradeRequest) (*models.ProgramGrade, error)
	Delete(ctx context.Context, id string) error
}

// ProgramGradeHandler exposes CGPA endpoints.
type ProgramGradeHandler struct {
	grades programGradeService
}

// NewProgramGradeHandler constructs ProgramGradeHandler.
func NewProgramGradeHandler(grades programGradeService) *ProgramGradeHandler {
	return &ProgramGradeHandler{grades: grades}
}

// List godoc
// @Summary List program grades
// @Tags ProgramGrades
// @Produce json
// @Param programId query string false "Program ID"
// @Param studentId query string false "Student ID"
// @Success 200 {object} response.Envelope
// @Router /program-grades [get]
func (h *ProgramGradeHandler) List(c *gin.Context) {
	filter := models.ProgramGradeFilter{ProgramID: c.Query("programId"), StudentID: c.Query("studentId")}
	grades, hit, err := h.grades.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, grades, hit)
}

// Get godoc
// @Summary Get program grade
// @Tags ProgramGrades
// @Produce json
// @Param id path string true "Program grade ID"
// @Success 200 {object} response.Envelope
// @Router /program-grades/{id} [get]
func (h *ProgramGradeHandler) Get(c *gin.Context) {
	grade, err := h.grades.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Recompute godoc
// @Summary Recompute a student's CGPA
// @Tags ProgramGrades
// @Accept json
// @Produce json
// @Param payload body service.RecomputeProgramGradeRequest true "Recompute payload"
// @Success 200 {object} response.Envelope
// @Router /program-grades/recompute [post]
func (h *ProgramGradeHandler) Recompute(c *gin.Context) {
	var req service.RecomputeProgramGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	grade, err := h.grades.Recompute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Delete godoc
// @Summary Delete program grade
// @Tags ProgramGrades
// @Param id path string true "Program grade ID"
// @Success 204
// @Router /program-grades/{id} [delete]
func (h *ProgramGradeHandler) Delete(c *gin.Context) {
	if err := h.grades.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
