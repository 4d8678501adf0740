package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-grading-api/internal/models"
	"github.com/noah-isme/academic-grading-api/internal/service"
	"github.com/noah-isme/academic-grading-api/pkg/response"
)

// CurriculumHandler exposes program, semester and course endpoints.
type CurriculumHandler struct {
	curriculum *service.CurriculumService
}

// NewCurriculumHandler constructs CurriculumHandler.
func NewCurriculumHandler(curriculum *service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculum: curriculum}
}

// ListPrograms godoc
// @Summary List programs
// @Tags Curriculum
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *CurriculumHandler) ListPrograms(c *gin.Context) {
	programs, err := h.curriculum.ListPrograms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// GetProgram godoc
// @Summary Get program
// @Tags Curriculum
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *CurriculumHandler) GetProgram(c *gin.Context) {
	program, err := h.curriculum.GetProgram(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// CreateProgram godoc
// @Summary Create program
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param payload body service.CreateProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /programs [post]
func (h *CurriculumHandler) CreateProgram(c *gin.Context) {
	var req service.CreateProgramRequest
	if !bindJSON(c, &req) {
		return
	}
	program, err := h.curriculum.CreateProgram(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// ListSemesters godoc
// @Summary List semesters
// @Tags Curriculum
// @Produce json
// @Param programId query string false "Filter by program"
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *CurriculumHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.curriculum.ListSemesters(c.Request.Context(), models.SemesterFilter{ProgramID: c.Query("programId")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, nil)
}

// GetSemester godoc
// @Summary Get semester
// @Tags Curriculum
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [get]
func (h *CurriculumHandler) GetSemester(c *gin.Context) {
	semester, err := h.curriculum.GetSemester(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// CreateSemester godoc
// @Summary Create semester
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param payload body service.SemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *CurriculumHandler) CreateSemester(c *gin.Context) {
	var req service.SemesterRequest
	if !bindJSON(c, &req) {
		return
	}
	semester, err := h.curriculum.CreateSemester(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// UpdateSemester godoc
// @Summary Update semester
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param payload body service.SemesterRequest true "Semester payload"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id} [put]
func (h *CurriculumHandler) UpdateSemester(c *gin.Context) {
	var req service.SemesterRequest
	if !bindJSON(c, &req) {
		return
	}
	semester, err := h.curriculum.UpdateSemester(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// DeleteSemester godoc
// @Summary Delete semester
// @Tags Curriculum
// @Param id path string true "Semester ID"
// @Success 204
// @Router /semesters/{id} [delete]
func (h *CurriculumHandler) DeleteSemester(c *gin.Context) {
	if err := h.curriculum.DeleteSemester(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCourses godoc
// @Summary List courses with weightage
// @Tags Curriculum
// @Produce json
// @Param semesterId query string false "Filter by semester"
// @Param search query string false "Search by code or name"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CurriculumHandler) ListCourses(c *gin.Context) {
	filter := models.CourseFilter{
		SemesterID: c.Query("semesterId"),
		Search:     strings.TrimSpace(c.Query("search")),
	}
	courses, err := h.curriculum.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// GetCourse godoc
// @Summary Get course
// @Tags Curriculum
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CurriculumHandler) GetCourse(c *gin.Context) {
	course, err := h.curriculum.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// CreateCourse godoc
// @Summary Create course
// @Description Components must have unique names, positive maxima and sum to at most 100.
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CurriculumHandler) CreateCourse(c *gin.Context) {
	var req service.CourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.curriculum.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse godoc
// @Summary Update course
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CurriculumHandler) UpdateCourse(c *gin.Context) {
	var req service.CourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.curriculum.UpdateCourse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// DeleteCourse godoc
// @Summary Delete course
// @Tags Curriculum
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CurriculumHandler) DeleteCourse(c *gin.Context) {
	if err := h.curriculum.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
