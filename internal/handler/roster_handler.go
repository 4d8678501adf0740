package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-grading-api/internal/models"
	"github.com/noah-isme/academic-grading-api/pkg/response"
)

type rosterService interface {
	Get(ctx context.Context, programID, semesterID string) (*models.Roster, bool, error)
}

// RosterHandler serves grading worksheets.
type RosterHandler struct {
	rosters rosterService
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(rosters rosterService) *RosterHandler {
	return &RosterHandler{rosters: rosters}
}

// Get godoc
// @Summary Program semester roster
// @Description Active students with per-course marks, weightage and grades. Cached.
// @Tags Rosters
// @Produce json
// @Param programId query string true "Program ID"
// @Param semesterId query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /rosters [get]
func (h *RosterHandler) Get(c *gin.Context) {
	roster, hit, err := h.rosters.Get(c.Request.Context(), c.Query("programId"), c.Query("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, roster, hit)
}
