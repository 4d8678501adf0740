package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-grading-api/internal/middleware"
	"github.com/noah-isme/academic-grading-api/internal/models"
	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
	"github.com/noah-isme/academic-grading-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Me(ctx context.Context, userID string) (*models.UserInfo, error)
}

// AuthHandler handles sign-in.
type AuthHandler struct {
	auth authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth authService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// @Summary Sign in
// @Description Exchange staff email and password for a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if res, err := h.auth.Login(c.Request.Context(), req); err != nil {
		response.Error(c, err)
	} else {
		response.JSON(c, http.StatusOK, res, nil)
	}
}

// Me godoc
// @Summary Signed-in account
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if user, err := h.auth.Me(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
	} else {
		response.JSON(c, http.StatusOK, user, nil)
	}
}
