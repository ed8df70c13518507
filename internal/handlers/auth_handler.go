package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coursehub-backend/internal/middleware"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/service"
	"coursehub-backend/pkg/response"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, user, err := h.authService.Login(req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, models.AuthResponse{Token: token, User: *user})
}

func (h *AuthHandler) Me(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	user, err := h.authService.Me(actor.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, user)
}

// VerifyEmail confirms the address an instructor signed up with.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Fail(c, http.StatusBadRequest, "token is required", nil)
		return
	}

	user, err := h.authService.VerifyEmail(token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Envelope{
		Success: true,
		Message: "email address verified",
		Data:    user,
	})
}
