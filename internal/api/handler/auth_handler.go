package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/KilloQ/StudentsClubs/internal/dto"
	"github.com/KilloQ/StudentsClubs/internal/service"
	"github.com/KilloQ/StudentsClubs/pkg/response"
)

// AuthHandler authentication endpoints
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login issues an access token.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "username and password are required")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, result)
}

// Register creates a student account.
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "username, full_name, password and password_confirm are required")
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, user)
}

// Me returns the caller.
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), actor.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, user)
}

// Logout revokes the current token.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), actor); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, "logged out")
}
