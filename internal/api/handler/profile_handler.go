package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/KilloQ/StudentsClubs/internal/service"
	"github.com/KilloQ/StudentsClubs/pkg/response"
)

// ProfileHandler caller-scoped profile views
type ProfileHandler struct {
	profileSvc service.ProfileService
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profileSvc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// Student GET /profile/student
func (h *ProfileHandler) Student(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.StudentProfile(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, profile)
}

// Teacher GET /profile/teacher
func (h *ProfileHandler) Teacher(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.TeacherProfile(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, profile)
}
