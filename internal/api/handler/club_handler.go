package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KilloQ/StudentsClubs/internal/api/middleware"
	"github.com/KilloQ/StudentsClubs/internal/dto"
	"github.com/KilloQ/StudentsClubs/internal/service"
	"github.com/KilloQ/StudentsClubs/pkg/response"
)

// ClubHandler public catalog and student membership endpoints
type ClubHandler struct {
	catalogSvc    service.CatalogService
	membershipSvc service.MembershipService
}

// NewClubHandler creates a ClubHandler.
func NewClubHandler(catalogSvc service.CatalogService, membershipSvc service.MembershipService) *ClubHandler {
	return &ClubHandler{catalogSvc: catalogSvc, membershipSvc: membershipSvc}
}

// ListClubs GET /clubs/?category=
func (h *ClubHandler) ListClubs(c *gin.Context) {
	var req dto.ClubListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query")
		return
	}

	clubs, err := h.catalogSvc.ListClubs(c.Request.Context(), req.Category)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, clubs)
}

// ListCategories GET /clubs/categories/list
func (h *ClubHandler) ListCategories(c *gin.Context) {
	response.OK(c, h.catalogSvc.ListCategories())
}

// GetClub GET /clubs/:id
func (h *ClubHandler) GetClub(c *gin.Context) {
	clubID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.catalogSvc.GetClub(c.Request.Context(), clubID, middleware.CurrentActor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, detail)
}

// Calendar GET /clubs/:id/schedule.ics
func (h *ClubHandler) Calendar(c *gin.Context) {
	clubID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	body, filename, err := h.catalogSvc.Calendar(c.Request.Context(), clubID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}

// CreateClub POST /clubs/ (teacher)
func (h *ClubHandler) CreateClub(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "title and category are required")
		return
	}

	club, err := h.catalogSvc.CreateClub(c.Request.Context(), actor, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, club)
}

// Join POST /clubs/:id/join (student)
func (h *ClubHandler) Join(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	clubID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.membershipSvc.Join(c.Request.Context(), actor, clubID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, "joined the club")
}

// Leave DELETE /clubs/:id/leave (student)
func (h *ClubHandler) Leave(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	clubID, ok := MustGetIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.membershipSvc.Leave(c.Request.Context(), actor, clubID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, "left the club")
}
