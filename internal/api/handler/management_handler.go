package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/KilloQ/StudentsClubs/internal/dto"
	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/internal/service"
	"github.com/KilloQ/StudentsClubs/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ManagementHandler owner-only club management endpoints. Routes sit behind
// middleware.ClubOwner; the services check ownership again.
type ManagementHandler struct {
	catalogSvc    service.CatalogService
	membershipSvc service.MembershipService
	attendanceSvc service.AttendanceService
	exportSvc     service.ExportService
}

// NewManagementHandler creates a ManagementHandler.
func NewManagementHandler(
	catalogSvc service.CatalogService,
	membershipSvc service.MembershipService,
	attendanceSvc service.AttendanceService,
	exportSvc service.ExportService,
) *ManagementHandler {
	return &ManagementHandler{
		catalogSvc:    catalogSvc,
		membershipSvc: membershipSvc,
		attendanceSvc: attendanceSvc,
		exportSvc:     exportSvc,
	}
}

// clubScope extracts the actor and the :id club parameter.
func clubScope(c *gin.Context) (*policy.Actor, uint, bool) {
	actor, ok := MustGetActor(c)
	if !ok {
		return nil, 0, false
	}
	clubID, ok := MustGetIDParam(c, "id")
	if !ok {
		return nil, 0, false
	}
	return actor, clubID, true
}

// ── attendance ──

// Students GET /management/:id/students
func (h *ManagementHandler) Students(c *gin.Context) {
	actor, clubID, ok := clubScope(c)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.StudentAttendance(c.Request.Context(), actor, clubID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, list)
}

// MarkAttendance POST /management/:id/attendance
func (h *ManagementHandler) MarkAttendance(c *gin.Context) {
	actor, clubID, ok := clubScope(c)
	if !ok {
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "student_id and date are required")
		return
	}

	record, err := h.attendanceSvc.MarkAttendance(c.Request.Context(), actor, clubID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, record)
}

// Sessions GET /management/:id/sessions
func (h *ManagementHandler) Sessions(c *gin.Context) {
	actor, clubID, ok := clubScope(c)
	if !ok {
		return
	}

	sessions, err := h.attendanceSvc.ListSessions(c.Request.Context(), actor, clubID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, sessions)
}

// ExportAttendance GET /management/:id/attendance/export
func (h *ManagementHandler) ExportAttendance(c *gin.Context) {
	actor, clubID, ok := clubScope(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportAttendance(c.Request.Context(), actor, clubID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ── settings ──

// GetSettings GET /management/:id/settings
func (h *ManagementHandler) GetSettings(c *gin.Context) {
	actor, clubID, ok := clubScope(c)
	if !ok {
		return
	}

	settings, err := h.catalogSvc.GetSettings(c.Request.Context(), actor, clubID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, settings)
}

// UpdateSettings PUT /management/:id/settings
func (h *ManagementHandler) UpdateSettings(c *gin.Context) {
	actor, clubID, ok := clubScope(c)
	if !ok {
		return
	}

	var req dto.ClubSettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid settings payload")
		return
	}

	settings, err := h.catalogSvc.UpdateSettings(c.Request.Context(), actor, clubID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, settings)
}

// ── schedule ──

// AddSchedule POST /management/:id/schedule
func (h *ManagementHandler) AddSchedule(c *gin.Context) {
	actor, clubID, ok := clubScope(c)
	if !ok {
		return
	}

	var req dto.ScheduleItemCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "day_of_week, start_time and location are required")
		return
	}

	item, err := h.catalogSvc.AddScheduleItem(c.Request.Context(), actor, clubID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, item)
}

// DeleteSchedule DELETE /management/:id/schedule/:scheduleId
func (h *ManagementHandler) DeleteSchedule(c *gin.Context) {
	actor, clubID, ok := clubScope(c)
	if !ok {
		return
	}
	scheduleID, ok := MustGetIDParam(c, "scheduleId")
	if !ok {
		return
	}

	if err := h.catalogSvc.DeleteScheduleItem(c.Request.Context(), actor, clubID, scheduleID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Message(c, "schedule item deleted")
}

// Stats GET /management/:id/stats
func (h *ManagementHandler) Stats(c *gin.Context) {
	actor, clubID, ok := clubScope(c)
	if !ok {
		return
	}

	stats, err := h.membershipSvc.Stats(c.Request.Context(), actor, clubID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, stats)
}
