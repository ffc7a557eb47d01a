package handler

import "github.com/KilloQ/StudentsClubs/internal/service"

// Handler aggregates every HTTP handler.
type Handler struct {
	Auth       *AuthHandler
	Club       *ClubHandler
	Management *ManagementHandler
	Profile    *ProfileHandler
}

// NewHandler wires handlers to services.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Club:       NewClubHandler(svc.Catalog, svc.Membership),
		Management: NewManagementHandler(svc.Catalog, svc.Membership, svc.Attendance, svc.Export),
		Profile:    NewProfileHandler(svc.Profile),
	}
}
