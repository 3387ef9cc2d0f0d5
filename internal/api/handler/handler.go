package handler

import "solveit/internal/service"

// Handler aggregates every HTTP handler
type Handler struct {
	Auth         *AuthHandler
	Complaint    *ComplaintHandler
	Escalation   *EscalationHandler
	Staff        *StaffHandler
	User         *UserHandler
	Notification *NotificationHandler
	Export       *ExportHandler
	Health       *HealthHandler
}

// NewHandler wires handlers to their services
func NewHandler(svc *service.Service, cookies CookieConfig, checks ...HealthCheck) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, cookies),
		Complaint:    NewComplaintHandler(svc.Complaint),
		Escalation:   NewEscalationHandler(svc.Escalation),
		Staff:        NewStaffHandler(svc.Staff),
		User:         NewUserHandler(svc.User),
		Notification: NewNotificationHandler(svc.Notification),
		Export:       NewExportHandler(svc.Export),
		Health:       NewHealthHandler(checks...),
	}
}
