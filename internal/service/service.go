package service

import (
	"go.uber.org/zap"

	"solveit/config"
	"solveit/internal/metrics"
	"solveit/internal/notify"
	"solveit/internal/repository"
	"solveit/pkg/jwt"
)

// Service aggregate entry point for all services
type Service struct {
	Auth         AuthService
	Complaint    ComplaintService
	Escalation   EscalationService
	Staff        StaffService
	User         UserService
	Notification NotificationService
	Export       ExportService
	Scorer       *PerformanceScorer
}

// NewService wires every service onto one repository aggregate
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	dispatcher notify.Dispatcher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	scorer := NewPerformanceScorer(repo, logger)
	resolver := NewAssignmentResolver(scorer)
	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Complaint:    NewComplaintService(repo, resolver, scorer, dispatcher, m, logger),
		Escalation:   NewEscalationService(repo, scorer, dispatcher, m, logger, cfg.Escalation.BatchSize),
		Staff:        NewStaffService(repo, logger, cfg.Server.BaseURL),
		User:         NewUserService(repo, logger),
		Notification: NewNotificationService(repo, logger),
		Export:       NewExportService(repo, logger),
		Scorer:       scorer,
	}
}
