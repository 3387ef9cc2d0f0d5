package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"solveit/internal/dto"
	"solveit/internal/repository"
)

// NotificationService in-app inbox
type NotificationService interface {
	List(ctx context.Context, userID string, query *dto.NotificationListQuery) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService creates a NotificationService
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) List(ctx context.Context, userID string, query *dto.NotificationListQuery) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByRecipient(ctx, userID, query.UnreadOnly, query.GetOffset(), query.GetPageSize())
	if err != nil {
		s.logger.Error("list notifications failed", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		r := dto.NotificationResponse{
			ID:        n.NotificationID,
			Kind:      string(n.Kind),
			Title:     n.Title,
			Content:   n.Content,
			IsRead:    n.IsRead,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		}
		if n.ComplaintID != nil {
			r.ComplaintID = *n.ComplaintID
		}
		out = append(out, r)
	}
	return out, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.Notification.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.Notification.MarkRead(ctx, id, userID, time.Now().UTC()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.Notification.MarkAllRead(ctx, userID, time.Now().UTC())
}
