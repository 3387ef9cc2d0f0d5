package notify

import (
	"context"

	"solveit/internal/model"
	"solveit/internal/repository"
)

// InboxSender stores the message in the recipient's in-app inbox
type InboxSender struct {
	repo repository.NotificationRepository
}

// NewInboxSender creates an InboxSender
func NewInboxSender(repo repository.NotificationRepository) *InboxSender {
	return &InboxSender{repo: repo}
}

// Send skips recipients without an account
func (s *InboxSender) Send(ctx context.Context, msg Message) error {
	if msg.To.UserID == "" {
		return nil
	}
	n := &model.Notification{
		RecipientID: msg.To.UserID,
		Kind:        msg.Kind,
		Title:       msg.Subject,
		Content:     msg.Body,
	}
	if msg.ComplaintID != "" {
		id := msg.ComplaintID
		n.ComplaintID = &id
	}
	return s.repo.Create(ctx, n)
}
