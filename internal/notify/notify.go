package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"solveit/internal/metrics"
	"solveit/internal/model"
)

// Recipient contact details of whoever should hear about an event
type Recipient struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

// Message one notification for one recipient
type Message struct {
	Kind        model.NotificationKind
	To          Recipient
	ComplaintID string
	Subject     string
	Body        string
	Data        map[string]string
}

// Sender delivers a message over one channel
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher fire-and-forget delivery. Implementations never report failure
// to the caller; they log it instead.
type Dispatcher interface {
	Notify(ctx context.Context, msg Message)
}

// Multi fans a message out to every sender, joining their errors
type Multi []Sender

func (m Multi) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SyncDispatcher delivers inline on the caller's goroutine
type SyncDispatcher struct {
	sender  Sender
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSyncDispatcher creates a SyncDispatcher
func NewSyncDispatcher(sender Sender, m *metrics.Metrics, logger *zap.Logger) *SyncDispatcher {
	return &SyncDispatcher{sender: sender, metrics: m, logger: logger}
}

func (d *SyncDispatcher) Notify(ctx context.Context, msg Message) {
	deliver(ctx, d.sender, msg, d.metrics, d.logger)
}

// Nop discards everything
type Nop struct{}

func (Nop) Notify(context.Context, Message) {}

func deliver(ctx context.Context, s Sender, msg Message, m *metrics.Metrics, logger *zap.Logger) {
	if err := s.Send(ctx, msg); err != nil {
		m.NotificationFailed(string(msg.Kind))
		logger.Warn("notification delivery failed",
			zap.String("kind", string(msg.Kind)),
			zap.String("recipient", msg.To.UserID),
			zap.String("complaint_id", msg.ComplaintID),
			zap.Error(err))
		return
	}
	m.NotificationSent(string(msg.Kind))
}
