package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"solveit/internal/metrics"
)

// deliveryTimeout bounds one message delivery by a worker
const deliveryTimeout = 30 * time.Second

// AsyncDispatcher queues messages for a fixed worker pool. When the queue is
// full the message is dropped and logged; Notify never blocks.
type AsyncDispatcher struct {
	sender  Sender
	metrics *metrics.Metrics
	logger  *zap.Logger

	queue  chan Message
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewAsyncDispatcher starts workers goroutines draining a queue of queueSize
func NewAsyncDispatcher(sender Sender, queueSize, workers int, m *metrics.Metrics, logger *zap.Logger) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	d := &AsyncDispatcher{
		sender:  sender,
		metrics: m,
		logger:  logger,
		queue:   make(chan Message, queueSize),
	}
	for range workers {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *AsyncDispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		deliver(ctx, d.sender, msg, d.metrics, d.logger)
		cancel()
	}
}

// Notify enqueues msg. The caller's context is not carried into delivery:
// request-scoped contexts end before the worker gets to the message.
func (d *AsyncDispatcher) Notify(_ context.Context, msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("notification after shutdown dropped", zap.String("kind", string(msg.Kind)))
		return
	}
	select {
	case d.queue <- msg:
	default:
		d.metrics.NotificationDropped()
		d.logger.Warn("notification queue full, message dropped",
			zap.String("kind", string(msg.Kind)),
			zap.String("recipient", msg.To.UserID),
			zap.String("complaint_id", msg.ComplaintID))
	}
}

// Close stops accepting messages and waits for queued ones to drain or ctx to end
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
