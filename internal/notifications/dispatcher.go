package notifications

import (
	"context"

	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/pkg/queue"
)

// Enqueuer is the queue side the dispatcher writes to.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Dispatcher hands rendered emails to the worker queue. Delivery, retries
// and logging happen in the worker.
type Dispatcher struct {
	queue  Enqueuer
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher. A nil queue drops every message with a warning.
func NewDispatcher(q Enqueuer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{queue: q, logger: logger}
}

// Dispatch enqueues one email.
func (d *Dispatcher) Dispatch(ctx context.Context, msg queue.EmailPayload) error {
	if d.queue == nil {
		d.logger.Warn("email queue not configured, dropping email",
			zap.String("email_type", msg.EmailType), zap.String("to", msg.RecipientEmail))
		return ErrQueueUnavailable
	}
	if err := d.queue.EnqueueEmail(ctx, msg); err != nil {
		d.logger.Error("enqueue email failed",
			zap.String("email_type", msg.EmailType),
			zap.String("to", msg.RecipientEmail),
			zap.String("order_ref", msg.OrderRef),
			zap.Error(err))
		return err
	}
	return nil
}
