// Package worker delivers queued emails.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/queue"
)

// JobQueue is the queue side the worker consumes.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job, cause error) error
}

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, p queue.EmailPayload) error
}

// LogStore records delivery attempts.
type LogStore interface {
	Create(ctx context.Context, el *models.EmailLog) error
}

// EmailProcessor processes email jobs: send over SMTP, record the attempt,
// and hand failures back to the queue for retry or dead-lettering.
type EmailProcessor struct {
	queue   JobQueue
	sender  Sender
	logs    LogStore
	backoff time.Duration
	logger  *zap.Logger
}

// NewEmailProcessor creates an email processor.
func NewEmailProcessor(q JobQueue, sender Sender, logs LogStore, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{queue: q, sender: sender, logs: logs, backoff: queue.RetryBackoff, logger: logger}
}

// Process delivers one email job. The returned error is the send failure,
// if any; a failure to write the log row is only logged.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.Email()
	if err != nil {
		return fmt.Errorf("decode job: %w", err)
	}

	sendErr := p.sender.Send(ctx, payload)

	entry := &models.EmailLog{
		WebinarID:      payload.WebinarID,
		OrderRef:       payload.OrderRef,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        payload.Subject,
		Attempt:        job.Attempt + 1,
	}
	if sendErr != nil {
		entry.Status = models.EmailLogStatusFailed
		entry.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now().UTC()
		entry.Status = models.EmailLogStatusSent
		entry.SentAt = &now
	}
	if p.logs != nil {
		if err := p.logs.Create(ctx, entry); err != nil {
			p.logger.Warn("write email log failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	if sendErr != nil {
		return fmt.Errorf("send %s to %s: %w", payload.EmailType, payload.RecipientEmail, sendErr)
	}
	p.logger.Info("email sent",
		zap.String("job_id", job.ID),
		zap.String("email_type", payload.EmailType),
		zap.String("order_ref", payload.OrderRef))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns
// when ctx is cancelled.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job, err); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
