package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/queue"
)

type scriptedSender struct {
	mu    sync.Mutex
	fails int
	sent  []queue.EmailPayload
}

func (s *scriptedSender) Send(_ context.Context, p queue.EmailPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("421 try again later")
	}
	s.sent = append(s.sent, p)
	return nil
}

type memLogs struct {
	mu   sync.Mutex
	rows []*models.EmailLog
}

func (m *memLogs) Create(_ context.Context, el *models.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, el)
	return nil
}

// memQueue mimics the Redis queue's retry and dead-letter rules.
type memQueue struct {
	mu      sync.Mutex
	pending []*queue.Job
	dead    []*queue.Job
	cancel  context.CancelFunc
}

func (q *memQueue) Dequeue(context.Context) (*queue.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		q.cancel()
		return nil, nil
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	return job, nil
}

func (q *memQueue) Retry(_ context.Context, job *queue.Job, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Attempt++
	job.LastError = cause.Error()
	if job.Attempt >= queue.MaxRetries {
		q.dead = append(q.dead, job)
		return nil
	}
	q.pending = append(q.pending, job)
	return nil
}

func emailJob(t *testing.T, to string) *queue.Job {
	t.Helper()
	webinarID := uuid.New()
	raw, err := json.Marshal(queue.EmailPayload{
		EmailType:      models.EmailTypeMeetingLink,
		WebinarID:      &webinarID,
		RecipientEmail: to,
		Subject:        "Your link",
		BodyHTML:       "<p>join</p>",
	})
	require.NoError(t, err)
	return &queue.Job{ID: uuid.NewString(), Type: queue.JobTypeEmail, Payload: raw}
}

func runUntilDrained(t *testing.T, q *memQueue, p *EmailProcessor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.cancel = cancel
	p.backoff = time.Millisecond
	p.Run(ctx)
}

func TestProcess_LogsSent(t *testing.T) {
	sender := &scriptedSender{}
	logs := &memLogs{}
	p := NewEmailProcessor(nil, sender, logs, nil)

	require.NoError(t, p.Process(context.Background(), emailJob(t, "a@example.com")))
	require.Len(t, logs.rows, 1)
	assert.Equal(t, models.EmailLogStatusSent, logs.rows[0].Status)
	assert.Equal(t, 1, logs.rows[0].Attempt)
	assert.NotNil(t, logs.rows[0].SentAt)
	assert.NotNil(t, logs.rows[0].WebinarID)
}

func TestProcess_RejectsNonEmailJob(t *testing.T) {
	p := NewEmailProcessor(nil, &scriptedSender{}, &memLogs{}, nil)
	err := p.Process(context.Background(), &queue.Job{ID: "x", Type: queue.JobType("other")})
	assert.Error(t, err)
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	sender := &scriptedSender{fails: 1}
	logs := &memLogs{}
	q := &memQueue{pending: []*queue.Job{emailJob(t, "a@example.com")}}

	runUntilDrained(t, q, NewEmailProcessor(q, sender, logs, nil))

	assert.Len(t, sender.sent, 1)
	assert.Empty(t, q.dead)
	require.Len(t, logs.rows, 2)
	assert.Equal(t, models.EmailLogStatusFailed, logs.rows[0].Status)
	assert.Equal(t, "421 try again later", logs.rows[0].ErrorMessage)
	assert.Equal(t, models.EmailLogStatusSent, logs.rows[1].Status)
	assert.Equal(t, 2, logs.rows[1].Attempt)
}

func TestRun_DeadLettersAfterMaxRetries(t *testing.T) {
	sender := &scriptedSender{fails: 100}
	logs := &memLogs{}
	q := &memQueue{pending: []*queue.Job{emailJob(t, "b@example.com")}}

	runUntilDrained(t, q, NewEmailProcessor(q, sender, logs, nil))

	assert.Empty(t, sender.sent)
	require.Len(t, q.dead, 1)
	assert.Equal(t, queue.MaxRetries, q.dead[0].Attempt)
	assert.Len(t, logs.rows, queue.MaxRetries)
}
