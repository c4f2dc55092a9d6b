package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob_EmailRoundTrip(t *testing.T) {
	webinarID := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	in := EmailPayload{
		EmailType:      "meeting_link",
		WebinarID:      &webinarID,
		RecipientEmail: "a@example.com",
		Subject:        "Your link",
		BodyHTML:       "<p>hi</p>",
	}

	job, err := newJob(JobTypeEmail, in, now)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, now, job.CreatedAt)
	assert.Zero(t, job.Attempt)

	out, err := job.Email()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestJob_EmailRejectsOtherTypes(t *testing.T) {
	job := &Job{ID: "x", Type: JobType("other"), Payload: []byte(`{}`)}
	_, err := job.Email()
	assert.Error(t, err)
}
