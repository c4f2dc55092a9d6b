package emaillogs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-webinar/storefront/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create records one delivery attempt.
func (r *Repository) Create(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (webinar_id, order_ref, email_type, recipient_email, subject, status, attempt, sent_at, error_message)
		VALUES ($1, NULLIF($2,''), $3, $4, NULLIF($5,''), $6, $7, $8, NULLIF($9,''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, el.WebinarID, el.OrderRef, el.EmailType, el.RecipientEmail, el.Subject,
		el.Status, el.Attempt, el.SentAt, el.ErrorMessage).Scan(&el.ID, &el.CreatedAt)
}

// ListByWebinar returns email logs for a webinar, newest first. An empty
// status returns every attempt.
func (r *Repository) ListByWebinar(ctx context.Context, webinarID uuid.UUID, status string) ([]*models.EmailLog, error) {
	const q = `SELECT id, webinar_id, COALESCE(order_ref,''), email_type, recipient_email, COALESCE(subject,''), status, attempt,
		sent_at, COALESCE(error_message,''), created_at
		FROM email_logs
		WHERE webinar_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT 1000`
	rows, err := r.pool.Query(ctx, q, webinarID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*models.EmailLog{}
	for rows.Next() {
		var el models.EmailLog
		if err := rows.Scan(&el.ID, &el.WebinarID, &el.OrderRef, &el.EmailType, &el.RecipientEmail, &el.Subject, &el.Status, &el.Attempt,
			&el.SentAt, &el.ErrorMessage, &el.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
