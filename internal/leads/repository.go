package leads

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/database"
	"github.com/aura-webinar/storefront/pkg/errs"
)

// ErrNotFound is returned when no lead matches.
var ErrNotFound = errs.WithKind(errs.NotFound, "lead not found")

const leadColumns = `id, name, email, COALESCE(phone,''), COALESCE(subject,''), message, status, created_at, updated_at`

// Repository handles contact lead persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a leads repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLead(row pgx.Row) (*models.ContactLead, error) {
	var l models.ContactLead
	err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Subject, &l.Message, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a lead with status new.
func (r *Repository) Create(ctx context.Context, l *models.ContactLead) error {
	const q = `INSERT INTO contact_leads (name, email, phone, subject, message)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5)
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, l.Name, l.Email, l.Phone, l.Subject, l.Message).
		Scan(&l.ID, &l.Status, &l.CreatedAt, &l.UpdatedAt)
}

// List returns leads newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string) ([]models.ContactLead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM contact_leads
		WHERE $1 = '' OR status = $1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.ContactLead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status of a lead.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.ContactLead, error) {
	return scanLead(r.pool.QueryRow(ctx, `UPDATE contact_leads SET status = $2, updated_at = NOW()
		WHERE id = $1 RETURNING `+leadColumns, id, status))
}
