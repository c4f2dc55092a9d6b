package settings

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-webinar/storefront/internal/models"
)

// Repository handles site setting persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a settings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// All returns every setting keyed by name.
func (r *Repository) All(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]json.RawMessage{}
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = json.RawMessage(value)
	}
	return out, rows.Err()
}

// Upsert writes a setting, replacing any previous value.
func (r *Repository) Upsert(ctx context.Context, key string, value json.RawMessage) (*models.SiteSetting, error) {
	const q = `INSERT INTO site_settings (key, value) VALUES ($1, $2::jsonb)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING key, value, updated_at`
	var (
		s   models.SiteSetting
		raw []byte
	)
	if err := r.pool.QueryRow(ctx, q, key, string(value)).Scan(&s.Key, &raw, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Value = json.RawMessage(raw)
	return &s, nil
}
