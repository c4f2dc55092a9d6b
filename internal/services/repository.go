package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/database"
	"github.com/aura-webinar/storefront/pkg/errs"
)

var (
	// ErrNotFound is returned when no service matches.
	ErrNotFound = errs.WithKind(errs.NotFound, "service not found")
	// ErrDuplicateSlug is returned when the slug is taken.
	ErrDuplicateSlug = errs.WithKind(errs.Conflict, "a service with this slug already exists")
)

const serviceColumns = `id, title, slug, description, features, COALESCE(image_url,''), price, is_active, is_featured, display_order, created_at, updated_at`

// Filter narrows a service listing.
type Filter struct {
	ActiveOnly bool
	Featured   *bool
}

// Repository handles service persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a services repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanService(row pgx.Row) (*models.Service, error) {
	var s models.Service
	err := row.Scan(&s.ID, &s.Title, &s.Slug, &s.Description, &s.Features, &s.ImageURL, &s.Price,
		&s.IsActive, &s.IsFeatured, &s.DisplayOrder, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns services by display order, then age.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Service, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		conds = append(conds, "is_featured = $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + serviceColumns + ` FROM services`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := r.pool.Query(ctx, q+" ORDER BY display_order ASC, created_at ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// GetByID returns a service by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return scanService(r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
}

// GetBySlug returns a service by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Service, error) {
	return scanService(r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE slug = $1`, slug))
}

// Create inserts a service.
func (r *Repository) Create(ctx context.Context, s *models.Service) error {
	const q = `INSERT INTO services (title, slug, description, features, image_url, price, is_active, is_featured, display_order)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.Title, s.Slug, s.Description, featuresOrEmpty(s.Features), s.ImageURL, s.Price,
		s.IsActive, s.IsFeatured, s.DisplayOrder).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	return err
}

// Update writes the editable fields.
func (r *Repository) Update(ctx context.Context, s *models.Service) error {
	const q = `UPDATE services SET title = $2, slug = $3, description = $4, features = $5, image_url = NULLIF($6,''),
		price = $7, is_active = $8, is_featured = $9, display_order = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + serviceColumns
	updated, err := scanService(r.pool.QueryRow(ctx, q, s.ID, s.Title, s.Slug, s.Description, featuresOrEmpty(s.Features), s.ImageURL,
		s.Price, s.IsActive, s.IsFeatured, s.DisplayOrder))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	*s = *updated
	return nil
}

// Delete removes a service.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func featuresOrEmpty(f []string) []string {
	if f == nil {
		return []string{}
	}
	return f
}
