package webinars

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
	// ErrNotFound is returned when no webinar matches.
	ErrNotFound = errs.WithKind(errs.NotFound, "webinar not found")
	// ErrDuplicateSlug is returned when the slug is taken.
	ErrDuplicateSlug = errs.WithKind(errs.Conflict, "a webinar with this slug already exists")
)

const webinarColumns = `id, title, slug, description, COALESCE(instructor_name,''), COALESCE(image_url,''), starts_at, ends_at,
	price, total_slots, available_slots, status, is_featured, COALESCE(meeting_link,''), created_at, updated_at`

// Filter narrows a webinar listing. Zero values mean no filter.
type Filter struct {
	Status   string
	Featured *bool
}

// Repository handles webinar persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a webinar repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanWebinar(row pgx.Row) (*models.Webinar, error) {
	var w models.Webinar
	err := row.Scan(&w.ID, &w.Title, &w.Slug, &w.Description, &w.InstructorName, &w.ImageURL, &w.StartsAt, &w.EndsAt,
		&w.Price, &w.TotalSlots, &w.AvailableSlots, &w.Status, &w.IsFeatured, &w.MeetingLink, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// Create inserts a new webinar with every seat available.
func (r *Repository) Create(ctx context.Context, w *models.Webinar) error {
	const q = `INSERT INTO webinars (title, slug, description, instructor_name, image_url, starts_at, ends_at,
		price, total_slots, available_slots, status, is_featured, meeting_link)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, $7, $8, $9, $9, $10, $11, NULLIF($12,''))
		RETURNING id, available_slots, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, w.Title, w.Slug, w.Description, w.InstructorName, w.ImageURL, w.StartsAt, w.EndsAt,
		w.Price, w.TotalSlots, w.Status, w.IsFeatured, w.MeetingLink).
		Scan(&w.ID, &w.AvailableSlots, &w.CreatedAt, &w.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	return err
}

// GetByID returns a webinar by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error) {
	return scanWebinar(r.pool.QueryRow(ctx, `SELECT `+webinarColumns+` FROM webinars WHERE id = $1`, id))
}

// GetBySlug returns a webinar by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Webinar, error) {
	return scanWebinar(r.pool.QueryRow(ctx, `SELECT `+webinarColumns+` FROM webinars WHERE slug = $1`, slug))
}

// List returns webinars ordered by start time.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Webinar, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, "status = $1")
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		conds = append(conds, "is_featured = $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + webinarColumns + ` FROM webinars`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := r.pool.Query(ctx, q+" ORDER BY starts_at ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Webinar{}
	for rows.Next() {
		w, err := scanWebinar(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *w)
	}
	return list, rows.Err()
}

// Update writes the editable fields. Changing total_slots shifts
// available_slots by the same delta, never below zero.
func (r *Repository) Update(ctx context.Context, w *models.Webinar) error {
	const q = `UPDATE webinars SET title = $2, slug = $3, description = $4, instructor_name = NULLIF($5,''), image_url = NULLIF($6,''),
		starts_at = $7, ends_at = $8, price = $9,
		available_slots = GREATEST(available_slots + ($10 - total_slots), 0), total_slots = $10,
		status = $11, is_featured = $12, meeting_link = NULLIF($13,''), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + webinarColumns
	updated, err := scanWebinar(r.pool.QueryRow(ctx, q, w.ID, w.Title, w.Slug, w.Description, w.InstructorName, w.ImageURL,
		w.StartsAt, w.EndsAt, w.Price, w.TotalSlots, w.Status, w.IsFeatured, w.MeetingLink))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	*w = *updated
	return nil
}

// Delete removes a webinar by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webinars WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementSlot takes one seat. It reports false when no seat was left, in
// which case nothing changes.
func (r *Repository) DecrementSlot(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE webinars SET available_slots = available_slots - 1, updated_at = NOW()
		WHERE id = $1 AND available_slots > 0`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetMeetingLink stores the join link and returns the updated webinar.
func (r *Repository) SetMeetingLink(ctx context.Context, id uuid.UUID, link string) (*models.Webinar, error) {
	return scanWebinar(r.pool.QueryRow(ctx, `UPDATE webinars SET meeting_link = NULLIF($2,''), updated_at = NOW()
		WHERE id = $1 RETURNING `+webinarColumns, id, link))
}

const resyncQuery = `WITH counts AS (
		SELECT w.id, w.available_slots AS previous,
			COUNT(r.id) FILTER (WHERE r.payment_status IN ('completed', 'free')) AS booked
		FROM webinars w
		LEFT JOIN webinar_registrations r ON r.webinar_id = w.id
		WHERE $1::uuid IS NULL OR w.id = $1
		GROUP BY w.id
	)
	UPDATE webinars w
	SET available_slots = GREATEST(w.total_slots - c.booked, 0), updated_at = NOW()
	FROM counts c
	WHERE w.id = c.id
	RETURNING w.id, w.title, w.total_slots, c.booked, c.previous, w.available_slots`

// ResyncSlots recomputes available_slots for every webinar from its
// completed and free registrations.
func (r *Repository) ResyncSlots(ctx context.Context) ([]models.SlotResync, error) {
	return r.resync(ctx, nil)
}

// ResyncOne recomputes available_slots for a single webinar.
func (r *Repository) ResyncOne(ctx context.Context, id uuid.UUID) (*models.SlotResync, error) {
	out, err := r.resync(ctx, &id)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (r *Repository) resync(ctx context.Context, id *uuid.UUID) ([]models.SlotResync, error) {
	rows, err := r.pool.Query(ctx, resyncQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.SlotResync{}
	for rows.Next() {
		var res models.SlotResync
		if err := rows.Scan(&res.WebinarID, &res.Title, &res.TotalSlots, &res.Booked, &res.PreviousSlots, &res.AvailableSlots); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
