package registrations

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

// ErrNotFound is returned when no registration matches.
var ErrNotFound = errs.WithKind(errs.NotFound, "registration not found")

const registrationColumns = `r.id, r.user_id, r.webinar_id, r.amount_paid, r.discount_amount, r.coupon_id, r.payment_status,
	COALESCE(r.payment_id,''), COALESCE(r.invoice_number,''), COALESCE(r.phone,''), r.completed_at, r.created_at, r.updated_at`

// Filter narrows the admin registration list.
type Filter struct {
	WebinarID *uuid.UUID
	Status    string
}

// Repository handles webinar registration persistence. Methods ending in
// ForUser are scoped to the owner; the rest are for privileged callers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanInto(reg *models.Registration, extra ...interface{}) []interface{} {
	return append([]interface{}{&reg.ID, &reg.UserID, &reg.WebinarID, &reg.AmountPaid, &reg.DiscountAmount, &reg.CouponID,
		&reg.PaymentStatus, &reg.PaymentID, &reg.InvoiceNumber, &reg.Phone, &reg.CompletedAt, &reg.CreatedAt, &reg.UpdatedAt}, extra...)
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	if err := row.Scan(scanInto(&reg)...); err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// Create inserts a registration in the given payment status.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO webinar_registrations
		(user_id, webinar_id, amount_paid, discount_amount, coupon_id, payment_status, payment_id, phone, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), NULLIF($8,''), CASE WHEN $6 IN ('completed','free') THEN NOW() END)
		RETURNING id, completed_at, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, reg.UserID, reg.WebinarID, reg.AmountPaid, reg.DiscountAmount, reg.CouponID,
		reg.PaymentStatus, reg.PaymentID, reg.Phone).
		Scan(&reg.ID, &reg.CompletedAt, &reg.CreatedAt, &reg.UpdatedAt)
}

// LatestForUser returns the user's most relevant registration for a
// webinar: a paid one if any, otherwise the newest.
func (r *Repository) LatestForUser(ctx context.Context, userID, webinarID uuid.UUID) (*models.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM webinar_registrations r
		WHERE r.user_id = $1 AND r.webinar_id = $2
		ORDER BY (r.payment_status IN ('completed','free')) DESC, r.created_at DESC
		LIMIT 1`
	return scanRegistration(r.pool.QueryRow(ctx, q, userID, webinarID))
}

// GetForUser returns one registration owned by userID.
func (r *Repository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM webinar_registrations r WHERE r.id = $1 AND r.user_id = $2`
	return scanRegistration(r.pool.QueryRow(ctx, q, id, userID))
}

// ListForUser returns the user's registrations with their webinars, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.RegistrationWithWebinar, error) {
	const q = `SELECT ` + registrationColumns + `,
		w.id, w.title, w.slug, w.starts_at, w.ends_at, COALESCE(w.image_url,''),
		CASE WHEN r.payment_status IN ('completed','free') THEN COALESCE(w.meeting_link,'') ELSE '' END
		FROM webinar_registrations r
		JOIN webinars w ON w.id = r.webinar_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.RegistrationWithWebinar{}
	for rows.Next() {
		var item models.RegistrationWithWebinar
		wb := &item.Webinar
		if err := rows.Scan(scanInto(&item.Registration, &wb.ID, &wb.Title, &wb.Slug, &wb.StartsAt, &wb.EndsAt, &wb.ImageURL, &wb.MeetingLink)...); err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

// List returns registrations with their owners for the admin screens.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.RegistrationWithUser, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.WebinarID != nil {
		args = append(args, *f.WebinarID)
		conds = append(conds, "r.webinar_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, "r.payment_status = $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + registrationColumns + `, u.id, u.email, u.full_name, COALESCE(u.phone,'')
		FROM webinar_registrations r
		JOIN users u ON u.id = r.user_id`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := r.pool.Query(ctx, q+" ORDER BY r.created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.RegistrationWithUser{}
	for rows.Next() {
		var item models.RegistrationWithUser
		u := &item.User
		if err := rows.Scan(scanInto(&item.Registration, &u.ID, &u.Email, &u.FullName, &u.Phone)...); err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

// Registrants returns everyone holding a confirmed seat in the webinar.
func (r *Repository) Registrants(ctx context.Context, webinarID uuid.UUID) ([]models.RegistrantContact, error) {
	const q = `SELECT r.id, u.id, u.email, u.full_name
		FROM webinar_registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.webinar_id = $1 AND r.payment_status IN ('completed','free')
		ORDER BY r.created_at`
	rows, err := r.pool.Query(ctx, q, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.RegistrantContact{}
	for rows.Next() {
		var c models.RegistrantContact
		if err := rows.Scan(&c.RegistrationID, &c.UserID, &c.Email, &c.FullName); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
