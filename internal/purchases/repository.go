package purchases

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

// ErrNotFound is returned when no purchase matches.
var ErrNotFound = errs.WithKind(errs.NotFound, "purchase not found")

const purchaseColumns = `p.id, p.user_id, p.service_id, p.amount_paid, p.discount_amount, p.coupon_id, p.payment_status,
	COALESCE(p.payment_id,''), COALESCE(p.invoice_number,''), COALESCE(p.phone,''), COALESCE(p.notes,''),
	p.completed_at, p.created_at, p.updated_at`

// Filter narrows the admin purchase list.
type Filter struct {
	ServiceID *uuid.UUID
	Status    string
}

// Repository handles service purchase persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a purchases repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanInto(p *models.Purchase, extra ...interface{}) []interface{} {
	return append([]interface{}{&p.ID, &p.UserID, &p.ServiceID, &p.AmountPaid, &p.DiscountAmount, &p.CouponID, &p.PaymentStatus,
		&p.PaymentID, &p.InvoiceNumber, &p.Phone, &p.Notes, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt}, extra...)
}

func scanPurchase(row pgx.Row) (*models.Purchase, error) {
	var p models.Purchase
	if err := row.Scan(scanInto(&p)...); err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a purchase in the given payment status.
func (r *Repository) Create(ctx context.Context, p *models.Purchase) error {
	const q = `INSERT INTO service_purchases
		(user_id, service_id, amount_paid, discount_amount, coupon_id, payment_status, payment_id, phone, notes, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), NULLIF($8,''), NULLIF($9,''), CASE WHEN $6 IN ('completed','free') THEN NOW() END)
		RETURNING id, completed_at, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.UserID, p.ServiceID, p.AmountPaid, p.DiscountAmount, p.CouponID,
		p.PaymentStatus, p.PaymentID, p.Phone, p.Notes).
		Scan(&p.ID, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt)
}

// LatestForUser returns the user's paid purchase of a service if any,
// otherwise the newest attempt.
func (r *Repository) LatestForUser(ctx context.Context, userID, serviceID uuid.UUID) (*models.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM service_purchases p
		WHERE p.user_id = $1 AND p.service_id = $2
		ORDER BY (p.payment_status IN ('completed','free')) DESC, p.created_at DESC
		LIMIT 1`
	return scanPurchase(r.pool.QueryRow(ctx, q, userID, serviceID))
}

// GetForUser returns one purchase owned by userID.
func (r *Repository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM service_purchases p WHERE p.id = $1 AND p.user_id = $2`
	return scanPurchase(r.pool.QueryRow(ctx, q, id, userID))
}

// ListForUser returns the user's purchases with their services, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.PurchaseWithService, error) {
	const q = `SELECT ` + purchaseColumns + `, s.id, s.title, s.slug, COALESCE(s.image_url,'')
		FROM service_purchases p
		JOIN services s ON s.id = p.service_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.PurchaseWithService{}
	for rows.Next() {
		var item models.PurchaseWithService
		s := &item.Service
		if err := rows.Scan(scanInto(&item.Purchase, &s.ID, &s.Title, &s.Slug, &s.ImageURL)...); err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

// List returns purchases with their owners for the admin screens.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.PurchaseWithUser, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.ServiceID != nil {
		args = append(args, *f.ServiceID)
		conds = append(conds, "p.service_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, "p.payment_status = $"+strconv.Itoa(len(args)))
	}
	q := `SELECT ` + purchaseColumns + `, u.id, u.email, u.full_name, COALESCE(u.phone,'')
		FROM service_purchases p
		JOIN users u ON u.id = p.user_id`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := r.pool.Query(ctx, q+" ORDER BY p.created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.PurchaseWithUser{}
	for rows.Next() {
		var item models.PurchaseWithUser
		u := &item.User
		if err := rows.Scan(scanInto(&item.Purchase, &u.ID, &u.Email, &u.FullName, &u.Phone)...); err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, rows.Err()
}
