// Package orders is the typed view over registrations and purchases that
// payment reconciliation and invoicing work against. Both tables share the
// payment columns, so one set of queries serves either kind.
package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/database"
	"github.com/aura-webinar/storefront/pkg/errs"
)

var (
	// ErrNotFound is returned when no order matches.
	ErrNotFound = errs.WithKind(errs.NotFound, "order not found")
	// ErrUnknownKind is returned for a kind other than webinar or service.
	ErrUnknownKind = errs.WithKind(errs.Validation, "unknown order kind")
)

type table struct {
	kind      string
	name      string
	itemTable string
	itemCol   string
}

var tables = map[string]table{
	models.ItemTypeWebinar: {kind: models.ItemTypeWebinar, name: "webinar_registrations", itemTable: "webinars", itemCol: "webinar_id"},
	models.ItemTypeService: {kind: models.ItemTypeService, name: "service_purchases", itemTable: "services", itemCol: "service_id"},
}

func tableFor(kind string) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, ErrUnknownKind
	}
	return t, nil
}

func (t table) selectSQL() string {
	return `SELECT o.id, '` + t.kind + `', o.user_id, o.` + t.itemCol + `, i.title, o.amount_paid, o.discount_amount, o.coupon_id,
		o.payment_status, COALESCE(o.payment_id,''), COALESCE(o.invoice_number,''),
		u.email, u.full_name, COALESCE(NULLIF(o.phone,''), u.phone, ''), o.completed_at, o.created_at
		FROM ` + t.name + ` o
		JOIN ` + t.itemTable + ` i ON i.id = o.` + t.itemCol + `
		JOIN users u ON u.id = o.user_id`
}

// Repository reads and transitions orders of either kind.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an orders repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.Kind, &o.UserID, &o.ItemID, &o.ItemTitle, &o.Amount, &o.DiscountAmount, &o.CouponID,
		&o.Status, &o.PaymentID, &o.InvoiceNumber, &o.CustomerEmail, &o.CustomerName, &o.CustomerPhone, &o.CompletedAt, &o.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// GetByPaymentID finds the order carrying the gateway order id, whichever
// table it lives in.
func (r *Repository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	q := tables[models.ItemTypeWebinar].selectSQL() + ` WHERE o.payment_id = $1
		UNION ALL ` + tables[models.ItemTypeService].selectSQL() + ` WHERE o.payment_id = $1
		LIMIT 1`
	return scanOrder(r.pool.QueryRow(ctx, q, paymentID))
}

// Get returns an order by kind and id.
func (r *Repository) Get(ctx context.Context, kind string, id uuid.UUID) (*models.Order, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return scanOrder(r.pool.QueryRow(ctx, t.selectSQL()+` WHERE o.id = $1`, id))
}

// GetForUser returns an order only if userID owns it.
func (r *Repository) GetForUser(ctx context.Context, kind string, id, userID uuid.UUID) (*models.Order, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return scanOrder(r.pool.QueryRow(ctx, t.selectSQL()+` WHERE o.id = $1 AND o.user_id = $2`, id, userID))
}

// MarkCompleted moves a pending or failed order to completed. It reports
// true only for the caller whose update performed the transition; a failed
// order can still be paid later within the same gateway session.
func (r *Repository) MarkCompleted(ctx context.Context, kind string, id uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE `+t.name+` SET payment_status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND payment_status IN ('pending','failed')`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed moves a pending order to failed. Other states are left alone.
func (r *Repository) MarkFailed(ctx context.Context, kind string, id uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE `+t.name+` SET payment_status = 'failed', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AssignInvoiceNumber sets the invoice number unless one exists and returns
// whichever number the row ends up with.
func (r *Repository) AssignInvoiceNumber(ctx context.Context, kind string, id uuid.UUID, number string) (string, error) {
	t, err := tableFor(kind)
	if err != nil {
		return "", err
	}
	var stored string
	err = r.pool.QueryRow(ctx, `UPDATE `+t.name+` SET invoice_number = COALESCE(invoice_number, $2), updated_at = NOW()
		WHERE id = $1 RETURNING invoice_number`, id, number).Scan(&stored)
	if database.IsNoRows(err) {
		return "", ErrNotFound
	}
	return stored, err
}
