package coupons

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/database"
	"github.com/aura-webinar/storefront/pkg/errs"
)

// ErrNotFound is returned when no coupon matches.
var ErrNotFound = errs.WithKind(errs.NotFound, "coupon not found")

// ErrDuplicateCode is returned when a coupon code is already taken.
var ErrDuplicateCode = errs.WithKind(errs.Conflict, "coupon code already exists")

const couponColumns = `id, code, COALESCE(description,''), discount_type, discount_value, min_purchase_amount, max_discount_amount,
	max_uses, current_uses, max_uses_per_user, valid_from, valid_until, applies_to, applicable_items, is_active, created_at, updated_at`

// Repository handles coupon and coupon usage persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a coupons repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCoupon(row pgx.Row) (*models.Coupon, error) {
	var c models.Coupon
	var maxDiscount decimal.NullDecimal
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue, &c.MinPurchaseAmount, &maxDiscount,
		&c.MaxUses, &c.CurrentUses, &c.MaxUsesPerUser, &c.ValidFrom, &c.ValidUntil, &c.AppliesTo, &c.ApplicableItems, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if maxDiscount.Valid {
		c.MaxDiscountAmount = &maxDiscount.Decimal
	}
	return &c, nil
}

// GetByCode returns a coupon by its normalized code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, NormalizeCode(code)))
}

// GetByID returns a coupon by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
}

// List returns all coupons, newest first.
func (r *Repository) List(ctx context.Context) ([]*models.Coupon, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Create inserts a coupon.
func (r *Repository) Create(ctx context.Context, c *models.Coupon) error {
	const q = `INSERT INTO coupons (code, description, discount_type, discount_value, min_purchase_amount, max_discount_amount,
		max_uses, max_uses_per_user, valid_from, valid_until, applies_to, applicable_items, is_active)
		VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, current_uses, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.MinPurchaseAmount, nullDecimal(c.MaxDiscountAmount),
		c.MaxUses, c.MaxUsesPerUser, c.ValidFrom, c.ValidUntil, c.AppliesTo, itemsOrEmpty(c.ApplicableItems), c.IsActive).
		Scan(&c.ID, &c.CurrentUses, &c.CreatedAt, &c.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

// Update overwrites the editable fields of a coupon. Usage counters are left alone.
func (r *Repository) Update(ctx context.Context, c *models.Coupon) error {
	const q = `UPDATE coupons SET code = $1, description = NULLIF($2,''), discount_type = $3, discount_value = $4,
		min_purchase_amount = $5, max_discount_amount = $6, max_uses = $7, max_uses_per_user = $8,
		valid_from = $9, valid_until = $10, applies_to = $11, applicable_items = $12, is_active = $13, updated_at = NOW()
		WHERE id = $14
		RETURNING current_uses, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.MinPurchaseAmount, nullDecimal(c.MaxDiscountAmount),
		c.MaxUses, c.MaxUsesPerUser, c.ValidFrom, c.ValidUntil, c.AppliesTo, itemsOrEmpty(c.ApplicableItems), c.IsActive, c.ID).
		Scan(&c.CurrentUses, &c.CreatedAt, &c.UpdatedAt)
	switch {
	case database.IsNoRows(err):
		return ErrNotFound
	case database.IsUniqueViolation(err):
		return ErrDuplicateCode
	}
	return err
}

// Delete removes a coupon.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUserUsages returns how many times the user has redeemed the coupon.
func (r *Repository) CountUserUsages(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2`, couponID, userID).Scan(&n)
	return n, err
}

// RecordUsage writes the usage ledger row and bumps current_uses in one
// transaction. The ledger is unique per (coupon, order), so replaying the
// same order is a no-op; the counter only moves while below max_uses.
// Returns whether a new usage was recorded and whether the counter moved.
func (r *Repository) RecordUsage(ctx context.Context, u *models.CouponUsage) (recorded, counted bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertQ = `INSERT INTO coupon_usages (coupon_id, user_id, order_ref, discount_amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (coupon_id, order_ref) DO NOTHING
		RETURNING id, used_at`
	err = tx.QueryRow(ctx, insertQ, u.CouponID, u.UserID, u.OrderRef, u.DiscountAmount).Scan(&u.ID, &u.UsedAt)
	if database.IsNoRows(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("insert usage: %w", err)
	}

	const bumpQ = `UPDATE coupons SET current_uses = current_uses + 1, updated_at = NOW()
		WHERE id = $1 AND (max_uses IS NULL OR current_uses < max_uses)`
	tag, err := tx.Exec(ctx, bumpQ, u.CouponID)
	if err != nil {
		return false, false, fmt.Errorf("increment uses: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, false, fmt.Errorf("commit: %w", err)
	}
	return true, tag.RowsAffected() == 1, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func itemsOrEmpty(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
