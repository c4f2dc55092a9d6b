package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType is percentage or fixed.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// AppliesTo restricts a coupon to an item type.
const (
	AppliesToAll     = "all"
	AppliesToWebinar = "webinar"
	AppliesToService = "service"
)

// Coupon is a discount code. Code is stored upper-cased.
type Coupon struct {
	ID                uuid.UUID        `json:"id"`
	Code              string           `json:"code"`
	Description       string           `json:"description,omitempty"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinPurchaseAmount decimal.Decimal  `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MaxUses           *int             `json:"max_uses,omitempty"`
	CurrentUses       int              `json:"current_uses"`
	MaxUsesPerUser    *int             `json:"max_uses_per_user,omitempty"`
	ValidFrom         *time.Time       `json:"valid_from,omitempty"`
	ValidUntil        *time.Time       `json:"valid_until,omitempty"`
	AppliesTo         string           `json:"applies_to"`
	ApplicableItems   []uuid.UUID      `json:"applicable_items,omitempty"`
	IsActive          bool             `json:"is_active"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// CouponSummary is the client-facing part of a coupon returned by validation.
type CouponSummary struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Description   string          `json:"description,omitempty"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// Summary returns the public summary of the coupon.
func (c *Coupon) Summary() CouponSummary {
	return CouponSummary{
		ID:            c.ID,
		Code:          c.Code,
		Description:   c.Description,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
	}
}

// CouponUsage is one redemption of a coupon, unique per coupon and order.
type CouponUsage struct {
	ID             uuid.UUID       `json:"id"`
	CouponID       uuid.UUID       `json:"coupon_id"`
	UserID         uuid.UUID       `json:"user_id"`
	OrderRef       string          `json:"order_ref"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UsedAt         time.Time       `json:"used_at"`
}
