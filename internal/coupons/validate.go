// Package coupons validates discount codes and prices their discounts.
package coupons

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aura-webinar/storefront/internal/models"
)

// Reason is a machine-readable rejection code.
type Reason string

const (
	ReasonNotFound        Reason = "not_found"
	ReasonExpired         Reason = "expired"
	ReasonNotYetValid     Reason = "not_yet_valid"
	ReasonUsageLimit      Reason = "usage_limit_reached"
	ReasonWrongItemType   Reason = "wrong_item_type"
	ReasonItemNotEligible Reason = "item_not_eligible"
	ReasonBelowMinimum    Reason = "below_minimum"
	ReasonPerUserLimit    Reason = "per_user_limit_reached"
)

// Rejection explains why a coupon cannot be applied.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func reject(reason Reason, msg string) *Rejection {
	return &Rejection{Reason: reason, Message: msg}
}

// Input is what the caller wants to apply a coupon to. ItemID and Amount are
// optional; without Amount the call only checks eligibility.
type Input struct {
	Code     string
	ItemType string
	ItemID   *uuid.UUID
	Amount   *decimal.Decimal
}

// Quote is an accepted coupon with its computed discount.
type Quote struct {
	Coupon         *models.Coupon
	DiscountAmount decimal.Decimal
	FinalAmount    *decimal.Decimal
}

// NormalizeCode trims and upper-cases a code the way it is stored.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate runs the eligibility checks in order and stops at the first
// failure. userUses is the caller's prior redemptions of this coupon, nil
// when the caller is anonymous.
func Validate(c *models.Coupon, in Input, now time.Time, userUses *int) (*Quote, *Rejection) {
	if c == nil || !c.IsActive {
		return nil, reject(ReasonNotFound, "Invalid coupon code")
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return nil, reject(ReasonExpired, "This coupon has expired")
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return nil, reject(ReasonNotYetValid, "This coupon is not yet valid")
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return nil, reject(ReasonUsageLimit, "This coupon has reached its usage limit")
	}
	if c.AppliesTo != "" && c.AppliesTo != models.AppliesToAll && c.AppliesTo != in.ItemType {
		return nil, reject(ReasonWrongItemType, "This coupon is only valid for "+c.AppliesTo+"s")
	}
	if len(c.ApplicableItems) > 0 && (in.ItemID == nil || !containsID(c.ApplicableItems, *in.ItemID)) {
		return nil, reject(ReasonItemNotEligible, "This coupon is not valid for this item")
	}
	if in.Amount != nil && in.Amount.LessThan(c.MinPurchaseAmount) {
		return nil, reject(ReasonBelowMinimum, "Minimum purchase amount of "+c.MinPurchaseAmount.StringFixed(2)+" required")
	}
	if c.MaxUsesPerUser != nil && userUses != nil && *userUses >= *c.MaxUsesPerUser {
		return nil, reject(ReasonPerUserLimit, "You have already used this coupon the maximum number of times")
	}

	q := &Quote{Coupon: c, DiscountAmount: decimal.Zero}
	if in.Amount != nil {
		q.DiscountAmount = Discount(c, *in.Amount)
		final := in.Amount.Sub(q.DiscountAmount)
		q.FinalAmount = &final
	}
	return q, nil
}

// Discount prices the coupon against amount. The result is never negative
// and never more than amount.
func Discount(c *models.Coupon, amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch c.DiscountType {
	case models.DiscountPercentage:
		d = amount.Mul(c.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
		if c.MaxDiscountAmount != nil && d.GreaterThan(*c.MaxDiscountAmount) {
			d = *c.MaxDiscountAmount
		}
	case models.DiscountFixed:
		d = c.DiscountValue
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(amount) {
		return amount
	}
	return d
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
