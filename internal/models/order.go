package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the typed view over a registration or purchase used by payment
// reconciliation and invoicing. Kind tells which table it lives in.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	Kind           string          `json:"kind"`
	UserID         uuid.UUID       `json:"user_id"`
	ItemID         uuid.UUID       `json:"item_id"`
	ItemTitle      string          `json:"item_title"`
	Amount         decimal.Decimal `json:"amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CouponID       *uuid.UUID      `json:"coupon_id,omitempty"`
	Status         string          `json:"status"`
	PaymentID      string          `json:"payment_id"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	CustomerEmail  string          `json:"customer_email"`
	CustomerName   string          `json:"customer_name"`
	CustomerPhone  string          `json:"customer_phone,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
