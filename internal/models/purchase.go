package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is a user's purchase of a service.
type Purchase struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	ServiceID      uuid.UUID       `json:"service_id"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CouponID       *uuid.UUID      `json:"coupon_id,omitempty"`
	PaymentStatus  string          `json:"payment_status"`
	PaymentID      string          `json:"payment_id,omitempty"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ServiceBrief is the service part of a joined purchase row.
type ServiceBrief struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
	ImageURL string    `json:"image_url,omitempty"`
}

// PurchaseWithService is a purchase joined with its service.
type PurchaseWithService struct {
	Purchase
	Service ServiceBrief `json:"service"`
}

// PurchaseWithUser is a purchase joined with its owner (admin views).
type PurchaseWithUser struct {
	Purchase
	User UserBrief `json:"user"`
}
