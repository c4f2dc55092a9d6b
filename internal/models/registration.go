package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Registration is a user's seat in a webinar.
type Registration struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	WebinarID      uuid.UUID       `json:"webinar_id"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CouponID       *uuid.UUID      `json:"coupon_id,omitempty"`
	PaymentStatus  string          `json:"payment_status"`
	PaymentID      string          `json:"payment_id,omitempty"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// WebinarBrief is the webinar part of a joined registration row.
type WebinarBrief struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	StartsAt    time.Time  `json:"starts_at"`
	MeetingLink string     `json:"meeting_link,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

// RegistrationWithWebinar is a registration joined with its webinar.
type RegistrationWithWebinar struct {
	Registration
	Webinar WebinarBrief `json:"webinar"`
}

// RegistrationWithUser is a registration joined with its owner (admin views).
type RegistrationWithUser struct {
	Registration
	User UserBrief `json:"user"`
}

// RegistrantContact is who gets webinar emails.
type RegistrantContact struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	UserID         uuid.UUID `json:"user_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
}
