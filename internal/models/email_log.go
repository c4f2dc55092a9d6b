package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType for transactional mail.
const (
	EmailTypeRegistrationConfirmation = "registration_confirmation"
	EmailTypePurchaseConfirmation     = "purchase_confirmation"
	EmailTypeMeetingLink              = "meeting_link"
	EmailTypePasswordReset            = "password_reset"
	EmailTypeContactAck               = "contact_ack"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
)

// EmailLog records sent transactional emails.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	WebinarID      *uuid.UUID `json:"webinar_id,omitempty"`
	OrderRef       string     `json:"order_ref,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	Attempt        int        `json:"attempt"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
