package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WebinarStatus values.
const (
	WebinarStatusDraft     = "draft"
	WebinarStatusPublished = "published"
	WebinarStatusCompleted = "completed"
	WebinarStatusCancelled = "cancelled"
)

// Webinar is a scheduled session with fixed capacity.
type Webinar struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	InstructorName string          `json:"instructor_name,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	StartsAt       time.Time       `json:"starts_at"`
	EndsAt         *time.Time      `json:"ends_at,omitempty"`
	Price          decimal.Decimal `json:"price"`
	TotalSlots     int             `json:"total_slots"`
	AvailableSlots int             `json:"available_slots"`
	Status         string          `json:"status"`
	IsFeatured     bool            `json:"is_featured"`
	MeetingLink    string          `json:"meeting_link,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsFree reports whether the webinar costs nothing.
func (w *Webinar) IsFree() bool {
	return !w.Price.IsPositive()
}

// SlotResync is the outcome of recounting one webinar's seats.
type SlotResync struct {
	WebinarID      uuid.UUID `json:"webinar_id"`
	Title          string    `json:"title"`
	TotalSlots     int       `json:"total_slots"`
	Booked         int       `json:"booked"`
	PreviousSlots  int       `json:"previous_available_slots"`
	AvailableSlots int       `json:"available_slots"`
}

// Changed reports whether the recount corrected drift.
func (s SlotResync) Changed() bool {
	return s.PreviousSlots != s.AvailableSlots
}
