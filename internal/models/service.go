package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a purchasable offering (consultation, review, course...).
type Service struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Features     []string        `json:"features,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	Price        decimal.Decimal `json:"price"`
	IsActive     bool            `json:"is_active"`
	IsFeatured   bool            `json:"is_featured"`
	DisplayOrder int             `json:"display_order"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsFree reports whether the service costs nothing.
func (s *Service) IsFree() bool {
	return !s.Price.IsPositive()
}
