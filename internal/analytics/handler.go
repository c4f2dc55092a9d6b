// Package analytics serves the admin dashboard totals.
package analytics

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/pkg/response"
)

// Revenue is money collected from completed orders, by kind.
type Revenue struct {
	Webinars decimal.Decimal `json:"webinars"`
	Services decimal.Decimal `json:"services"`
	Total    decimal.Decimal `json:"total"`
}

// Summary is the JSON shape of GET /admin/stats.
type Summary struct {
	Users                  int             `json:"users"`
	Webinars               int             `json:"webinars"`
	PublishedWebinars      int             `json:"published_webinars"`
	Services               int             `json:"services"`
	Registrations          int             `json:"registrations"`
	ConfirmedRegistrations int             `json:"confirmed_registrations"`
	Purchases              int             `json:"purchases"`
	ConfirmedPurchases     int             `json:"confirmed_purchases"`
	Revenue                Revenue         `json:"revenue"`
	DiscountsGiven         decimal.Decimal `json:"discounts_given"`
	Leads                  int             `json:"leads"`
	NewLeads               int             `json:"new_leads"`
	Currency               string          `json:"currency"`
	ConversionRate         *float64        `json:"conversion_rate,omitempty"`
}

// Source produces the dashboard summary.
type Source interface {
	Summary(ctx context.Context) (*Summary, error)
}

// Handler handles GET /admin/stats.
type Handler struct {
	src      Source
	currency string
	logger   *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(src Source, currency string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{src: src, currency: currency, logger: logger}
}

// Stats handles GET /admin/stats.
func (h *Handler) Stats(c *gin.Context) {
	s, err := h.src.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("load stats failed", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}
	s.Currency = h.currency
	response.OK(c, s)
}
