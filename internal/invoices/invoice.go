// Package invoices numbers, renders and archives PDF invoices for paid
// registrations and purchases.
package invoices

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aura-webinar/storefront/internal/models"
)

// Seller is printed in the invoice header.
type Seller struct {
	Name    string
	Address string
	Email   string
}

// Invoice is everything printed on one invoice.
type Invoice struct {
	Number    string
	IssuedAt  time.Time
	Seller    Seller
	Customer  string
	Email     string
	Phone     string
	Kind      string
	ItemTitle string
	OrderRef  string
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	Currency  string
}

// NumberFor builds <PREFIX>-<YYYYMM>-<first 8 of id>.
func NumberFor(prefix string, id uuid.UUID, at time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return strings.ToUpper(prefix) + "-" + at.UTC().Format("200601") + "-" + short
}

// Invoiceable reports whether the order may be invoiced: completed and paid.
func Invoiceable(o *models.Order) bool {
	return o.Status == models.PaymentStatusCompleted && o.Amount.IsPositive()
}

// FromOrder maps an order onto an invoice.
func FromOrder(o *models.Order, number string, seller Seller, currency string) Invoice {
	issued := o.CreatedAt
	if o.CompletedAt != nil {
		issued = *o.CompletedAt
	}
	ref := o.PaymentID
	if ref == "" {
		ref = o.ID.String()
	}
	return Invoice{
		Number:    number,
		IssuedAt:  issued,
		Seller:    seller,
		Customer:  o.CustomerName,
		Email:     o.CustomerEmail,
		Phone:     o.CustomerPhone,
		Kind:      o.Kind,
		ItemTitle: o.ItemTitle,
		OrderRef:  ref,
		Subtotal:  o.Amount.Add(o.DiscountAmount),
		Discount:  o.DiscountAmount,
		Total:     o.Amount,
		Currency:  currency,
	}
}
