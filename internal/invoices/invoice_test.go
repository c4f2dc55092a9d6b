package invoices

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/storefront/internal/models"
)

func TestNumberFor(t *testing.T) {
	id := uuid.MustParse("3f2a9c1e-0b4d-4e8f-9a7b-123456789abc")
	at := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "AURA-202603-3F2A9C1E", NumberFor("aura", id, at))
}

func TestInvoiceable(t *testing.T) {
	tests := []struct {
		name   string
		status string
		amount string
		want   bool
	}{
		{"completed paid", models.PaymentStatusCompleted, "499", true},
		{"completed zero", models.PaymentStatusCompleted, "0", false},
		{"free", models.PaymentStatusFree, "0", false},
		{"pending", models.PaymentStatusPending, "499", false},
		{"failed", models.PaymentStatusFailed, "499", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &models.Order{Status: tt.status, Amount: decimal.RequireFromString(tt.amount)}
			assert.Equal(t, tt.want, Invoiceable(o))
		})
	}
}

func TestFromOrder_SubtotalIncludesDiscount(t *testing.T) {
	done := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	o := &models.Order{
		ID:             uuid.New(),
		Kind:           models.ItemTypeWebinar,
		ItemTitle:      "Go in production",
		Amount:         decimal.RequireFromString("399"),
		DiscountAmount: decimal.RequireFromString("100"),
		PaymentID:      "ORD_webinar_1_abcd",
		CompletedAt:    &done,
	}
	inv := FromOrder(o, "INV-202605-ABCDEF01", Seller{Name: "Aura"}, "INR")
	assert.Equal(t, "499", inv.Subtotal.String())
	assert.Equal(t, "ORD_webinar_1_abcd", inv.OrderRef)
	assert.Equal(t, done, inv.IssuedAt)
}

func TestRender_ProducesPDF(t *testing.T) {
	inv := Invoice{
		Number:    "INV-202605-ABCDEF01",
		IssuedAt:  time.Now(),
		Seller:    Seller{Name: "Aura Webinars", Address: "12 MG Road\nBengaluru", Email: "help@aura.test"},
		Customer:  "Zoë Rao",
		Email:     "zoe@example.com",
		Kind:      models.ItemTypeService,
		ItemTitle: "Resume review",
		Subtotal:  decimal.RequireFromString("499"),
		Discount:  decimal.RequireFromString("49.9"),
		Total:     decimal.RequireFromString("449.1"),
		Currency:  "INR",
	}
	pdf, err := Render(inv)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Equal(t, "INR 449.10", money("INR", inv.Total))
}
