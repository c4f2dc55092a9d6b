// Package gateway talks to the hosted payment gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aura-webinar/storefront/pkg/errs"
)

// Gateway order statuses.
const (
	OrderActive     = "ACTIVE"
	OrderPaid       = "PAID"
	OrderExpired    = "EXPIRED"
	OrderTerminated = "TERMINATED"
)

// Gateway payment statuses.
const (
	PaymentSuccess     = "SUCCESS"
	PaymentFailed      = "FAILED"
	PaymentPending     = "PENDING"
	PaymentUserDropped = "USER_DROPPED"
	PaymentCancelled   = "CANCELLED"
)

// Customer identifies the payer to the gateway.
type Customer struct {
	ID    string
	Email string
	Phone string
	Name  string
}

// OrderRequest opens a charge session.
type OrderRequest struct {
	OrderID   string
	Amount    decimal.Decimal
	Currency  string
	Customer  Customer
	ReturnURL string
	NotifyURL string
	Note      string
}

// OrderSession is what the checkout page needs to start paying.
type OrderSession struct {
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"cf_order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	Status           string `json:"order_status"`
}

// Order is the gateway-side state of an order.
type Order struct {
	OrderID string          `json:"order_id"`
	Status  string          `json:"order_status"`
	Amount  decimal.Decimal `json:"order_amount"`
}

// Payment is one payment attempt against an order.
type Payment struct {
	GatewayPaymentID PaymentRef      `json:"cf_payment_id"`
	Status           string          `json:"payment_status"`
	Amount           decimal.Decimal `json:"payment_amount"`
	Message          string          `json:"payment_message"`
}

// PaymentRef is the gateway's payment id. The API sends it as a number in
// some responses and as a string in others.
type PaymentRef string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (r *PaymentRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*r = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = PaymentRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("cf_payment_id: %w", err)
	}
	*r = PaymentRef(n.String())
	return nil
}

// Client is the gateway API used by checkout and reconciliation.
type Client interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderSession, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	GetPayments(ctx context.Context, orderID string) ([]Payment, error)
}

// APIError is a non-2xx gateway response. Its message is safe to show.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment gateway error (%d)", e.StatusCode)
	}
	return e.Message
}

func upstream(err error) error {
	return errs.Mark(err, errs.Upstream)
}

// Outcome summarizes an order's gateway state for reconciliation.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomePaid
	OutcomeFailed
)

// Resolve decides the outcome from the order status and its payments. A
// paid order or any successful payment wins; a dead order or a latest
// attempt that failed means failure.
func Resolve(order *Order, payments []Payment) Outcome {
	if order != nil && order.Status == OrderPaid {
		return OutcomePaid
	}
	for _, p := range payments {
		if p.Status == PaymentSuccess {
			return OutcomePaid
		}
	}
	if order != nil && (order.Status == OrderExpired || order.Status == OrderTerminated) {
		return OutcomeFailed
	}
	if len(payments) > 0 {
		switch payments[0].Status {
		case PaymentFailed, PaymentUserDropped, PaymentCancelled:
			return OutcomeFailed
		}
	}
	return OutcomePending
}
