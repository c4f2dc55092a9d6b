package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// placeholderPhone is sent when the customer has no phone on file; the
// gateway rejects orders without one.
const placeholderPhone = "9999999999"

// Config holds gateway credentials.
type Config struct {
	AppID      string
	SecretKey  string
	APIVersion string
	BaseURL    string
	Timeout    time.Duration
}

// CashfreeClient implements Client over the Cashfree PG REST API.
type CashfreeClient struct {
	cfg    Config
	client *http.Client
}

// NewCashfreeClient creates a gateway client.
func NewCashfreeClient(cfg Config) *CashfreeClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &CashfreeClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type createOrderBody struct {
	OrderID       string       `json:"order_id"`
	OrderAmount   float64      `json:"order_amount"`
	OrderCurrency string       `json:"order_currency"`
	Customer      customerBody `json:"customer_details"`
	Meta          orderMeta    `json:"order_meta"`
	Note          string       `json:"order_note,omitempty"`
}

type customerBody struct {
	ID    string `json:"customer_id"`
	Email string `json:"customer_email,omitempty"`
	Phone string `json:"customer_phone"`
	Name  string `json:"customer_name,omitempty"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

// CreateOrder opens a charge session.
func (c *CashfreeClient) CreateOrder(ctx context.Context, req OrderRequest) (*OrderSession, error) {
	phone := req.Customer.Phone
	if phone == "" {
		phone = placeholderPhone
	}
	body := createOrderBody{
		OrderID:       req.OrderID,
		OrderAmount:   req.Amount.Round(2).InexactFloat64(),
		OrderCurrency: req.Currency,
		Customer: customerBody{
			ID:    req.Customer.ID,
			Email: req.Customer.Email,
			Phone: phone,
			Name:  req.Customer.Name,
		},
		Meta: orderMeta{ReturnURL: req.ReturnURL, NotifyURL: req.NotifyURL},
		Note: req.Note,
	}
	var out OrderSession
	if err := c.do(ctx, http.MethodPost, "/orders", body, &out); err != nil {
		return nil, err
	}
	if out.PaymentSessionID == "" {
		return nil, upstream(&APIError{StatusCode: http.StatusOK, Message: "payment gateway returned no session"})
	}
	return &out, nil
}

// GetOrder fetches the order status.
func (c *CashfreeClient) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPayments lists payment attempts for the order, newest first.
func (c *CashfreeClient) GetPayments(ctx context.Context, orderID string) ([]Payment, error) {
	var out []Payment
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/payments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CashfreeClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.cfg.AppID)
	req.Header.Set("x-client-secret", c.cfg.SecretKey)
	req.Header.Set("x-api-version", c.cfg.APIVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return upstream(fmt.Errorf("payment gateway unreachable: %w", err))
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return upstream(fmt.Errorf("read gateway response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(respBody, &eb) == nil {
			apiErr.Code = eb.Code
			apiErr.Message = eb.Message
		}
		return upstream(apiErr)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return upstream(fmt.Errorf("decode gateway response: %w", err))
	}
	return nil
}
