package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/storefront/pkg/errs"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *CashfreeClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewCashfreeClient(Config{AppID: "app", SecretKey: "secret", APIVersion: "2023-08-01", BaseURL: srv.URL + "/"})
}

func TestCreateOrder(t *testing.T) {
	var got createOrderBody
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "app", r.Header.Get("x-client-id"))
		assert.Equal(t, "secret", r.Header.Get("x-client-secret"))
		assert.Equal(t, "2023-08-01", r.Header.Get("x-api-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"order_id":"ORD_webinar_1_x","cf_order_id":"991","payment_session_id":"sess_1","order_status":"ACTIVE"}`))
	})

	sess, err := c.CreateOrder(context.Background(), OrderRequest{
		OrderID:  "ORD_webinar_1_x",
		Amount:   decimal.RequireFromString("499.5"),
		Currency: "INR",
		Customer: Customer{ID: "u1", Email: "a@b.co"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sess_1", sess.PaymentSessionID)
	assert.Equal(t, placeholderPhone, got.Customer.Phone)
	assert.Equal(t, 499.5, got.OrderAmount)
}

func TestCreateOrder_GatewayErrorIsUpstream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"order_amount : invalid value","code":"order_amount_invalid","type":"invalid_request_error"}`))
	})

	_, err := c.CreateOrder(context.Background(), OrderRequest{OrderID: "x", Amount: decimal.NewFromInt(1), Currency: "INR"})
	require.Error(t, err)
	assert.Equal(t, errs.Upstream, errs.KindOf(err))
	assert.Equal(t, "order_amount : invalid value", err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestGetOrderAndPayments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/ORD_1":
			_, _ = w.Write([]byte(`{"order_id":"ORD_1","order_status":"PAID","order_amount":100}`))
		case "/orders/ORD_1/payments":
			_, _ = w.Write([]byte(`[{"cf_payment_id":"p1","payment_status":"SUCCESS","payment_amount":100}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	o, err := c.GetOrder(context.Background(), "ORD_1")
	require.NoError(t, err)
	assert.Equal(t, OrderPaid, o.Status)

	ps, err := c.GetPayments(context.Background(), "ORD_1")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, PaymentSuccess, ps[0].Status)
}

func TestGetPayments_NumericPaymentID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/ORD_2":
			_, _ = w.Write([]byte(`{"order_id":"ORD_2","order_status":"ACTIVE","order_amount":499}`))
		case "/orders/ORD_2/payments":
			_, _ = w.Write([]byte(`[{"cf_payment_id":5114910733,"payment_status":"USER_DROPPED","payment_amount":499}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	o, err := c.GetOrder(context.Background(), "ORD_2")
	require.NoError(t, err)
	ps, err := c.GetPayments(context.Background(), "ORD_2")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, PaymentRef("5114910733"), ps[0].GatewayPaymentID)
	assert.Equal(t, OutcomeFailed, Resolve(o, ps))
}

func TestPaymentRef_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentRef
	}{
		{`{"cf_payment_id":12345}`, "12345"},
		{`{"cf_payment_id":"p1"}`, "p1"},
		{`{"cf_payment_id":null}`, ""},
		{`{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var p Payment
			require.NoError(t, json.Unmarshal([]byte(tt.in), &p))
			assert.Equal(t, tt.want, p.GatewayPaymentID)
		})
	}

	var p Payment
	assert.Error(t, json.Unmarshal([]byte(`{"cf_payment_id":true}`), &p))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		order    *Order
		payments []Payment
		want     Outcome
	}{
		{"paid order", &Order{Status: OrderPaid}, nil, OutcomePaid},
		{"success payment on active order", &Order{Status: OrderActive}, []Payment{{Status: PaymentFailed}, {Status: PaymentSuccess}}, OutcomePaid},
		{"expired order", &Order{Status: OrderExpired}, nil, OutcomeFailed},
		{"latest attempt dropped", &Order{Status: OrderActive}, []Payment{{Status: PaymentUserDropped}}, OutcomeFailed},
		{"still pending", &Order{Status: OrderActive}, []Payment{{Status: PaymentPending}}, OutcomePending},
		{"no attempts", &Order{Status: OrderActive}, nil, OutcomePending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.order, tt.payments))
		})
	}
}
