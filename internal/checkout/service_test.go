package checkout

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/storefront/internal/coupons"
	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/internal/payments/gateway"
	"github.com/aura-webinar/storefront/internal/purchases"
	"github.com/aura-webinar/storefront/internal/registrations"
	"github.com/aura-webinar/storefront/pkg/errs"
)

type memWebinars map[uuid.UUID]*models.Webinar

func (m memWebinars) GetByID(_ context.Context, id uuid.UUID) (*models.Webinar, error) {
	w, ok := m[id]
	if !ok {
		return nil, errs.WithKind(errs.NotFound, "webinar not found")
	}
	return w, nil
}

type memServices map[uuid.UUID]*models.Service

func (m memServices) GetByID(_ context.Context, id uuid.UUID) (*models.Service, error) {
	s, ok := m[id]
	if !ok {
		return nil, errs.WithKind(errs.NotFound, "service not found")
	}
	return s, nil
}

type memRegistrations struct {
	rows []*models.Registration
}

func (m *memRegistrations) LatestForUser(_ context.Context, userID, webinarID uuid.UUID) (*models.Registration, error) {
	var best *models.Registration
	for _, r := range m.rows {
		if r.UserID != userID || r.WebinarID != webinarID {
			continue
		}
		if best == nil || models.IsPaidStatus(r.PaymentStatus) {
			best = r
		}
	}
	if best == nil {
		return nil, registrations.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memRegistrations) Create(_ context.Context, r *models.Registration) error {
	r.ID = uuid.New()
	cp := *r
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memRegistrations) byPaymentID(id string) *models.Registration {
	for _, r := range m.rows {
		if r.PaymentID == id {
			return r
		}
	}
	return nil
}

type memPurchases struct {
	rows []*models.Purchase
}

func (m *memPurchases) LatestForUser(_ context.Context, userID, serviceID uuid.UUID) (*models.Purchase, error) {
	var best *models.Purchase
	for _, p := range m.rows {
		if p.UserID != userID || p.ServiceID != serviceID {
			continue
		}
		if best == nil || models.IsPaidStatus(p.PaymentStatus) {
			best = p
		}
	}
	if best == nil {
		return nil, purchases.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *memPurchases) Create(_ context.Context, p *models.Purchase) error {
	p.ID = uuid.New()
	cp := *p
	m.rows = append(m.rows, &cp)
	return nil
}

type memOrders struct {
	regs   *memRegistrations
	purs   *memPurchases
	failed []uuid.UUID
}

func (m *memOrders) Get(_ context.Context, kind string, id uuid.UUID) (*models.Order, error) {
	if kind == models.ItemTypeWebinar {
		for _, r := range m.regs.rows {
			if r.ID == id {
				return &models.Order{ID: r.ID, Kind: kind, UserID: r.UserID, ItemID: r.WebinarID, Amount: r.AmountPaid,
					DiscountAmount: r.DiscountAmount, CouponID: r.CouponID, Status: r.PaymentStatus, PaymentID: r.PaymentID,
					CustomerEmail: "buyer@example.com", CustomerName: "Buyer"}, nil
			}
		}
	}
	for _, p := range m.purs.rows {
		if p.ID == id {
			return &models.Order{ID: p.ID, Kind: kind, UserID: p.UserID, ItemID: p.ServiceID, Amount: p.AmountPaid,
				Status: p.PaymentStatus, PaymentID: p.PaymentID, CustomerEmail: "buyer@example.com"}, nil
		}
	}
	return nil, errs.WithKind(errs.NotFound, "order not found")
}

func (m *memOrders) MarkFailed(_ context.Context, kind string, id uuid.UUID) (bool, error) {
	m.failed = append(m.failed, id)
	for _, r := range m.regs.rows {
		if r.ID == id {
			r.PaymentStatus = models.PaymentStatusFailed
		}
	}
	return true, nil
}

type stubCoupons struct {
	quote *coupons.Quote
	err   error
	calls int
}

func (s *stubCoupons) Validate(context.Context, *uuid.UUID, coupons.Input) (*coupons.Quote, error) {
	s.calls++
	return s.quote, s.err
}

type stubGateway struct {
	req gateway.OrderRequest
	err error
}

func (g *stubGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (*gateway.OrderSession, error) {
	g.req = req
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.OrderSession{OrderID: req.OrderID, PaymentSessionID: "session_" + req.OrderID}, nil
}

func (g *stubGateway) GetOrder(context.Context, string) (*gateway.Order, error) { return nil, nil }

func (g *stubGateway) GetPayments(context.Context, string) ([]gateway.Payment, error) {
	return nil, nil
}

type recordingFulfiller struct {
	orders []*models.Order
}

func (f *recordingFulfiller) Fulfill(_ context.Context, o *models.Order) {
	f.orders = append(f.orders, o)
}

type fixture struct {
	webinars  memWebinars
	services  memServices
	regs      *memRegistrations
	purs      *memPurchases
	orders    *memOrders
	coupons   *stubCoupons
	gateway   *stubGateway
	fulfilled *recordingFulfiller
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		webinars:  memWebinars{},
		services:  memServices{},
		regs:      &memRegistrations{},
		purs:      &memPurchases{},
		coupons:   &stubCoupons{},
		gateway:   &stubGateway{},
		fulfilled: &recordingFulfiller{},
	}
	f.orders = &memOrders{regs: f.regs, purs: f.purs}
	f.svc = NewService(Deps{
		Webinars:      f.webinars,
		Services:      f.services,
		Registrations: f.regs,
		Purchases:     f.purs,
		Orders:        f.orders,
		Coupons:       f.coupons,
		Gateway:       f.gateway,
		Fulfiller:     f.fulfilled,
		Currency:      "INR",
		ReturnURL:     "https://shop.example.com/payment/status?order_id={order_id}",
	})
	f.svc.now = func() time.Time { return time.Unix(1760000000, 0) }
	return f
}

func (f *fixture) webinar(price string, slots int) uuid.UUID {
	id := uuid.New()
	f.webinars[id] = &models.Webinar{ID: id, Title: "Go in production", Price: decimal.RequireFromString(price),
		TotalSlots: slots, AvailableSlots: slots, Status: models.WebinarStatusPublished}
	return id
}

func TestNewOrderID(t *testing.T) {
	id := NewOrderID("webinar", time.Unix(1760000000, 0))
	assert.Regexp(t, regexp.MustCompile(`^ORD_webinar_1760000000_[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, NewOrderID("webinar", time.Unix(1760000000, 0)))
}

func TestRegister_FreeWebinar(t *testing.T) {
	f := newFixture()
	wid := f.webinar("0", 10)
	user := uuid.New()

	res, err := f.svc.RegisterWebinar(context.Background(), user, wid, Request{CouponCode: "IGNORED"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFree, res.Status)
	assert.Empty(t, res.OrderID)
	assert.Empty(t, res.PaymentSessionID)
	assert.Zero(t, f.coupons.calls, "coupons are not applied to free items")
	require.Len(t, f.fulfilled.orders, 1)
	assert.Equal(t, models.PaymentStatusFree, f.regs.rows[0].PaymentStatus)
	assert.Empty(t, f.gateway.req.OrderID)
}

func TestRegister_DiscountedToZeroIsCompleted(t *testing.T) {
	f := newFixture()
	wid := f.webinar("300", 10)
	final := decimal.Zero
	f.coupons.quote = &coupons.Quote{Coupon: &models.Coupon{ID: uuid.New()}, DiscountAmount: decimal.NewFromInt(300), FinalAmount: &final}

	res, err := f.svc.RegisterWebinar(context.Background(), uuid.New(), wid, Request{CouponCode: "FULL"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, res.Status)
	assert.True(t, res.Amount.IsZero())
	assert.True(t, res.DiscountAmount.Equal(decimal.NewFromInt(300)))
	require.Len(t, f.fulfilled.orders, 1)
	assert.NotNil(t, f.fulfilled.orders[0].CouponID)
}

func TestRegister_PaidOpensSession(t *testing.T) {
	f := newFixture()
	wid := f.webinar("499", 10)
	final := decimal.RequireFromString("449.10")
	couponID := uuid.New()
	f.coupons.quote = &coupons.Quote{Coupon: &models.Coupon{ID: couponID}, DiscountAmount: decimal.RequireFromString("49.90"), FinalAmount: &final}

	res, err := f.svc.RegisterWebinar(context.Background(), uuid.New(), wid, Request{CouponCode: "TENOFF", Phone: " 98765 "})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, res.Status)
	assert.Regexp(t, `^ORD_webinar_1760000000_`, res.OrderID)
	assert.Equal(t, "session_"+res.OrderID, res.PaymentSessionID)
	assert.True(t, res.Amount.Equal(final))
	assert.Empty(t, f.fulfilled.orders)

	row := f.regs.rows[0]
	assert.Equal(t, res.OrderID, row.PaymentID)
	assert.Equal(t, "98765", row.Phone)
	assert.Equal(t, &couponID, row.CouponID)
	assert.True(t, f.gateway.req.Amount.Equal(final))
	assert.Equal(t, "buyer@example.com", f.gateway.req.Customer.Email)
}

func TestRegister_GatewayFailureFailsRecord(t *testing.T) {
	f := newFixture()
	wid := f.webinar("499", 10)
	f.gateway.err = errors.New("order_amount : invalid value")

	_, err := f.svc.RegisterWebinar(context.Background(), uuid.New(), wid, Request{})
	require.Error(t, err)
	assert.Equal(t, errs.Upstream, errs.KindOf(err))
	assert.Equal(t, "order_amount : invalid value", err.Error())
	require.Len(t, f.orders.failed, 1)
	assert.Equal(t, models.PaymentStatusFailed, f.regs.rows[0].PaymentStatus)
}

func TestRegister_RetryKeepsEarlierOrderPayable(t *testing.T) {
	f := newFixture()
	wid := f.webinar("499", 10)
	user := uuid.New()
	ctx := context.Background()

	first, err := f.svc.RegisterWebinar(ctx, user, wid, Request{})
	require.NoError(t, err)
	second, err := f.svc.RegisterWebinar(ctx, user, wid, Request{})
	require.NoError(t, err)

	require.Len(t, f.regs.rows, 2)
	assert.NotEqual(t, first.RecordID, second.RecordID)
	assert.NotEqual(t, first.OrderID, second.OrderID)

	// The buyer pays the first session from an old tab.
	paid := f.regs.byPaymentID(first.OrderID)
	require.NotNil(t, paid, "first order id must still map to a record")
	assert.Equal(t, first.RecordID, paid.ID)
	assert.Equal(t, models.PaymentStatusPending, paid.PaymentStatus)
	paid.PaymentStatus = models.PaymentStatusCompleted

	require.NotNil(t, f.regs.byPaymentID(second.OrderID))
	_, err = f.svc.RegisterWebinar(ctx, user, wid, Request{})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Len(t, f.regs.rows, 2)
}

func TestRegister_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("already registered", func(t *testing.T) {
		f := newFixture()
		wid := f.webinar("0", 10)
		user := uuid.New()
		_, err := f.svc.RegisterWebinar(ctx, user, wid, Request{})
		require.NoError(t, err)
		_, err = f.svc.RegisterWebinar(ctx, user, wid, Request{})
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
		assert.Equal(t, errs.Validation, errs.KindOf(err))
	})

	t.Run("sold out", func(t *testing.T) {
		f := newFixture()
		wid := f.webinar("100", 0)
		_, err := f.svc.RegisterWebinar(ctx, uuid.New(), wid, Request{})
		assert.ErrorIs(t, err, ErrSoldOut)
		assert.Empty(t, f.regs.rows)
	})

	t.Run("draft hidden", func(t *testing.T) {
		f := newFixture()
		wid := f.webinar("100", 5)
		f.webinars[wid].Status = models.WebinarStatusDraft
		_, err := f.svc.RegisterWebinar(ctx, uuid.New(), wid, Request{})
		assert.Equal(t, errs.NotFound, errs.KindOf(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newFixture()
		wid := f.webinar("100", 5)
		f.webinars[wid].Status = models.WebinarStatusCancelled
		_, err := f.svc.RegisterWebinar(ctx, uuid.New(), wid, Request{})
		assert.ErrorIs(t, err, ErrNotOpen)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.RegisterWebinar(ctx, uuid.New(), uuid.New(), Request{})
		assert.Equal(t, errs.NotFound, errs.KindOf(err))
	})

	t.Run("coupon rejected", func(t *testing.T) {
		f := newFixture()
		wid := f.webinar("100", 5)
		f.coupons.err = &coupons.Rejection{Reason: coupons.ReasonExpired, Message: "This coupon has expired"}
		_, err := f.svc.RegisterWebinar(ctx, uuid.New(), wid, Request{CouponCode: "OLD"})
		var rej *coupons.Rejection
		require.ErrorAs(t, err, &rej)
		assert.Equal(t, coupons.ReasonExpired, rej.Reason)
		assert.Empty(t, f.regs.rows)
	})
}

func TestPurchaseService(t *testing.T) {
	f := newFixture()
	sid := uuid.New()
	f.services[sid] = &models.Service{ID: sid, Title: "Resume review", Price: decimal.NewFromInt(999), IsActive: true}
	user := uuid.New()

	res, err := f.svc.PurchaseService(context.Background(), user, sid, Request{Notes: "  PM role  "})
	require.NoError(t, err)
	assert.Equal(t, models.ItemTypeService, res.Kind)
	assert.Regexp(t, `^ORD_service_`, res.OrderID)
	assert.Equal(t, "PM role", f.purs.rows[0].Notes)
	assert.Equal(t, "Resume review", f.gateway.req.Note)

	f.services[sid].IsActive = false
	_, err = f.svc.PurchaseService(context.Background(), uuid.New(), sid, Request{})
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestPurchaseService_AlreadyPurchased(t *testing.T) {
	f := newFixture()
	sid := uuid.New()
	f.services[sid] = &models.Service{ID: sid, Title: "Free call", IsActive: true}
	user := uuid.New()

	res, err := f.svc.PurchaseService(context.Background(), user, sid, Request{})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFree, res.Status)

	_, err = f.svc.PurchaseService(context.Background(), user, sid, Request{})
	assert.ErrorIs(t, err, ErrAlreadyPurchased)
}
