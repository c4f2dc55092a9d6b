package payments

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/internal/orders"
	"github.com/aura-webinar/storefront/internal/payments/gateway"
	"github.com/aura-webinar/storefront/pkg/queue"
)

type fakeOrders struct {
	mu     sync.Mutex
	byRef  map[string]*models.Order
	failed int
}

func newFakeOrders(list ...*models.Order) *fakeOrders {
	f := &fakeOrders{byRef: map[string]*models.Order{}}
	for _, o := range list {
		f.byRef[o.PaymentID] = o
	}
	return f
}

func (f *fakeOrders) find(kind string, id uuid.UUID) *models.Order {
	for _, o := range f.byRef {
		if o.Kind == kind && o.ID == id {
			return o
		}
	}
	return nil
}

func (f *fakeOrders) GetByPaymentID(_ context.Context, ref string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byRef[ref]
	if !ok {
		return nil, orders.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) MarkCompleted(_ context.Context, kind string, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.find(kind, id)
	if o == nil || (o.Status != models.PaymentStatusPending && o.Status != models.PaymentStatusFailed) {
		return false, nil
	}
	o.Status = models.PaymentStatusCompleted
	return true, nil
}

func (f *fakeOrders) MarkFailed(_ context.Context, kind string, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.find(kind, id)
	if o == nil || o.Status != models.PaymentStatusPending {
		return false, nil
	}
	o.Status = models.PaymentStatusFailed
	f.failed++
	return true, nil
}

func (f *fakeOrders) status(ref string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byRef[ref].Status
}

type fakeGateway struct {
	order    gateway.Order
	payments []gateway.Payment
	err      error
	calls    int
}

func (g *fakeGateway) CreateOrder(context.Context, gateway.OrderRequest) (*gateway.OrderSession, error) {
	return nil, nil
}

func (g *fakeGateway) GetOrder(_ context.Context, id string) (*gateway.Order, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	o := g.order
	o.OrderID = id
	return &o, nil
}

func (g *fakeGateway) GetPayments(context.Context, string) ([]gateway.Payment, error) {
	return g.payments, nil
}

type fakeWebinars struct {
	mu         sync.Mutex
	available  int
	decrements int
}

func (w *fakeWebinars) GetByID(_ context.Context, id uuid.UUID) (*models.Webinar, error) {
	return &models.Webinar{ID: id, Title: "Intro to Go", StartsAt: time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC)}, nil
}

func (w *fakeWebinars) DecrementSlot(context.Context, uuid.UUID) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.available <= 0 {
		return false, nil
	}
	w.available--
	w.decrements++
	return true, nil
}

type fakeServices struct{}

func (fakeServices) GetByID(_ context.Context, id uuid.UUID) (*models.Service, error) {
	return &models.Service{ID: id, Title: "Resume review"}, nil
}

type couponCall struct {
	couponID uuid.UUID
	orderRef string
	discount decimal.Decimal
}

type fakeCoupons struct {
	mu    sync.Mutex
	calls []couponCall
}

func (c *fakeCoupons) RecordUsage(_ context.Context, couponID, _ uuid.UUID, orderRef string, discount decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, couponCall{couponID, orderRef, discount})
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []queue.EmailPayload
}

func (m *fakeMailer) Dispatch(_ context.Context, p queue.EmailPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, p)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *fakePublisher) Publish(_ context.Context, _, key string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type harness struct {
	orders   *fakeOrders
	gateway  *fakeGateway
	webinars *fakeWebinars
	coupons  *fakeCoupons
	mailer   *fakeMailer
	events   *fakePublisher
	rec      *Reconciler
}

func newHarness(list ...*models.Order) *harness {
	h := &harness{
		orders:   newFakeOrders(list...),
		gateway:  &fakeGateway{},
		webinars: &fakeWebinars{available: 10},
		coupons:  &fakeCoupons{},
		mailer:   &fakeMailer{},
		events:   &fakePublisher{},
	}
	h.rec = NewReconciler(Deps{
		Orders:   h.orders,
		Gateway:  h.gateway,
		Webinars: h.webinars,
		Services: fakeServices{},
		Coupons:  h.coupons,
		Mailer:   h.mailer,
		Events:   h.events,
		Currency: "INR",
	})
	return h
}

func pendingWebinarOrder(userID uuid.UUID) *models.Order {
	coupon := uuid.New()
	return &models.Order{
		ID:             uuid.New(),
		Kind:           models.ItemTypeWebinar,
		UserID:         userID,
		ItemID:         uuid.New(),
		ItemTitle:      "Intro to Go",
		Amount:         decimal.RequireFromString("450.00"),
		DiscountAmount: decimal.RequireFromString("50.00"),
		CouponID:       &coupon,
		Status:         models.PaymentStatusPending,
		PaymentID:      "ORD_webinar_1760000000_ab12cd",
		CustomerEmail:  "asha@example.com",
		CustomerName:   "Asha",
	}
}
