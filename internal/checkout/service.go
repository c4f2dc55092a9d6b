// Package checkout turns a user's intent to register for a webinar or buy a
// service into a registration/purchase record and, when money is due, a
// gateway charge session.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/coupons"
	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/internal/payments/gateway"
	"github.com/aura-webinar/storefront/internal/purchases"
	"github.com/aura-webinar/storefront/internal/registrations"
	"github.com/aura-webinar/storefront/internal/services"
	"github.com/aura-webinar/storefront/internal/webinars"
	"github.com/aura-webinar/storefront/pkg/errs"
)

var (
	ErrAlreadyRegistered = errs.WithKind(errs.Validation, "You are already registered for this webinar")
	ErrAlreadyPurchased  = errs.WithKind(errs.Validation, "You have already purchased this service")
	ErrSoldOut           = errs.WithKind(errs.Validation, "This webinar is fully booked")
	ErrNotOpen           = errs.WithKind(errs.Validation, "This webinar is not open for registration")
)

// WebinarStore loads webinars.
type WebinarStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error)
}

// ServiceStore loads services.
type ServiceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// RegistrationStore persists webinar registrations.
type RegistrationStore interface {
	LatestForUser(ctx context.Context, userID, webinarID uuid.UUID) (*models.Registration, error)
	Create(ctx context.Context, r *models.Registration) error
}

// PurchaseStore persists service purchases.
type PurchaseStore interface {
	LatestForUser(ctx context.Context, userID, serviceID uuid.UUID) (*models.Purchase, error)
	Create(ctx context.Context, p *models.Purchase) error
}

// OrderStore reads the unified order view and fails orders.
type OrderStore interface {
	Get(ctx context.Context, kind string, id uuid.UUID) (*models.Order, error)
	MarkFailed(ctx context.Context, kind string, id uuid.UUID) (bool, error)
}

// CouponValidator prices a coupon for the caller.
type CouponValidator interface {
	Validate(ctx context.Context, userID *uuid.UUID, in coupons.Input) (*coupons.Quote, error)
}

// Fulfiller runs the completion effects of an order.
type Fulfiller interface {
	Fulfill(ctx context.Context, o *models.Order)
}

// Deps wires a Service.
type Deps struct {
	Webinars      WebinarStore
	Services      ServiceStore
	Registrations RegistrationStore
	Purchases     PurchaseStore
	Orders        OrderStore
	Coupons       CouponValidator
	Gateway       gateway.Client
	Fulfiller     Fulfiller
	Currency      string
	ReturnURL     string
	NotifyURL     string
	Logger        *zap.Logger
}

// Service runs checkouts.
type Service struct {
	d      Deps
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a checkout service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{d: d, now: time.Now, logger: d.Logger}
}

// Request is what the buyer sends.
type Request struct {
	CouponCode string
	Phone      string
	Notes      string
}

// Result is returned to the client after checkout. OrderID and
// PaymentSessionID are empty when nothing is due.
type Result struct {
	Kind             string          `json:"kind"`
	RecordID         uuid.UUID       `json:"record_id"`
	Status           string          `json:"status"`
	OrderID          string          `json:"order_id,omitempty"`
	PaymentSessionID string          `json:"payment_session_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	Currency         string          `json:"currency"`
}

// NewOrderID returns a gateway order id of the form ORD_<kind>_<unix>_<rand>.
func NewOrderID(kind string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD_%s_%d_%s", kind, now.Unix(), suffix)
}

// pricing is the outcome of applying an optional coupon to a price.
type pricing struct {
	amount   decimal.Decimal
	discount decimal.Decimal
	couponID *uuid.UUID
	status   string
	orderID  string
}

func (s *Service) price(ctx context.Context, userID uuid.UUID, kind string, itemID uuid.UUID, listPrice decimal.Decimal, code string) (*pricing, error) {
	p := &pricing{amount: listPrice, discount: decimal.Zero}
	if strings.TrimSpace(code) != "" && listPrice.IsPositive() {
		q, err := s.d.Coupons.Validate(ctx, &userID, coupons.Input{
			Code:     code,
			ItemType: kind,
			ItemID:   &itemID,
			Amount:   &listPrice,
		})
		if err != nil {
			return nil, err
		}
		p.discount = q.DiscountAmount
		p.amount = listPrice.Sub(q.DiscountAmount)
		if q.FinalAmount != nil {
			p.amount = *q.FinalAmount
		}
		id := q.Coupon.ID
		p.couponID = &id
	}

	switch {
	case !listPrice.IsPositive():
		p.status = models.PaymentStatusFree
		p.amount = decimal.Zero
	case !p.amount.IsPositive():
		p.status = models.PaymentStatusCompleted
		p.amount = decimal.Zero
	default:
		p.status = models.PaymentStatusPending
		p.orderID = NewOrderID(kind, s.now())
	}
	return p, nil
}

// RegisterWebinar books a seat in a published webinar for userID.
func (s *Service) RegisterWebinar(ctx context.Context, userID, webinarID uuid.UUID, req Request) (*Result, error) {
	w, err := s.d.Webinars.GetByID(ctx, webinarID)
	if err != nil {
		return nil, err
	}
	switch w.Status {
	case models.WebinarStatusPublished:
	case models.WebinarStatusDraft:
		return nil, webinars.ErrNotFound
	default:
		return nil, ErrNotOpen
	}

	existing, err := s.d.Registrations.LatestForUser(ctx, userID, webinarID)
	if err != nil && !errors.Is(err, registrations.ErrNotFound) {
		return nil, errs.Wrap(err, "load registration")
	}
	if existing != nil && models.IsPaidStatus(existing.PaymentStatus) {
		return nil, ErrAlreadyRegistered
	}
	if w.AvailableSlots <= 0 {
		return nil, ErrSoldOut
	}

	p, err := s.price(ctx, userID, models.ItemTypeWebinar, webinarID, w.Price, req.CouponCode)
	if err != nil {
		return nil, err
	}

	reg := &models.Registration{
		UserID:         userID,
		WebinarID:      webinarID,
		AmountPaid:     p.amount,
		DiscountAmount: p.discount,
		CouponID:       p.couponID,
		PaymentStatus:  p.status,
		PaymentID:      p.orderID,
		Phone:          strings.TrimSpace(req.Phone),
	}
	// Each attempt gets its own row: an earlier gateway order can still be
	// paid and must keep resolving to a record.
	if err := s.d.Registrations.Create(ctx, reg); err != nil {
		return nil, errs.Wrap(err, "create registration")
	}

	return s.settle(ctx, models.ItemTypeWebinar, reg.ID, p, w.Title)
}

// PurchaseService buys an active service for userID.
func (s *Service) PurchaseService(ctx context.Context, userID, serviceID uuid.UUID, req Request) (*Result, error) {
	svc, err := s.d.Services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, services.ErrNotFound
	}

	existing, err := s.d.Purchases.LatestForUser(ctx, userID, serviceID)
	if err != nil && !errors.Is(err, purchases.ErrNotFound) {
		return nil, errs.Wrap(err, "load purchase")
	}
	if existing != nil && models.IsPaidStatus(existing.PaymentStatus) {
		return nil, ErrAlreadyPurchased
	}

	p, err := s.price(ctx, userID, models.ItemTypeService, serviceID, svc.Price, req.CouponCode)
	if err != nil {
		return nil, err
	}

	pur := &models.Purchase{
		UserID:         userID,
		ServiceID:      serviceID,
		AmountPaid:     p.amount,
		DiscountAmount: p.discount,
		CouponID:       p.couponID,
		PaymentStatus:  p.status,
		PaymentID:      p.orderID,
		Phone:          strings.TrimSpace(req.Phone),
		Notes:          strings.TrimSpace(req.Notes),
	}
	if err := s.d.Purchases.Create(ctx, pur); err != nil {
		return nil, errs.Wrap(err, "create purchase")
	}

	return s.settle(ctx, models.ItemTypeService, pur.ID, p, svc.Title)
}

// settle finishes a saved record: zero-amount orders are fulfilled on the
// spot, the rest get a gateway session. A gateway failure fails the record.
func (s *Service) settle(ctx context.Context, kind string, recordID uuid.UUID, p *pricing, title string) (*Result, error) {
	res := &Result{
		Kind:           kind,
		RecordID:       recordID,
		Status:         p.status,
		OrderID:        p.orderID,
		Amount:         p.amount,
		DiscountAmount: p.discount,
		Currency:       s.d.Currency,
	}
	log := s.logger.With(zap.String("kind", kind), zap.String("record_id", recordID.String()))

	o, err := s.d.Orders.Get(ctx, kind, recordID)
	if err != nil {
		return nil, errs.Wrap(err, "load order")
	}

	if p.status != models.PaymentStatusPending {
		s.d.Fulfiller.Fulfill(ctx, o)
		log.Info("zero-amount order confirmed", zap.String("status", p.status))
		return res, nil
	}

	sess, err := s.d.Gateway.CreateOrder(ctx, gateway.OrderRequest{
		OrderID:  p.orderID,
		Amount:   p.amount,
		Currency: s.d.Currency,
		Customer: gateway.Customer{
			ID:    o.UserID.String(),
			Email: o.CustomerEmail,
			Phone: o.CustomerPhone,
			Name:  o.CustomerName,
		},
		ReturnURL: s.d.ReturnURL,
		NotifyURL: s.d.NotifyURL,
		Note:      title,
	})
	if err != nil {
		if _, ferr := s.d.Orders.MarkFailed(ctx, kind, recordID); ferr != nil {
			log.Error("mark order failed after gateway error", zap.Error(ferr))
		}
		log.Error("gateway create order failed", zap.String("order_id", p.orderID), zap.Error(err))
		if errs.KindOf(err) == nil {
			err = errs.Mark(err, errs.Upstream)
		}
		return nil, err
	}
	res.PaymentSessionID = sess.PaymentSessionID
	log.Info("payment session opened", zap.String("order_id", p.orderID), zap.String("amount", p.amount.StringFixed(2)))
	return res, nil
}
