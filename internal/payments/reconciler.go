// Package payments reconciles gateway payment state with registrations and
// purchases. Completion happens at most once per order no matter how many
// verify calls and webhooks observe it.
package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/internal/notifications"
	"github.com/aura-webinar/storefront/internal/orders"
	"github.com/aura-webinar/storefront/internal/payments/gateway"
	"github.com/aura-webinar/storefront/pkg/errs"
	"github.com/aura-webinar/storefront/pkg/events"
	"github.com/aura-webinar/storefront/pkg/queue"
)

// Webhook event types.
const (
	EventPaymentSuccess     = "PAYMENT_SUCCESS_WEBHOOK"
	EventPaymentFailed      = "PAYMENT_FAILED_WEBHOOK"
	EventPaymentUserDropped = "PAYMENT_USER_DROPPED_WEBHOOK"
)

// OrderStore reads and transitions orders.
type OrderStore interface {
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	MarkCompleted(ctx context.Context, kind string, id uuid.UUID) (bool, error)
	MarkFailed(ctx context.Context, kind string, id uuid.UUID) (bool, error)
}

// WebinarStore is the webinar side of fulfilment.
type WebinarStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error)
	DecrementSlot(ctx context.Context, id uuid.UUID) (bool, error)
}

// ServiceStore loads services for confirmation emails.
type ServiceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// CouponRecorder records a redemption once per order.
type CouponRecorder interface {
	RecordUsage(ctx context.Context, couponID, userID uuid.UUID, orderRef string, discount decimal.Decimal) error
}

// Mailer hands emails to the delivery queue.
type Mailer interface {
	Dispatch(ctx context.Context, msg queue.EmailPayload) error
}

// Deps wires a Reconciler.
type Deps struct {
	Orders   OrderStore
	Gateway  gateway.Client
	Webinars WebinarStore
	Services ServiceStore
	Coupons  CouponRecorder
	Mailer   Mailer
	Events   events.Publisher
	Currency string
	Logger   *zap.Logger
}

// Reconciler applies gateway outcomes to orders.
type Reconciler struct {
	orders   OrderStore
	gateway  gateway.Client
	webinars WebinarStore
	services ServiceStore
	coupons  CouponRecorder
	mailer   Mailer
	events   events.Publisher
	currency string
	logger   *zap.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(d Deps) *Reconciler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	return &Reconciler{
		orders:   d.Orders,
		gateway:  d.Gateway,
		webinars: d.Webinars,
		services: d.Services,
		coupons:  d.Coupons,
		mailer:   d.Mailer,
		events:   d.Events,
		currency: d.Currency,
		logger:   d.Logger,
	}
}

// Result is the order state after a verify call.
type Result struct {
	OrderID  string    `json:"order_id"`
	Kind     string    `json:"kind"`
	RecordID uuid.UUID `json:"record_id"`
	Status   string    `json:"status"`
}

func resultOf(o *models.Order) *Result {
	return &Result{OrderID: o.PaymentID, Kind: o.Kind, RecordID: o.ID, Status: o.Status}
}

// Verify asks the gateway about orderID on behalf of its owner and applies
// the outcome. Orders owned by someone else are reported as not found.
func (r *Reconciler) Verify(ctx context.Context, userID uuid.UUID, orderID string) (*Result, error) {
	o, err := r.orders.GetByPaymentID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, orders.ErrNotFound
	}
	if models.IsPaidStatus(o.Status) || o.Status == models.PaymentStatusRefunded {
		return resultOf(o), nil
	}

	gwOrder, err := r.gateway.GetOrder(ctx, orderID)
	if err != nil {
		return nil, errs.Wrap(err, "fetch gateway order")
	}
	payments, err := r.gateway.GetPayments(ctx, orderID)
	if err != nil {
		r.logger.Warn("fetch gateway payments failed", zap.String("order_id", orderID), zap.Error(err))
	}

	switch gateway.Resolve(gwOrder, payments) {
	case gateway.OutcomePaid:
		if _, err := r.Complete(ctx, o); err != nil {
			return nil, err
		}
		o.Status = models.PaymentStatusCompleted
	case gateway.OutcomeFailed:
		if _, err := r.Fail(ctx, o); err != nil {
			return nil, err
		}
		o.Status = models.PaymentStatusFailed
	}
	return resultOf(o), nil
}

// WebhookEvent is the gateway webhook body.
type WebhookEvent struct {
	Type      string `json:"type"`
	EventTime string `json:"event_time"`
	Data      struct {
		Order struct {
			OrderID     string          `json:"order_id"`
			OrderAmount decimal.Decimal `json:"order_amount"`
		} `json:"order"`
		Payment struct {
			GatewayPaymentID gateway.PaymentRef `json:"cf_payment_id"`
			Status           string             `json:"payment_status"`
			Amount           decimal.Decimal    `json:"payment_amount"`
			Message          string             `json:"payment_message"`
		} `json:"payment"`
	} `json:"data"`
}

// HandleWebhook applies a webhook. Unknown orders and event types are
// acknowledged without action so the gateway stops redelivering them.
func (r *Reconciler) HandleWebhook(ctx context.Context, ev WebhookEvent) error {
	orderID := ev.Data.Order.OrderID
	if orderID == "" {
		return errs.Invalidf("webhook has no order id")
	}
	log := r.logger.With(zap.String("order_id", orderID), zap.String("event", ev.Type),
		zap.String("cf_payment_id", string(ev.Data.Payment.GatewayPaymentID)))

	o, err := r.orders.GetByPaymentID(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		log.Warn("webhook for unknown order")
		return nil
	}
	if err != nil {
		return err
	}

	switch ev.Type {
	case EventPaymentSuccess:
		won, err := r.Complete(ctx, o)
		if err != nil {
			return err
		}
		log.Info("payment webhook applied", zap.Bool("transitioned", won))
	case EventPaymentFailed, EventPaymentUserDropped:
		moved, err := r.Fail(ctx, o)
		if err != nil {
			return err
		}
		log.Info("payment failure webhook applied", zap.Bool("transitioned", moved))
	default:
		log.Debug("webhook type ignored")
	}
	return nil
}

// Complete marks o completed and runs the completion effects. It returns
// false without side effects when the order was already completed, either
// before the call or by a concurrent caller that won the update.
func (r *Reconciler) Complete(ctx context.Context, o *models.Order) (bool, error) {
	if models.IsPaidStatus(o.Status) {
		return false, nil
	}
	won, err := r.orders.MarkCompleted(ctx, o.Kind, o.ID)
	if err != nil {
		return false, errs.Wrap(err, "mark order completed")
	}
	if !won {
		return false, nil
	}
	now := time.Now().UTC()
	o.Status = models.PaymentStatusCompleted
	o.CompletedAt = &now
	r.Fulfill(ctx, o)
	return true, nil
}

// Fail moves a pending order to failed.
func (r *Reconciler) Fail(ctx context.Context, o *models.Order) (bool, error) {
	if o.Status != models.PaymentStatusPending {
		return false, nil
	}
	moved, err := r.orders.MarkFailed(ctx, o.Kind, o.ID)
	if err != nil {
		return false, errs.Wrap(err, "mark order failed")
	}
	if moved {
		o.Status = models.PaymentStatusFailed
	}
	return moved, nil
}

// Fulfill runs the effects of an order reaching completed or free: take a
// seat, record the coupon, send the confirmation and publish the event.
// Each step is logged on failure and never undoes the status change.
// Callers must invoke it once per order.
func (r *Reconciler) Fulfill(ctx context.Context, o *models.Order) {
	log := r.logger.With(zap.String("kind", o.Kind), zap.String("record_id", o.ID.String()), zap.String("order_id", o.PaymentID))

	if o.Kind == models.ItemTypeWebinar {
		ok, err := r.webinars.DecrementSlot(ctx, o.ItemID)
		switch {
		case err != nil:
			log.Error("decrement slot failed", zap.Error(err))
		case !ok:
			log.Warn("no slot left to decrement", zap.String("webinar_id", o.ItemID.String()))
		}
	}

	if o.CouponID != nil && r.coupons != nil {
		if err := r.coupons.RecordUsage(ctx, *o.CouponID, o.UserID, OrderRef(o), o.DiscountAmount); err != nil {
			log.Error("record coupon usage failed", zap.Error(err))
		}
	}

	if err := r.sendConfirmation(ctx, o); err != nil {
		log.Error("confirmation email failed", zap.Error(err))
	}

	if o.Amount.IsPositive() {
		if err := r.events.Publish(ctx, events.TypePaymentCompleted, OrderRef(o), r.completedEvent(o)); err != nil {
			log.Warn("publish payment event failed", zap.Error(err))
		}
	}
}

// OrderRef is the reference used for coupon ledger rows and emails: the
// gateway order id, or the record id for orders that never hit the gateway.
func OrderRef(o *models.Order) string {
	if o.PaymentID != "" {
		return o.PaymentID
	}
	return o.ID.String()
}

func (r *Reconciler) sendConfirmation(ctx context.Context, o *models.Order) error {
	if r.mailer == nil {
		return nil
	}
	to := notifications.Recipient{Email: o.CustomerEmail, Name: o.CustomerName}
	var (
		msg queue.EmailPayload
		err error
	)
	switch o.Kind {
	case models.ItemTypeWebinar:
		w, lerr := r.webinars.GetByID(ctx, o.ItemID)
		if lerr != nil {
			return errs.Wrap(lerr, "load webinar")
		}
		msg, err = notifications.RegistrationConfirmation(to, w, OrderRef(o), o.Amount, r.currency)
	case models.ItemTypeService:
		s, lerr := r.services.GetByID(ctx, o.ItemID)
		if lerr != nil {
			return errs.Wrap(lerr, "load service")
		}
		msg, err = notifications.PurchaseConfirmation(to, s, OrderRef(o), o.Amount, r.currency)
	default:
		return errs.Newf("unknown order kind %q", o.Kind)
	}
	if err != nil {
		return err
	}
	return r.mailer.Dispatch(ctx, msg)
}

func (r *Reconciler) completedEvent(o *models.Order) events.PaymentCompleted {
	ev := events.PaymentCompleted{
		OrderID:  o.PaymentID,
		Kind:     o.Kind,
		RecordID: o.ID,
		UserID:   o.UserID,
		ItemID:   o.ItemID,
		Amount:   o.Amount.StringFixed(2),
		Currency: r.currency,
	}
	if o.CouponID != nil {
		ev.CouponID = o.CouponID.String()
	}
	if o.CompletedAt != nil {
		ev.Completed = *o.CompletedAt
	}
	return ev
}
