package coupons

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/errs"
)

// Store is the persistence the coupon service needs.
type Store interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	CountUserUsages(ctx context.Context, couponID, userID uuid.UUID) (int, error)
	RecordUsage(ctx context.Context, u *models.CouponUsage) (recorded, counted bool, err error)
}

// Service validates coupons and records redemptions.
type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a coupon service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, now: time.Now, logger: logger}
}

// Validate loads the coupon by code and checks it for the caller. The error
// is a *Rejection when the coupon is not applicable.
func (s *Service) Validate(ctx context.Context, userID *uuid.UUID, in Input) (*Quote, error) {
	in.Code = NormalizeCode(in.Code)
	if in.Code == "" {
		return nil, reject(ReasonNotFound, "Invalid coupon code")
	}
	c, err := s.store.GetByCode(ctx, in.Code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, reject(ReasonNotFound, "Invalid coupon code")
		}
		return nil, errs.Wrap(err, "load coupon")
	}

	var userUses *int
	if userID != nil && c.MaxUsesPerUser != nil {
		n, err := s.store.CountUserUsages(ctx, c.ID, *userID)
		if err != nil {
			return nil, errs.Wrap(err, "count coupon usages")
		}
		userUses = &n
	}

	q, rej := Validate(c, in, s.now(), userUses)
	if rej != nil {
		return nil, rej
	}
	return q, nil
}

// RecordUsage stores one redemption of couponID for orderRef. Replays of the
// same order are ignored. Called once per order on its first completion.
func (s *Service) RecordUsage(ctx context.Context, couponID, userID uuid.UUID, orderRef string, discount decimal.Decimal) error {
	recorded, counted, err := s.store.RecordUsage(ctx, &models.CouponUsage{
		CouponID:       couponID,
		UserID:         userID,
		OrderRef:       orderRef,
		DiscountAmount: discount,
	})
	if err != nil {
		return errs.Wrap(err, "record coupon usage")
	}
	if recorded && !counted {
		s.logger.Warn("coupon redeemed past max_uses",
			zap.String("coupon_id", couponID.String()), zap.String("order_ref", orderRef))
	}
	return nil
}
