package checkout

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/coupons"
	"github.com/aura-webinar/storefront/internal/middleware"
	"github.com/aura-webinar/storefront/pkg/response"
)

// Checkouter is the service behind the checkout endpoints.
type Checkouter interface {
	RegisterWebinar(ctx context.Context, userID, webinarID uuid.UUID, req Request) (*Result, error)
	PurchaseService(ctx context.Context, userID, serviceID uuid.UUID, req Request) (*Result, error)
}

// CheckoutRequest is the body for both checkout endpoints.
type CheckoutRequest struct {
	CouponCode string `json:"coupon_code"`
	Phone      string `json:"phone" binding:"omitempty,max=20"`
	Notes      string `json:"notes" binding:"omitempty,max=2000"`
}

// Handler handles checkout HTTP endpoints.
type Handler struct {
	svc    Checkouter
	logger *zap.Logger
}

// NewHandler creates a checkout handler.
func NewHandler(svc Checkouter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register handles POST /webinars/:id/register.
func (h *Handler) Register(c *gin.Context) {
	h.checkout(c, "webinar", h.svc.RegisterWebinar)
}

// Purchase handles POST /services/:id/purchase.
func (h *Handler) Purchase(c *gin.Context) {
	h.checkout(c, "service", h.svc.PurchaseService)
}

type checkoutFunc func(ctx context.Context, userID, itemID uuid.UUID, req Request) (*Result, error)

func (h *Handler) checkout(c *gin.Context, kind string, run checkoutFunc) {
	ident, ok := middleware.MustIdentity(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+kind+" id")
		return
	}
	var req CheckoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}

	res, err := run(c.Request.Context(), ident.UserID, itemID, Request{
		CouponCode: req.CouponCode,
		Phone:      req.Phone,
		Notes:      req.Notes,
	})
	if err != nil {
		var rej *coupons.Rejection
		if errors.As(err, &rej) {
			response.Rejected(c, string(rej.Reason), rej.Message)
			return
		}
		h.logger.Warn("checkout failed", zap.String("kind", kind), zap.String("item_id", itemID.String()), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
