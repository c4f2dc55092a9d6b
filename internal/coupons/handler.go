package coupons

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/middleware"
	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/response"
)

// AdminStore is the coupon CRUD used by the admin screens.
type AdminStore interface {
	List(ctx context.Context) ([]*models.Coupon, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	Create(ctx context.Context, c *models.Coupon) error
	Update(ctx context.Context, c *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ValidateRequest is the body for POST /coupons/validate.
type ValidateRequest struct {
	Code     string           `json:"code" binding:"required"`
	ItemType string           `json:"item_type" binding:"required,oneof=webinar service"`
	ItemID   *uuid.UUID       `json:"item_id"`
	Amount   *decimal.Decimal `json:"amount"`
}

// ValidateResponse is returned for an applicable coupon.
type ValidateResponse struct {
	Valid          bool                 `json:"valid"`
	Coupon         models.CouponSummary `json:"coupon"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	FinalAmount    *decimal.Decimal     `json:"final_amount"`
}

// CouponRequest is the body for admin create/update.
type CouponRequest struct {
	Code              string           `json:"code" binding:"required"`
	Description       string           `json:"description"`
	DiscountType      string           `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinPurchaseAmount decimal.Decimal  `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	MaxUses           *int             `json:"max_uses" binding:"omitempty,gte=1"`
	MaxUsesPerUser    *int             `json:"max_uses_per_user" binding:"omitempty,gte=1"`
	ValidFrom         *time.Time       `json:"valid_from"`
	ValidUntil        *time.Time       `json:"valid_until"`
	AppliesTo         string           `json:"applies_to" binding:"omitempty,oneof=all webinar service"`
	ApplicableItems   []uuid.UUID      `json:"applicable_items"`
	IsActive          *bool            `json:"is_active"`
}

// CouponPatch is the body for PATCH /admin/coupons/:id. Absent fields keep
// their stored value.
type CouponPatch struct {
	Code              *string          `json:"code" binding:"omitempty,min=1"`
	Description       *string          `json:"description"`
	DiscountType      *string          `json:"discount_type" binding:"omitempty,oneof=percentage fixed"`
	DiscountValue     *decimal.Decimal `json:"discount_value"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	MaxUses           *int             `json:"max_uses" binding:"omitempty,gte=1"`
	MaxUsesPerUser    *int             `json:"max_uses_per_user" binding:"omitempty,gte=1"`
	ValidFrom         *time.Time       `json:"valid_from"`
	ValidUntil        *time.Time       `json:"valid_until"`
	AppliesTo         *string          `json:"applies_to" binding:"omitempty,oneof=all webinar service"`
	ApplicableItems   *[]uuid.UUID     `json:"applicable_items"`
	IsActive          *bool            `json:"is_active"`
}

func (r *CouponRequest) apply(c *models.Coupon) {
	c.Code = NormalizeCode(r.Code)
	c.Description = r.Description
	c.DiscountType = r.DiscountType
	c.DiscountValue = r.DiscountValue
	c.MinPurchaseAmount = r.MinPurchaseAmount
	c.MaxDiscountAmount = r.MaxDiscountAmount
	c.MaxUses = r.MaxUses
	c.MaxUsesPerUser = r.MaxUsesPerUser
	c.ValidFrom = r.ValidFrom
	c.ValidUntil = r.ValidUntil
	c.AppliesTo = r.AppliesTo
	c.ApplicableItems = r.ApplicableItems
	c.IsActive = true
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
}

func (p *CouponPatch) apply(c *models.Coupon) {
	if p.Code != nil {
		c.Code = NormalizeCode(*p.Code)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.DiscountType != nil {
		c.DiscountType = *p.DiscountType
	}
	if p.DiscountValue != nil {
		c.DiscountValue = *p.DiscountValue
	}
	if p.MinPurchaseAmount != nil {
		c.MinPurchaseAmount = *p.MinPurchaseAmount
	}
	if p.MaxDiscountAmount != nil {
		c.MaxDiscountAmount = p.MaxDiscountAmount
	}
	if p.MaxUses != nil {
		c.MaxUses = p.MaxUses
	}
	if p.MaxUsesPerUser != nil {
		c.MaxUsesPerUser = p.MaxUsesPerUser
	}
	if p.ValidFrom != nil {
		c.ValidFrom = p.ValidFrom
	}
	if p.ValidUntil != nil {
		c.ValidUntil = p.ValidUntil
	}
	if p.AppliesTo != nil {
		c.AppliesTo = *p.AppliesTo
	}
	if p.ApplicableItems != nil {
		c.ApplicableItems = *p.ApplicableItems
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
}

// normalize fills defaults and checks cross-field rules on a coupon about to
// be written. Returns a message for the client when it is invalid.
func normalize(c *models.Coupon) string {
	if c.Code == "" {
		return "code is required"
	}
	if c.AppliesTo == "" {
		c.AppliesTo = models.AppliesToAll
	}
	if c.DiscountType != models.DiscountPercentage {
		c.MaxDiscountAmount = nil
	}
	if !c.DiscountValue.IsPositive() {
		return "discount_value must be greater than 0"
	}
	if c.DiscountType == models.DiscountPercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return "percentage discount cannot exceed 100"
	}
	if c.MinPurchaseAmount.IsNegative() {
		return "min_purchase_amount cannot be negative"
	}
	if c.MaxDiscountAmount != nil && !c.MaxDiscountAmount.IsPositive() {
		return "max_discount_amount must be greater than 0"
	}
	if c.ValidFrom != nil && c.ValidUntil != nil && !c.ValidUntil.After(*c.ValidFrom) {
		return "valid_until must be after valid_from"
	}
	return ""
}

// Handler handles coupon HTTP endpoints.
type Handler struct {
	svc    *Service
	admin  AdminStore
	logger *zap.Logger
}

// NewHandler creates a coupons handler.
func NewHandler(svc *Service, admin AdminStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, admin: admin, logger: logger}
}

// Validate handles POST /coupons/validate. Login is optional; when present
// the per-user limit is enforced too.
func (h *Handler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		response.BadRequest(c, "amount cannot be negative")
		return
	}

	var userID *uuid.UUID
	if id, ok := middleware.IdentityFrom(c); ok {
		userID = &id.UserID
	}

	q, err := h.svc.Validate(c.Request.Context(), userID, Input{
		Code:     req.Code,
		ItemType: req.ItemType,
		ItemID:   req.ItemID,
		Amount:   req.Amount,
	})
	if err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			status := http.StatusBadRequest
			if rej.Reason == ReasonNotFound {
				status = http.StatusNotFound
			}
			c.JSON(status, response.Body{Success: false, Error: rej.Message, Reason: string(rej.Reason)})
			return
		}
		h.logger.Error("validate coupon failed", zap.Error(err))
		response.Internal(c, "failed to validate coupon")
		return
	}

	response.OK(c, ValidateResponse{
		Valid:          true,
		Coupon:         q.Coupon.Summary(),
		DiscountAmount: q.DiscountAmount,
		FinalAmount:    q.FinalAmount,
	})
}

// List handles GET /admin/coupons.
func (h *Handler) List(c *gin.Context) {
	list, err := h.admin.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list coupons failed", zap.Error(err))
		response.Internal(c, "failed to list coupons")
		return
	}
	response.OK(c, list)
}

// Get handles GET /admin/coupons/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid coupon id")
		return
	}
	cp, err := h.admin.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cp)
}

// Create handles POST /admin/coupons.
func (h *Handler) Create(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cp := &models.Coupon{}
	req.apply(cp)
	if msg := normalize(cp); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.admin.Create(c.Request.Context(), cp); err != nil {
		h.logger.Error("create coupon failed", zap.Error(err), zap.String("code", cp.Code))
		response.Error(c, err)
		return
	}
	response.Created(c, cp)
}

// Update handles PATCH /admin/coupons/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid coupon id")
		return
	}
	var req CouponPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	cp, err := h.admin.GetByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.apply(cp)
	if msg := normalize(cp); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.admin.Update(ctx, cp); err != nil {
		h.logger.Error("update coupon failed", zap.Error(err), zap.String("coupon_id", id.String()))
		response.Error(c, err)
		return
	}
	response.OK(c, cp)
}

// Delete handles DELETE /admin/coupons/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid coupon id")
		return
	}
	if err := h.admin.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
