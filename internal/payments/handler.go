package payments

import (
	"context"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/middleware"
	"github.com/aura-webinar/storefront/pkg/response"
)

const maxWebhookBody = 1 << 20

// Processor is what the payment endpoints need from the reconciler.
type Processor interface {
	Verify(ctx context.Context, userID uuid.UUID, orderID string) (*Result, error)
	HandleWebhook(ctx context.Context, ev WebhookEvent) error
}

// VerifyRequest is the body for POST /payments/verify.
type VerifyRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// Handler handles payment HTTP endpoints.
type Handler struct {
	proc             Processor
	webhookSecret    string
	enforceSignature bool
	logger           *zap.Logger
}

// NewHandler creates a payments handler. Webhook signatures are checked
// only when enforceSignature is set.
func NewHandler(proc Processor, webhookSecret string, enforceSignature bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{proc: proc, webhookSecret: webhookSecret, enforceSignature: enforceSignature, logger: logger}
}

// Verify handles POST /payments/verify.
func (h *Handler) Verify(c *gin.Context) {
	id, ok := middleware.MustIdentity(c)
	if !ok {
		return
	}
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "order_id is required")
		return
	}
	res, err := h.proc.Verify(c.Request.Context(), id.UserID, req.OrderID)
	if err != nil {
		h.logger.Warn("payment verify failed", zap.String("order_id", req.OrderID), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Webhook handles POST /webhooks/payment.
func (h *Handler) Webhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}
	if h.enforceSignature {
		ts := c.GetHeader(HeaderTimestamp)
		sig := c.GetHeader(HeaderSignature)
		if !VerifyWebhookSignature(h.webhookSecret, ts, raw, sig) {
			h.logger.Warn("webhook signature mismatch", zap.String("client_ip", c.ClientIP()))
			response.Unauthorized(c, "invalid webhook signature")
			return
		}
	}
	var ev WebhookEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		response.BadRequest(c, "invalid webhook payload")
		return
	}
	if err := h.proc.HandleWebhook(c.Request.Context(), ev); err != nil {
		h.logger.Error("webhook processing failed", zap.String("type", ev.Type), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"received": true})
}
