package purchases

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/middleware"
	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/response"
)

// Lister is the read side used by the purchase endpoints.
type Lister interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.PurchaseWithService, error)
	List(ctx context.Context, f Filter) ([]models.PurchaseWithUser, error)
}

// Handler handles purchase HTTP endpoints.
type Handler struct {
	repo   Lister
	logger *zap.Logger
}

// NewHandler creates a purchases handler.
func NewHandler(repo Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Mine handles GET /me/purchases.
func (h *Handler) Mine(c *gin.Context) {
	id, ok := middleware.MustIdentity(c)
	if !ok {
		return
	}
	list, err := h.repo.ListForUser(c.Request.Context(), id.UserID)
	if err != nil {
		h.logger.Error("list user purchases failed", zap.Error(err), zap.String("user_id", id.UserID.String()))
		response.Internal(c, "failed to list purchases")
		return
	}
	response.OK(c, list)
}

// AdminList handles GET /admin/purchases?service_id=&status=.
func (h *Handler) AdminList(c *gin.Context) {
	var f Filter
	if s := c.Query("service_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid service_id")
			return
		}
		f.ServiceID = &id
	}
	switch f.Status = c.Query("status"); f.Status {
	case "", models.PaymentStatusPending, models.PaymentStatusCompleted, models.PaymentStatusFailed,
		models.PaymentStatusFree, models.PaymentStatusRefunded:
	default:
		response.BadRequest(c, "invalid status")
		return
	}
	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list purchases failed", zap.Error(err))
		response.Internal(c, "failed to list purchases")
		return
	}
	response.OK(c, list)
}
