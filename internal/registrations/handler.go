package registrations

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/middleware"
	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/response"
)

// Lister is the read side used by the registration endpoints.
type Lister interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.RegistrationWithWebinar, error)
	List(ctx context.Context, f Filter) ([]models.RegistrationWithUser, error)
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	repo   Lister
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(repo Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Mine handles GET /me/registrations.
func (h *Handler) Mine(c *gin.Context) {
	id, ok := middleware.MustIdentity(c)
	if !ok {
		return
	}
	list, err := h.repo.ListForUser(c.Request.Context(), id.UserID)
	if err != nil {
		h.logger.Error("list user registrations failed", zap.Error(err), zap.String("user_id", id.UserID.String()))
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// AdminList handles GET /admin/registrations?webinar_id=&status=.
func (h *Handler) AdminList(c *gin.Context) {
	var f Filter
	if s := c.Query("webinar_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid webinar_id")
			return
		}
		f.WebinarID = &id
	}
	f.Status = c.Query("status")
	if f.Status != "" && !validStatus(f.Status) {
		response.BadRequest(c, "invalid status")
		return
	}
	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

func validStatus(s string) bool {
	switch s {
	case models.PaymentStatusPending, models.PaymentStatusCompleted, models.PaymentStatusFailed,
		models.PaymentStatusFree, models.PaymentStatusRefunded:
		return true
	}
	return false
}
