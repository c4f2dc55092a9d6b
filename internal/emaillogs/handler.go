package emaillogs

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/response"
)

// Lister reads email logs.
type Lister interface {
	ListByWebinar(ctx context.Context, webinarID uuid.UUID, status string) ([]*models.EmailLog, error)
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo   Lister
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListByWebinar handles GET /admin/webinars/:id/emails?status=sent|failed.
func (h *Handler) ListByWebinar(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	status := c.Query("status")
	if status != "" && status != models.EmailLogStatusSent && status != models.EmailLogStatusFailed {
		response.BadRequest(c, "invalid status")
		return
	}
	logs, err := h.repo.ListByWebinar(c.Request.Context(), webinarID, status)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err), zap.String("webinar_id", webinarID.String()))
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}
