package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/pkg/response"
)

// ResyncAll handles POST /admin/webinars/resync-slots.
func (h *Handler) ResyncAll(c *gin.Context) {
	out, err := h.webinars.ResyncSlots(c.Request.Context())
	if err != nil {
		h.logger.Error("resync slots failed", zap.Error(err))
		response.Internal(c, "failed to resync slots")
		return
	}
	changed := 0
	for _, r := range out {
		if r.Changed() {
			changed++
		}
	}
	h.logger.Info("slots resynced", zap.Int("webinars", len(out)), zap.Int("changed", changed))
	response.OK(c, gin.H{"webinars": out, "changed": changed})
}

// ResyncOne handles POST /admin/webinars/:id/resync-slots.
func (h *Handler) ResyncOne(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	out, err := h.webinars.ResyncOne(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
