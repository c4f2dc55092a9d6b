// Package settings exposes site-wide key/value configuration.
package settings

import (
	"context"
	"encoding/json"
	"io"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/response"
)

const maxValueBytes = 64 << 10

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

// Store is the settings persistence used by the handler.
type Store interface {
	All(ctx context.Context) (map[string]json.RawMessage, error)
	Upsert(ctx context.Context, key string, value json.RawMessage) (*models.SiteSetting, error)
}

// Handler handles settings endpoints.
type Handler struct {
	repo   Store
	logger *zap.Logger
}

// NewHandler creates a settings handler.
func NewHandler(repo Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// All handles GET /settings.
func (h *Handler) All(c *gin.Context) {
	m, err := h.repo.All(c.Request.Context())
	if err != nil {
		h.logger.Error("load settings failed", zap.Error(err))
		response.Internal(c, "failed to load settings")
		return
	}
	response.OK(c, m)
}

// Put handles PUT /admin/settings/:key. The body is the raw JSON value.
func (h *Handler) Put(c *gin.Context) {
	key := c.Param("key")
	if !keyPattern.MatchString(key) {
		response.BadRequest(c, "invalid setting key")
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxValueBytes+1))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}
	if len(body) > maxValueBytes {
		response.BadRequest(c, "value too large")
		return
	}
	if !json.Valid(body) {
		response.BadRequest(c, "value must be valid JSON")
		return
	}
	s, err := h.repo.Upsert(c.Request.Context(), key, json.RawMessage(body))
	if err != nil {
		h.logger.Error("save setting failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to save setting")
		return
	}
	response.OK(c, s)
}
