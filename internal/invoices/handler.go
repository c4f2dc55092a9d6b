package invoices

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/middleware"
	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/response"
)

// Generator is what the invoice endpoints need.
type Generator interface {
	ForUser(ctx context.Context, kind string, id, userID uuid.UUID) (*Document, error)
	ForAdmin(ctx context.Context, kind string, id uuid.UUID) (*Document, error)
	Link(ctx context.Context, kind string, id uuid.UUID) (string, error)
}

// Handler serves invoice downloads.
type Handler struct {
	gen    Generator
	logger *zap.Logger
}

// NewHandler creates an invoice handler.
func NewHandler(gen Generator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{gen: gen, logger: logger}
}

// Registration handles GET /me/registrations/:id/invoice.
func (h *Handler) Registration(c *gin.Context) { h.mine(c, models.ItemTypeWebinar) }

// Purchase handles GET /me/purchases/:id/invoice.
func (h *Handler) Purchase(c *gin.Context) { h.mine(c, models.ItemTypeService) }

func (h *Handler) mine(c *gin.Context, kind string) {
	ident, ok := middleware.MustIdentity(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}
	doc, err := h.gen.ForUser(c.Request.Context(), kind, id, ident.UserID)
	if err != nil {
		h.fail(c, err, kind, id)
		return
	}
	send(c, doc)
}

// Admin handles GET /admin/orders/:kind/:id/invoice.
func (h *Handler) Admin(c *gin.Context) {
	kind, id, ok := adminTarget(c)
	if !ok {
		return
	}
	doc, err := h.gen.ForAdmin(c.Request.Context(), kind, id)
	if err != nil {
		h.fail(c, err, kind, id)
		return
	}
	send(c, doc)
}

// AdminLink handles GET /admin/orders/:kind/:id/invoice/link.
func (h *Handler) AdminLink(c *gin.Context) {
	kind, id, ok := adminTarget(c)
	if !ok {
		return
	}
	url, err := h.gen.Link(c.Request.Context(), kind, id)
	if err != nil {
		h.fail(c, err, kind, id)
		return
	}
	response.OK(c, gin.H{"url": url})
}

func adminTarget(c *gin.Context) (string, uuid.UUID, bool) {
	kind := c.Param("kind")
	if kind != models.ItemTypeWebinar && kind != models.ItemTypeService {
		response.BadRequest(c, "kind must be webinar or service")
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid id")
		return "", uuid.Nil, false
	}
	return kind, id, true
}

func (h *Handler) fail(c *gin.Context, err error, kind string, id uuid.UUID) {
	h.logger.Warn("invoice failed", zap.String("kind", kind), zap.String("id", id.String()), zap.Error(err))
	response.Error(c, err)
}

func send(c *gin.Context, doc *Document) {
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc.PDF)
}
