package services

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/response"
)

// Store is the service persistence used by the catalog endpoints.
type Store interface {
	List(ctx context.Context, f Filter) ([]models.Service, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	GetBySlug(ctx context.Context, slug string) (*models.Service, error)
	Create(ctx context.Context, s *models.Service) error
	Update(ctx context.Context, s *models.Service) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceRequest is the body for admin create and update. Update treats
// absent fields as unchanged.
type ServiceRequest struct {
	Title        *string          `json:"title" binding:"omitempty,min=1"`
	Slug         *string          `json:"slug"`
	Description  *string          `json:"description"`
	Features     []string         `json:"features"`
	ImageURL     *string          `json:"image_url"`
	Price        *decimal.Decimal `json:"price"`
	IsActive     *bool            `json:"is_active"`
	IsFeatured   *bool            `json:"is_featured"`
	DisplayOrder *int             `json:"display_order"`
}

func (r *ServiceRequest) apply(s *models.Service) {
	if r.Title != nil {
		s.Title = strings.TrimSpace(*r.Title)
	}
	if r.Slug != nil {
		s.Slug = *r.Slug
	}
	if r.Description != nil {
		s.Description = *r.Description
	}
	if r.Features != nil {
		s.Features = r.Features
	}
	if r.ImageURL != nil {
		s.ImageURL = *r.ImageURL
	}
	if r.Price != nil {
		s.Price = *r.Price
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
	if r.IsFeatured != nil {
		s.IsFeatured = *r.IsFeatured
	}
	if r.DisplayOrder != nil {
		s.DisplayOrder = *r.DisplayOrder
	}
}

func normalize(s *models.Service) string {
	if s.Title == "" {
		return "title is required"
	}
	if strings.TrimSpace(s.Slug) == "" {
		s.Slug = slug.Make(s.Title)
	} else {
		s.Slug = slug.Make(s.Slug)
	}
	if s.Slug == "" {
		return "slug cannot be empty"
	}
	if s.Price.IsNegative() {
		return "price cannot be negative"
	}
	return ""
}

// Handler handles service catalog endpoints.
type Handler struct {
	repo   Store
	logger *zap.Logger
}

// NewHandler creates a services handler.
func NewHandler(repo Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /services: active services only.
func (h *Handler) List(c *gin.Context) {
	f := Filter{ActiveOnly: true}
	switch c.Query("featured") {
	case "":
	case "true", "1":
		v := true
		f.Featured = &v
	case "false", "0":
		v := false
		f.Featured = &v
	default:
		response.BadRequest(c, "invalid featured flag")
		return
	}
	h.list(c, f)
}

// AdminList handles GET /admin/services, including inactive ones.
func (h *Handler) AdminList(c *gin.Context) {
	h.list(c, Filter{})
}

func (h *Handler) list(c *gin.Context, f Filter) {
	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list services failed", zap.Error(err))
		response.Internal(c, "failed to list services")
		return
	}
	response.OK(c, list)
}

// Get handles GET /services/:id, by slug or id. Inactive services are hidden.
func (h *Handler) Get(c *gin.Context) {
	key := c.Param("id")
	var (
		s   *models.Service
		err error
	)
	if id, perr := uuid.Parse(key); perr == nil {
		s, err = h.repo.GetByID(c.Request.Context(), id)
	} else {
		s, err = h.repo.GetBySlug(c.Request.Context(), key)
	}
	if err == nil && !s.IsActive {
		err = ErrNotFound
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, s)
}

// Create handles POST /admin/services.
func (h *Handler) Create(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s := &models.Service{IsActive: true}
	req.apply(s)
	if msg := normalize(s); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		h.logger.Error("create service failed", zap.Error(err), zap.String("slug", s.Slug))
		response.Error(c, err)
		return
	}
	response.Created(c, s)
}

// Update handles PATCH /admin/services/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	s, err := h.repo.GetByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.apply(s)
	if msg := normalize(s); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.repo.Update(ctx, s); err != nil {
		h.logger.Error("update service failed", zap.Error(err), zap.String("service_id", id.String()))
		response.Error(c, err)
		return
	}
	response.OK(c, s)
}

// Delete handles DELETE /admin/services/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
