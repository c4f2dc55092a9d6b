package webinars

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/response"
)

// Store is the webinar persistence used by the catalog endpoints.
type Store interface {
	List(ctx context.Context, f Filter) ([]models.Webinar, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error)
	GetBySlug(ctx context.Context, slug string) (*models.Webinar, error)
	Create(ctx context.Context, w *models.Webinar) error
	Update(ctx context.Context, w *models.Webinar) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateRequest is the body for POST /admin/webinars.
type CreateRequest struct {
	Title          string          `json:"title" binding:"required"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	InstructorName string          `json:"instructor_name"`
	ImageURL       string          `json:"image_url"`
	StartsAt       time.Time       `json:"starts_at" binding:"required"`
	EndsAt         *time.Time      `json:"ends_at"`
	Price          decimal.Decimal `json:"price"`
	TotalSlots     int             `json:"total_slots" binding:"gte=0"`
	Status         string          `json:"status" binding:"omitempty,oneof=draft published completed cancelled"`
	IsFeatured     bool            `json:"is_featured"`
	MeetingLink    string          `json:"meeting_link"`
}

// UpdateRequest is the body for PATCH /admin/webinars/:id.
type UpdateRequest struct {
	Title          *string          `json:"title" binding:"omitempty,min=1"`
	Slug           *string          `json:"slug"`
	Description    *string          `json:"description"`
	InstructorName *string          `json:"instructor_name"`
	ImageURL       *string          `json:"image_url"`
	StartsAt       *time.Time       `json:"starts_at"`
	EndsAt         *time.Time       `json:"ends_at"`
	Price          *decimal.Decimal `json:"price"`
	TotalSlots     *int             `json:"total_slots" binding:"omitempty,gte=0"`
	Status         *string          `json:"status" binding:"omitempty,oneof=draft published completed cancelled"`
	IsFeatured     *bool            `json:"is_featured"`
	MeetingLink    *string          `json:"meeting_link"`
}

// Handler handles webinar HTTP endpoints.
type Handler struct {
	repo   Store
	logger *zap.Logger
}

// NewHandler creates a webinar handler.
func NewHandler(repo Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /webinars. The public catalog only shows published
// webinars unless another status is asked for.
func (h *Handler) List(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	if f.Status == "" {
		f.Status = models.WebinarStatusPublished
	}
	h.list(c, f)
}

// AdminList handles GET /admin/webinars, all statuses by default.
func (h *Handler) AdminList(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	h.list(c, f)
}

func (h *Handler) list(c *gin.Context, f Filter) {
	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list webinars failed", zap.Error(err))
		response.Internal(c, "failed to list webinars")
		return
	}
	response.OK(c, list)
}

func parseFilter(c *gin.Context) (Filter, bool) {
	var f Filter
	switch s := c.Query("status"); s {
	case "", models.WebinarStatusDraft, models.WebinarStatusPublished, models.WebinarStatusCompleted, models.WebinarStatusCancelled:
		f.Status = s
	default:
		response.BadRequest(c, "invalid status")
		return f, false
	}
	switch c.Query("featured") {
	case "":
	case "true", "1":
		t := true
		f.Featured = &t
	case "false", "0":
		v := false
		f.Featured = &v
	default:
		response.BadRequest(c, "invalid featured flag")
		return f, false
	}
	return f, true
}

// Get handles GET /webinars/:id, where the parameter is the slug or the id.
// Drafts are hidden from the public catalog.
func (h *Handler) Get(c *gin.Context) {
	w, err := h.lookup(c.Request.Context(), c.Param("id"))
	if err == nil && w.Status == models.WebinarStatusDraft {
		err = ErrNotFound
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, w)
}

func (h *Handler) lookup(ctx context.Context, key string) (*models.Webinar, error) {
	if id, err := uuid.Parse(key); err == nil {
		return h.repo.GetByID(ctx, id)
	}
	return h.repo.GetBySlug(ctx, key)
}

// Create handles POST /admin/webinars.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	w := &models.Webinar{
		Title:          strings.TrimSpace(req.Title),
		Slug:           req.Slug,
		Description:    req.Description,
		InstructorName: req.InstructorName,
		ImageURL:       req.ImageURL,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		Price:          req.Price,
		TotalSlots:     req.TotalSlots,
		Status:         req.Status,
		IsFeatured:     req.IsFeatured,
		MeetingLink:    req.MeetingLink,
	}
	if w.Status == "" {
		w.Status = models.WebinarStatusDraft
	}
	if msg := normalize(w); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.repo.Create(c.Request.Context(), w); err != nil {
		h.logger.Error("create webinar failed", zap.Error(err), zap.String("slug", w.Slug))
		response.Error(c, err)
		return
	}
	response.Created(c, w)
}

// Update handles PATCH /admin/webinars/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	w, err := h.repo.GetByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.apply(w)
	if msg := normalize(w); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.repo.Update(ctx, w); err != nil {
		h.logger.Error("update webinar failed", zap.Error(err), zap.String("webinar_id", id.String()))
		response.Error(c, err)
		return
	}
	response.OK(c, w)
}

func (r *UpdateRequest) apply(w *models.Webinar) {
	if r.Title != nil {
		w.Title = strings.TrimSpace(*r.Title)
	}
	if r.Slug != nil {
		w.Slug = *r.Slug
	}
	if r.Description != nil {
		w.Description = *r.Description
	}
	if r.InstructorName != nil {
		w.InstructorName = *r.InstructorName
	}
	if r.ImageURL != nil {
		w.ImageURL = *r.ImageURL
	}
	if r.StartsAt != nil {
		w.StartsAt = *r.StartsAt
	}
	if r.EndsAt != nil {
		w.EndsAt = r.EndsAt
	}
	if r.Price != nil {
		w.Price = *r.Price
	}
	if r.TotalSlots != nil {
		w.TotalSlots = *r.TotalSlots
	}
	if r.Status != nil {
		w.Status = *r.Status
	}
	if r.IsFeatured != nil {
		w.IsFeatured = *r.IsFeatured
	}
	if r.MeetingLink != nil {
		w.MeetingLink = strings.TrimSpace(*r.MeetingLink)
	}
}

// normalize fills the slug and checks cross-field rules. Returns a message
// for the client when the webinar is invalid.
func normalize(w *models.Webinar) string {
	if w.Title == "" {
		return "title is required"
	}
	if strings.TrimSpace(w.Slug) == "" {
		w.Slug = slug.Make(w.Title)
	} else {
		w.Slug = slug.Make(w.Slug)
	}
	if w.Slug == "" {
		return "slug cannot be empty"
	}
	if w.Price.IsNegative() {
		return "price cannot be negative"
	}
	if w.EndsAt != nil && !w.EndsAt.After(w.StartsAt) {
		return "ends_at must be after starts_at"
	}
	return ""
}

// Delete handles DELETE /admin/webinars/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
