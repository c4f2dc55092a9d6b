// Package leads stores contact form submissions and lets admins triage them.
package leads

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/internal/notifications"
	"github.com/aura-webinar/storefront/pkg/queue"
	"github.com/aura-webinar/storefront/pkg/response"
)

// Store is the lead persistence used by the handler.
type Store interface {
	Create(ctx context.Context, l *models.ContactLead) error
	List(ctx context.Context, status string) ([]models.ContactLead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.ContactLead, error)
}

// Mailer queues outgoing email.
type Mailer interface {
	Dispatch(ctx context.Context, msg queue.EmailPayload) error
}

// ContactRequest is the body for POST /contact.
type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=120"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"max=20"`
	Subject string `json:"subject" binding:"max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// StatusRequest is the body for PATCH /admin/leads/:id.
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new contacted closed"`
}

// Handler handles contact lead endpoints.
type Handler struct {
	repo   Store
	mailer Mailer
	logger *zap.Logger
}

// NewHandler creates a leads handler. mailer may be nil.
func NewHandler(repo Store, mailer Mailer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, mailer: mailer, logger: logger}
}

// Submit handles POST /contact.
func (h *Handler) Submit(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l := &models.ContactLead{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if l.Name == "" || l.Message == "" {
		response.BadRequest(c, "name and message are required")
		return
	}
	ctx := c.Request.Context()
	if err := h.repo.Create(ctx, l); err != nil {
		h.logger.Error("create lead failed", zap.Error(err))
		response.Internal(c, "failed to submit message")
		return
	}
	h.acknowledge(ctx, l)
	response.Created(c, gin.H{"id": l.ID})
}

func (h *Handler) acknowledge(ctx context.Context, l *models.ContactLead) {
	if h.mailer == nil {
		return
	}
	msg, err := notifications.ContactAck(notifications.Recipient{Email: l.Email, Name: l.Name}, l.ID, l.Subject)
	if err == nil {
		err = h.mailer.Dispatch(ctx, msg)
	}
	if err != nil {
		h.logger.Warn("contact ack not queued", zap.String("lead_id", l.ID.String()), zap.Error(err))
	}
}

// List handles GET /admin/leads?status=.
func (h *Handler) List(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", models.LeadStatusNew, models.LeadStatusContacted, models.LeadStatusClosed:
	default:
		response.BadRequest(c, "invalid status")
		return
	}
	list, err := h.repo.List(c.Request.Context(), status)
	if err != nil {
		h.logger.Error("list leads failed", zap.Error(err))
		response.Internal(c, "failed to list leads")
		return
	}
	response.OK(c, list)
}

// UpdateStatus handles PATCH /admin/leads/:id.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l, err := h.repo.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, l)
}
