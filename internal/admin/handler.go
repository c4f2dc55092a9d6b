// Package admin holds operator endpoints that span several domains:
// meeting link broadcasts, seat recounts, uploads and the user list.
package admin

import (
	"context"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/queue"
	"github.com/aura-webinar/storefront/pkg/response"
)

// WebinarStore is the webinar persistence used by admin operations.
type WebinarStore interface {
	SetMeetingLink(ctx context.Context, id uuid.UUID, link string) (*models.Webinar, error)
	ResyncSlots(ctx context.Context) ([]models.SlotResync, error)
	ResyncOne(ctx context.Context, id uuid.UUID) (*models.SlotResync, error)
}

// RegistrantStore lists who holds a seat.
type RegistrantStore interface {
	Registrants(ctx context.Context, webinarID uuid.UUID) ([]models.RegistrantContact, error)
}

// Mailer queues outgoing email.
type Mailer interface {
	Dispatch(ctx context.Context, msg queue.EmailPayload) error
}

// Uploader stores admin uploads.
type Uploader interface {
	UploadsBucket() string
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64, publicRead bool) (string, error)
}

// UserLister lists accounts.
type UserLister interface {
	List(ctx context.Context) ([]models.UserPublic, error)
}

// Deps wires the admin handler.
type Deps struct {
	Webinars    WebinarStore
	Registrants RegistrantStore
	Mailer      Mailer
	Uploads     Uploader
	Users       UserLister
	Logger      *zap.Logger
}

// Handler serves the cross-cutting admin endpoints.
type Handler struct {
	webinars    WebinarStore
	registrants RegistrantStore
	mailer      Mailer
	uploads     Uploader
	users       UserLister
	logger      *zap.Logger
}

// NewHandler creates an admin handler. Uploads may be nil when object
// storage is not configured.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Handler{
		webinars:    d.Webinars,
		registrants: d.Registrants,
		mailer:      d.Mailer,
		uploads:     d.Uploads,
		users:       d.Users,
		logger:      d.Logger,
	}
}

// Users handles GET /admin/users.
func (h *Handler) Users(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

func validLink(link string) bool {
	return strings.HasPrefix(link, "https://") || strings.HasPrefix(link, "http://")
}
