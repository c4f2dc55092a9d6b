package admin

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/notifications"
	"github.com/aura-webinar/storefront/pkg/response"
)

// MeetingLinkRequest is the body for POST /admin/webinars/:id/meeting-link.
type MeetingLinkRequest struct {
	MeetingLink string `json:"meeting_link" binding:"required"`
}

// BulkEmailRequest is the body for POST /admin/bulk-email.
type BulkEmailRequest struct {
	WebinarID   string `json:"webinar_id" binding:"required"`
	MeetingLink string `json:"meeting_link" binding:"required"`
}

// BroadcastResult counts meeting link emails queued for a webinar.
type BroadcastResult struct {
	WebinarID uuid.UUID `json:"webinar_id"`
	Total     int       `json:"total"`
	Sent      int       `json:"sent"`
	Failed    int       `json:"failed"`
}

// MeetingLink handles POST /admin/webinars/:id/meeting-link.
func (h *Handler) MeetingLink(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	var req MeetingLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.broadcast(c, id, req.MeetingLink)
}

// BulkEmail handles POST /admin/bulk-email.
func (h *Handler) BulkEmail(c *gin.Context) {
	var req BulkEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	id, err := uuid.Parse(req.WebinarID)
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	h.broadcast(c, id, req.MeetingLink)
}

func (h *Handler) broadcast(c *gin.Context, id uuid.UUID, link string) {
	link = strings.TrimSpace(link)
	if !validLink(link) {
		response.BadRequest(c, "meeting_link must be an http(s) URL")
		return
	}
	res, err := h.SendMeetingLink(c.Request.Context(), id, link)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// SendMeetingLink stores the link on the webinar and queues one email per
// confirmed registrant. Queue failures are counted, not returned.
func (h *Handler) SendMeetingLink(ctx context.Context, id uuid.UUID, link string) (*BroadcastResult, error) {
	w, err := h.webinars.SetMeetingLink(ctx, id, link)
	if err != nil {
		return nil, err
	}
	contacts, err := h.registrants.Registrants(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &BroadcastResult{WebinarID: id, Total: len(contacts)}
	for _, rc := range contacts {
		msg, err := notifications.MeetingLink(notifications.Recipient{Email: rc.Email, Name: rc.FullName}, w, link)
		if err == nil {
			msg.OrderRef = rc.RegistrationID.String()
			err = h.mailer.Dispatch(ctx, msg)
		}
		if err != nil {
			res.Failed++
			h.logger.Warn("meeting link not queued",
				zap.String("webinar_id", id.String()), zap.String("email", rc.Email), zap.Error(err))
			continue
		}
		res.Sent++
	}
	h.logger.Info("meeting link broadcast",
		zap.String("webinar_id", id.String()), zap.Int("total", res.Total), zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	return res, nil
}
