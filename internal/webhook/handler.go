package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"funnel_backend/internal/leads/repository"
	"funnel_backend/internal/leads/service"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/config"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/logger"
)

type Handler struct {
	leads *service.Service
	cfg   config.WebhookConfig
	log   *logger.Logger
}

func NewHandler(leads *service.Service, cfg config.WebhookConfig, log *logger.Logger) *Handler {
	return &Handler{leads: leads, cfg: cfg, log: log}
}

// replyPayload tolerates the field names different providers use for
// the sender address.
type replyPayload struct {
	FromEmail string `json:"from_email"`
	From      string `json:"from"`
	Sender    string `json:"sender"`
	FromName  string `json:"from_name"`
	Subject   string `json:"subject"`
}

func (p replyPayload) senderEmail() string {
	if p.FromEmail != "" {
		return p.FromEmail
	}
	if p.From != "" {
		return p.From
	}
	return p.Sender
}

// HandleReply processes an inbound-reply notification from the email
// provider. Unknown senders are acknowledged without side effects so
// the provider stops retrying.
func (h *Handler) HandleReply(c *gin.Context) {
	var payload replyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	sender := payload.senderEmail()
	if sender == "" {
		httpkit.Error(c, http.StatusBadRequest, "payload has no sender address", nil)
		return
	}

	result, err := h.leads.HandleReply(c.Request.Context(), service.ReplyParams{
		FromEmail: sender,
		FromName:  payload.FromName,
		Subject:   payload.Subject,
	})
	if apperr.Is(err, apperr.KindNotFound) {
		h.log.WebhookEvent("reply", sender, false, "no matching lead")
		httpkit.OK(c, gin.H{"accepted": false, "reason": "no matching lead"})
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	h.log.WebhookEvent("reply", sender, true, "")
	httpkit.OK(c, gin.H{"accepted": true, "duplicate": result.Duplicate})
}

// deliveryPayload matches the provider's event webhook envelope.
type deliveryPayload struct {
	Type string `json:"type"`
	Data struct {
		EmailID string `json:"email_id"`
	} `json:"data"`
}

var deliveryEvents = map[string]string{
	"email.opened":  repository.DeliveryOpened,
	"email.clicked": repository.DeliveryClicked,
	"email.bounced": repository.DeliveryBounced,
}

// HandleDeliveryEvent records open, click and bounce notifications from
// the provider. Event types we do not track, and message ids we did not
// send, are acknowledged so the provider stops retrying.
func (h *Handler) HandleDeliveryEvent(c *gin.Context) {
	var payload deliveryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	event, tracked := deliveryEvents[payload.Type]
	if !tracked {
		httpkit.OK(c, gin.H{"accepted": false, "reason": "event not tracked"})
		return
	}
	if payload.Data.EmailID == "" {
		httpkit.Error(c, http.StatusBadRequest, "payload has no email id", nil)
		return
	}

	_, err := h.leads.TrackDelivery(c.Request.Context(), payload.Data.EmailID, event)
	if apperr.Is(err, apperr.KindNotFound) {
		h.log.WebhookEvent(event, payload.Data.EmailID, false, "no matching send")
		httpkit.OK(c, gin.H{"accepted": false, "reason": "no matching send"})
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	h.log.WebhookEvent(event, payload.Data.EmailID, true, "")
	httpkit.OK(c, gin.H{"accepted": true})
}

// HandleUnsubscribe serves the one-click unsubscribe link. The response
// is HTML either way: recipients click this from their mail client.
func (h *Handler) HandleUnsubscribe(c *gin.Context) {
	leadID, err := uuid.Parse(c.Query("id"))
	if err != nil {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(invalidLinkPage()))
		return
	}

	if !VerifyUnsubscribeToken(h.cfg.GetUnsubscribeSecret(), leadID, c.Query("token")) {
		h.log.WebhookEvent("unsubscribe", leadID.String(), false, "bad token")
		c.Data(http.StatusForbidden, "text/html; charset=utf-8", []byte(invalidLinkPage()))
		return
	}

	if _, err := h.leads.Unsubscribe(c.Request.Context(), leadID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(invalidLinkPage()))
			return
		}
		h.log.WebhookEvent("unsubscribe", leadID.String(), false, err.Error())
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(errorPage()))
		return
	}

	h.log.WebhookEvent("unsubscribe", leadID.String(), true, "")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(unsubscribedPage()))
}
