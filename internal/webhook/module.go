package webhook

import (
	apphttp "funnel_backend/internal/http"
	"funnel_backend/internal/leads/service"
	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"
)

// Module is the inbound-webhook bounded context module implementing
// http.Module.
type Module struct {
	handler *Handler
	cfg     config.WebhookConfig
}

func NewModule(leads *service.Service, cfg config.WebhookConfig, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(leads, cfg, log), cfg: cfg}
}

func (m *Module) Name() string {
	return "webhook"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Provider reply and delivery notifications, shared-secret auth
	replies := ctx.Public.Group("/webhooks")
	replies.Use(SecretMiddleware(m.cfg.GetWebhookSecret()))
	replies.POST("/email-reply", m.handler.HandleReply)
	replies.POST("/email-event", m.handler.HandleDeliveryEvent)

	// One-click unsubscribe from email, HMAC token auth
	ctx.Public.GET("/leads/unsubscribe", m.handler.HandleUnsubscribe)
}
