// Package leads is the lead-funnel bounded context: calculator intake,
// engagement tracking, sequence control and bulk import.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"funnel_backend/internal/email"
	"funnel_backend/internal/events"
	apphttp "funnel_backend/internal/http"
	"funnel_backend/internal/leads/handler"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/internal/leads/service"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
	repo    *repository.Repository
}

// NewModule wires the leads repository, service and handler.
func NewModule(pool *pgxpool.Pool, sender email.Sender, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, sender, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, svc: svc, repo: repo}
}

func (m *Module) Name() string {
	return "leads"
}

// Service exposes the lead service to sibling modules (webhook inbound
// handlers reuse it for replies and unsubscribes).
func (m *Module) Service() *service.Service {
	return m.svc
}

// Repository exposes the consolidated lead store to the dispatcher.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts the public calculator endpoint and the admin
// CRM surface.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public funnel endpoint, IP rate limited
	ctx.Public.POST("/calculator", ctx.PublicRateLimiter.RateLimit(), m.handler.SubmitCalculator)

	admin := ctx.Admin.Group("/leads")
	admin.GET("", m.handler.List)
	admin.POST("", m.handler.Create)
	admin.POST("/import", m.handler.Import)
	admin.GET("/:id", m.handler.GetByID)
	admin.PATCH("/:id", m.handler.Update)
	admin.PATCH("/:id/status", m.handler.ChangeStatus)
	admin.POST("/:id/mark-replied", m.handler.MarkReplied)
	admin.GET("/:id/timeline", m.handler.Timeline)
	admin.GET("/:id/emails", m.handler.EmailHistory)
	admin.POST("/:id/send-email", m.handler.SendEmail)
	admin.POST("/:id/sequence", m.handler.AssignSequence)
	admin.POST("/:id/sequence/pause", m.handler.PauseSequence)
	admin.POST("/:id/sequence/resume", m.handler.ResumeSequence)
	admin.POST("/:id/sequence/skip", m.handler.SkipStep)
}
