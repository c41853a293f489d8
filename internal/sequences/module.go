package sequences

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "funnel_backend/internal/http"
	leadsrepo "funnel_backend/internal/leads/repository"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"
)

// Module is the sequences bounded context module implementing
// http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

func NewModule(pool *pgxpool.Pool, leads *leadsrepo.Repository, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, leads, log)
	return &Module{handler: NewHandler(svc, val), repo: repo}
}

func (m *Module) Name() string {
	return "sequences"
}

// Repository exposes template and settings lookup to the dispatcher.
func (m *Module) Repository() *Repository {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	templates := ctx.Admin.Group("/templates")
	templates.GET("", m.handler.ListTemplates)
	templates.POST("", m.handler.CreateTemplate)
	templates.PATCH("/:id", m.handler.UpdateTemplate)
	templates.DELETE("/:id", m.handler.DeleteTemplate)

	sequences := ctx.Admin.Group("/sequences")
	sequences.GET("/settings", m.handler.ListSettings)
	sequences.GET("/:sequence/settings", m.handler.GetSettings)
	sequences.PATCH("/:sequence/settings", m.handler.UpdateSettings)
	sequences.POST("/:sequence/pause", m.handler.PauseAll)
	sequences.POST("/:sequence/resume", m.handler.ResumeAll)
	sequences.GET("/queue", m.handler.Queue)
}
