// Package auth provides the admin authentication bounded context:
// cookie sessions backed by a sessions table.
package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"funnel_backend/internal/auth/handler"
	"funnel_backend/internal/auth/repository"
	"funnel_backend/internal/auth/service"
	apphttp "funnel_backend/internal/http"
	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	svc        *service.Service
	cfg        config.SessionConfig
	middleware gin.HandlerFunc
}

func NewModule(pool *pgxpool.Pool, cfg config.SessionConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, cfg, val)

	return &Module{
		handler:    h,
		svc:        svc,
		cfg:        cfg,
		middleware: SessionMiddleware(svc, cfg),
	}
}

func (m *Module) Name() string {
	return "auth"
}

// Service exposes the auth service so main can run the bootstrap-admin
// upsert on startup.
func (m *Module) Service() *service.Service {
	return m.svc
}

// Middleware returns the session-cookie auth middleware shared with the
// router and every protected module.
func (m *Module) Middleware() gin.HandlerFunc {
	return m.middleware
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Public.Group("/auth")
	group.POST("/login", ctx.AuthRateLimiter.RateLimit(), m.handler.Login)
	group.POST("/logout", m.handler.Logout)
	group.GET("/me", m.middleware, m.handler.Me)
}
