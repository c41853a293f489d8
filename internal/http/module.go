// Package http provides HTTP server infrastructure including the Module
// interface that all domain modules implement for route registration.
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"funnel_backend/internal/events"
	"funnel_backend/platform/config"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/logger"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router group.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// Public is the unauthenticated /api route group (calculator, webhooks,
	// unsubscribe).
	Public *gin.RouterGroup
	// Admin is the session-authenticated /api/admin route group.
	Admin *gin.RouterGroup
	// AuthMiddleware validates the admin session cookie.
	AuthMiddleware gin.HandlerFunc
	// AuthRateLimiter is the stricter rate limiter for login routes.
	AuthRateLimiter *httpkit.AuthRateLimiter
	// PublicRateLimiter throttles the public funnel endpoints per IP.
	PublicRateLimiter *httpkit.IPRateLimiter
}

// RouterConfig combines the config interfaces the router needs.
type RouterConfig interface {
	config.HTTPConfig
	config.SessionConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies. It is
// populated by main.go (the composition root) and passed to the router.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	// AuthMiddleware validates the admin session cookie; provided by the
	// auth module and shared with every protected module.
	AuthMiddleware gin.HandlerFunc
	Modules        []Module
}
