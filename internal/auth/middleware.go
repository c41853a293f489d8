package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"funnel_backend/internal/auth/service"
	"funnel_backend/platform/config"
	"funnel_backend/platform/httpkit"
)

// SessionMiddleware validates the admin session cookie and stores the
// admin identity on the request context. Requests without a valid,
// unexpired session are rejected.
func SessionMiddleware(svc *service.Service, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cfg.GetSessionCookieName())
		if err != nil || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpkit.ErrorResponse{Error: "authentication required"})
			return
		}

		admin, err := svc.Authenticate(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpkit.ErrorResponse{Error: "session expired"})
			return
		}

		c.Set(httpkit.ContextAdminIDKey, admin.ID)
		c.Set(httpkit.ContextAdminEmailKey, admin.Email)
		c.Next()
	}
}
