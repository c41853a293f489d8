package webhook

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"funnel_backend/platform/httpkit"
)

const secretHeader = "x-webhook-secret"

// SecretMiddleware authenticates provider webhooks with a shared
// secret header, compared in constant time. An empty configured secret
// disables the endpoint entirely rather than leaving it open.
func SecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				httpkit.ErrorResponse{Error: "webhook secret is not configured"})
			return
		}

		presented := c.GetHeader(secretHeader)
		if subtle.ConstantTimeCompare([]byte(secret), []byte(presented)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				httpkit.ErrorResponse{Error: "invalid webhook secret"})
			return
		}
		c.Next()
	}
}
