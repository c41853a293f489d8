// Package handler exposes the admin auth endpoints: login, logout, me.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"funnel_backend/internal/auth/service"
	"funnel_backend/internal/auth/transport"
	"funnel_backend/platform/config"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/validator"
)

type Handler struct {
	svc *service.Service
	cfg config.SessionConfig
	val *validator.Validator
}

func New(svc *service.Service, cfg config.SessionConfig, val *validator.Validator) *Handler {
	return &Handler{svc: svc, cfg: cfg, val: val}
}

func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}

	h.setSessionCookie(c, result.SessionToken, int(time.Until(result.ExpiresAt).Seconds()))
	httpkit.OK(c, transport.ToAdminResponse(result.Admin))
}

func (h *Handler) Logout(c *gin.Context) {
	raw, _ := c.Cookie(h.cfg.GetSessionCookieName())
	if err := h.svc.Logout(c.Request.Context(), raw); httpkit.HandleError(c, err) {
		return
	}
	h.setSessionCookie(c, "", -1)
	httpkit.OK(c, gin.H{"status": "logged_out"})
}

// Me returns the authenticated admin; the session middleware has
// already resolved it.
func (h *Handler) Me(c *gin.Context) {
	identity := httpkit.GetIdentity(c)
	if !identity.IsAuthenticated() {
		httpkit.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	httpkit.OK(c, gin.H{
		"id":    identity.AdminID(),
		"email": identity.Email(),
	})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.GetSessionCookieName(), value, maxAge, "/", "", h.cfg.GetSessionCookieSecure(), true)
}
