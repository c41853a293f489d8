package sequences

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.svc.ListTemplates(c.Request.Context(), c.Query("sequence"))
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]TemplateResponse, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, toTemplateResponse(tpl))
	}
	httpkit.OK(c, gin.H{"templates": out})
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	tpl, err := h.svc.CreateTemplate(c.Request.Context(), TemplateParams{
		SequenceName: req.SequenceName,
		Step:         req.Step,
		Subject:      req.Subject,
		Body:         req.Body,
		DelayDays:    req.DelayDays,
		Active:       active,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toTemplateResponse(tpl))
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid template id", nil)
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tpl, err := h.svc.UpdateTemplate(c.Request.Context(), id, TemplateUpdateParams{
		Subject:   req.Subject,
		Body:      req.Body,
		DelayDays: req.DelayDays,
		Active:    req.Active,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toTemplateResponse(tpl))
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid template id", nil)
		return
	}
	if err := h.svc.DeleteTemplate(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "deleted"})
}

func (h *Handler) ListSettings(c *gin.Context) {
	settings, err := h.svc.ListSettings(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]SettingsResponse, 0, len(settings))
	for _, s := range settings {
		out = append(out, toSettingsResponse(s))
	}
	httpkit.OK(c, gin.H{"settings": out})
}

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.svc.GetSettings(c.Request.Context(), c.Param("sequence"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSettingsResponse(settings))
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	settings, err := h.svc.UpdateSettings(c.Request.Context(), c.Param("sequence"), SettingsUpdateParams{
		Paused:          req.Paused,
		SendWindowStart: req.SendWindowStart,
		SendWindowEnd:   req.SendWindowEnd,
		SendTimezone:    req.SendTimezone,
		DailyLimit:      req.DailyLimit,
		SkipWeekends:    req.SkipWeekends,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSettingsResponse(settings))
}

func (h *Handler) PauseAll(c *gin.Context) {
	settings, err := h.svc.SetPaused(c.Request.Context(), c.Param("sequence"), true)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSettingsResponse(settings))
}

func (h *Handler) ResumeAll(c *gin.Context) {
	settings, err := h.svc.SetPaused(c.Request.Context(), c.Param("sequence"), false)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSettingsResponse(settings))
}

func (h *Handler) Queue(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.svc.Queue(c.Request.Context(), c.Query("sequence"), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"queue": toQueueResponse(entries)})
}
