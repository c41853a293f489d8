// Package handler exposes the leads HTTP endpoints: the public
// earnings calculator and the admin CRM surface.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"funnel_backend/internal/leads/repository"
	"funnel_backend/internal/leads/service"
	"funnel_backend/internal/leads/transport"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SubmitCalculator is the public lead-magnet endpoint.
func (h *Handler) SubmitCalculator(c *gin.Context) {
	var req transport.CalculatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SubmitCalculator(c.Request.Context(), service.CalculateParams{
		Email:            req.Email,
		Name:             req.Name,
		ChannelName:      req.ChannelName,
		WebsiteURL:       req.WebsiteURL,
		Platform:         req.Platform,
		Phone:            req.Phone,
		MonthlyClicks:    req.MonthlyClicks,
		MarketingConsent: req.MarketingConsent,
		Source:           req.Source,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CalculatorResponse{
		LeadID:      result.Lead.ID,
		Projections: result.Projections,
		Tier:        string(result.Tier),
	})
}

// Create adds a lead by hand from the admin UI.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.CreateManual(c.Request.Context(), service.ManualCreateParams{
		Email:            req.Email,
		Name:             req.Name,
		ChannelName:      req.ChannelName,
		WebsiteURL:       req.WebsiteURL,
		Platform:         req.Platform,
		Phone:            req.Phone,
		MonthlyClicks:    req.MonthlyClicks,
		MarketingConsent: req.MarketingConsent,
		Source:           req.Source,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "25"))

	leads, total, err := h.svc.ListLeads(c.Request.Context(), repository.ListLeadsParams{
		Status:   c.Query("status"),
		Sequence: c.Query("sequence"),
		Tier:     c.Query("tier"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, transport.ToLeadResponse(lead))
	}
	httpkit.OK(c, transport.ListLeadsResponse{
		Leads:    out,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	lead, err := h.svc.GetLead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateLead(c.Request.Context(), id, repository.UpdateLeadParams{
		Name:        req.Name,
		ChannelName: req.ChannelName,
		WebsiteURL:  req.WebsiteURL,
		Platform:    req.Platform,
		Phone:       req.Phone,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.ChangeStatus(c.Request.Context(), id, req.Status, httpkit.GetIdentity(c).Email())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) MarkReplied(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	lead, err := h.svc.MarkReplied(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Timeline(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	activities, err := h.svc.Timeline(c.Request.Context(), id, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"activity": transport.ToActivityResponses(activities)})
}

func (h *Handler) EmailHistory(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	sends, err := h.svc.EmailHistory(c.Request.Context(), id, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"emails": transport.ToEmailSendResponses(sends)})
}

func (h *Handler) AssignSequence(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.AssignSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.AssignSequence(c.Request.Context(), id, req.Sequence, req.StartImmediately)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) PauseSequence(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.PauseSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.PauseSequence(c.Request.Context(), id, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ResumeSequence(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	lead, err := h.svc.ResumeSequence(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) SkipStep(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}
	lead, err := h.svc.SkipStep(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) SendEmail(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if req.Text == "" && req.HTML == "" {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "either text or html body is required")
		return
	}

	send, err := h.svc.SendOneOff(c.Request.Context(), id, service.SendEmailParams{
		Subject: req.Subject,
		Text:    req.Text,
		HTML:    req.HTML,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	sends := transport.ToEmailSendResponses([]repository.EmailSend{send})
	httpkit.OK(c, sends[0])
}

func (h *Handler) Import(c *gin.Context) {
	var req transport.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rows := make([]service.ImportRow, 0, len(req.Leads))
	for _, row := range req.Leads {
		rows = append(rows, service.ImportRow{
			Email:       row.Email,
			Name:        row.Name,
			ChannelName: row.ChannelName,
			WebsiteURL:  row.WebsiteURL,
			Platform:    row.Platform,
		})
	}

	result, err := h.svc.ImportLeads(c.Request.Context(), service.ImportParams{
		Rows:             rows,
		Sequence:         req.Sequence,
		Source:           req.Source,
		MarketingConsent: req.MarketingConsent,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.Nil, false
	}
	return id, true
}
