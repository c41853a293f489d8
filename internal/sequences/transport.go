package sequences

import (
	"time"

	"github.com/google/uuid"

	leadstransport "funnel_backend/internal/leads/transport"
)

type CreateTemplateRequest struct {
	SequenceName string `json:"sequence_name" validate:"required,max=50"`
	Step         int    `json:"step" validate:"gte=0,lte=100"`
	Subject      string `json:"subject" validate:"required,min=1,max=300"`
	Body         string `json:"body" validate:"required,min=1,max=50000"`
	DelayDays    int    `json:"delay_days" validate:"gte=0,lte=365"`
	Active       *bool  `json:"active"`
}

type UpdateTemplateRequest struct {
	Subject   *string `json:"subject" validate:"omitempty,min=1,max=300"`
	Body      *string `json:"body" validate:"omitempty,min=1,max=50000"`
	DelayDays *int    `json:"delay_days" validate:"omitempty,gte=0,lte=365"`
	Active    *bool   `json:"active"`
}

type TemplateResponse struct {
	ID           uuid.UUID `json:"id"`
	SequenceName string    `json:"sequence_name"`
	Step         int       `json:"step"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	DelayDays    int       `json:"delay_days"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toTemplateResponse(tpl Template) TemplateResponse {
	return TemplateResponse{
		ID:           tpl.ID,
		SequenceName: tpl.SequenceName,
		Step:         tpl.Step,
		Subject:      tpl.Subject,
		Body:         tpl.Body,
		DelayDays:    tpl.DelayDays,
		Active:       tpl.Active,
		CreatedAt:    tpl.CreatedAt,
		UpdatedAt:    tpl.UpdatedAt,
	}
}

type UpdateSettingsRequest struct {
	Paused          *bool   `json:"paused"`
	SendWindowStart *int    `json:"send_window_start" validate:"omitempty,gte=0,lte=23"`
	SendWindowEnd   *int    `json:"send_window_end" validate:"omitempty,gte=1,lte=24"`
	SendTimezone    *string `json:"send_timezone" validate:"omitempty,max=64"`
	DailyLimit      *int    `json:"daily_limit" validate:"omitempty,gte=0,lte=100000"`
	SkipWeekends    *bool   `json:"skip_weekends"`
}

type SettingsResponse struct {
	SequenceName    string    `json:"sequence_name"`
	Paused          bool      `json:"paused"`
	SendWindowStart int       `json:"send_window_start"`
	SendWindowEnd   int       `json:"send_window_end"`
	SendTimezone    string    `json:"send_timezone"`
	DailyLimit      int       `json:"daily_limit"`
	SkipWeekends    bool      `json:"skip_weekends"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toSettingsResponse(s Settings) SettingsResponse {
	return SettingsResponse{
		SequenceName:    s.SequenceName,
		Paused:          s.Paused,
		SendWindowStart: s.SendWindowStart,
		SendWindowEnd:   s.SendWindowEnd,
		SendTimezone:    s.SendTimezone,
		DailyLimit:      s.DailyLimit,
		SkipWeekends:    s.SkipWeekends,
		UpdatedAt:       s.UpdatedAt,
	}
}

type QueueEntryResponse struct {
	Lead      leadstransport.LeadResponse `json:"lead"`
	NextStep  int                         `json:"next_step"`
	Completed bool                        `json:"completed"`
}

func toQueueResponse(entries []QueueEntry) []QueueEntryResponse {
	out := make([]QueueEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, QueueEntryResponse{
			Lead:      leadstransport.ToLeadResponse(entry.Lead),
			NextStep:  entry.NextStep,
			Completed: entry.Completed,
		})
	}
	return out
}
