// Package transport defines the request and response shapes for the
// leads HTTP API.
package transport

import (
	"time"

	"github.com/google/uuid"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
)

type CalculatorRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Name             string `json:"name" validate:"required,min=1,max=200"`
	ChannelName      string `json:"channel_name" validate:"max=200"`
	WebsiteURL       string `json:"website_url" validate:"omitempty,url,max=500"`
	Platform         string `json:"platform" validate:"omitempty,oneof=youtube blog newsletter podcast social other"`
	Phone            string `json:"phone" validate:"max=30"`
	MonthlyClicks    int64  `json:"monthly_clicks" validate:"required,gt=0"`
	MarketingConsent bool   `json:"marketing_consent"`
	Source           string `json:"source" validate:"max=100"`
}

type CalculatorResponse struct {
	LeadID      uuid.UUID            `json:"lead_id"`
	Projections domain.ProjectionSet `json:"projections"`
	Tier        string               `json:"earnings_tier"`
}

type CreateLeadRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Name             string `json:"name" validate:"required,min=1,max=200"`
	ChannelName      string `json:"channel_name" validate:"max=200"`
	WebsiteURL       string `json:"website_url" validate:"omitempty,url,max=500"`
	Platform         string `json:"platform" validate:"omitempty,oneof=youtube blog newsletter podcast social other"`
	Phone            string `json:"phone" validate:"max=30"`
	MonthlyClicks    int64  `json:"monthly_clicks" validate:"gte=0"`
	MarketingConsent bool   `json:"marketing_consent"`
	Source           string `json:"source" validate:"max=100"`
}

type UpdateLeadRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	ChannelName *string `json:"channel_name" validate:"omitempty,max=200"`
	WebsiteURL  *string `json:"website_url" validate:"omitempty,url,max=500"`
	Platform    *string `json:"platform" validate:"omitempty,oneof=youtube blog newsletter podcast social other"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AssignSequenceRequest struct {
	Sequence         string `json:"sequence" validate:"required"`
	StartImmediately bool   `json:"start_immediately"`
}

type PauseSequenceRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=50"`
}

type SendEmailRequest struct {
	Subject string `json:"subject" validate:"required,min=1,max=300"`
	Text    string `json:"text" validate:"max=50000"`
	HTML    string `json:"html" validate:"max=200000"`
}

type ImportRow struct {
	Email       string `json:"email" validate:"required"`
	Name        string `json:"name" validate:"max=200"`
	ChannelName string `json:"channel_name" validate:"max=200"`
	WebsiteURL  string `json:"website_url" validate:"max=500"`
	Platform    string `json:"platform" validate:"max=50"`
}

type ImportRequest struct {
	Leads    []ImportRow `json:"leads" validate:"required,min=1,max=5000,dive"`
	Sequence string      `json:"sequence" validate:"omitempty,max=50"`
	Source   string      `json:"source" validate:"omitempty,max=100"`

	// The uploader vouches that the whole batch opted in. Defaults to
	// false so the consent column never claims consent nobody gave.
	MarketingConsent bool `json:"marketing_consent"`
}

type LeadResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	ChannelName string    `json:"channel_name,omitempty"`
	WebsiteURL  string    `json:"website_url,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Source      *string   `json:"source,omitempty"`

	MonthlyClicks         int64   `json:"monthly_clicks"`
	ProjectedConservative float64 `json:"projected_conservative_earnings"`
	ProjectedRealistic    float64 `json:"projected_realistic_earnings"`
	ProjectedOptimistic   float64 `json:"projected_optimistic_earnings"`
	EarningsTier          string  `json:"earnings_tier,omitempty"`

	Status          string     `json:"status"`
	CurrentSequence *string    `json:"current_sequence"`
	SequenceStep    int        `json:"sequence_step"`
	NextEmailAt     *time.Time `json:"next_email_at"`
	Paused          bool       `json:"paused"`
	PausedReason    *string    `json:"paused_reason"`

	EngagementScore int        `json:"engagement_score"`
	EngagementLevel string     `json:"engagement_level"`
	RepliedAt       *time.Time `json:"replied_at"`
	LastActivityAt  *time.Time `json:"last_activity_at"`

	MarketingConsent bool `json:"marketing_consent"`
	Unsubscribed     bool `json:"unsubscribed"`
	Legacy           bool `json:"legacy"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:          lead.ID,
		Email:       lead.Email,
		Name:        lead.Name,
		ChannelName: lead.ChannelName,
		WebsiteURL:  lead.WebsiteURL,
		Platform:    lead.Platform,
		Phone:       lead.Phone,
		Source:      lead.Source,

		MonthlyClicks:         lead.MonthlyClicks,
		ProjectedConservative: lead.ProjectedConservative,
		ProjectedRealistic:    lead.ProjectedRealistic,
		ProjectedOptimistic:   lead.ProjectedOptimistic,
		EarningsTier:          lead.EarningsTier,

		Status:          lead.Status,
		CurrentSequence: lead.CurrentSequence,
		SequenceStep:    lead.SequenceStep,
		NextEmailAt:     lead.NextEmailAt,
		Paused:          lead.Paused,
		PausedReason:    lead.PausedReason,

		EngagementScore: lead.EngagementScore,
		EngagementLevel: string(domain.LevelOf(lead.EngagementScore)),
		RepliedAt:       lead.RepliedAt,
		LastActivityAt:  lead.LastActivityAt,

		MarketingConsent: lead.MarketingConsent,
		Unsubscribed:     lead.Unsubscribed,
		Legacy:           lead.Legacy,

		CreatedAt: lead.CreatedAt,
		UpdatedAt: lead.UpdatedAt,
	}
}

type ListLeadsResponse struct {
	Leads    []LeadResponse `json:"leads"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type ActivityResponse struct {
	ID           uuid.UUID      `json:"id"`
	ActivityType string         `json:"activity_type"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func ToActivityResponses(activities []repository.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		out = append(out, ActivityResponse{
			ID:           activity.ID,
			ActivityType: activity.ActivityType,
			Metadata:     activity.Metadata,
			CreatedAt:    activity.CreatedAt,
		})
	}
	return out
}

type EmailSendResponse struct {
	ID                uuid.UUID  `json:"id"`
	SequenceName      *string    `json:"sequence_name"`
	Step              *int       `json:"step"`
	Subject           string     `json:"subject"`
	Status            string     `json:"status"`
	ProviderMessageID *string    `json:"provider_message_id"`
	Attempts          int        `json:"attempts"`
	LastError         *string    `json:"last_error"`
	SentAt            *time.Time `json:"sent_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

func ToEmailSendResponses(sends []repository.EmailSend) []EmailSendResponse {
	out := make([]EmailSendResponse, 0, len(sends))
	for _, send := range sends {
		out = append(out, EmailSendResponse{
			ID:                send.ID,
			SequenceName:      send.SequenceName,
			Step:              send.Step,
			Subject:           send.Subject,
			Status:            send.Status,
			ProviderMessageID: send.ProviderMessageID,
			Attempts:          send.Attempts,
			LastError:         send.LastError,
			SentAt:            send.SentAt,
			CreatedAt:         send.CreatedAt,
		})
	}
	return out
}
