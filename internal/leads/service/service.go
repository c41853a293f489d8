// Package service implements the lead lifecycle: calculator intake,
// engagement, sequence control and bulk import.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"funnel_backend/internal/email"
	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/phone"
)

// Store is the persistence surface the service needs. The pgx
// repository satisfies it; tests substitute fakes.
type Store interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	FindByEmail(ctx context.Context, email string) (repository.Lead, error)
	List(ctx context.Context, params repository.ListLeadsParams) ([]repository.Lead, int, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error)
	SetStatus(ctx context.Context, lead repository.Lead, status string, metadata map[string]any) (repository.Lead, error)

	IncrementEngagement(ctx context.Context, lead repository.Lead, delta int) (int, error)
	MarkReplied(ctx context.Context, params repository.MarkRepliedParams) (repository.Lead, error)
	MarkUnsubscribed(ctx context.Context, lead repository.Lead, scoreDelta int) (repository.Lead, error)
	MarkSigned(ctx context.Context, lead repository.Lead, metadata map[string]any) (repository.Lead, error)
	WriteSequenceState(ctx context.Context, lead repository.Lead, state domain.SequenceState, activityType string, metadata map[string]any) (repository.Lead, error)

	InsertActivity(ctx context.Context, leadID uuid.UUID, activityType string, metadata map[string]any) error
	ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.Activity, error)

	ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error)
	InsertImported(ctx context.Context, chunk []repository.ImportLeadParams) error

	QueueSend(ctx context.Context, params repository.QueueSendParams) (repository.EmailSend, error)
	MarkSendResult(ctx context.Context, sendID uuid.UUID, providerID string, sendErr error) error
	MarkDeliveryEvent(ctx context.Context, providerID, event string) (repository.EmailSend, bool, error)
	ListSendsByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.EmailSend, error)
}

type Service struct {
	store  Store
	sender email.Sender
	bus    events.Bus
	log    *logger.Logger
}

func New(store Store, sender email.Sender, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, sender: sender, bus: bus, log: log}
}

// GetLead fetches one lead, falling back to the legacy table.
func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	return lead, nil
}

func (s *Service) ListLeads(ctx context.Context, params repository.ListLeadsParams) ([]repository.Lead, int, error) {
	if params.Status != "" && !domain.IsKnownStatus(params.Status) {
		return nil, 0, apperr.BadRequest("unknown status filter")
	}
	if params.Sequence != "" && !domain.IsKnownSequence(params.Sequence) {
		return nil, 0, apperr.BadRequest("unknown sequence filter")
	}
	leads, total, err := s.store.List(ctx, params)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return leads, total, nil
}

type ManualCreateParams struct {
	Email            string
	Name             string
	ChannelName      string
	WebsiteURL       string
	Platform         string
	Phone            string
	MonthlyClicks    int64
	MarketingConsent bool
	Source           string
}

// CreateManual adds a lead by hand from the admin UI. Projections are
// computed when click volume is known; no sequence is assigned, that
// stays an explicit admin action.
func (s *Service) CreateManual(ctx context.Context, params ManualCreateParams) (repository.Lead, error) {
	var projections domain.ProjectionSet
	tier := domain.TierStarter
	if params.MonthlyClicks > 0 {
		projections = domain.Project(params.MonthlyClicks)
		tier = domain.TierFor(projections.Realistic.AnnualEarnings)
	}

	var phoneNumber *string
	if params.Phone != "" {
		normalized := phone.NormalizeE164(params.Phone)
		phoneNumber = &normalized
	}
	source := "manual"
	if params.Source != "" {
		source = params.Source
	}

	lead, err := s.store.Create(ctx, repository.CreateLeadParams{
		Email:       params.Email,
		Name:        params.Name,
		ChannelName: params.ChannelName,
		WebsiteURL:  params.WebsiteURL,
		Platform:    params.Platform,
		Phone:       phoneNumber,
		Source:      &source,

		MonthlyClicks:         params.MonthlyClicks,
		ProjectedConservative: projections.Conservative.AnnualEarnings,
		ProjectedRealistic:    projections.Realistic.AnnualEarnings,
		ProjectedOptimistic:   projections.Optimistic.AnnualEarnings,
		EarningsTier:          string(tier),

		Status:           domain.StatusNew,
		EngagementScore:  domain.SeedScore(tier),
		MarketingConsent: params.MarketingConsent,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return repository.Lead{}, apperr.Conflict("a lead with this email already exists")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	if err := s.store.InsertActivity(ctx, lead.ID, repository.ActivityLeadCreated, map[string]any{
		"source": source,
	}); err != nil {
		s.log.DatabaseError("insert lead created activity", err)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Email:     lead.Email,
		Source:    source,
	})
	return lead, nil
}

func (s *Service) UpdateLead(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error) {
	lead, err := s.store.UpdateProfile(ctx, id, params)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to update lead", err)
	}
	return lead, nil
}

// Timeline returns the newest activity rows for a lead.
func (s *Service) Timeline(ctx context.Context, id uuid.UUID, limit int) ([]repository.Activity, error) {
	if _, err := s.GetLead(ctx, id); err != nil {
		return nil, err
	}
	activities, err := s.store.ListActivity(ctx, id, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load activity", err)
	}
	return activities, nil
}

// EmailHistory returns the send log for a lead.
func (s *Service) EmailHistory(ctx context.Context, id uuid.UUID, limit int) ([]repository.EmailSend, error) {
	if _, err := s.GetLead(ctx, id); err != nil {
		return nil, err
	}
	sends, err := s.store.ListSendsByLead(ctx, id, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load email history", err)
	}
	return sends, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
