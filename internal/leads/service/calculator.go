package service

import (
	"context"
	"errors"

	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/phone"
)

type CalculateParams struct {
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

type CalculateResult struct {
	Lead        repository.Lead
	Projections domain.ProjectionSet
	Tier        domain.Tier
}

// SubmitCalculator handles an earnings-calculator submission: compute
// the projections, create the lead seeded with a tier-based engagement
// score, and, with marketing consent, enroll it in the nurture
// sequence. A repeat submission for the same email is a conflict; the
// projections are still returned in the error details so the frontend
// can show them.
func (s *Service) SubmitCalculator(ctx context.Context, params CalculateParams) (CalculateResult, error) {
	projections := domain.Project(params.MonthlyClicks)
	tier := domain.TierFor(projections.Realistic.AnnualEarnings)

	var phoneNumber *string
	if params.Phone != "" {
		normalized := phone.NormalizeE164(params.Phone)
		phoneNumber = &normalized
	}

	var source *string
	if params.Source != "" {
		source = &params.Source
	}

	lead, err := s.store.Create(ctx, repository.CreateLeadParams{
		Email:       params.Email,
		Name:        params.Name,
		ChannelName: params.ChannelName,
		WebsiteURL:  params.WebsiteURL,
		Platform:    params.Platform,
		Phone:       phoneNumber,
		Source:      source,

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
		return CalculateResult{}, apperr.Conflict("a lead with this email already exists").
			WithDetails(map[string]any{"projections": projections})
	}
	if err != nil {
		return CalculateResult{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	if err := s.store.InsertActivity(ctx, lead.ID, repository.ActivityCalculatorSubmitted, map[string]any{
		"monthly_clicks": params.MonthlyClicks,
		"earnings_tier":  string(tier),
	}); err != nil {
		s.log.DatabaseError("insert calculator activity", err)
	}

	if params.MarketingConsent {
		state, err := lead.SequenceState().Assign(domain.SequenceCalculatorNurture, true, nowUTC())
		if err != nil {
			return CalculateResult{}, apperr.Wrap(apperr.KindInternal, "failed to build sequence state", err)
		}
		lead, err = s.store.WriteSequenceState(ctx, lead, state, repository.ActivitySequenceChanged, map[string]any{
			"sequence": domain.SequenceCalculatorNurture,
		})
		if err != nil {
			return CalculateResult{}, apperr.Wrap(apperr.KindInternal, "failed to assign sequence", err)
		}
	} else {
		// No consent: the lead exists for the admin UI but never enters
		// an automated sequence.
		state, _ := lead.SequenceState().Pause(domain.PauseNoConsent)
		lead, err = s.store.WriteSequenceState(ctx, lead, state, "", nil)
		if err != nil {
			return CalculateResult{}, apperr.Wrap(apperr.KindInternal, "failed to record consent state", err)
		}
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Email:     lead.Email,
		Source:    params.Source,
	})

	return CalculateResult{Lead: lead, Projections: projections, Tier: tier}, nil
}
