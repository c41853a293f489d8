package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/platform/apperr"
)

type ReplyParams struct {
	FromEmail string
	FromName  string
	Subject   string
}

type ReplyResult struct {
	Lead      repository.Lead
	Duplicate bool
}

// HandleReply processes an inbound email reply. The sequence pauses,
// the status upgrades to engaged, the score goes up and the reply is
// logged, all in one transaction. A second webhook delivery for a lead
// already paused as replied is a no-op.
func (s *Service) HandleReply(ctx context.Context, params ReplyParams) (ReplyResult, error) {
	lead, err := s.store.FindByEmail(ctx, params.FromEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return ReplyResult{}, apperr.NotFound("no lead matches the sender address")
	}
	if err != nil {
		return ReplyResult{}, apperr.Wrap(apperr.KindInternal, "failed to look up lead", err)
	}

	if lead.Paused && lead.PausedReason != nil && *lead.PausedReason == domain.PauseReplied {
		return ReplyResult{Lead: lead, Duplicate: true}, nil
	}

	delta, _ := domain.EngagementDelta(domain.EngagementReply)
	updated, err := s.store.MarkReplied(ctx, repository.MarkRepliedParams{
		LeadID:     lead.ID,
		Legacy:     lead.Legacy,
		Status:     domain.UpgradeToEngaged(lead.Status),
		ScoreDelta: delta,
		Metadata: map[string]any{
			"subject":   params.Subject,
			"from_name": params.FromName,
		},
	})
	if err != nil {
		return ReplyResult{}, apperr.Wrap(apperr.KindInternal, "failed to record reply", err)
	}

	s.bus.Publish(ctx, events.LeadReplied{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    updated.ID,
		Email:     updated.Email,
		Name:      updated.Name,
		Subject:   params.Subject,
	})

	return ReplyResult{Lead: updated}, nil
}

// MarkReplied records a reply spotted outside the inbound webhook, for
// example one forwarded from a personal inbox. Same transition as
// HandleReply, minus the staff notification.
func (s *Service) MarkReplied(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}

	if lead.Paused && lead.PausedReason != nil && *lead.PausedReason == domain.PauseReplied {
		return lead, nil
	}

	delta, _ := domain.EngagementDelta(domain.EngagementReply)
	updated, err := s.store.MarkReplied(ctx, repository.MarkRepliedParams{
		LeadID:     lead.ID,
		Legacy:     lead.Legacy,
		Status:     domain.UpgradeToEngaged(lead.Status),
		ScoreDelta: delta,
		Metadata:   map[string]any{"source": "manual"},
	})
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to record reply", err)
	}
	return updated, nil
}

// RecordEngagement applies a tracked engagement event (open/click/
// application) to the score and the activity log.
func (s *Service) RecordEngagement(ctx context.Context, id uuid.UUID, event domain.EngagementEvent, activityType string) (int, error) {
	delta, ok := domain.EngagementDelta(event)
	if !ok {
		return 0, apperr.BadRequest("unknown engagement event")
	}

	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return 0, err
	}

	score, err := s.store.IncrementEngagement(ctx, lead, delta)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "failed to update engagement score", err)
	}

	if activityType != "" {
		if err := s.store.InsertActivity(ctx, lead.ID, activityType, map[string]any{
			"event": string(event),
			"delta": delta,
		}); err != nil {
			s.log.DatabaseError("insert engagement activity", err)
		}
	}
	return score, nil
}

// TrackDelivery applies a provider delivery event (opened, clicked,
// bounced) to the matching send and its lead. Redelivered provider
// webhooks return the send unchanged.
func (s *Service) TrackDelivery(ctx context.Context, providerID, event string) (repository.EmailSend, error) {
	send, first, err := s.store.MarkDeliveryEvent(ctx, providerID, event)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.EmailSend{}, apperr.NotFound("no send matches the provider message id")
	}
	if err != nil {
		return repository.EmailSend{}, apperr.Wrap(apperr.KindInternal, "failed to record delivery event", err)
	}
	if !first {
		return send, nil
	}

	switch event {
	case repository.DeliveryOpened:
		if err := s.store.InsertActivity(ctx, send.LeadID, repository.ActivityEmailOpened, map[string]any{
			"send_id": send.ID.String(),
			"subject": send.Subject,
		}); err != nil {
			s.log.DatabaseError("insert open activity", err)
		}
	case repository.DeliveryClicked:
		if _, err := s.RecordEngagement(ctx, send.LeadID, domain.EngagementClick, repository.ActivityEmailClicked); err != nil {
			s.log.DatabaseError("record click engagement", err)
		}
	case repository.DeliveryBounced:
		if err := s.pauseForBounce(ctx, send.LeadID); err != nil {
			s.log.DatabaseError("pause bounced lead", err)
		}
	}
	return send, nil
}

func (s *Service) pauseForBounce(ctx context.Context, leadID uuid.UUID) error {
	lead, err := s.GetLead(ctx, leadID)
	if err != nil {
		return err
	}

	state, err := lead.SequenceState().Pause(domain.PauseBounced)
	if err != nil {
		return err
	}
	_, err = s.store.WriteSequenceState(ctx, lead, state, repository.ActivitySequencePaused, map[string]any{
		"reason": domain.PauseBounced,
	})
	return err
}

// Unsubscribe opts the lead out of all further automated email.
// Idempotent: a second call reports success without rewriting anything.
func (s *Service) Unsubscribe(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}
	if lead.Unsubscribed {
		return lead, nil
	}

	delta, _ := domain.EngagementDelta(domain.EngagementUnsubscribe)
	updated, err := s.store.MarkUnsubscribed(ctx, lead, delta)
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to unsubscribe lead", err)
	}

	s.bus.Publish(ctx, events.LeadUnsubscribed{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    updated.ID,
		Email:     updated.Email,
	})
	return updated, nil
}
