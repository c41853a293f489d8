package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/platform/apperr"
)

// AssignSequence enrolls a lead in a sequence from step zero. Any prior
// sequence position and pause state is discarded.
func (s *Service) AssignSequence(ctx context.Context, id uuid.UUID, sequence string, startImmediately bool) (repository.Lead, error) {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}
	if lead.Unsubscribed {
		return repository.Lead{}, apperr.Conflict("lead has unsubscribed and cannot be re-enrolled")
	}

	state, err := lead.SequenceState().Assign(sequence, startImmediately, nowUTC())
	if errors.Is(err, domain.ErrUnknownSequence) {
		return repository.Lead{}, apperr.BadRequest("unknown sequence name")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to build sequence state", err)
	}

	updated, err := s.store.WriteSequenceState(ctx, lead, state, repository.ActivitySequenceChanged, map[string]any{
		"sequence":          sequence,
		"start_immediately": startImmediately,
	})
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to assign sequence", err)
	}
	return updated, nil
}

// PauseSequence suspends automated sends for a lead. Pausing an
// already-paused lead overwrites the reason.
func (s *Service) PauseSequence(ctx context.Context, id uuid.UUID, reason string) (repository.Lead, error) {
	if reason == "" {
		reason = domain.PauseManual
	}

	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}

	state, err := lead.SequenceState().Pause(reason)
	if errors.Is(err, domain.ErrUnknownPauseReason) {
		return repository.Lead{}, apperr.BadRequest("unknown pause reason")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to build sequence state", err)
	}

	updated, err := s.store.WriteSequenceState(ctx, lead, state, repository.ActivitySequencePaused, map[string]any{
		"reason": reason,
	})
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to pause sequence", err)
	}
	return updated, nil
}

// ResumeSequence lifts a pause. Unsubscribed leads stay paused; resuming
// a lead that is not paused is a conflict.
func (s *Service) ResumeSequence(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}
	if lead.Unsubscribed {
		return repository.Lead{}, apperr.Conflict("lead has unsubscribed and cannot be resumed")
	}
	if !lead.Paused {
		return repository.Lead{}, apperr.Conflict("lead is not paused")
	}

	state := lead.SequenceState().Resume()
	updated, err := s.store.WriteSequenceState(ctx, lead, state, repository.ActivitySequenceResumed, nil)
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to resume sequence", err)
	}
	return updated, nil
}

// SkipStep moves the lead past the pending email without sending it.
func (s *Service) SkipStep(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}

	state, err := lead.SequenceState().Advance(nowUTC())
	if errors.Is(err, domain.ErrSequenceUnassigned) {
		return repository.Lead{}, apperr.Conflict("lead has no sequence assigned")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to build sequence state", err)
	}

	updated, err := s.store.WriteSequenceState(ctx, lead, state, repository.ActivityStatusChanged, map[string]any{
		"action": "step_skipped",
		"step":   state.Step,
	})
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to skip step", err)
	}
	return updated, nil
}

// ChangeStatus moves a lead through the pipeline. Signing a partner and
// losing a lead both stop the sequence as a side effect.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string, adminEmail string) (repository.Lead, error) {
	if !domain.IsKnownStatus(status) {
		return repository.Lead{}, apperr.BadRequest("unknown status")
	}

	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}

	if status == domain.StatusSigned {
		updated, err := s.store.MarkSigned(ctx, lead, map[string]any{
			"from":  lead.Status,
			"admin": adminEmail,
		})
		if err != nil {
			return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to mark lead signed", err)
		}
		return updated, nil
	}

	updated, err := s.store.SetStatus(ctx, lead, status, map[string]any{
		"from":  lead.Status,
		"to":    status,
		"admin": adminEmail,
	})
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to change status", err)
	}

	if status == domain.StatusLost && !updated.Paused {
		state, pauseErr := updated.SequenceState().Pause(domain.PauseManual)
		if pauseErr == nil {
			if paused, err := s.store.WriteSequenceState(ctx, updated, state, "", nil); err == nil {
				updated = paused
			} else {
				s.log.DatabaseError("pause lost lead", err)
			}
		}
	}
	return updated, nil
}
