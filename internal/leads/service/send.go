package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"funnel_backend/internal/email"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/platform/apperr"
)

type SendEmailParams struct {
	Subject string
	Text    string
	HTML    string
}

// SendOneOff sends a single manual email to a lead from the admin UI,
// outside any sequence. The send is recorded in email_sends either way;
// failure keeps the queued row with the error for inspection.
func (s *Service) SendOneOff(ctx context.Context, id uuid.UUID, params SendEmailParams) (repository.EmailSend, error) {
	lead, err := s.GetLead(ctx, id)
	if err != nil {
		return repository.EmailSend{}, err
	}
	if lead.Unsubscribed {
		return repository.EmailSend{}, apperr.Conflict("lead has unsubscribed")
	}

	body := params.HTML
	if body == "" {
		body = params.Text
	}
	send, err := s.store.QueueSend(ctx, repository.QueueSendParams{
		LeadID:  lead.ID,
		ToEmail: lead.Email,
		Subject: params.Subject,
		Body:    body,
	})
	if err != nil {
		return repository.EmailSend{}, apperr.Wrap(apperr.KindInternal, "failed to queue email", err)
	}

	providerID, sendErr := s.sender.Send(ctx, email.Message{
		To:      lead.Email,
		ToName:  lead.Name,
		Subject: params.Subject,
		Text:    params.Text,
		HTML:    params.HTML,
	})
	if err := s.store.MarkSendResult(ctx, send.ID, providerID, sendErr); err != nil {
		s.log.DatabaseError("mark send result", err)
	}
	s.log.EmailSend(lead.ID.String(), lead.Email, providerID, sendErr)

	if errors.Is(sendErr, email.ErrDisabled) {
		return repository.EmailSend{}, apperr.Unavailable("email sending is not configured")
	}
	if sendErr != nil {
		return repository.EmailSend{}, apperr.Wrap(apperr.KindInternal, "email provider rejected the message", sendErr)
	}

	if err := s.store.InsertActivity(ctx, lead.ID, repository.ActivityEmailSent, map[string]any{
		"subject": params.Subject,
		"manual":  true,
	}); err != nil {
		s.log.DatabaseError("insert send activity", err)
	}

	// Mirror MarkSendResult's write on the row we queued. Re-reading
	// "the latest send" could pick up a concurrent send to the same lead.
	now := time.Now().UTC()
	send.Status = repository.SendSent
	send.ProviderMessageID = &providerID
	send.Attempts++
	send.SentAt = &now
	return send, nil
}
