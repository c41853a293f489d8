package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Email send statuses. A queued row is an outbox entry the delivery
// worker has not finished yet.
const (
	SendQueued = "queued"
	SendSent   = "sent"
	SendFailed = "failed"
)

type EmailSend struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	TemplateID        *uuid.UUID
	SequenceName      *string
	Step              *int
	ToEmail           string
	Subject           string
	Body              string
	Status            string
	ProviderMessageID *string
	Attempts          int
	LastError         *string
	SentAt            *time.Time
	CreatedAt         time.Time
}

const sendColumns = `id, lead_id, template_id, sequence_name, step, to_email, subject, body,
	status, provider_message_id, attempts, last_error, sent_at, created_at`

func scanSend(row pgx.Row) (EmailSend, error) {
	var send EmailSend
	err := row.Scan(&send.ID, &send.LeadID, &send.TemplateID, &send.SequenceName, &send.Step,
		&send.ToEmail, &send.Subject, &send.Body,
		&send.Status, &send.ProviderMessageID, &send.Attempts, &send.LastError,
		&send.SentAt, &send.CreatedAt)
	return send, err
}

type QueueSendParams struct {
	LeadID       uuid.UUID
	TemplateID   *uuid.UUID
	SequenceName *string
	Step         *int
	ToEmail      string
	Subject      string
	Body         string
}

// QueueSend records an email about to be handed to the provider.
func (r *Repository) QueueSend(ctx context.Context, params QueueSendParams) (EmailSend, error) {
	return scanSend(r.pool.QueryRow(ctx, `
		INSERT INTO email_sends (lead_id, template_id, sequence_name, step, to_email, subject, body, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+sendColumns,
		params.LeadID, params.TemplateID, params.SequenceName, params.Step,
		params.ToEmail, params.Subject, params.Body, SendQueued))
}

// GetSend loads one outbox row.
func (r *Repository) GetSend(ctx context.Context, id uuid.UUID) (EmailSend, error) {
	send, err := scanSend(r.pool.QueryRow(ctx,
		`SELECT `+sendColumns+` FROM email_sends WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return EmailSend{}, ErrNotFound
	}
	return send, err
}

// MarkSendResult finalizes a queued send after the provider call.
func (r *Repository) MarkSendResult(ctx context.Context, sendID uuid.UUID, providerID string, sendErr error) error {
	if sendErr != nil {
		message := sendErr.Error()
		_, err := r.pool.Exec(ctx, `
			UPDATE email_sends SET
				status = $2,
				attempts = attempts + 1,
				last_error = $3,
				updated_at = now()
			WHERE id = $1`, sendID, SendFailed, message)
		return err
	}

	var provider *string
	if providerID != "" {
		provider = &providerID
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE email_sends SET
			status = $2,
			attempts = attempts + 1,
			provider_message_id = $3,
			last_error = NULL,
			sent_at = now(),
			updated_at = now()
		WHERE id = $1`, sendID, SendSent, provider)
	return err
}

// Delivery events the provider webhook reports per message.
const (
	DeliveryOpened  = "opened"
	DeliveryClicked = "clicked"
	DeliveryBounced = "bounced"
)

var deliveryColumns = map[string]string{
	DeliveryOpened:  "opened_at",
	DeliveryClicked: "clicked_at",
	DeliveryBounced: "bounced_at",
}

// MarkDeliveryEvent stamps a provider-reported event on the send that
// matches the provider message id. Providers redeliver webhooks, so an
// already-stamped event returns first=false and changes nothing.
func (r *Repository) MarkDeliveryEvent(ctx context.Context, providerID, event string) (EmailSend, bool, error) {
	column, ok := deliveryColumns[event]
	if !ok {
		return EmailSend{}, false, fmt.Errorf("unknown delivery event %q", event)
	}

	send, err := scanSend(r.pool.QueryRow(ctx, `
		UPDATE email_sends SET
			`+column+` = now(),
			updated_at = now()
		WHERE provider_message_id = $1 AND `+column+` IS NULL
		RETURNING `+sendColumns, providerID))
	if err == nil {
		return send, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return EmailSend{}, false, err
	}

	send, err = scanSend(r.pool.QueryRow(ctx,
		`SELECT `+sendColumns+` FROM email_sends WHERE provider_message_id = $1`, providerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return EmailSend{}, false, ErrNotFound
	}
	return send, false, err
}

// ListSendsByLead returns the send history for one lead, newest first.
func (r *Repository) ListSendsByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]EmailSend, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+sendColumns+`
		FROM email_sends
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sends := make([]EmailSend, 0)
	for rows.Next() {
		send, err := scanSend(rows)
		if err != nil {
			return nil, err
		}
		sends = append(sends, send)
	}
	return sends, rows.Err()
}

// CountSentSince counts provider-accepted sends after the cutoff. The
// dispatcher uses it to rebuild the daily-limit floor on startup.
func (r *Repository) CountSentSince(ctx context.Context, sequence string, cutoff time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM email_sends
		WHERE sequence_name = $1 AND status = $2 AND sent_at >= $3`,
		sequence, SendSent, cutoff).Scan(&count)
	return count, err
}
