package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"funnel_backend/internal/leads/repository"
	"funnel_backend/internal/sequences"
)

// Store runs the claim-and-advance transaction for due leads. It spans
// the leads and outbox tables, so it carries its own SQL instead of
// composing the per-module repositories.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// QueuedDelivery identifies an outbox row written during a claim pass,
// ready to be handed to the delivery queue.
type QueuedDelivery struct {
	SendID uuid.UUID
	LeadID uuid.UUID
}

type claimedLead struct {
	ID    uuid.UUID
	Email string
	Step  int
}

// ClaimDue locks up to limit due leads of the sequence with SKIP LOCKED
// and, for each, either writes a queued outbox row and advances the
// sequence state, or records completion when no active template remains.
// templates must hold the sequence's active templates ordered by step.
// It returns the outbox rows written and how many leads completed.
func (s *Store) ClaimDue(ctx context.Context, sequence string, limit int, templates []sequences.Template) ([]QueuedDelivery, int, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id, email, sequence_step FROM calculator_leads
		WHERE current_sequence = $1
		AND next_email_at IS NOT NULL AND next_email_at <= now()
		AND NOT paused AND NOT unsubscribed
		ORDER BY next_email_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, sequence, limit)
	if err != nil {
		return nil, 0, err
	}

	claimed := make([]claimedLead, 0, limit)
	for rows.Next() {
		var lead claimedLead
		if err := rows.Scan(&lead.ID, &lead.Email, &lead.Step); err != nil {
			rows.Close()
			return nil, 0, err
		}
		claimed = append(claimed, lead)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	queued := make([]QueuedDelivery, 0, len(claimed))
	completed := 0
	for _, lead := range claimed {
		tpl := nextActiveTemplate(templates, lead.Step)
		if tpl == nil {
			if err := completeLeadTx(ctx, tx, lead.ID, sequence); err != nil {
				return nil, 0, err
			}
			completed++
			continue
		}

		delivery, done, err := advanceLeadTx(ctx, tx, lead, sequence, tpl, nextActiveTemplate(templates, tpl.Step+1))
		if err != nil {
			return nil, 0, err
		}
		queued = append(queued, delivery)
		if done {
			completed++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return queued, completed, nil
}

// advanceLeadTx writes the outbox row for tpl and moves the lead past
// it. When following is nil this was the last active step, so the
// sequence completes in the same transaction.
func advanceLeadTx(ctx context.Context, tx pgx.Tx, lead claimedLead, sequence string, tpl, following *sequences.Template) (QueuedDelivery, bool, error) {
	var sendID uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO email_sends (lead_id, template_id, sequence_name, step, to_email, subject, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		lead.ID, tpl.ID, sequence, tpl.Step, lead.Email, tpl.Subject, tpl.Body).Scan(&sendID)
	if err != nil {
		return QueuedDelivery{}, false, err
	}

	var nextAt *time.Time
	if following != nil {
		at := time.Now().UTC().Add(time.Duration(following.DelayDays) * 24 * time.Hour)
		nextAt = &at
	}
	_, err = tx.Exec(ctx, `
		UPDATE calculator_leads
		SET sequence_step = $2, next_email_at = $3, last_activity_at = now(), updated_at = now()
		WHERE id = $1`, lead.ID, tpl.Step+1, nextAt)
	if err != nil {
		return QueuedDelivery{}, false, err
	}

	meta := map[string]any{"sequence": sequence, "step": tpl.Step, "subject": tpl.Subject, "send_id": sendID.String()}
	if err := insertActivityTx(ctx, tx, lead.ID, repository.ActivityEmailSent, meta); err != nil {
		return QueuedDelivery{}, false, err
	}

	done := following == nil
	if done {
		if err := insertActivityTx(ctx, tx, lead.ID, repository.ActivitySequenceCompleted, map[string]any{"sequence": sequence}); err != nil {
			return QueuedDelivery{}, false, err
		}
	}
	return QueuedDelivery{SendID: sendID, LeadID: lead.ID}, done, nil
}

// completeLeadTx handles leads claimed with no active template left,
// which happens when steps are deactivated under a live sequence.
func completeLeadTx(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, sequence string) error {
	_, err := tx.Exec(ctx, `
		UPDATE calculator_leads
		SET next_email_at = NULL, updated_at = now()
		WHERE id = $1`, leadID)
	if err != nil {
		return err
	}
	return insertActivityTx(ctx, tx, leadID, repository.ActivitySequenceCompleted, map[string]any{"sequence": sequence})
}

// StaleQueued returns sequence outbox rows still queued past the
// cutoff, meaning their delivery task was lost before reaching the
// queue. One-off sends are excluded; they deliver inline.
func (s *Store) StaleQueued(ctx context.Context, cutoff time.Time, limit int) ([]QueuedDelivery, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lead_id FROM email_sends
		WHERE status = 'queued' AND sequence_name IS NOT NULL AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stale := make([]QueuedDelivery, 0)
	for rows.Next() {
		var d QueuedDelivery
		if err := rows.Scan(&d.SendID, &d.LeadID); err != nil {
			return nil, err
		}
		stale = append(stale, d)
	}
	return stale, rows.Err()
}

func insertActivityTx(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, activityType string, metadata map[string]any) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, activity_type, metadata)
		VALUES ($1, $2, $3)`, leadID, activityType, payload)
	return err
}

// nextActiveTemplate returns the first template at or after fromStep.
// templates are ordered by step and already filtered to active.
func nextActiveTemplate(templates []sequences.Template, fromStep int) *sequences.Template {
	for i := range templates {
		if templates[i].Step >= fromStep {
			return &templates[i]
		}
	}
	return nil
}
