package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"funnel_backend/internal/leads/domain"
)

// IncrementEngagement bumps the score atomically in the database and
// returns the new value. Concurrent increments never lose updates
// because the arithmetic happens inside the UPDATE itself.
func (r *Repository) IncrementEngagement(ctx context.Context, lead Lead, delta int) (int, error) {
	table := "calculator_leads"
	if lead.Legacy {
		table = "leads"
	}
	var score int
	err := r.pool.QueryRow(ctx, `
		UPDATE `+table+` SET
			engagement_score = engagement_score + $2,
			updated_at = now()
		WHERE id = $1
		RETURNING engagement_score`, lead.ID, delta).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return score, err
}

type MarkRepliedParams struct {
	LeadID     uuid.UUID
	Legacy     bool
	Status     string
	ScoreDelta int
	Metadata   map[string]any
}

// MarkReplied records an inbound reply: pause the sequence, bump the
// score, set replied_at and the engaged status, and append the activity
// row. All writes commit together.
func (r *Repository) MarkReplied(ctx context.Context, params MarkRepliedParams) (Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	var lead Lead
	if params.Legacy {
		lead, err = scanLegacyLead(tx.QueryRow(ctx, `
			UPDATE leads SET
				paused = TRUE,
				paused_reason = $2,
				status = $3,
				replied_at = $4,
				engagement_score = engagement_score + $5,
				updated_at = now()
			WHERE id = $1
			RETURNING `+legacyLeadColumns,
			params.LeadID, domain.PauseReplied, params.Status, now, params.ScoreDelta))
	} else {
		lead, err = scanLead(tx.QueryRow(ctx, `
			UPDATE calculator_leads SET
				paused = TRUE,
				paused_reason = $2,
				status = $3,
				replied_at = $4,
				last_activity_at = $4,
				engagement_score = engagement_score + $5,
				updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			params.LeadID, domain.PauseReplied, params.Status, now, params.ScoreDelta))
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	if err := insertActivityTx(ctx, tx, params.LeadID, ActivityEmailReplied, params.Metadata); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// MarkUnsubscribed flags the lead as unsubscribed, pauses the sequence,
// applies the score penalty and appends the activity row in one
// transaction.
func (r *Repository) MarkUnsubscribed(ctx context.Context, lead Lead, scoreDelta int) (Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()

	var updated Lead
	if lead.Legacy {
		updated, err = scanLegacyLead(tx.QueryRow(ctx, `
			UPDATE leads SET
				unsubscribed = TRUE,
				unsubscribed_at = $2,
				paused = TRUE,
				paused_reason = $3,
				engagement_score = engagement_score + $4,
				updated_at = now()
			WHERE id = $1
			RETURNING `+legacyLeadColumns,
			lead.ID, now, domain.PauseUnsubscribed, scoreDelta))
	} else {
		updated, err = scanLead(tx.QueryRow(ctx, `
			UPDATE calculator_leads SET
				unsubscribed = TRUE,
				unsubscribed_at = $2,
				paused = TRUE,
				paused_reason = $3,
				engagement_score = engagement_score + $4,
				updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			lead.ID, now, domain.PauseUnsubscribed, scoreDelta))
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	if err := insertActivityTx(ctx, tx, lead.ID, ActivityUnsubscribed, nil); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return updated, nil
}

// MarkSigned promotes a lead to signed and stops the sequence for good.
func (r *Repository) MarkSigned(ctx context.Context, lead Lead, metadata map[string]any) (Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var updated Lead
	if lead.Legacy {
		updated, err = scanLegacyLead(tx.QueryRow(ctx, `
			UPDATE leads SET
				status = $2,
				paused = TRUE,
				paused_reason = $3,
				updated_at = now()
			WHERE id = $1
			RETURNING `+legacyLeadColumns,
			lead.ID, domain.StatusSigned, domain.PauseSigned))
	} else {
		updated, err = scanLead(tx.QueryRow(ctx, `
			UPDATE calculator_leads SET
				status = $2,
				paused = TRUE,
				paused_reason = $3,
				last_activity_at = now(),
				updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			lead.ID, domain.StatusSigned, domain.PauseSigned))
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	if err := insertActivityTx(ctx, tx, lead.ID, ActivityPartnerSigned, metadata); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return updated, nil
}
