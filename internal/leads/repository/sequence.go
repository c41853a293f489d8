package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"funnel_backend/internal/leads/domain"
)

// WriteSequenceState persists a sequence transition together with its
// activity row. The activityType names the transition (assigned, paused,
// resumed, completed); pass an empty string to skip the activity row.
func (r *Repository) WriteSequenceState(ctx context.Context, lead Lead, state domain.SequenceState, activityType string, metadata map[string]any) (Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updated, err := writeSequenceStateTx(ctx, tx, lead, state)
	if err != nil {
		return Lead{}, err
	}

	if activityType != "" {
		if err := insertActivityTx(ctx, tx, lead.ID, activityType, metadata); err != nil {
			return Lead{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return updated, nil
}

// ListDue returns leads whose next email is due, oldest first. Read
// only; the dispatcher claims with ClaimDue instead.
func (r *Repository) ListDue(ctx context.Context, sequence string, limit int) ([]Lead, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + leadColumns + ` FROM calculator_leads
		WHERE next_email_at IS NOT NULL AND next_email_at <= now()
		AND NOT paused AND NOT unsubscribed`
	args := []any{}
	if sequence != "" {
		args = append(args, sequence)
		query += ` AND current_sequence = $1`
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY next_email_at ASC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func writeSequenceStateTx(ctx context.Context, tx pgx.Tx, lead Lead, state domain.SequenceState) (Lead, error) {
	var sequence *string
	if state.Sequence != "" {
		sequence = &state.Sequence
	}
	var reason *string
	if state.PausedReason != "" {
		reason = &state.PausedReason
	}

	var updated Lead
	var err error
	if lead.Legacy {
		updated, err = scanLegacyLead(tx.QueryRow(ctx, `
			UPDATE leads SET
				current_sequence = $2,
				sequence_step = $3,
				next_email_at = $4,
				paused = $5,
				paused_reason = $6,
				updated_at = now()
			WHERE id = $1
			RETURNING `+legacyLeadColumns,
			lead.ID, sequence, state.Step, state.NextEmailAt, state.Paused, reason))
	} else {
		updated, err = scanLead(tx.QueryRow(ctx, `
			UPDATE calculator_leads SET
				current_sequence = $2,
				sequence_step = $3,
				next_email_at = $4,
				paused = $5,
				paused_reason = $6,
				updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			lead.ID, sequence, state.Step, state.NextEmailAt, state.Paused, reason))
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return updated, err
}
