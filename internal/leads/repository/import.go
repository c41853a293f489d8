package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ExistingEmails returns which of the given normalized emails already
// exist in either leads table. Used to dedupe imports without one query
// per row.
func (r *Repository) ExistingEmails(ctx context.Context, emails []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(emails))
	if len(emails) == 0 {
		return existing, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT email FROM calculator_leads WHERE email = ANY($1)
		UNION
		SELECT email FROM leads WHERE email = ANY($1)`, emails)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		existing[email] = true
	}
	return existing, rows.Err()
}

type ImportLeadParams struct {
	Email       string
	Name        string
	ChannelName string
	WebsiteURL  string
	Platform    string
	Source      string

	Status           string
	Sequence         *string
	SequenceStep     int
	NextEmailAt      *time.Time
	EngagementScore  int
	MarketingConsent bool
}

// InsertImported inserts one chunk of imported leads in a single
// transaction, with the imported activity row per lead. Rows that still
// collide on email (raced inserts) fail the whole chunk; the caller
// reports that chunk in the import errors.
func (r *Repository) InsertImported(ctx context.Context, chunk []ImportLeadParams) error {
	if len(chunk) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, params := range chunk {
		var leadID uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO calculator_leads (
				email, name, channel_name, website_url, platform, source,
				status, current_sequence, sequence_step, next_email_at,
				engagement_score, marketing_consent
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`,
			NormalizeEmail(params.Email), params.Name, params.ChannelName,
			params.WebsiteURL, params.Platform, params.Source,
			params.Status, params.Sequence, params.SequenceStep, params.NextEmailAt,
			params.EngagementScore, params.MarketingConsent,
		).Scan(&leadID)
		if err != nil {
			return err
		}

		if err := insertActivityTx(ctx, tx, leadID, ActivityLeadImported, map[string]any{
			"source": params.Source,
		}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
