package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Activity types recorded in the append-only lead_activity log.
const (
	ActivityCalculatorSubmitted = "calculator_submitted"
	ActivityEmailSent           = "email_sent"
	ActivityEmailOpened         = "email_opened"
	ActivityEmailClicked        = "email_clicked"
	ActivityEmailReplied        = "email_replied"
	ActivityUnsubscribed        = "unsubscribed"
	ActivitySequenceChanged     = "sequence_changed"
	ActivitySequencePaused      = "sequence_paused"
	ActivitySequenceResumed     = "sequence_resumed"
	ActivitySequenceCompleted   = "sequence_completed"
	ActivityStatusChanged       = "status_changed"
	ActivityPartnerSigned       = "partner_signed"
	ActivityLeadCreated         = "lead_created"
	ActivityNoteAdded           = "note_added"
	ActivityLeadImported        = "lead_imported"
)

type Activity struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	ActivityType string
	Metadata     map[string]any
	CreatedAt    time.Time
}

func insertActivityTx(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, activityType string, metadata map[string]any) error {
	payload, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, activity_type, metadata)
		VALUES ($1, $2, $3)`, leadID, activityType, payload)
	return err
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return json.Marshal(metadata)
}

// InsertActivity appends a single activity row outside of any larger
// transaction.
func (r *Repository) InsertActivity(ctx context.Context, leadID uuid.UUID, activityType string, metadata map[string]any) error {
	payload, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, activity_type, metadata)
		VALUES ($1, $2, $3)`, leadID, activityType, payload)
	return err
}

// ListActivity returns the newest activity rows for a lead.
func (r *Repository) ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]Activity, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, activity_type, metadata, created_at
		FROM lead_activity
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		var activity Activity
		var payload []byte
		if err := rows.Scan(&activity.ID, &activity.LeadID, &activity.ActivityType, &payload, &activity.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &activity.Metadata); err != nil {
				return nil, err
			}
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}
