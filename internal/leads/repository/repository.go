// Package repository provides persistence for the leads bounded context.
// It is the single place that knows about both the current
// calculator_leads table and the legacy leads table; every lookup and
// update that may touch a legacy row goes through the fallback here
// instead of being re-derived per endpoint.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"funnel_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("lead not found")
	ErrDuplicate = errors.New("lead with this email already exists")
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is one prospect. Legacy marks rows living in the old leads table;
// those carry only a subset of columns and all writes route back there.
type Lead struct {
	ID          uuid.UUID
	Email       string
	Name        string
	ChannelName string
	WebsiteURL  string
	Platform    string
	Phone       *string
	Source      *string

	MonthlyClicks        int64
	ProjectedConservative float64
	ProjectedRealistic    float64
	ProjectedOptimistic   float64
	EarningsTier          string

	Status          string
	CurrentSequence *string
	SequenceStep    int
	NextEmailAt     *time.Time
	Paused          bool
	PausedReason    *string

	EngagementScore int
	RepliedAt       *time.Time
	LastActivityAt  *time.Time

	MarketingConsent bool
	Unsubscribed     bool
	UnsubscribedAt   *time.Time

	Legacy    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SequenceState extracts the sequencing slice of the lead for the domain
// transition functions.
func (l Lead) SequenceState() domain.SequenceState {
	state := domain.SequenceState{
		Step:        l.SequenceStep,
		NextEmailAt: l.NextEmailAt,
		Paused:      l.Paused,
	}
	if l.CurrentSequence != nil {
		state.Sequence = *l.CurrentSequence
	}
	if l.PausedReason != nil {
		state.PausedReason = *l.PausedReason
	}
	return state
}

const leadColumns = `id, email, name, channel_name, website_url, platform, phone, source,
	monthly_clicks, projected_conservative_earnings, projected_realistic_earnings,
	projected_optimistic_earnings, earnings_tier,
	status, current_sequence, sequence_step, next_email_at, paused, paused_reason,
	engagement_score, replied_at, last_activity_at,
	marketing_consent, unsubscribed, unsubscribed_at, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Email, &lead.Name, &lead.ChannelName, &lead.WebsiteURL, &lead.Platform,
		&lead.Phone, &lead.Source,
		&lead.MonthlyClicks, &lead.ProjectedConservative, &lead.ProjectedRealistic,
		&lead.ProjectedOptimistic, &lead.EarningsTier,
		&lead.Status, &lead.CurrentSequence, &lead.SequenceStep, &lead.NextEmailAt,
		&lead.Paused, &lead.PausedReason,
		&lead.EngagementScore, &lead.RepliedAt, &lead.LastActivityAt,
		&lead.MarketingConsent, &lead.Unsubscribed, &lead.UnsubscribedAt,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

const legacyLeadColumns = `id, email, name, status, current_sequence, sequence_step,
	next_email_at, paused, paused_reason, engagement_score, replied_at,
	unsubscribed, unsubscribed_at, created_at, updated_at`

func scanLegacyLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Email, &lead.Name, &lead.Status, &lead.CurrentSequence,
		&lead.SequenceStep, &lead.NextEmailAt, &lead.Paused, &lead.PausedReason,
		&lead.EngagementScore, &lead.RepliedAt,
		&lead.Unsubscribed, &lead.UnsubscribedAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	lead.Legacy = true
	return lead, nil
}

// NormalizeEmail lowercases and trims an email for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CreateLeadParams struct {
	Email       string
	Name        string
	ChannelName string
	WebsiteURL  string
	Platform    string
	Phone       *string
	Source      *string

	MonthlyClicks         int64
	ProjectedConservative float64
	ProjectedRealistic    float64
	ProjectedOptimistic   float64
	EarningsTier          string

	Status           string
	EngagementScore  int
	MarketingConsent bool
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO calculator_leads (
			email, name, channel_name, website_url, platform, phone, source,
			monthly_clicks, projected_conservative_earnings, projected_realistic_earnings,
			projected_optimistic_earnings, earnings_tier,
			status, engagement_score, marketing_consent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+leadColumns,
		NormalizeEmail(params.Email), params.Name, params.ChannelName, params.WebsiteURL,
		params.Platform, params.Phone, params.Source,
		params.MonthlyClicks, params.ProjectedConservative, params.ProjectedRealistic,
		params.ProjectedOptimistic, params.EarningsTier,
		params.Status, params.EngagementScore, params.MarketingConsent,
	)

	lead, err := scanLead(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Lead{}, ErrDuplicate
		}
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM calculator_leads WHERE id = $1`, id))
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, err
	}

	// Legacy fallback
	lead, err = scanLegacyLead(r.pool.QueryRow(ctx,
		`SELECT `+legacyLeadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// FindByEmail locates a lead by normalized email, checking the current
// table first and falling back to the legacy table.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Lead, error) {
	normalized := NormalizeEmail(email)

	lead, err := scanLead(r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM calculator_leads WHERE email = $1`, normalized))
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, err
	}

	lead, err = scanLegacyLead(r.pool.QueryRow(ctx,
		`SELECT `+legacyLeadColumns+` FROM leads WHERE email = $1`, normalized))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

type ListLeadsParams struct {
	Status   string
	Sequence string
	Tier     string
	Search   string
	Page     int
	PageSize int
}

// List returns a page of current-table leads plus an exact total count.
func (r *Repository) List(ctx context.Context, params ListLeadsParams) ([]Lead, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	addFilter := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if params.Status != "" {
		addFilter("status = $%d", params.Status)
	}
	if params.Sequence != "" {
		addFilter("current_sequence = $%d", params.Sequence)
	}
	if params.Tier != "" {
		addFilter("earnings_tier = $%d", params.Tier)
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf("(email ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM calculator_leads WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 25
	}
	offset := (params.Page - 1) * params.PageSize
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM calculator_leads WHERE `+whereClause+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

type UpdateLeadParams struct {
	Name        *string
	ChannelName *string
	WebsiteURL  *string
	Platform    *string
	Phone       *string
}

// UpdateProfile patches profile fields on a current-table lead.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE calculator_leads SET
			name = COALESCE($2, name),
			channel_name = COALESCE($3, channel_name),
			website_url = COALESCE($4, website_url),
			platform = COALESCE($5, platform),
			phone = COALESCE($6, phone),
			updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, params.Name, params.ChannelName, params.WebsiteURL, params.Platform, params.Phone,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// SetStatus writes a lead status and appends the status_changed activity
// in one transaction. Legacy rows update the legacy table.
func (r *Repository) SetStatus(ctx context.Context, lead Lead, status string, metadata map[string]any) (Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var updated Lead
	if lead.Legacy {
		updated, err = scanLegacyLead(tx.QueryRow(ctx, `
			UPDATE leads SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+legacyLeadColumns, lead.ID, status))
	} else {
		updated, err = scanLead(tx.QueryRow(ctx, `
			UPDATE calculator_leads SET status = $2, last_activity_at = now(), updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns, lead.ID, status))
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	if err := insertActivityTx(ctx, tx, lead.ID, ActivityStatusChanged, metadata); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return updated, nil
}
