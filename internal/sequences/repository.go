// Package sequences manages email templates and per-sequence delivery
// settings (send window, daily limit, weekend skipping, global pause).
package sequences

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrSettingsNotFound = errors.New("sequence settings not found")
	ErrStepTaken        = errors.New("a template for this sequence step already exists")
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Template struct {
	ID           uuid.UUID
	SequenceName string
	Step         int
	Subject      string
	Body         string
	DelayDays    int
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const templateColumns = `id, sequence_name, step, subject, body, delay_days, active, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var tpl Template
	err := row.Scan(&tpl.ID, &tpl.SequenceName, &tpl.Step, &tpl.Subject, &tpl.Body,
		&tpl.DelayDays, &tpl.Active, &tpl.CreatedAt, &tpl.UpdatedAt)
	return tpl, err
}

func (r *Repository) ListTemplates(ctx context.Context, sequence string) ([]Template, error) {
	query := `SELECT ` + templateColumns + ` FROM email_templates`
	args := []any{}
	if sequence != "" {
		query += ` WHERE sequence_name = $1`
		args = append(args, sequence)
	}
	query += ` ORDER BY sequence_name, step`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]Template, 0)
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

func (r *Repository) GetTemplate(ctx context.Context, id uuid.UUID) (Template, error) {
	tpl, err := scanTemplate(r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, ErrTemplateNotFound
	}
	return tpl, err
}

type TemplateParams struct {
	SequenceName string
	Step         int
	Subject      string
	Body         string
	DelayDays    int
	Active       bool
}

func (r *Repository) CreateTemplate(ctx context.Context, params TemplateParams) (Template, error) {
	tpl, err := scanTemplate(r.pool.QueryRow(ctx, `
		INSERT INTO email_templates (sequence_name, step, subject, body, delay_days, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+templateColumns,
		params.SequenceName, params.Step, params.Subject, params.Body, params.DelayDays, params.Active))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Template{}, ErrStepTaken
		}
		return Template{}, err
	}
	return tpl, nil
}

type TemplateUpdateParams struct {
	Subject   *string
	Body      *string
	DelayDays *int
	Active    *bool
}

func (r *Repository) UpdateTemplate(ctx context.Context, id uuid.UUID, params TemplateUpdateParams) (Template, error) {
	tpl, err := scanTemplate(r.pool.QueryRow(ctx, `
		UPDATE email_templates SET
			subject = COALESCE($2, subject),
			body = COALESCE($3, body),
			delay_days = COALESCE($4, delay_days),
			active = COALESCE($5, active),
			updated_at = now()
		WHERE id = $1
		RETURNING `+templateColumns,
		id, params.Subject, params.Body, params.DelayDays, params.Active))
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, ErrTemplateNotFound
	}
	return tpl, err
}

func (r *Repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// NextActiveTemplate finds the first active template at or after the
// given step. Inactive steps are skipped, not sent.
func (r *Repository) NextActiveTemplate(ctx context.Context, sequence string, fromStep int) (Template, error) {
	tpl, err := scanTemplate(r.pool.QueryRow(ctx, `
		SELECT `+templateColumns+` FROM email_templates
		WHERE sequence_name = $1 AND step >= $2 AND active
		ORDER BY step
		LIMIT 1`, sequence, fromStep))
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, ErrTemplateNotFound
	}
	return tpl, err
}

// MaxActiveStep returns the highest active step, or -1 when the
// sequence has no active templates.
func (r *Repository) MaxActiveStep(ctx context.Context, sequence string) (int, error) {
	var step *int
	err := r.pool.QueryRow(ctx, `
		SELECT max(step) FROM email_templates
		WHERE sequence_name = $1 AND active`, sequence).Scan(&step)
	if err != nil {
		return -1, err
	}
	if step == nil {
		return -1, nil
	}
	return *step, nil
}

func (r *Repository) CountTemplates(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM email_templates`).Scan(&count)
	return count, err
}

type Settings struct {
	SequenceName    string
	Paused          bool
	SendWindowStart int
	SendWindowEnd   int
	SendTimezone    string
	DailyLimit      int
	SkipWeekends    bool
	UpdatedAt       time.Time
}

const settingsColumns = `sequence_name, paused, send_window_start, send_window_end,
	send_timezone, daily_limit, skip_weekends, updated_at`

func scanSettings(row pgx.Row) (Settings, error) {
	var s Settings
	err := row.Scan(&s.SequenceName, &s.Paused, &s.SendWindowStart, &s.SendWindowEnd,
		&s.SendTimezone, &s.DailyLimit, &s.SkipWeekends, &s.UpdatedAt)
	return s, err
}

func (r *Repository) GetSettings(ctx context.Context, sequence string) (Settings, error) {
	s, err := scanSettings(r.pool.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM sequence_settings WHERE sequence_name = $1`, sequence))
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, ErrSettingsNotFound
	}
	return s, err
}

func (r *Repository) ListSettings(ctx context.Context) ([]Settings, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+settingsColumns+` FROM sequence_settings ORDER BY sequence_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all := make([]Settings, 0)
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, s)
	}
	return all, rows.Err()
}

type SettingsUpdateParams struct {
	Paused          *bool
	SendWindowStart *int
	SendWindowEnd   *int
	SendTimezone    *string
	DailyLimit      *int
	SkipWeekends    *bool
}

func (r *Repository) UpdateSettings(ctx context.Context, sequence string, params SettingsUpdateParams) (Settings, error) {
	s, err := scanSettings(r.pool.QueryRow(ctx, `
		UPDATE sequence_settings SET
			paused = COALESCE($2, paused),
			send_window_start = COALESCE($3, send_window_start),
			send_window_end = COALESCE($4, send_window_end),
			send_timezone = COALESCE($5, send_timezone),
			daily_limit = COALESCE($6, daily_limit),
			skip_weekends = COALESCE($7, skip_weekends),
			updated_at = now()
		WHERE sequence_name = $1
		RETURNING `+settingsColumns,
		sequence, params.Paused, params.SendWindowStart, params.SendWindowEnd,
		params.SendTimezone, params.DailyLimit, params.SkipWeekends))
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, ErrSettingsNotFound
	}
	return s, err
}
