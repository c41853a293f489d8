package sequences

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"funnel_backend/internal/leads/domain"
	leadsrepo "funnel_backend/internal/leads/repository"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"
)

type Service struct {
	repo  *Repository
	leads *leadsrepo.Repository
	log   *logger.Logger
}

func NewService(repo *Repository, leads *leadsrepo.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, leads: leads, log: log}
}

func (s *Service) ListTemplates(ctx context.Context, sequence string) ([]Template, error) {
	if sequence != "" && !domain.IsKnownSequence(sequence) {
		return nil, apperr.BadRequest("unknown sequence name")
	}
	templates, err := s.repo.ListTemplates(ctx, sequence)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list templates", err)
	}
	return templates, nil
}

func (s *Service) CreateTemplate(ctx context.Context, params TemplateParams) (Template, error) {
	if !domain.IsKnownSequence(params.SequenceName) {
		return Template{}, apperr.BadRequest("unknown sequence name")
	}
	if err := s.validateTemplate(params.Subject, params.Body); err != nil {
		return Template{}, err
	}

	tpl, err := s.repo.CreateTemplate(ctx, params)
	if errors.Is(err, ErrStepTaken) {
		return Template{}, apperr.Conflict("a template for this sequence step already exists")
	}
	if err != nil {
		return Template{}, apperr.Wrap(apperr.KindInternal, "failed to create template", err)
	}
	return tpl, nil
}

func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, params TemplateUpdateParams) (Template, error) {
	subject, body := "", ""
	if params.Subject != nil {
		subject = *params.Subject
	}
	if params.Body != nil {
		body = *params.Body
	}
	if err := s.validateTemplate(subject, body); err != nil {
		return Template{}, err
	}

	tpl, err := s.repo.UpdateTemplate(ctx, id, params)
	if errors.Is(err, ErrTemplateNotFound) {
		return Template{}, apperr.NotFound("template not found")
	}
	if err != nil {
		return Template{}, apperr.Wrap(apperr.KindInternal, "failed to update template", err)
	}
	return tpl, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteTemplate(ctx, id)
	if errors.Is(err, ErrTemplateNotFound) {
		return apperr.NotFound("template not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete template", err)
	}
	return nil
}

// validateTemplate parses the liquid placeholders up front so a broken
// template is rejected at save time, not at send time.
func (s *Service) validateTemplate(subject, body string) error {
	for _, candidate := range []string{subject, body} {
		if candidate == "" {
			continue
		}
		if _, err := Render(candidate, map[string]any{}); err != nil {
			return apperr.Validation("template does not parse").WithDetails(err.Error())
		}
	}
	return nil
}

func (s *Service) ListSettings(ctx context.Context) ([]Settings, error) {
	settings, err := s.repo.ListSettings(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list sequence settings", err)
	}
	return settings, nil
}

func (s *Service) GetSettings(ctx context.Context, sequence string) (Settings, error) {
	settings, err := s.repo.GetSettings(ctx, sequence)
	if errors.Is(err, ErrSettingsNotFound) {
		return Settings{}, apperr.NotFound("sequence settings not found")
	}
	if err != nil {
		return Settings{}, apperr.Wrap(apperr.KindInternal, "failed to load sequence settings", err)
	}
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, sequence string, params SettingsUpdateParams) (Settings, error) {
	if params.SendWindowStart != nil && (*params.SendWindowStart < 0 || *params.SendWindowStart > 23) {
		return Settings{}, apperr.Validation("send_window_start must be an hour between 0 and 23")
	}
	if params.SendWindowEnd != nil && (*params.SendWindowEnd < 1 || *params.SendWindowEnd > 24) {
		return Settings{}, apperr.Validation("send_window_end must be an hour between 1 and 24")
	}
	if params.DailyLimit != nil && *params.DailyLimit < 0 {
		return Settings{}, apperr.Validation("daily_limit cannot be negative")
	}
	if params.SendTimezone != nil {
		if _, err := loadLocation(*params.SendTimezone); err != nil {
			return Settings{}, apperr.Validation("unknown timezone")
		}
	}

	settings, err := s.repo.UpdateSettings(ctx, sequence, params)
	if errors.Is(err, ErrSettingsNotFound) {
		return Settings{}, apperr.NotFound("sequence settings not found")
	}
	if err != nil {
		return Settings{}, apperr.Wrap(apperr.KindInternal, "failed to update sequence settings", err)
	}
	return settings, nil
}

// SetPaused flips the sequence-wide pause flag. Individual leads keep
// their own state; the dispatcher simply stops picking the sequence up.
func (s *Service) SetPaused(ctx context.Context, sequence string, paused bool) (Settings, error) {
	return s.UpdateSettings(ctx, sequence, SettingsUpdateParams{Paused: &paused})
}

// QueueEntry is one due lead in the admin queue view, with completion
// inferred against the active templates.
type QueueEntry struct {
	Lead      leadsrepo.Lead
	NextStep  int
	Completed bool
}

// Queue lists leads currently due for a send, flagging the ones that
// have walked past the last active template.
func (s *Service) Queue(ctx context.Context, sequence string, limit int) ([]QueueEntry, error) {
	if sequence != "" && !domain.IsKnownSequence(sequence) {
		return nil, apperr.BadRequest("unknown sequence name")
	}

	due, err := s.leads.ListDue(ctx, sequence, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list due leads", err)
	}

	maxSteps := map[string]int{}
	entries := make([]QueueEntry, 0, len(due))
	for _, lead := range due {
		state := lead.SequenceState()
		maxStep, ok := maxSteps[state.Sequence]
		if !ok {
			maxStep, err = s.repo.MaxActiveStep(ctx, state.Sequence)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindInternal, "failed to inspect templates", err)
			}
			maxSteps[state.Sequence] = maxStep
		}
		entries = append(entries, QueueEntry{
			Lead:      lead,
			NextStep:  state.Step,
			Completed: state.Completed(maxStep),
		})
	}
	return entries, nil
}
