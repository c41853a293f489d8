package sequences

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"funnel_backend/platform/logger"
)

//go:embed defaults.yaml
var defaultTemplatesYAML []byte

type seedFile struct {
	Templates []struct {
		Sequence  string `yaml:"sequence"`
		Step      int    `yaml:"step"`
		DelayDays int    `yaml:"delay_days"`
		Subject   string `yaml:"subject"`
		Body      string `yaml:"body"`
	} `yaml:"templates"`
}

func parseSeed(file *seedFile) error {
	return yaml.Unmarshal(defaultTemplatesYAML, file)
}

// SeedDefaults loads the built-in templates into an empty
// email_templates table. A table with any rows is left alone, so
// operator edits survive restarts.
func SeedDefaults(ctx context.Context, repo *Repository, log *logger.Logger) error {
	count, err := repo.CountTemplates(ctx)
	if err != nil {
		return fmt.Errorf("count templates: %w", err)
	}
	if count > 0 {
		return nil
	}

	var file seedFile
	if err := parseSeed(&file); err != nil {
		return fmt.Errorf("parse default templates: %w", err)
	}

	for _, tpl := range file.Templates {
		_, err := repo.CreateTemplate(ctx, TemplateParams{
			SequenceName: tpl.Sequence,
			Step:         tpl.Step,
			Subject:      tpl.Subject,
			Body:         tpl.Body,
			DelayDays:    tpl.DelayDays,
			Active:       true,
		})
		if errors.Is(err, ErrStepTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed template %s/%d: %w", tpl.Sequence, tpl.Step, err)
		}
	}

	log.Info("seeded default email templates", "count", len(file.Templates))
	return nil
}
