package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/platform/apperr"
)

const importChunkSize = 100

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ImportRow struct {
	Email       string
	Name        string
	ChannelName string
	WebsiteURL  string
	Platform    string
}

type ImportParams struct {
	Rows     []ImportRow
	Sequence string
	Source   string

	// Consent is per-batch: the uploader asserts it, nothing infers it.
	MarketingConsent bool
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ImportLeads bulk-creates prospects from an admin upload. Rows with an
// invalid email are reported as errors; emails already present in
// either leads table, or repeated within the upload, are skipped.
// Inserts go in chunks so one bad chunk does not void the whole import.
func (s *Service) ImportLeads(ctx context.Context, params ImportParams) (ImportResult, error) {
	if len(params.Rows) == 0 {
		return ImportResult{}, apperr.BadRequest("import contains no rows")
	}
	if params.Sequence != "" && !domain.IsKnownSequence(params.Sequence) {
		return ImportResult{}, apperr.BadRequest("unknown sequence name")
	}

	result := ImportResult{Errors: []string{}}

	emails := make([]string, 0, len(params.Rows))
	for _, row := range params.Rows {
		emails = append(emails, repository.NormalizeEmail(row.Email))
	}
	existing, err := s.store.ExistingEmails(ctx, emails)
	if err != nil {
		return ImportResult{}, apperr.Wrap(apperr.KindInternal, "failed to check existing emails", err)
	}

	var sequence *string
	var nextEmailAt *time.Time
	if params.Sequence != "" {
		sequence = &params.Sequence
		now := time.Now().UTC()
		nextEmailAt = &now
	}

	seen := make(map[string]bool, len(params.Rows))
	pending := make([]repository.ImportLeadParams, 0, importChunkSize)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := s.store.InsertImported(ctx, pending); err != nil {
			s.log.DatabaseError("import chunk", err)
			for _, p := range pending {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.Email, err))
			}
		} else {
			result.Imported += len(pending)
		}
		pending = pending[:0]
	}

	for i, row := range params.Rows {
		normalized := repository.NormalizeEmail(row.Email)
		if !emailPattern.MatchString(normalized) {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: Invalid email format", i+1))
			continue
		}
		if existing[normalized] || seen[normalized] {
			result.Skipped++
			continue
		}
		seen[normalized] = true

		pending = append(pending, repository.ImportLeadParams{
			Email:       normalized,
			Name:        row.Name,
			ChannelName: row.ChannelName,
			WebsiteURL:  row.WebsiteURL,
			Platform:    row.Platform,
			Source:      params.Source,

			Status:           domain.StatusNew,
			Sequence:         sequence,
			NextEmailAt:      nextEmailAt,
			EngagementScore:  0,
			MarketingConsent: params.MarketingConsent,
		})
		if len(pending) >= importChunkSize {
			flush()
		}
	}
	flush()

	return result, nil
}
