package sequences

import (
	"fmt"
	"math"

	"github.com/osteele/liquid"

	"funnel_backend/internal/leads/repository"
)

var liquidEngine = liquid.NewEngine()

// Render fills {{placeholders}} in a template string. Unknown variables
// render empty rather than failing the send.
func Render(template string, vars map[string]any) (string, error) {
	out, err := liquidEngine.ParseAndRenderString(template, vars)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

// LeadVars builds the variable bindings available to sequence templates.
func LeadVars(lead repository.Lead) map[string]any {
	firstName := lead.Name
	for i, r := range lead.Name {
		if r == ' ' {
			firstName = lead.Name[:i]
			break
		}
	}

	return map[string]any{
		"name":               lead.Name,
		"first_name":         firstName,
		"email":              lead.Email,
		"channel_name":       lead.ChannelName,
		"website_url":        lead.WebsiteURL,
		"platform":           lead.Platform,
		"monthly_clicks":     lead.MonthlyClicks,
		"earnings_tier":      lead.EarningsTier,
		"annual_conservative": int64(math.Round(lead.ProjectedConservative)),
		"annual_realistic":    int64(math.Round(lead.ProjectedRealistic)),
		"annual_optimistic":   int64(math.Round(lead.ProjectedOptimistic)),
	}
}
