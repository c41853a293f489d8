package sequences

import (
	"strings"
	"testing"

	"funnel_backend/internal/leads/repository"
)

func TestRenderSubstitutesLeadVars(t *testing.T) {
	lead := repository.Lead{
		Name:               "Jamie Rivera",
		Email:              "jamie@example.com",
		ChannelName:        "Jamie Reviews",
		Platform:           "youtube",
		MonthlyClicks:      3500,
		ProjectedRealistic: 109200,
		EarningsTier:       "scale",
	}

	out, err := Render("Hi {{first_name}}, {{channel_name}} could earn ${{annual_realistic}}/yr", LeadVars(lead))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "Hi Jamie, Jamie Reviews could earn $109200/yr"
	if out != want {
		t.Errorf("Render = %q, want %q", out, want)
	}
}

func TestRenderUnknownVariableIsEmpty(t *testing.T) {
	out, err := Render("before {{no_such_var}} after", map[string]any{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "before  after" {
		t.Errorf("Render = %q, unknown variables should render empty", out)
	}
}

func TestRenderRejectsBrokenTemplate(t *testing.T) {
	if _, err := Render("{% if %}", map[string]any{}); err == nil {
		t.Fatal("expected parse error for broken tag")
	}
}

func TestLeadVarsFirstName(t *testing.T) {
	vars := LeadVars(repository.Lead{Name: "Sole"})
	if vars["first_name"] != "Sole" {
		t.Errorf("single-word name: first_name = %v", vars["first_name"])
	}

	vars = LeadVars(repository.Lead{Name: "Ana Maria Costa"})
	if vars["first_name"] != "Ana" {
		t.Errorf("multi-word name: first_name = %v", vars["first_name"])
	}
}

func TestDefaultTemplatesParse(t *testing.T) {
	lead := repository.Lead{Name: "Sam", ChannelName: "SamTV", Platform: "blog"}
	for _, raw := range []string{string(defaultTemplatesYAML)} {
		if !strings.Contains(raw, "calculator_nurture") {
			t.Fatal("seed file must define the nurture sequence")
		}
	}

	var file seedFile
	if err := parseSeed(&file); err != nil {
		t.Fatalf("parse seed: %v", err)
	}
	if len(file.Templates) == 0 {
		t.Fatal("seed file has no templates")
	}
	for _, tpl := range file.Templates {
		if _, err := Render(tpl.Subject, LeadVars(lead)); err != nil {
			t.Errorf("template %s/%d subject does not render: %v", tpl.Sequence, tpl.Step, err)
		}
		if _, err := Render(tpl.Body, LeadVars(lead)); err != nil {
			t.Errorf("template %s/%d body does not render: %v", tpl.Sequence, tpl.Step, err)
		}
	}
}
