// Package notification turns domain events into staff-facing alerts.
// It subscribes to the event bus and inverts the dependency: the leads
// module never needs to know about Slack or staff mailboxes.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"funnel_backend/internal/email"
	"funnel_backend/internal/events"
	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"
)

// Module listens for lead events and notifies staff. Everything here is
// best-effort: a failed alert is logged, never propagated back into the
// request that produced the event.
type Module struct {
	cfg    config.NotifyConfig
	sender email.Sender
	client *http.Client
	log    *logger.Logger
}

func NewModule(cfg config.NotifyConfig, sender email.Sender, log *logger.Logger) *Module {
	return &Module{
		cfg:    cfg,
		sender: sender,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// RegisterHandlers subscribes to the relevant domain events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadReplied{}.EventName(), m)
	bus.Subscribe(events.LeadUnsubscribed{}.EventName(), m)
}

func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadReplied:
		return m.handleLeadReplied(ctx, e)
	case events.LeadUnsubscribed:
		return m.handleLeadUnsubscribed(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleLeadReplied(ctx context.Context, event events.LeadReplied) error {
	name := event.Name
	if name == "" {
		name = event.Email
	}
	leadURL := fmt.Sprintf("%s/admin/leads/%s", m.cfg.GetAppBaseURL(), event.LeadID)

	m.postSlack(ctx, fmt.Sprintf(":speech_balloon: *%s* replied: %q\n<%s|Open lead>", name, event.Subject, leadURL))

	if staff := m.cfg.GetStaffNotifyEmail(); staff != "" {
		_, err := m.sender.Send(ctx, email.Message{
			To:      staff,
			Subject: fmt.Sprintf("Lead replied: %s", name),
			Text: fmt.Sprintf("%s (%s) replied to the sequence.\n\nSubject: %s\n\n%s",
				name, event.Email, event.Subject, leadURL),
		})
		if err != nil {
			m.log.Warn("staff notification email failed", "lead_id", event.LeadID.String(), "error", err.Error())
		}
	}
	return nil
}

func (m *Module) handleLeadUnsubscribed(ctx context.Context, event events.LeadUnsubscribed) error {
	m.postSlack(ctx, fmt.Sprintf(":wave: %s unsubscribed", event.Email))
	return nil
}

type slackMessage struct {
	Text string `json:"text"`
}

func (m *Module) postSlack(ctx context.Context, text string) {
	url := m.cfg.GetSlackWebhookURL()
	if url == "" {
		return
	}

	payload, err := json.Marshal(slackMessage{Text: text})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		m.log.Warn("slack notification failed", "error", err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Warn("slack notification failed", "error", err.Error())
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.log.Warn("slack notification rejected", "status", resp.StatusCode)
	}
}
