package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
)

func TestSendOneOffReturnsTheQueuedSend(t *testing.T) {
	store := newFakeStore()
	lead, err := store.Create(context.Background(), repository.CreateLeadParams{
		Email:  "oneoff@example.com",
		Status: domain.StatusNurturing,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	// An older send to the same lead must never be mistaken for this one.
	store.sendHistory = []repository.EmailSend{
		{ID: uuid.New(), LeadID: lead.ID, Subject: "earlier send", Status: repository.SendSent},
	}

	svc := newTestService(store)
	send, err := svc.SendOneOff(context.Background(), lead.ID, SendEmailParams{
		Subject: "quick question",
		Text:    "hello",
	})
	if err != nil {
		t.Fatalf("SendOneOff: %v", err)
	}

	if send.ID != store.lastQueuedID {
		t.Errorf("returned send %s, want the queued row %s", send.ID, store.lastQueuedID)
	}
	if send.Status != repository.SendSent {
		t.Errorf("status = %q, want sent", send.Status)
	}
	if send.ProviderMessageID == nil || *send.ProviderMessageID == "" {
		t.Error("provider message id missing on the returned send")
	}
	if send.SentAt == nil {
		t.Error("sent_at missing on the returned send")
	}
}
