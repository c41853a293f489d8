package service

import (
	"context"
	"slices"
	"testing"

	"github.com/google/uuid"

	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/platform/apperr"
)

func TestHandleReplyUpgradesAndPauses(t *testing.T) {
	store := newFakeStore()
	lead, err := store.Create(context.Background(), repository.CreateLeadParams{
		Email:           "creator@example.com",
		Status:          domain.StatusNurturing,
		EngagementScore: 15,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	svc := newTestService(store)
	result, err := svc.HandleReply(context.Background(), ReplyParams{
		FromEmail: "Creator@Example.com",
		Subject:   "re: your earnings report",
	})
	if err != nil {
		t.Fatalf("HandleReply: %v", err)
	}
	if result.Duplicate {
		t.Fatal("first reply must not be reported as duplicate")
	}

	updated := result.Lead
	if updated.ID != lead.ID {
		t.Fatalf("reply matched the wrong lead")
	}
	if updated.Status != domain.StatusEngaged {
		t.Errorf("status = %q, want engaged", updated.Status)
	}
	if !updated.Paused || updated.PausedReason == nil || *updated.PausedReason != domain.PauseReplied {
		t.Errorf("lead should be paused as replied, got paused=%v reason=%v", updated.Paused, updated.PausedReason)
	}
	if updated.EngagementScore != 25 {
		t.Errorf("score = %d, want 25", updated.EngagementScore)
	}
	if level := domain.LevelOf(updated.EngagementScore); level != domain.LevelHot {
		t.Errorf("level = %q, want hot", level)
	}
	if !slices.Contains(store.activity, "email_replied") {
		t.Errorf("activity log %v is missing the email_replied entry", store.activity)
	}
}

func TestHandleReplySecondDeliveryIsNoop(t *testing.T) {
	store := newFakeStore()
	if _, err := store.Create(context.Background(), repository.CreateLeadParams{
		Email:  "creator@example.com",
		Status: domain.StatusNew,
	}); err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	svc := newTestService(store)
	params := ReplyParams{FromEmail: "creator@example.com", Subject: "hello"}

	if _, err := svc.HandleReply(context.Background(), params); err != nil {
		t.Fatalf("first reply: %v", err)
	}
	result, err := svc.HandleReply(context.Background(), params)
	if err != nil {
		t.Fatalf("second reply: %v", err)
	}
	if !result.Duplicate {
		t.Error("second delivery should be flagged as duplicate")
	}
	if store.markRepliedCalls != 1 {
		t.Errorf("MarkReplied calls = %d, want 1", store.markRepliedCalls)
	}
}

func TestHandleReplyUnknownSender(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.HandleReply(context.Background(), ReplyParams{FromEmail: "stranger@example.com"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	store := newFakeStore()
	lead, err := store.Create(context.Background(), repository.CreateLeadParams{
		Email:           "bye@example.com",
		Status:          domain.StatusNurturing,
		EngagementScore: 10,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	svc := newTestService(store)
	first, err := svc.Unsubscribe(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if !first.Unsubscribed {
		t.Fatal("lead should be unsubscribed")
	}
	if !first.Paused || first.PausedReason == nil || *first.PausedReason != domain.PauseUnsubscribed {
		t.Errorf("unsubscribed lead must be paused as unsubscribed, got paused=%v reason=%v", first.Paused, first.PausedReason)
	}
	if !slices.Contains(store.activity, "unsubscribed") {
		t.Errorf("activity log %v is missing the unsubscribed entry", store.activity)
	}
	if first.EngagementScore != -10 {
		t.Errorf("score = %d, want -10 (scores are not clamped)", first.EngagementScore)
	}

	second, err := svc.Unsubscribe(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("second unsubscribe: %v", err)
	}
	if second.EngagementScore != first.EngagementScore {
		t.Errorf("second unsubscribe changed the score: %d -> %d", first.EngagementScore, second.EngagementScore)
	}
}

func TestSequenceOpsRecordLedgerActivityTypes(t *testing.T) {
	store := newFakeStore()
	lead, err := store.Create(context.Background(), repository.CreateLeadParams{
		Email:  "ledger@example.com",
		Status: domain.StatusNurturing,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	svc := newTestService(store)

	if _, err := svc.AssignSequence(context.Background(), lead.ID, domain.SequenceColdOutreach, true); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.PauseSequence(context.Background(), lead.ID, ""); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := svc.ResumeSequence(context.Background(), lead.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}

	// Timeline consumers match on these exact ledger values.
	for _, want := range []string{"sequence_changed", "sequence_paused", "sequence_resumed"} {
		if !slices.Contains(store.activity, want) {
			t.Errorf("activity log %v is missing %q", store.activity, want)
		}
	}
}

func TestTrackDeliveryClickScoresOnce(t *testing.T) {
	store := newFakeStore()
	lead, err := store.Create(context.Background(), repository.CreateLeadParams{
		Email:  "clicker@example.com",
		Status: domain.StatusNurturing,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	store.sends = map[string]repository.EmailSend{
		"prov-1": {ID: uuid.New(), LeadID: lead.ID, Subject: "step 1"},
	}

	svc := newTestService(store)
	if _, err := svc.TrackDelivery(context.Background(), "prov-1", repository.DeliveryClicked); err != nil {
		t.Fatalf("TrackDelivery: %v", err)
	}
	if got := store.leads[lead.Email].EngagementScore; got != 5 {
		t.Errorf("score after click = %d, want 5", got)
	}

	// Provider retries redeliver the same event.
	if _, err := svc.TrackDelivery(context.Background(), "prov-1", repository.DeliveryClicked); err != nil {
		t.Fatalf("second TrackDelivery: %v", err)
	}
	if got := store.leads[lead.Email].EngagementScore; got != 5 {
		t.Errorf("score after redelivery = %d, want 5", got)
	}
}

func TestTrackDeliveryBouncePausesLead(t *testing.T) {
	store := newFakeStore()
	lead, err := store.Create(context.Background(), repository.CreateLeadParams{
		Email:  "bounce@example.com",
		Status: domain.StatusNurturing,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	store.sends = map[string]repository.EmailSend{
		"prov-2": {ID: uuid.New(), LeadID: lead.ID},
	}

	svc := newTestService(store)
	if _, err := svc.TrackDelivery(context.Background(), "prov-2", repository.DeliveryBounced); err != nil {
		t.Fatalf("TrackDelivery: %v", err)
	}

	updated := store.leads[lead.Email]
	if !updated.Paused || updated.PausedReason == nil || *updated.PausedReason != domain.PauseBounced {
		t.Errorf("lead should be paused as bounced, got paused=%v reason=%v", updated.Paused, updated.PausedReason)
	}
}

func TestTrackDeliveryUnknownMessage(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.TrackDelivery(context.Background(), "prov-missing", repository.DeliveryOpened)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestResumeRequiresPausedAndConsent(t *testing.T) {
	store := newFakeStore()
	lead, err := store.Create(context.Background(), repository.CreateLeadParams{
		Email:  "resume@example.com",
		Status: domain.StatusNurturing,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	svc := newTestService(store)

	if _, err := svc.ResumeSequence(context.Background(), lead.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("resume of unpaused lead: err = %v, want conflict", err)
	}

	if _, err := svc.PauseSequence(context.Background(), lead.ID, ""); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := svc.ResumeSequence(context.Background(), lead.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if _, err := svc.Unsubscribe(context.Background(), lead.ID); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if _, err := svc.ResumeSequence(context.Background(), lead.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("resume of unsubscribed lead: err = %v, want conflict", err)
	}
}
