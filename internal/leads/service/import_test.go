package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"funnel_backend/internal/email"
	"funnel_backend/internal/events"
	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/repository"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	leads      map[string]repository.Lead // keyed by normalized email
	imported   []repository.ImportLeadParams
	activity   []string
	sends      map[string]repository.EmailSend // keyed by provider message id
	deliveries map[string]bool
	failChunk  bool

	lastQueuedID uuid.UUID
	sendHistory  []repository.EmailSend

	markRepliedCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: map[string]repository.Lead{}}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	normalized := repository.NormalizeEmail(params.Email)
	if _, ok := f.leads[normalized]; ok {
		return repository.Lead{}, repository.ErrDuplicate
	}
	lead := repository.Lead{
		ID:              uuid.New(),
		Email:           normalized,
		Name:            params.Name,
		Status:          params.Status,
		EngagementScore: params.EngagementScore,
	}
	f.leads[normalized] = lead
	return lead, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	for _, lead := range f.leads {
		if lead.ID == id {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (repository.Lead, error) {
	lead, ok := f.leads[repository.NormalizeEmail(email)]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) List(_ context.Context, _ repository.ListLeadsParams) ([]repository.Lead, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, _ uuid.UUID, _ repository.UpdateLeadParams) (repository.Lead, error) {
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeStore) SetStatus(_ context.Context, lead repository.Lead, status string, _ map[string]any) (repository.Lead, error) {
	lead.Status = status
	f.leads[lead.Email] = lead
	return lead, nil
}

func (f *fakeStore) IncrementEngagement(_ context.Context, lead repository.Lead, delta int) (int, error) {
	lead.EngagementScore += delta
	f.leads[lead.Email] = lead
	return lead.EngagementScore, nil
}

func (f *fakeStore) MarkReplied(_ context.Context, params repository.MarkRepliedParams) (repository.Lead, error) {
	f.markRepliedCalls++
	for email, lead := range f.leads {
		if lead.ID == params.LeadID {
			reason := domain.PauseReplied
			lead.Paused = true
			lead.PausedReason = &reason
			lead.Status = params.Status
			lead.EngagementScore += params.ScoreDelta
			f.leads[email] = lead
			f.activity = append(f.activity, repository.ActivityEmailReplied)
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeStore) MarkUnsubscribed(_ context.Context, lead repository.Lead, scoreDelta int) (repository.Lead, error) {
	reason := domain.PauseUnsubscribed
	lead.Unsubscribed = true
	lead.Paused = true
	lead.PausedReason = &reason
	lead.EngagementScore += scoreDelta
	f.leads[lead.Email] = lead
	f.activity = append(f.activity, repository.ActivityUnsubscribed)
	return lead, nil
}

func (f *fakeStore) MarkSigned(_ context.Context, lead repository.Lead, _ map[string]any) (repository.Lead, error) {
	lead.Status = domain.StatusSigned
	lead.Paused = true
	f.leads[lead.Email] = lead
	return lead, nil
}

func (f *fakeStore) WriteSequenceState(_ context.Context, lead repository.Lead, state domain.SequenceState, activityType string, _ map[string]any) (repository.Lead, error) {
	f.activity = append(f.activity, activityType)
	if state.Sequence != "" {
		lead.CurrentSequence = &state.Sequence
	} else {
		lead.CurrentSequence = nil
	}
	lead.SequenceStep = state.Step
	lead.NextEmailAt = state.NextEmailAt
	lead.Paused = state.Paused
	if state.PausedReason != "" {
		reason := state.PausedReason
		lead.PausedReason = &reason
	} else {
		lead.PausedReason = nil
	}
	f.leads[lead.Email] = lead
	return lead, nil
}

func (f *fakeStore) InsertActivity(_ context.Context, _ uuid.UUID, activityType string, _ map[string]any) error {
	f.activity = append(f.activity, activityType)
	return nil
}

func (f *fakeStore) ListActivity(_ context.Context, _ uuid.UUID, _ int) ([]repository.Activity, error) {
	return nil, nil
}

func (f *fakeStore) ExistingEmails(_ context.Context, emails []string) (map[string]bool, error) {
	existing := map[string]bool{}
	for _, email := range emails {
		if _, ok := f.leads[email]; ok {
			existing[email] = true
		}
	}
	return existing, nil
}

func (f *fakeStore) InsertImported(_ context.Context, chunk []repository.ImportLeadParams) error {
	if f.failChunk {
		return errors.New("chunk insert failed")
	}
	for _, params := range chunk {
		f.leads[params.Email] = repository.Lead{ID: uuid.New(), Email: params.Email, Status: params.Status}
		f.activity = append(f.activity, repository.ActivityLeadImported)
	}
	f.imported = append(f.imported, chunk...)
	return nil
}

func (f *fakeStore) QueueSend(_ context.Context, params repository.QueueSendParams) (repository.EmailSend, error) {
	send := repository.EmailSend{ID: uuid.New(), LeadID: params.LeadID, Subject: params.Subject, Status: repository.SendQueued}
	f.lastQueuedID = send.ID
	return send, nil
}

func (f *fakeStore) MarkSendResult(_ context.Context, _ uuid.UUID, _ string, _ error) error {
	return nil
}

func (f *fakeStore) ListSendsByLead(_ context.Context, _ uuid.UUID, _ int) ([]repository.EmailSend, error) {
	return f.sendHistory, nil
}

func (f *fakeStore) MarkDeliveryEvent(_ context.Context, providerID, event string) (repository.EmailSend, bool, error) {
	send, ok := f.sends[providerID]
	if !ok {
		return repository.EmailSend{}, false, repository.ErrNotFound
	}
	if f.deliveries == nil {
		f.deliveries = map[string]bool{}
	}
	key := providerID + ":" + event
	if f.deliveries[key] {
		return send, false, nil
	}
	f.deliveries[key] = true
	return send, true, nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg.To)
	return "msg-" + fmt.Sprint(len(f.sent)), nil
}

func newTestService(store Store) *Service {
	log := logger.New("development")
	return New(store, &fakeSender{}, events.NewInMemoryBus(log), log)
}

func TestImportDedupesAndValidates(t *testing.T) {
	store := newFakeStore()
	// one pre-existing lead
	if _, err := store.Create(context.Background(), repository.CreateLeadParams{Email: "known@example.com", Status: domain.StatusNew}); err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	svc := newTestService(store)
	result, err := svc.ImportLeads(context.Background(), ImportParams{
		Rows: []ImportRow{
			{Email: "a@example.com", Name: "A"},
			{Email: "Known@Example.com", Name: "dup of existing"},
			{Email: "a@example.com", Name: "dup within batch"},
			{Email: "not-an-email", Name: "bad"},
			{Email: "b@example.com", Name: "B"},
		},
		Source: "csv",
	})
	if err != nil {
		t.Fatalf("ImportLeads: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("imported = %d, want 2", result.Imported)
	}
	if result.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", result.Skipped)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v, want exactly one invalid-email error", result.Errors)
	}
	if len(result.Errors) == 1 && !strings.Contains(result.Errors[0], "Invalid email format") {
		t.Errorf("error %q should carry the Invalid email format tag", result.Errors[0])
	}
	if result.Imported+result.Skipped+len(result.Errors) != 5 {
		t.Errorf("rows must be fully accounted for: %+v", result)
	}

	var imported int
	for _, activityType := range store.activity {
		if activityType == "lead_imported" {
			imported++
		}
	}
	if imported != result.Imported {
		t.Errorf("lead_imported activity rows = %d, want %d", imported, result.Imported)
	}

	for _, params := range store.imported {
		if params.MarketingConsent {
			t.Errorf("imported %s claims marketing consent nobody gave", params.Email)
		}
	}
}

func TestImportCarriesDeclaredConsent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	if _, err := svc.ImportLeads(context.Background(), ImportParams{
		Rows:             []ImportRow{{Email: "optin@example.com"}},
		MarketingConsent: true,
	}); err != nil {
		t.Fatalf("ImportLeads: %v", err)
	}
	if len(store.imported) != 1 || !store.imported[0].MarketingConsent {
		t.Errorf("imported rows = %+v, want one row with marketing consent", store.imported)
	}
}

func TestImportRepeatIsFullySkipped(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	rows := []ImportRow{{Email: "x@example.com"}, {Email: "y@example.com"}}
	first, err := svc.ImportLeads(context.Background(), ImportParams{Rows: rows})
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if first.Imported != 2 {
		t.Fatalf("first import = %+v, want 2 imported", first)
	}

	second, err := svc.ImportLeads(context.Background(), ImportParams{Rows: rows})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if second.Imported != 0 || second.Skipped != 2 {
		t.Errorf("second import = %+v, want everything skipped", second)
	}
}

func TestImportChunkFailureIsReportedNotFatal(t *testing.T) {
	store := newFakeStore()
	store.failChunk = true
	svc := newTestService(store)

	result, err := svc.ImportLeads(context.Background(), ImportParams{
		Rows: []ImportRow{{Email: "a@example.com"}, {Email: "b@example.com"}},
	})
	if err != nil {
		t.Fatalf("ImportLeads: %v", err)
	}
	if result.Imported != 0 {
		t.Errorf("imported = %d, want 0", result.Imported)
	}
	// A failed chunk reports one error per row it contained.
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v, want one per row of the failed chunk", result.Errors)
	}
	for i, email := range []string{"a@example.com", "b@example.com"} {
		if !strings.Contains(result.Errors[i], email) {
			t.Errorf("error %q should name row %s", result.Errors[i], email)
		}
	}
}

func TestImportRejectsUnknownSequence(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.ImportLeads(context.Background(), ImportParams{
		Rows:     []ImportRow{{Email: "a@example.com"}},
		Sequence: "does_not_exist",
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("err = %v, want bad request", err)
	}
}
