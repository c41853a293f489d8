package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"funnel_backend/internal/sequences"
	"funnel_backend/platform/logger"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestEmailDeliverTaskRoundTrip(t *testing.T) {
	payload := EmailDeliverPayload{
		SendID: uuid.New().String(),
		LeadID: uuid.New().String(),
	}

	task, err := NewEmailDeliverTask(payload)
	if err != nil {
		t.Fatalf("NewEmailDeliverTask: %v", err)
	}
	if task.Type() != TaskEmailDeliver {
		t.Errorf("task type = %q, want %q", task.Type(), TaskEmailDeliver)
	}

	got, err := ParseEmailDeliverPayload(task)
	if err != nil {
		t.Fatalf("ParseEmailDeliverPayload: %v", err)
	}
	if got != payload {
		t.Errorf("payload round trip = %+v, want %+v", got, payload)
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6379/2", false)
	if err != nil {
		t.Fatalf("redisClientOpt: %v", err)
	}
	if opt.Addr != "localhost:6379" {
		t.Errorf("addr = %q, want localhost:6379", opt.Addr)
	}
	if opt.Password != "secret" {
		t.Errorf("password = %q, want secret", opt.Password)
	}
	if opt.DB != 2 {
		t.Errorf("db = %d, want 2", opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Error("plain redis url should not carry TLS config")
	}

	opt, err = redisClientOpt("rediss://localhost:6380", true)
	if err != nil {
		t.Fatalf("redisClientOpt tls: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Error("expected insecure TLS config for rediss url with tlsInsecure")
	}

	if _, err := redisClientOpt("not a url", false); err == nil {
		t.Error("expected error for malformed url")
	}
}

func TestNextActiveTemplate(t *testing.T) {
	templates := []sequences.Template{
		{Step: 0, Subject: "welcome"},
		{Step: 2, Subject: "case study"},
		{Step: 4, Subject: "last call"},
	}

	tests := []struct {
		name     string
		fromStep int
		want     string
		wantNil  bool
	}{
		{name: "start of sequence", fromStep: 0, want: "welcome"},
		{name: "gap skips to next step", fromStep: 1, want: "case study"},
		{name: "exact match", fromStep: 4, want: "last call"},
		{name: "past the end", fromStep: 5, wantNil: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := nextActiveTemplate(templates, tc.fromStep)
			if tc.wantNil {
				if got != nil {
					t.Fatalf("got template %q, want nil", got.Subject)
				}
				return
			}
			if got == nil {
				t.Fatal("got nil template")
			}
			if got.Subject != tc.want {
				t.Errorf("got template %q, want %q", got.Subject, tc.want)
			}
		})
	}

	if got := nextActiveTemplate(nil, 0); got != nil {
		t.Errorf("empty template list should yield nil, got %q", got.Subject)
	}
}

func TestDailyBudget(t *testing.T) {
	rdb, _ := setupTestRedis(t)
	log := logger.New("development")
	poller := NewPoller(nil, nil, nil, nil, rdb, 30*time.Second, 50, log)

	settings := sequences.Settings{
		SequenceName: "cold_outreach",
		SendTimezone: "UTC",
		DailyLimit:   200,
	}
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	ctx := context.Background()

	key := sequences.DayKey(settings, now)
	if err := rdb.Set(ctx, key, 190, 0).Err(); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	remaining, err := poller.dailyBudget(ctx, settings, now)
	if err != nil {
		t.Fatalf("dailyBudget: %v", err)
	}
	if remaining != 10 {
		t.Errorf("remaining = %d, want 10", remaining)
	}

	if err := rdb.Set(ctx, key, 200, 0).Err(); err != nil {
		t.Fatalf("seed counter: %v", err)
	}
	remaining, err = poller.dailyBudget(ctx, settings, now)
	if err != nil {
		t.Fatalf("dailyBudget at limit: %v", err)
	}
	if remaining > 0 {
		t.Errorf("remaining = %d, want none left", remaining)
	}

	// A zero limit disables the budget and dispatches a full batch.
	unlimited := settings
	unlimited.DailyLimit = 0
	remaining, err = poller.dailyBudget(ctx, unlimited, now)
	if err != nil {
		t.Fatalf("dailyBudget unlimited: %v", err)
	}
	if remaining != 50 {
		t.Errorf("unlimited remaining = %d, want batch size 50", remaining)
	}
}
