package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	leadsrepo "funnel_backend/internal/leads/repository"
	"funnel_backend/internal/sequences"
	"funnel_backend/platform/logger"
)

const dayKeyTTL = 48 * time.Hour

// Poller ticks on the configured interval and, for each sequence whose
// send window is open and daily budget not exhausted, claims due leads
// and enqueues delivery tasks for the outbox rows it wrote.
type Poller struct {
	store    *Store
	seqs     *sequences.Repository
	leads    *leadsrepo.Repository
	client   *Client
	rdb      *redis.Client
	interval time.Duration
	batch    int
	log      *logger.Logger
}

func NewPoller(store *Store, seqs *sequences.Repository, leads *leadsrepo.Repository,
	client *Client, rdb *redis.Client, interval time.Duration, batch int, log *logger.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batch < 1 {
		batch = 50
	}
	return &Poller{
		store:    store,
		seqs:     seqs,
		leads:    leads,
		client:   client,
		rdb:      rdb,
		interval: interval,
		batch:    batch,
		log:      log,
	}
}

// Run blocks until ctx is done, processing one pass per tick.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("dispatch poller started", "interval", p.interval.String(), "batch", p.batch)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("dispatch poller stopping")
			return nil
		case <-ticker.C:
			if err := p.runOnce(ctx); err != nil {
				p.log.Error("dispatch pass failed", "error", err)
			}
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) error {
	p.requeueStale(ctx)

	allSettings, err := p.seqs.ListSettings(ctx)
	if err != nil {
		return fmt.Errorf("list sequence settings: %w", err)
	}

	now := time.Now().UTC()
	for _, settings := range allSettings {
		if !sequences.InSendWindow(settings, now) {
			continue
		}
		if err := p.dispatchSequence(ctx, settings, now); err != nil {
			p.log.Error("sequence dispatch failed", "sequence", settings.SequenceName, "error", err)
		}
	}
	return nil
}

func (p *Poller) dispatchSequence(ctx context.Context, settings sequences.Settings, now time.Time) error {
	remaining, err := p.dailyBudget(ctx, settings, now)
	if err != nil {
		return err
	}
	if remaining < 1 {
		return nil
	}

	limit := p.batch
	if remaining < limit {
		limit = remaining
	}

	templates, err := p.activeTemplates(ctx, settings.SequenceName)
	if err != nil {
		return err
	}

	queued, completed, err := p.store.ClaimDue(ctx, settings.SequenceName, limit, templates)
	if err != nil {
		return fmt.Errorf("claim due leads: %w", err)
	}
	if len(queued) == 0 && completed == 0 {
		return nil
	}

	if len(queued) > 0 {
		if err := p.rdb.IncrBy(ctx, sequences.DayKey(settings, now), int64(len(queued))).Err(); err != nil {
			p.log.Warn("daily counter update failed", "sequence", settings.SequenceName, "error", err)
		}
	}

	enqueued := 0
	for _, delivery := range queued {
		err := p.client.EnqueueEmailDeliver(ctx, EmailDeliverPayload{
			SendID: delivery.SendID.String(),
			LeadID: delivery.LeadID.String(),
		})
		if err != nil {
			// The outbox row stays queued; the next requeue pass or a
			// manual retry picks it up.
			p.log.Error("delivery enqueue failed", "send_id", delivery.SendID.String(), "error", err)
			continue
		}
		enqueued++
	}

	p.log.Info("sequence dispatched",
		"sequence", settings.SequenceName,
		"queued", len(queued),
		"enqueued", enqueued,
		"completed", completed)
	return nil
}

// requeueStale re-enqueues outbox rows whose delivery task never made
// it onto the queue. Re-enqueueing an already-pending send is harmless;
// the worker skips rows no longer queued.
func (p *Poller) requeueStale(ctx context.Context) {
	stale, err := p.store.StaleQueued(ctx, time.Now().UTC().Add(-10*time.Minute), p.batch)
	if err != nil {
		p.log.Error("stale send scan failed", "error", err)
		return
	}
	for _, delivery := range stale {
		err := p.client.EnqueueEmailDeliver(ctx, EmailDeliverPayload{
			SendID: delivery.SendID.String(),
			LeadID: delivery.LeadID.String(),
		})
		if err != nil {
			p.log.Error("stale send requeue failed", "send_id", delivery.SendID.String(), "error", err)
			continue
		}
		p.log.Info("stale send requeued", "send_id", delivery.SendID.String())
	}
}

// dailyBudget returns how many sends the sequence has left today. The
// counter lives in Redis keyed by the sequence's local day; when the key
// is missing it is rebuilt from the outbox so restarts cannot reset the
// limit.
func (p *Poller) dailyBudget(ctx context.Context, settings sequences.Settings, now time.Time) (int, error) {
	if settings.DailyLimit < 1 {
		return p.batch, nil
	}

	key := sequences.DayKey(settings, now)
	used, err := p.rdb.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		used, err = p.leads.CountSentSince(ctx, settings.SequenceName, sequences.StartOfDay(settings, now))
		if err != nil {
			return 0, fmt.Errorf("rebuild daily counter: %w", err)
		}
		if err := p.rdb.Set(ctx, key, used, dayKeyTTL).Err(); err != nil {
			return 0, fmt.Errorf("seed daily counter: %w", err)
		}
	} else if err != nil {
		return 0, fmt.Errorf("read daily counter: %w", err)
	}

	return settings.DailyLimit - used, nil
}

func (p *Poller) activeTemplates(ctx context.Context, sequence string) ([]sequences.Template, error) {
	all, err := p.seqs.ListTemplates(ctx, sequence)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	active := make([]sequences.Template, 0, len(all))
	for _, tpl := range all {
		if tpl.Active {
			active = append(active, tpl)
		}
	}
	return active, nil
}
