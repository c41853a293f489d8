package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"funnel_backend/internal/email"
	leadsrepo "funnel_backend/internal/leads/repository"
	"funnel_backend/internal/sequences"
	"funnel_backend/internal/webhook"
	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"
)

// Worker consumes delivery tasks: it loads the outbox row, renders the
// stored template against the lead and hands the result to the provider.
// A provider failure marks the row failed and lets asynq retry it.
type Worker struct {
	server  *asynq.Server
	queue   string
	leads   *leadsrepo.Repository
	sender  email.Sender
	baseURL string
	secret  string
	log     *logger.Logger
}

func NewWorker(cfg config.DispatcherConfig, webhookCfg config.WebhookConfig,
	leads *leadsrepo.Repository, sender email.Sender, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})

	return &Worker{
		server:  server,
		queue:   queue,
		leads:   leads,
		sender:  sender,
		baseURL: webhookCfg.GetAppBaseURL(),
		secret:  webhookCfg.GetUnsubscribeSecret(),
		log:     log,
	}, nil
}

// Run blocks processing tasks until ctx is done, then drains in-flight
// handlers before returning.
func (w *Worker) Run(ctx context.Context) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskEmailDeliver, w.handleEmailDeliver)

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	w.log.Info("delivery worker started", "queue", w.queue)
	return w.server.Run(mux)
}

func (w *Worker) handleEmailDeliver(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEmailDeliverPayload(task)
	if err != nil {
		return fmt.Errorf("parse delivery payload: %v: %w", err, asynq.SkipRetry)
	}
	sendID, err := uuid.Parse(payload.SendID)
	if err != nil {
		return fmt.Errorf("parse send id: %v: %w", err, asynq.SkipRetry)
	}

	send, err := w.leads.GetSend(ctx, sendID)
	if errors.Is(err, leadsrepo.ErrNotFound) {
		w.log.Warn("delivery task for unknown send", "send_id", payload.SendID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load send: %w", err)
	}
	if send.Status == leadsrepo.SendSent {
		return nil
	}

	lead, err := w.leads.GetByID(ctx, send.LeadID)
	if err != nil {
		return fmt.Errorf("load lead: %w", err)
	}

	// The lead may have replied or unsubscribed between queueing and
	// delivery. Cancel rather than send into a dead conversation.
	if lead.Unsubscribed || lead.Paused {
		cancelErr := errors.New("canceled: lead paused or unsubscribed")
		if err := w.leads.MarkSendResult(ctx, send.ID, "", cancelErr); err != nil {
			w.log.DatabaseError("mark send canceled", err)
		}
		return nil
	}

	body, err := w.renderSend(send, lead)
	if err != nil {
		// Render errors do not heal on retry.
		if markErr := w.leads.MarkSendResult(ctx, send.ID, "", err); markErr != nil {
			w.log.DatabaseError("mark send failed", markErr)
		}
		w.log.Error("template render failed", "send_id", send.ID.String(), "error", err)
		return nil
	}

	subject, err := sequences.Render(send.Subject, sequences.LeadVars(lead))
	if err != nil {
		if markErr := w.leads.MarkSendResult(ctx, send.ID, "", err); markErr != nil {
			w.log.DatabaseError("mark send failed", markErr)
		}
		w.log.Error("subject render failed", "send_id", send.ID.String(), "error", err)
		return nil
	}

	providerID, sendErr := w.sender.Send(ctx, email.Message{
		To:      send.ToEmail,
		ToName:  lead.Name,
		Subject: subject,
		Text:    body,
	})
	if err := w.leads.MarkSendResult(ctx, send.ID, providerID, sendErr); err != nil {
		w.log.DatabaseError("mark send result", err)
	}
	w.log.EmailSend(lead.ID.String(), send.ToEmail, providerID, sendErr)
	if sendErr != nil {
		return fmt.Errorf("deliver email: %w", sendErr)
	}
	return nil
}

// renderSend renders the stored body and appends the unsubscribe footer
// every automated email carries.
func (w *Worker) renderSend(send leadsrepo.EmailSend, lead leadsrepo.Lead) (string, error) {
	body, err := sequences.Render(send.Body, sequences.LeadVars(lead))
	if err != nil {
		return "", err
	}
	unsubscribe := webhook.UnsubscribeURL(w.baseURL, w.secret, lead.ID)
	return body + "\n\n--\nNo longer interested? Unsubscribe here: " + unsubscribe + "\n", nil
}
