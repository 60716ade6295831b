// Package notify delivers a finalized event through every channel the
// organization has configured and records delivery outcomes.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/grantcue/grantcue/internal/database"
	"github.com/grantcue/grantcue/internal/events"
	"github.com/grantcue/grantcue/internal/notify/payload"
	"github.com/grantcue/grantcue/internal/notify/webhook"
)

// Store is the subset of database operations the fan-out needs.
type Store interface {
	ListActiveWebhooksForEvent(ctx context.Context, orgID, eventType string) ([]*database.Webhook, error)
	ListActiveIntegrations(ctx context.Context, orgID string) ([]*database.Integration, error)
	InsertDelivery(ctx context.Context, d *database.WebhookDelivery) error
	IncrementWebhookCounters(ctx context.Context, webhookID string, failed bool) error
}

// ChatSender delivers an event to one chat integration URL.
type ChatSender interface {
	Provider() string
	Send(ctx context.Context, webhookURL string, e events.Event) error
}

// EmailSender delivers an event email to one recipient.
type EmailSender interface {
	Send(ctx context.Context, to string, e events.Event) error
}

// Outcome summarizes one fan-out dispatch.
type Outcome struct {
	WebhooksDelivered     int
	WebhooksFailed        int
	IntegrationsDelivered int
	IntegrationsFailed    int
	EmailsSent            int
}

// Fanout coordinates delivery across webhooks, chat integrations, and
// email. All dependencies are injected by the hosting process.
type Fanout struct {
	store      Store
	webhooks   *webhook.Sender
	chat       []ChatSender
	email      EmailSender
	appBaseURL string
}

// NewFanout creates a fan-out coordinator.
func NewFanout(store Store, webhooks *webhook.Sender, email EmailSender, appBaseURL string, chat ...ChatSender) *Fanout {
	return &Fanout{
		store:      store,
		webhooks:   webhooks,
		chat:       chat,
		email:      email,
		appBaseURL: appBaseURL,
	}
}

// Dispatch delivers the event through every configured channel. emailTo
// is the resolved destination address, or empty to skip email. Channel
// failures are isolated: they are logged and counted, never returned.
func (f *Fanout) Dispatch(ctx context.Context, e events.Event, emailTo string) Outcome {
	var out Outcome

	delivered, failed := f.dispatchWebhooks(ctx, e)
	out.WebhooksDelivered = delivered
	out.WebhooksFailed = failed

	out.IntegrationsDelivered, out.IntegrationsFailed = f.dispatchIntegrations(ctx, e)

	if emailTo != "" && f.email != nil {
		if err := f.email.Send(ctx, emailTo, e); err != nil {
			slog.Error("Failed to send event email",
				"error", err,
				"event", e.Kind(),
				"organization_id", e.Org(),
			)
		} else {
			out.EmailsSent = 1
		}
	}

	return out
}

// dispatchWebhooks delivers to all subscribed webhooks concurrently with
// all-settle semantics: one webhook's failure never affects another's.
// Audit row and counters are recorded exactly once per attempt.
func (f *Fanout) dispatchWebhooks(ctx context.Context, e events.Event) (delivered, failed int) {
	webhooks, err := f.store.ListActiveWebhooksForEvent(ctx, e.Org(), string(e.Kind()))
	if err != nil {
		slog.Error("Failed to list webhooks for event",
			"error", err,
			"event", e.Kind(),
			"organization_id", e.Org(),
		)
		return 0, 0
	}
	if len(webhooks) == 0 {
		return 0, 0
	}

	body, err := json.Marshal(payload.BuildWebhookPayload(e, f.appBaseURL))
	if err != nil {
		slog.Error("Failed to marshal webhook payload", "error", err, "event", e.Kind())
		return 0, 0
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, wh := range webhooks {
		wg.Add(1)
		go func(wh *database.Webhook) {
			defer wg.Done()
			result := f.webhooks.Deliver(ctx, wh.URL, wh.Secret, body)
			f.recordWebhookAttempt(ctx, wh, e, body, result)

			mu.Lock()
			if result.Delivered {
				delivered++
			} else {
				failed++
			}
			mu.Unlock()
		}(wh)
	}
	wg.Wait()

	return delivered, failed
}

// recordWebhookAttempt persists the audit row and bumps counters for one
// attempt, success or failure alike.
func (f *Fanout) recordWebhookAttempt(ctx context.Context, wh *database.Webhook, e events.Event, body []byte, result webhook.Result) {
	d := &database.WebhookDelivery{
		DeliveryID:     uuid.New().String(),
		WebhookID:      wh.WebhookID,
		EventType:      string(e.Kind()),
		Payload:        string(body),
		ResponseStatus: result.ResponseStatus,
		ResponseBody:   result.ResponseBody,
		ErrorMessage:   result.ErrorMessage,
	}
	if err := f.store.InsertDelivery(ctx, d); err != nil {
		slog.Error("Failed to record webhook delivery",
			"error", err,
			"webhook_id", wh.WebhookID,
			"event", e.Kind(),
		)
	}
	if err := f.store.IncrementWebhookCounters(ctx, wh.WebhookID, !result.Delivered); err != nil {
		slog.Error("Failed to update webhook counters",
			"error", err,
			"webhook_id", wh.WebhookID,
		)
	}

	if result.Delivered {
		slog.Info("Webhook delivered",
			"webhook_id", wh.WebhookID,
			"event", e.Kind(),
			"organization_id", e.Org(),
		)
	} else {
		errMsg := ""
		if result.ErrorMessage != nil {
			errMsg = *result.ErrorMessage
		}
		slog.Error("Webhook delivery failed",
			"webhook_id", wh.WebhookID,
			"event", e.Kind(),
			"error", errMsg,
		)
	}
}

// dispatchIntegrations delivers one message per active chat integration.
// No audit trail is persisted for these; outcomes are logged only.
func (f *Fanout) dispatchIntegrations(ctx context.Context, e events.Event) (delivered, failed int) {
	integrations, err := f.store.ListActiveIntegrations(ctx, e.Org())
	if err != nil {
		slog.Error("Failed to list integrations",
			"error", err,
			"organization_id", e.Org(),
		)
		return 0, 0
	}

	for _, in := range integrations {
		sender := f.chatSender(in.Provider)
		if sender == nil {
			slog.Warn("Unknown integration provider, skipping",
				"provider", in.Provider,
				"integration_id", in.IntegrationID,
			)
			continue
		}
		if err := sender.Send(ctx, in.WebhookURL, e); err != nil {
			failed++
			slog.Error("Integration delivery failed",
				"error", err,
				"provider", in.Provider,
				"integration_id", in.IntegrationID,
				"event", e.Kind(),
			)
			continue
		}
		delivered++
	}

	return delivered, failed
}

func (f *Fanout) chatSender(provider string) ChatSender {
	for _, s := range f.chat {
		if s.Provider() == provider {
			return s
		}
	}
	return nil
}
