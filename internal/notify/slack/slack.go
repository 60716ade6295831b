// Package slack provides event delivery to Slack via Incoming Webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/grantcue/grantcue/internal/events"
	"github.com/grantcue/grantcue/internal/notify/payload"
)

// maskURL masks sensitive parts of a URL for logging.
func maskURL(url string) string {
	if len(url) > 50 {
		return url[:30] + "..." + url[len(url)-10:]
	}
	return url
}

// Sender delivers events to Slack Incoming Webhook URLs.
type Sender struct {
	httpClient *http.Client
	appBaseURL string
}

// NewSender creates a new Slack sender using the given HTTP client.
func NewSender(client *http.Client, appBaseURL string) *Sender {
	return &Sender{httpClient: client, appBaseURL: appBaseURL}
}

// Provider returns the integration provider this sender handles.
func (s *Sender) Provider() string {
	return "slack"
}

// Send formats the event as a Slack message and POSTs it to webhookURL.
func (s *Sender) Send(ctx context.Context, webhookURL string, e events.Event) error {
	if webhookURL == "" {
		return fmt.Errorf("slack webhook URL is required")
	}
	if !strings.HasPrefix(webhookURL, "http://") && !strings.HasPrefix(webhookURL, "https://") {
		return fmt.Errorf("invalid Slack webhook URL: %q", maskURL(webhookURL))
	}

	slackPayload := payload.BuildSlackPayload(e, s.appBaseURL)

	jsonData, err := json.Marshal(slackPayload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to send Slack notification",
			"error", err,
			"webhook_url", maskURL(webhookURL),
			"event", e.Kind(),
		)
		return fmt.Errorf("failed to send Slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Slack webhook returned error status",
			"status_code", resp.StatusCode,
			"event", e.Kind(),
		)
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	slog.Info("Successfully sent Slack notification",
		"event", e.Kind(),
		"organization_id", e.Org(),
	)

	return nil
}
