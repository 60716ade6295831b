// Package teams provides event delivery to Microsoft Teams via Incoming
// Webhook connectors using the MessageCard format.
package teams

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

// Sender delivers events to Teams Incoming Webhook URLs.
type Sender struct {
	httpClient *http.Client
	appBaseURL string
}

// NewSender creates a new Teams sender using the given HTTP client.
func NewSender(client *http.Client, appBaseURL string) *Sender {
	return &Sender{httpClient: client, appBaseURL: appBaseURL}
}

// Provider returns the integration provider this sender handles.
func (s *Sender) Provider() string {
	return "teams"
}

// Send formats the event as a MessageCard and POSTs it to webhookURL.
func (s *Sender) Send(ctx context.Context, webhookURL string, e events.Event) error {
	if webhookURL == "" {
		return fmt.Errorf("teams webhook URL is required")
	}
	if !strings.HasPrefix(webhookURL, "http://") && !strings.HasPrefix(webhookURL, "https://") {
		return fmt.Errorf("invalid Teams webhook URL")
	}

	teamsPayload := payload.BuildTeamsPayload(e, s.appBaseURL)

	jsonData, err := json.Marshal(teamsPayload)
	if err != nil {
		return fmt.Errorf("failed to marshal Teams payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to send Teams notification",
			"error", err,
			"event", e.Kind(),
		)
		return fmt.Errorf("failed to send Teams notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Teams webhook returned error status",
			"status_code", resp.StatusCode,
			"event", e.Kind(),
		)
		return fmt.Errorf("teams webhook returned status %d", resp.StatusCode)
	}

	slog.Info("Successfully sent Teams notification",
		"event", e.Kind(),
		"organization_id", e.Org(),
	)

	return nil
}
