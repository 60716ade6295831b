// Package email composes and sends event notification emails through the
// provider registry.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grantcue/grantcue/internal/events"
	"github.com/grantcue/grantcue/internal/notify/email/provider"
	"github.com/grantcue/grantcue/internal/notify/payload"
)

// Sender composes one email per event and hands it to the provider
// registry for delivery.
type Sender struct {
	registry   *provider.Registry
	from       string
	appBaseURL string
}

// NewSender creates an email sender with all providers registered.
// The primary provider falls back through the others when unconfigured.
func NewSender(from, appBaseURL, primary string) *Sender {
	registry := provider.NewRegistry()
	registry.Register(provider.NewResendProvider())
	registry.Register(provider.NewSESProvider())
	registry.Register(provider.NewSMTPProvider())

	if primary != "" {
		if err := registry.SetPrimary(primary); err != nil {
			slog.Warn("Unknown primary email provider", "name", primary, "error", err)
		}
	}
	registry.SetFallback("resend", "ses", "smtp")

	return &Sender{registry: registry, from: from, appBaseURL: appBaseURL}
}

// NewSenderWithRegistry creates an email sender with a custom registry.
// This is useful for testing.
func NewSenderWithRegistry(registry *provider.Registry, from, appBaseURL string) *Sender {
	return &Sender{registry: registry, from: from, appBaseURL: appBaseURL}
}

// Send composes the event email and delivers it to the recipient.
func (s *Sender) Send(ctx context.Context, to string, e events.Event) error {
	if to == "" {
		return fmt.Errorf("email recipient is required")
	}
	if !strings.Contains(to, "@") {
		return fmt.Errorf("invalid email address format: %q", to)
	}

	p := payload.BuildEmailPayload(e, s.appBaseURL)

	err := s.registry.Send(ctx, &provider.EmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: p.Subject,
		Body:    p.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Successfully sent email notification",
		"to", to,
		"subject", p.Subject,
		"event", e.Kind(),
	)
	return nil
}
