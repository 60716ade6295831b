// Package handlers provides test mocks for handler dependencies.
package handlers

import (
	"context"
	"time"

	"github.com/grantcue/grantcue/internal/database"
	"github.com/grantcue/grantcue/internal/events"
	"github.com/grantcue/grantcue/internal/pipeline"
)

// mockRepository implements Repository interface for testing.
type mockRepository struct {
	// Callbacks for each method (set these to control behavior)
	CreateAlertFn       func(ctx context.Context, orgID, userID string, p database.AlertParams) (*database.Alert, error)
	GetAlertFn          func(ctx context.Context, alertID, orgID string) (*database.Alert, error)
	ListAlertsFn        func(ctx context.Context, orgID string, limit, offset int) (*database.AlertListResult, error)
	UpdateAlertFn       func(ctx context.Context, alertID, orgID string, p database.AlertParams) (*database.Alert, error)
	ToggleAlertActiveFn func(ctx context.Context, alertID, orgID string, active bool) (*database.Alert, error)
	DeleteAlertFn       func(ctx context.Context, alertID, userID string) error
	ListMatchesFn       func(ctx context.Context, alertID string, limit int) ([]*database.AlertMatch, error)

	CreateWebhookFn       func(ctx context.Context, orgID, name, url, secret string, eventTypes []string) (*database.Webhook, error)
	GetWebhookFn          func(ctx context.Context, webhookID, orgID string) (*database.Webhook, error)
	ListWebhooksFn        func(ctx context.Context, orgID string, limit, offset int) (*database.WebhookListResult, error)
	UpdateWebhookFn       func(ctx context.Context, webhookID, orgID, name, url string, eventTypes []string) (*database.Webhook, error)
	ToggleWebhookActiveFn func(ctx context.Context, webhookID, orgID string, active bool) (*database.Webhook, error)
	DeleteWebhookFn       func(ctx context.Context, webhookID, orgID string) error
	ListDeliveriesFn      func(ctx context.Context, webhookID string, limit int) ([]*database.WebhookDelivery, error)

	CreateIntegrationFn       func(ctx context.Context, orgID, provider, webhookURL string) (*database.Integration, error)
	ListIntegrationsFn        func(ctx context.Context, orgID string) ([]*database.Integration, error)
	ToggleIntegrationActiveFn func(ctx context.Context, integrationID, orgID string, active bool) (*database.Integration, error)
	DeleteIntegrationFn       func(ctx context.Context, integrationID, orgID string) error
}

func alertFromParams(alertID, orgID, userID string, p database.AlertParams) *database.Alert {
	return &database.Alert{
		AlertID:          alertID,
		OrganizationID:   orgID,
		UserID:           userID,
		Name:             p.Name,
		Keyword:          p.Keyword,
		Category:         p.Category,
		Agency:           p.Agency,
		StatusPosted:     p.StatusPosted,
		StatusForecasted: p.StatusForecasted,
		DueInDays:        p.DueInDays,
		MinAmount:        p.MinAmount,
		MaxAmount:        p.MaxAmount,
		NotifyEmail:      p.NotifyEmail,
		NotifyInApp:      p.NotifyInApp,
		NotifyWebhook:    p.NotifyWebhook,
		WebhookURL:       p.WebhookURL,
		Cadence:          p.Cadence,
		IsActive:         true,
	}
}

func (m *mockRepository) CreateAlert(ctx context.Context, orgID, userID string, p database.AlertParams) (*database.Alert, error) {
	if m.CreateAlertFn != nil {
		return m.CreateAlertFn(ctx, orgID, userID, p)
	}
	return alertFromParams("alert-1", orgID, userID, p), nil
}

func (m *mockRepository) GetAlert(ctx context.Context, alertID, orgID string) (*database.Alert, error) {
	if m.GetAlertFn != nil {
		return m.GetAlertFn(ctx, alertID, orgID)
	}
	return &database.Alert{AlertID: alertID, OrganizationID: orgID, UserID: "user-1", Name: "Test Alert", IsActive: true}, nil
}

func (m *mockRepository) ListAlerts(ctx context.Context, orgID string, limit, offset int) (*database.AlertListResult, error) {
	if m.ListAlertsFn != nil {
		return m.ListAlertsFn(ctx, orgID, limit, offset)
	}
	return &database.AlertListResult{Alerts: []*database.Alert{}, Total: 0, Limit: limit, Offset: offset}, nil
}

func (m *mockRepository) UpdateAlert(ctx context.Context, alertID, orgID string, p database.AlertParams) (*database.Alert, error) {
	if m.UpdateAlertFn != nil {
		return m.UpdateAlertFn(ctx, alertID, orgID, p)
	}
	return alertFromParams(alertID, orgID, "user-1", p), nil
}

func (m *mockRepository) ToggleAlertActive(ctx context.Context, alertID, orgID string, active bool) (*database.Alert, error) {
	if m.ToggleAlertActiveFn != nil {
		return m.ToggleAlertActiveFn(ctx, alertID, orgID, active)
	}
	return &database.Alert{AlertID: alertID, OrganizationID: orgID, UserID: "user-1", Name: "Test Alert", IsActive: active}, nil
}

func (m *mockRepository) DeleteAlert(ctx context.Context, alertID, userID string) error {
	if m.DeleteAlertFn != nil {
		return m.DeleteAlertFn(ctx, alertID, userID)
	}
	return nil
}

func (m *mockRepository) ListMatches(ctx context.Context, alertID string, limit int) ([]*database.AlertMatch, error) {
	if m.ListMatchesFn != nil {
		return m.ListMatchesFn(ctx, alertID, limit)
	}
	return []*database.AlertMatch{}, nil
}

func (m *mockRepository) CreateWebhook(ctx context.Context, orgID, name, url, secret string, eventTypes []string) (*database.Webhook, error) {
	if m.CreateWebhookFn != nil {
		return m.CreateWebhookFn(ctx, orgID, name, url, secret, eventTypes)
	}
	return &database.Webhook{WebhookID: "wh-1", OrganizationID: orgID, Name: name, URL: url, Secret: secret, Events: eventTypes, IsActive: true}, nil
}

func (m *mockRepository) GetWebhook(ctx context.Context, webhookID, orgID string) (*database.Webhook, error) {
	if m.GetWebhookFn != nil {
		return m.GetWebhookFn(ctx, webhookID, orgID)
	}
	return &database.Webhook{WebhookID: webhookID, OrganizationID: orgID, Name: "Test Webhook", URL: "https://hooks.example.com/a", Events: []string{"grant.matched"}, IsActive: true}, nil
}

func (m *mockRepository) ListWebhooks(ctx context.Context, orgID string, limit, offset int) (*database.WebhookListResult, error) {
	if m.ListWebhooksFn != nil {
		return m.ListWebhooksFn(ctx, orgID, limit, offset)
	}
	return &database.WebhookListResult{Webhooks: []*database.Webhook{}, Total: 0, Limit: limit, Offset: offset}, nil
}

func (m *mockRepository) UpdateWebhook(ctx context.Context, webhookID, orgID, name, url string, eventTypes []string) (*database.Webhook, error) {
	if m.UpdateWebhookFn != nil {
		return m.UpdateWebhookFn(ctx, webhookID, orgID, name, url, eventTypes)
	}
	return &database.Webhook{WebhookID: webhookID, OrganizationID: orgID, Name: name, URL: url, Events: eventTypes, IsActive: true}, nil
}

func (m *mockRepository) ToggleWebhookActive(ctx context.Context, webhookID, orgID string, active bool) (*database.Webhook, error) {
	if m.ToggleWebhookActiveFn != nil {
		return m.ToggleWebhookActiveFn(ctx, webhookID, orgID, active)
	}
	return &database.Webhook{WebhookID: webhookID, OrganizationID: orgID, IsActive: active}, nil
}

func (m *mockRepository) DeleteWebhook(ctx context.Context, webhookID, orgID string) error {
	if m.DeleteWebhookFn != nil {
		return m.DeleteWebhookFn(ctx, webhookID, orgID)
	}
	return nil
}

func (m *mockRepository) ListDeliveries(ctx context.Context, webhookID string, limit int) ([]*database.WebhookDelivery, error) {
	if m.ListDeliveriesFn != nil {
		return m.ListDeliveriesFn(ctx, webhookID, limit)
	}
	return []*database.WebhookDelivery{}, nil
}

func (m *mockRepository) CreateIntegration(ctx context.Context, orgID, provider, webhookURL string) (*database.Integration, error) {
	if m.CreateIntegrationFn != nil {
		return m.CreateIntegrationFn(ctx, orgID, provider, webhookURL)
	}
	return &database.Integration{IntegrationID: "int-1", OrganizationID: orgID, Provider: provider, WebhookURL: webhookURL, IsActive: true}, nil
}

func (m *mockRepository) ListIntegrations(ctx context.Context, orgID string) ([]*database.Integration, error) {
	if m.ListIntegrationsFn != nil {
		return m.ListIntegrationsFn(ctx, orgID)
	}
	return []*database.Integration{}, nil
}

func (m *mockRepository) ToggleIntegrationActive(ctx context.Context, integrationID, orgID string, active bool) (*database.Integration, error) {
	if m.ToggleIntegrationActiveFn != nil {
		return m.ToggleIntegrationActiveFn(ctx, integrationID, orgID, active)
	}
	return &database.Integration{IntegrationID: integrationID, OrganizationID: orgID, IsActive: active}, nil
}

func (m *mockRepository) DeleteIntegration(ctx context.Context, integrationID, orgID string) error {
	if m.DeleteIntegrationFn != nil {
		return m.DeleteIntegrationFn(ctx, integrationID, orgID)
	}
	return nil
}

func (m *mockRepository) Close() error {
	return nil
}

// mockPublisher implements AlertPublisher interface for testing.
type mockPublisher struct {
	PublishFn func(ctx context.Context, changed *events.AlertChanged) error
	Published []*events.AlertChanged // Records all published events
}

func (m *mockPublisher) Publish(ctx context.Context, changed *events.AlertChanged) error {
	m.Published = append(m.Published, changed)
	if m.PublishFn != nil {
		return m.PublishFn(ctx, changed)
	}
	return nil
}

func (m *mockPublisher) Close() error {
	return nil
}

// mockRunner implements Runner interface for testing.
type mockRunner struct {
	RunFn func(ctx context.Context) (*pipeline.RunResult, error)
	Runs  int
}

func (m *mockRunner) Run(ctx context.Context) (*pipeline.RunResult, error) {
	m.Runs++
	if m.RunFn != nil {
		return m.RunFn(ctx)
	}
	return &pipeline.RunResult{Message: "ok"}, nil
}

// mockMetrics implements MetricsRecorder interface for testing.
type mockMetrics struct {
	ReceivedCount  int
	ProcessedCount int
	PublishedCount int
	ErrorCount     int
	CustomCounts   map[string]int
}

func (m *mockMetrics) RecordReceived()                 { m.ReceivedCount++ }
func (m *mockMetrics) RecordProcessed(_ time.Duration) { m.ProcessedCount++ }
func (m *mockMetrics) RecordPublished()                { m.PublishedCount++ }
func (m *mockMetrics) RecordError()                    { m.ErrorCount++ }
func (m *mockMetrics) IncrementCustom(name string) {
	if m.CustomCounts == nil {
		m.CustomCounts = make(map[string]int)
	}
	m.CustomCounts[name]++
}
