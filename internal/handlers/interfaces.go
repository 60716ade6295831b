// Package handlers provides HTTP handlers for the grantcue API.
package handlers

import (
	"context"
	"time"

	"github.com/grantcue/grantcue/internal/database"
	"github.com/grantcue/grantcue/internal/events"
	"github.com/grantcue/grantcue/internal/pipeline"
)

// AlertPublisher defines the interface for publishing alert change events to Kafka.
// This interface allows for dependency injection and easier testing.
type AlertPublisher interface {
	// Publish sends an alert changed event to Kafka.
	// Returns an error if serialization or publishing fails.
	Publish(ctx context.Context, changed *events.AlertChanged) error

	// Close gracefully closes the publisher and releases resources.
	Close() error
}

// Runner defines the interface for triggering a matching run.
type Runner interface {
	Run(ctx context.Context) (*pipeline.RunResult, error)
}

// Repository defines the interface for database operations.
// This allows handlers to be tested without a real database.
type Repository interface {
	// Alert operations
	CreateAlert(ctx context.Context, orgID, userID string, p database.AlertParams) (*database.Alert, error)
	GetAlert(ctx context.Context, alertID, orgID string) (*database.Alert, error)
	ListAlerts(ctx context.Context, orgID string, limit, offset int) (*database.AlertListResult, error)
	UpdateAlert(ctx context.Context, alertID, orgID string, p database.AlertParams) (*database.Alert, error)
	ToggleAlertActive(ctx context.Context, alertID, orgID string, active bool) (*database.Alert, error)
	DeleteAlert(ctx context.Context, alertID, userID string) error
	ListMatches(ctx context.Context, alertID string, limit int) ([]*database.AlertMatch, error)

	// Webhook operations
	CreateWebhook(ctx context.Context, orgID, name, url, secret string, eventTypes []string) (*database.Webhook, error)
	GetWebhook(ctx context.Context, webhookID, orgID string) (*database.Webhook, error)
	ListWebhooks(ctx context.Context, orgID string, limit, offset int) (*database.WebhookListResult, error)
	UpdateWebhook(ctx context.Context, webhookID, orgID, name, url string, eventTypes []string) (*database.Webhook, error)
	ToggleWebhookActive(ctx context.Context, webhookID, orgID string, active bool) (*database.Webhook, error)
	DeleteWebhook(ctx context.Context, webhookID, orgID string) error
	ListDeliveries(ctx context.Context, webhookID string, limit int) ([]*database.WebhookDelivery, error)

	// Integration operations
	CreateIntegration(ctx context.Context, orgID, provider, webhookURL string) (*database.Integration, error)
	ListIntegrations(ctx context.Context, orgID string) ([]*database.Integration, error)
	ToggleIntegrationActive(ctx context.Context, integrationID, orgID string, active bool) (*database.Integration, error)
	DeleteIntegration(ctx context.Context, integrationID, orgID string) error

	// Lifecycle
	Close() error
}

// MetricsRecorder defines the interface for recording metrics.
// This uses the null object pattern - a no-op implementation avoids nil checks.
type MetricsRecorder interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordPublished()
	RecordError()
	IncrementCustom(name string)
}

// NoOpMetrics is a no-op implementation of MetricsRecorder.
// Use this when metrics collection is not needed, avoiding nil checks.
type NoOpMetrics struct{}

// Ensure NoOpMetrics implements MetricsRecorder.
var _ MetricsRecorder = (*NoOpMetrics)(nil)

func (NoOpMetrics) RecordReceived()                 {}
func (NoOpMetrics) RecordProcessed(_ time.Duration) {}
func (NoOpMetrics) RecordPublished()                {}
func (NoOpMetrics) RecordError()                    {}
func (NoOpMetrics) IncrementCustom(_ string)        {}

// metricsAdapter wraps a metrics.Collector to implement MetricsRecorder.
type metricsAdapter struct {
	collector metricsCollectorInterface
}

// metricsCollectorInterface defines the subset of metrics.Collector methods we use.
type metricsCollectorInterface interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordPublished()
	RecordError()
	IncrementCustom(name string)
}

func (a *metricsAdapter) RecordReceived()                 { a.collector.RecordReceived() }
func (a *metricsAdapter) RecordProcessed(d time.Duration) { a.collector.RecordProcessed(d) }
func (a *metricsAdapter) RecordPublished()                { a.collector.RecordPublished() }
func (a *metricsAdapter) RecordError()                    { a.collector.RecordError() }
func (a *metricsAdapter) IncrementCustom(name string)     { a.collector.IncrementCustom(name) }
