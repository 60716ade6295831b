// Package handlers provides HTTP handlers for the grantcue API.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/grantcue/grantcue/internal/database"
	"github.com/grantcue/grantcue/internal/events"
)

const (
	actionCreated  = events.ActionCreated
	actionUpdated  = events.ActionUpdated
	actionDisabled = events.ActionDisabled
)

// publishAlertChangedEvent publishes an alert.changed event after a successful DB operation.
// It logs errors but does not fail the operation if publishing fails.
func (h *Handlers) publishAlertChangedEvent(ctx context.Context, alert *database.Alert, action string) {
	changed := &events.AlertChanged{
		AlertID:        alert.AlertID,
		OrganizationID: alert.OrganizationID,
		Action:         action,
		UpdatedAt:      alert.UpdatedAt.Unix(),
		SchemaVersion:  SchemaVersion,
	}
	if err := h.producer.Publish(ctx, changed); err != nil {
		slog.Error("Failed to publish alert.changed event", "error", err, "alert_id", alert.AlertID)
		// Continue - the alert operation succeeded, event publishing failure can be handled separately
		return
	}
	h.metrics.RecordPublished()
	h.metrics.IncrementCustom("kafka_alert_" + action)
}

// publishAlertDeletedEvent publishes an alert.changed event for a deleted alert.
// This is separate because DeleteAlert needs to get the alert before deletion.
// Uses current time since alert.UpdatedAt may be stale after deletion.
func (h *Handlers) publishAlertDeletedEvent(ctx context.Context, alert *database.Alert) {
	changed := &events.AlertChanged{
		AlertID:        alert.AlertID,
		OrganizationID: alert.OrganizationID,
		Action:         events.ActionDeleted,
		UpdatedAt:      time.Now().Unix(),
		SchemaVersion:  SchemaVersion,
	}
	if err := h.producer.Publish(ctx, changed); err != nil {
		slog.Error("Failed to publish alert.changed event", "error", err, "alert_id", alert.AlertID)
		// Continue - the alert was deleted, event publishing failure can be handled separately
		return
	}
	h.metrics.RecordPublished()
	h.metrics.IncrementCustom("kafka_alert_" + events.ActionDeleted)
}
