package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const webhookColumns = `webhook_id, organization_id, name, url, secret, events,
		is_active, total_deliveries, failed_deliveries, created_at, updated_at`

// scanWebhook scans one webhook row in webhookColumns order.
func scanWebhook(row rowScanner) (*Webhook, error) {
	var w Webhook
	err := row.Scan(
		&w.WebhookID,
		&w.OrganizationID,
		&w.Name,
		&w.URL,
		&w.Secret,
		pq.Array(&w.Events),
		&w.IsActive,
		&w.TotalDeliveries,
		&w.FailedDeliveries,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWebhook creates a new webhook for an organization. The secret is
// stored as given; callers generate it and show it to the user once.
func (db *DB) CreateWebhook(ctx context.Context, orgID, name, url, secret string, eventTypes []string) (*Webhook, error) {
	query := `
		INSERT INTO webhooks (organization_id, name, url, secret, events,
			is_active, total_deliveries, failed_deliveries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, 0, 0, NOW(), NOW())
		RETURNING ` + webhookColumns
	webhook, err := scanWebhook(db.conn.QueryRowContext(ctx, query, orgID, name, url, secret, pq.Array(eventTypes)))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
			return nil, fmt.Errorf("organization not found: %s", orgID)
		}
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}
	return webhook, nil
}

// GetWebhook retrieves a webhook by ID, scoped to the organization.
func (db *DB) GetWebhook(ctx context.Context, webhookID, orgID string) (*Webhook, error) {
	query := `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE webhook_id = $1 AND organization_id = $2
	`
	webhook, err := scanWebhook(db.conn.QueryRowContext(ctx, query, webhookID, orgID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("webhook not found: %s", webhookID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook: %w", err)
	}
	return webhook, nil
}

// ListWebhooks retrieves an organization's webhooks with pagination.
func (db *DB) ListWebhooks(ctx context.Context, orgID string, limit, offset int) (*WebhookListResult, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM webhooks WHERE organization_id = $1`
	if err := db.conn.QueryRowContext(ctx, countQuery, orgID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count webhooks: %w", err)
	}

	query := `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := db.conn.QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []*Webhook
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, webhook)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &WebhookListResult{Webhooks: webhooks, Total: total, Limit: limit, Offset: offset}, nil
}

// UpdateWebhook updates a webhook's name, URL, and event subscriptions.
func (db *DB) UpdateWebhook(ctx context.Context, webhookID, orgID, name, url string, eventTypes []string) (*Webhook, error) {
	query := `
		UPDATE webhooks
		SET name = $3, url = $4, events = $5, updated_at = NOW()
		WHERE webhook_id = $1 AND organization_id = $2
		RETURNING ` + webhookColumns
	webhook, err := scanWebhook(db.conn.QueryRowContext(ctx, query, webhookID, orgID, name, url, pq.Array(eventTypes)))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("webhook not found: %s", webhookID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update webhook: %w", err)
	}
	return webhook, nil
}

// ToggleWebhookActive enables or disables a webhook.
func (db *DB) ToggleWebhookActive(ctx context.Context, webhookID, orgID string, active bool) (*Webhook, error) {
	query := `
		UPDATE webhooks
		SET is_active = $3, updated_at = NOW()
		WHERE webhook_id = $1 AND organization_id = $2
		RETURNING ` + webhookColumns
	webhook, err := scanWebhook(db.conn.QueryRowContext(ctx, query, webhookID, orgID, active))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("webhook not found: %s", webhookID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle webhook: %w", err)
	}
	return webhook, nil
}

// DeleteWebhook deletes a webhook by ID.
func (db *DB) DeleteWebhook(ctx context.Context, webhookID, orgID string) error {
	query := `DELETE FROM webhooks WHERE webhook_id = $1 AND organization_id = $2`
	result, err := db.conn.ExecContext(ctx, query, webhookID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("webhook not found: %s", webhookID)
	}
	return nil
}

// ListActiveWebhooksForEvent retrieves an organization's active webhooks
// subscribed to the given event type.
func (db *DB) ListActiveWebhooksForEvent(ctx context.Context, orgID, eventType string) ([]*Webhook, error) {
	query := `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE organization_id = $1 AND is_active = TRUE AND $2 = ANY(events)
		ORDER BY created_at ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, orgID, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks for event: %w", err)
	}
	defer rows.Close()

	var webhooks []*Webhook
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, webhook)
	}
	return webhooks, rows.Err()
}

// IncrementWebhookCounters bumps the webhook's delivery counters. The
// total always increments; the failed counter only on failure. Called
// exactly once per delivery attempt.
func (db *DB) IncrementWebhookCounters(ctx context.Context, webhookID string, failed bool) error {
	query := `
		UPDATE webhooks
		SET total_deliveries = total_deliveries + 1,
		    failed_deliveries = failed_deliveries + CASE WHEN $2 THEN 1 ELSE 0 END
		WHERE webhook_id = $1
	`
	if _, err := db.conn.ExecContext(ctx, query, webhookID, failed); err != nil {
		return fmt.Errorf("failed to increment webhook counters: %w", err)
	}
	return nil
}
