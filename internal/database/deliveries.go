package database

import (
	"context"
	"fmt"
)

// InsertDelivery appends one webhook delivery audit record. Rows are
// write-once; nothing updates them afterwards.
func (db *DB) InsertDelivery(ctx context.Context, d *WebhookDelivery) error {
	query := `
		INSERT INTO webhook_deliveries (delivery_id, webhook_id, event_type, payload,
			response_status, response_body, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := db.conn.ExecContext(ctx, query,
		d.DeliveryID, d.WebhookID, d.EventType, d.Payload,
		d.ResponseStatus, d.ResponseBody, d.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert webhook delivery: %w", err)
	}
	return nil
}

// ListDeliveries retrieves recent delivery records for one webhook.
func (db *DB) ListDeliveries(ctx context.Context, webhookID string, limit int) ([]*WebhookDelivery, error) {
	query := `
		SELECT delivery_id, webhook_id, event_type, payload, response_status, response_body, error_message, created_at
		FROM webhook_deliveries
		WHERE webhook_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := db.conn.QueryContext(ctx, query, webhookID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*WebhookDelivery
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(
			&d.DeliveryID,
			&d.WebhookID,
			&d.EventType,
			&d.Payload,
			&d.ResponseStatus,
			&d.ResponseBody,
			&d.ErrorMessage,
			&d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		deliveries = append(deliveries, &d)
	}
	return deliveries, rows.Err()
}
