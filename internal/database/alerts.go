package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// alertColumns is the canonical column list for alert scans.
const alertColumns = `alert_id, organization_id, user_id, name, keyword, category, agency,
		status_posted, status_forecasted, due_in_days, min_amount, max_amount,
		notify_email, notify_in_app, notify_webhook, webhook_url, cadence,
		is_active, last_checked_at, last_alert_sent_at, alert_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAlert scans one alert row in alertColumns order.
func scanAlert(row rowScanner) (*Alert, error) {
	var a Alert
	err := row.Scan(
		&a.AlertID,
		&a.OrganizationID,
		&a.UserID,
		&a.Name,
		&a.Keyword,
		&a.Category,
		&a.Agency,
		&a.StatusPosted,
		&a.StatusForecasted,
		&a.DueInDays,
		&a.MinAmount,
		&a.MaxAmount,
		&a.NotifyEmail,
		&a.NotifyInApp,
		&a.NotifyWebhook,
		&a.WebhookURL,
		&a.Cadence,
		&a.IsActive,
		&a.LastCheckedAt,
		&a.LastAlertSentAt,
		&a.AlertCount,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AlertParams holds the user-settable fields of an alert.
type AlertParams struct {
	Name             string
	Keyword          *string
	Category         *string
	Agency           *string
	StatusPosted     bool
	StatusForecasted bool
	DueInDays        *int
	MinAmount        *float64
	MaxAmount        *float64
	NotifyEmail      bool
	NotifyInApp      bool
	NotifyWebhook    bool
	WebhookURL       *string
	Cadence          string
}

// CreateAlert creates a new alert owned by the given user.
func (db *DB) CreateAlert(ctx context.Context, orgID, userID string, p AlertParams) (*Alert, error) {
	query := `
		INSERT INTO alerts (organization_id, user_id, name, keyword, category, agency,
			status_posted, status_forecasted, due_in_days, min_amount, max_amount,
			notify_email, notify_in_app, notify_webhook, webhook_url, cadence,
			is_active, alert_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, TRUE, 0, NOW(), NOW())
		RETURNING ` + alertColumns
	row := db.conn.QueryRowContext(ctx, query,
		orgID, userID, p.Name, p.Keyword, p.Category, p.Agency,
		p.StatusPosted, p.StatusForecasted, p.DueInDays, p.MinAmount, p.MaxAmount,
		p.NotifyEmail, p.NotifyInApp, p.NotifyWebhook, p.WebhookURL, p.Cadence,
	)
	alert, err := scanAlert(row)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
			return nil, fmt.Errorf("organization not found: %s", orgID)
		}
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

// GetAlert retrieves an alert by ID, scoped to the organization.
func (db *DB) GetAlert(ctx context.Context, alertID, orgID string) (*Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE alert_id = $1 AND organization_id = $2
	`
	alert, err := scanAlert(db.conn.QueryRowContext(ctx, query, alertID, orgID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert not found: %s", alertID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// ListAlerts retrieves an organization's alerts with pagination.
func (db *DB) ListAlerts(ctx context.Context, orgID string, limit, offset int) (*AlertListResult, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM alerts WHERE organization_id = $1`
	if err := db.conn.QueryRowContext(ctx, countQuery, orgID).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := db.conn.QueryContext(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &AlertListResult{Alerts: alerts, Total: total, Limit: limit, Offset: offset}, nil
}

// UpdateAlert updates an alert's criteria and delivery configuration.
func (db *DB) UpdateAlert(ctx context.Context, alertID, orgID string, p AlertParams) (*Alert, error) {
	query := `
		UPDATE alerts
		SET name = $3,
		    keyword = $4,
		    category = $5,
		    agency = $6,
		    status_posted = $7,
		    status_forecasted = $8,
		    due_in_days = $9,
		    min_amount = $10,
		    max_amount = $11,
		    notify_email = $12,
		    notify_in_app = $13,
		    notify_webhook = $14,
		    webhook_url = $15,
		    cadence = $16,
		    updated_at = NOW()
		WHERE alert_id = $1 AND organization_id = $2
		RETURNING ` + alertColumns
	row := db.conn.QueryRowContext(ctx, query,
		alertID, orgID, p.Name, p.Keyword, p.Category, p.Agency,
		p.StatusPosted, p.StatusForecasted, p.DueInDays, p.MinAmount, p.MaxAmount,
		p.NotifyEmail, p.NotifyInApp, p.NotifyWebhook, p.WebhookURL, p.Cadence,
	)
	alert, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert not found: %s", alertID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return alert, nil
}

// ToggleAlertActive soft-enables or soft-disables an alert.
func (db *DB) ToggleAlertActive(ctx context.Context, alertID, orgID string, active bool) (*Alert, error) {
	query := `
		UPDATE alerts
		SET is_active = $3, updated_at = NOW()
		WHERE alert_id = $1 AND organization_id = $2
		RETURNING ` + alertColumns
	alert, err := scanAlert(db.conn.QueryRowContext(ctx, query, alertID, orgID, active))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert not found: %s", alertID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle alert: %w", err)
	}
	return alert, nil
}

// DeleteAlert hard-deletes an alert. Owner-only: the row must belong to
// the requesting user.
func (db *DB) DeleteAlert(ctx context.Context, alertID, userID string) error {
	query := `DELETE FROM alerts WHERE alert_id = $1 AND user_id = $2`
	result, err := db.conn.ExecContext(ctx, query, alertID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}
	return nil
}

// ListActiveAlerts retrieves every active alert across all organizations
// for a matching run.
func (db *DB) ListActiveAlerts(ctx context.Context) ([]*Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE is_active = TRUE
		ORDER BY created_at ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// AdvanceWatermark moves an alert's last_checked_at forward to the given
// time. GREATEST keeps the watermark monotonic even under concurrent runs.
func (db *DB) AdvanceWatermark(ctx context.Context, alertID string, checkedAt time.Time) error {
	query := `
		UPDATE alerts
		SET last_checked_at = GREATEST(COALESCE(last_checked_at, 'epoch'::timestamptz), $2)
		WHERE alert_id = $1
	`
	if _, err := db.conn.ExecContext(ctx, query, alertID, checkedAt); err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}
	return nil
}

// RecordAlertSent bumps the alert's sent bookkeeping after a notification
// went out for newly recorded matches.
func (db *DB) RecordAlertSent(ctx context.Context, alertID string, matches int) error {
	query := `
		UPDATE alerts
		SET last_alert_sent_at = NOW(), alert_count = alert_count + $2
		WHERE alert_id = $1
	`
	if _, err := db.conn.ExecContext(ctx, query, alertID, matches); err != nil {
		return fmt.Errorf("failed to record alert sent: %w", err)
	}
	return nil
}
