package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const integrationColumns = `integration_id, organization_id, provider, webhook_url, is_active, created_at, updated_at`

// scanIntegration scans one integration row in integrationColumns order.
func scanIntegration(row rowScanner) (*Integration, error) {
	var in Integration
	err := row.Scan(
		&in.IntegrationID,
		&in.OrganizationID,
		&in.Provider,
		&in.WebhookURL,
		&in.IsActive,
		&in.CreatedAt,
		&in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// CreateIntegration registers a chat integration for an organization.
func (db *DB) CreateIntegration(ctx context.Context, orgID, provider, webhookURL string) (*Integration, error) {
	query := `
		INSERT INTO integrations (organization_id, provider, webhook_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		RETURNING ` + integrationColumns
	integration, err := scanIntegration(db.conn.QueryRowContext(ctx, query, orgID, provider, webhookURL))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return nil, fmt.Errorf("integration already exists for provider %s", provider)
			}
			if pqErr.Code == "23503" { // foreign_key_violation
				return nil, fmt.Errorf("organization not found: %s", orgID)
			}
		}
		return nil, fmt.Errorf("failed to create integration: %w", err)
	}
	return integration, nil
}

// ListIntegrations retrieves all of an organization's integrations.
func (db *DB) ListIntegrations(ctx context.Context, orgID string) ([]*Integration, error) {
	query := `
		SELECT ` + integrationColumns + `
		FROM integrations
		WHERE organization_id = $1
		ORDER BY created_at ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	defer rows.Close()

	var integrations []*Integration
	for rows.Next() {
		integration, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		integrations = append(integrations, integration)
	}
	return integrations, rows.Err()
}

// ListActiveIntegrations retrieves an organization's active chat
// integrations for fan-out delivery.
func (db *DB) ListActiveIntegrations(ctx context.Context, orgID string) ([]*Integration, error) {
	query := `
		SELECT ` + integrationColumns + `
		FROM integrations
		WHERE organization_id = $1 AND is_active = TRUE
		ORDER BY created_at ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active integrations: %w", err)
	}
	defer rows.Close()

	var integrations []*Integration
	for rows.Next() {
		integration, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		integrations = append(integrations, integration)
	}
	return integrations, rows.Err()
}

// ToggleIntegrationActive enables or disables an integration.
func (db *DB) ToggleIntegrationActive(ctx context.Context, integrationID, orgID string, active bool) (*Integration, error) {
	query := `
		UPDATE integrations
		SET is_active = $3, updated_at = NOW()
		WHERE integration_id = $1 AND organization_id = $2
		RETURNING ` + integrationColumns
	integration, err := scanIntegration(db.conn.QueryRowContext(ctx, query, integrationID, orgID, active))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("integration not found: %s", integrationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle integration: %w", err)
	}
	return integration, nil
}

// DeleteIntegration deletes an integration by ID.
func (db *DB) DeleteIntegration(ctx context.Context, integrationID, orgID string) error {
	query := `DELETE FROM integrations WHERE integration_id = $1 AND organization_id = $2`
	result, err := db.conn.ExecContext(ctx, query, integrationID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("integration not found: %s", integrationID)
	}
	return nil
}
