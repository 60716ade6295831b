package database

import (
	"context"
	"database/sql"
	"fmt"
)

// GetUser retrieves the fields needed to resolve a notification
// destination. Returns sql.ErrNoRows wrapped when the user is unknown;
// callers treat that as "skip email", not as a run failure.
func (db *DB) GetUser(ctx context.Context, userID string) (*User, error) {
	query := `
		SELECT user_id, organization_id, email, name
		FROM users
		WHERE user_id = $1
	`
	var u User
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(
		&u.UserID,
		&u.OrganizationID,
		&u.Email,
		&u.Name,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
