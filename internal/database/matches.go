package database

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

// InsertOutcome classifies one match insert attempt. The duplicate-key case
// is an expected result, not an error: the unique constraint on
// (alert_id, external_id) is what makes recording idempotent.
type InsertOutcome int

const (
	// MatchInserted means the candidate was newly recorded.
	MatchInserted InsertOutcome = iota
	// MatchAlreadyExists means the (alert_id, external_id) pair was
	// already present; the candidate is not new.
	MatchAlreadyExists
	// MatchFailed means the insert failed for a reason other than the
	// uniqueness constraint.
	MatchFailed
)

// MatchResult is the typed result of one insert attempt.
type MatchResult struct {
	Outcome InsertOutcome
	Match   *AlertMatch
	Err     error
}

// InsertMatch attempts to record one alert/grant match. A unique violation
// on (alert_id, external_id) yields MatchAlreadyExists; any other store
// error yields MatchFailed with the cause.
func (db *DB) InsertMatch(ctx context.Context, alertID string, grant *CatalogGrant) MatchResult {
	query := `
		INSERT INTO alert_matches (alert_id, external_id, grant_title, grant_agency, grant_close_date, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING match_id, alert_id, external_id, grant_title, grant_agency, grant_close_date, created_at
	`
	var m AlertMatch
	err := db.conn.QueryRowContext(ctx, query,
		alertID, grant.ExternalID, grant.Title, grant.Agency, grant.CloseDate,
	).Scan(
		&m.MatchID,
		&m.AlertID,
		&m.ExternalID,
		&m.GrantTitle,
		&m.GrantAgency,
		&m.GrantCloseDate,
		&m.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return MatchResult{Outcome: MatchAlreadyExists}
		}
		return MatchResult{Outcome: MatchFailed, Err: fmt.Errorf("failed to insert match: %w", err)}
	}
	return MatchResult{Outcome: MatchInserted, Match: &m}
}

// ListMatches retrieves the recorded matches for one alert, newest first.
func (db *DB) ListMatches(ctx context.Context, alertID string, limit int) ([]*AlertMatch, error) {
	query := `
		SELECT match_id, alert_id, external_id, grant_title, grant_agency, grant_close_date, created_at
		FROM alert_matches
		WHERE alert_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := db.conn.QueryContext(ctx, query, alertID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []*AlertMatch
	for rows.Next() {
		var m AlertMatch
		if err := rows.Scan(
			&m.MatchID,
			&m.AlertID,
			&m.ExternalID,
			&m.GrantTitle,
			&m.GrantAgency,
			&m.GrantCloseDate,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}
