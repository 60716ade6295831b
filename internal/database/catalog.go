package database

import (
	"context"
	"fmt"
	"time"

	"github.com/grantcue/grantcue/internal/filter"
)

// QueryCatalog executes a compiled predicate against the grant catalog,
// bounded by the freshness watermark and capped at limit rows. Result
// ordering is for display only; callers must not rely on it.
func (db *DB) QueryCatalog(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*CatalogGrant, error) {
	pred.And("first_seen_at >= ?", since)
	where, args := pred.Clause()

	query := fmt.Sprintf(`
		SELECT source_key, external_id, title, description, agency, category, status,
			close_date, award_floor, award_ceiling, is_active, first_seen_at
		FROM catalog_grants
		WHERE %s
		ORDER BY first_seen_at DESC
		LIMIT %d
	`, where, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var grants []*CatalogGrant
	for rows.Next() {
		var g CatalogGrant
		if err := rows.Scan(
			&g.SourceKey,
			&g.ExternalID,
			&g.Title,
			&g.Description,
			&g.Agency,
			&g.Category,
			&g.Status,
			&g.CloseDate,
			&g.AwardFloor,
			&g.AwardCeiling,
			&g.IsActive,
			&g.FirstSeenAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan catalog grant: %w", err)
		}
		grants = append(grants, &g)
	}
	return grants, rows.Err()
}
