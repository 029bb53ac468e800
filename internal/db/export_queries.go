package db

import (
	"context"
	"fmt"
	"strings"
)

// ListUnexported returns businesses not yet written to an export file,
// best score first.
func (p *Pool) ListUnexported(ctx context.Context, minScore, limit int) ([]BusinessRow, error) {
	if p == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		limit = 1000
	}

	const query = `
SELECT
	business_uuid,
	fingerprint,
	platform,
	source_url,
	business_name,
	description,
	category,
	location,
	phone,
	email,
	language,
	confidence_score,
	priority,
	page_created_at,
	discovered_at,
	alerted
FROM leads.businesses
WHERE exported = false
  AND confidence_score >= $1
ORDER BY confidence_score DESC, discovered_at DESC
LIMIT $2
`
	rows, err := p.Query(ctx, query, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("query unexported businesses: %w", err)
	}
	defer rows.Close()

	results := make([]BusinessRow, 0, 64)
	for rows.Next() {
		var row BusinessRow
		if err := rows.Scan(
			&row.BusinessUUID,
			&row.Fingerprint,
			&row.Platform,
			&row.SourceURL,
			&row.BusinessName,
			&row.Description,
			&row.Category,
			&row.Location,
			&row.Phone,
			&row.Email,
			&row.Language,
			&row.Score,
			&row.Priority,
			&row.PageCreatedAt,
			&row.DiscoveredAt,
			&row.Alerted,
		); err != nil {
			return nil, fmt.Errorf("scan unexported row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unexported rows: %w", err)
	}
	return results, nil
}

// MarkExported flags the given businesses as written out. Returns the
// number of rows updated.
func (p *Pool) MarkExported(ctx context.Context, businessUUIDs []string) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("database pool is not initialized")
	}
	if len(businessUUIDs) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(businessUUIDs))
	args := make([]any, len(businessUUIDs))
	for i, uuid := range businessUUIDs {
		placeholders[i] = fmt.Sprintf("$%d::uuid", i+1)
		args[i] = uuid
	}

	query := fmt.Sprintf(`
UPDATE leads.businesses
SET exported = true, updated_at = now()
WHERE business_uuid IN (%s)
  AND exported = false
`, strings.Join(placeholders, ", "))

	tag, err := p.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark businesses exported: %w", err)
	}
	return tag.RowsAffected(), nil
}
