package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadscout/internal/lead"
)

// BusinessRow is the read model for stored businesses.
type BusinessRow struct {
	BusinessUUID  string     `json:"business_uuid"`
	Fingerprint   string     `json:"fingerprint"`
	Platform      string     `json:"platform"`
	SourceURL     string     `json:"source_url"`
	BusinessName  string     `json:"business_name"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category"`
	Location      *string    `json:"location,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Language      *string    `json:"language,omitempty"`
	Score         int        `json:"confidence_score"`
	Priority      string     `json:"priority"`
	PageCreatedAt *time.Time `json:"page_created_at,omitempty"`
	DiscoveredAt  time.Time  `json:"discovered_at"`
	Alerted       bool       `json:"alerted"`
}

// BusinessFilter narrows ListBusinesses results.
type BusinessFilter struct {
	Platform string
	Category string
	Priority string
	MinScore int
	Limit    int
}

// InsertAccepted persists one accepted record and marks its fingerprint
// seen in a single transaction, satisfying the check-then-insert atomicity
// contract. Returns false when another writer already claimed the
// fingerprint.
func (p *Pool) InsertAccepted(ctx context.Context, record lead.ScoredRecord, discoveredAt time.Time) (bool, error) {
	if p == nil {
		return false, fmt.Errorf("database pool is not initialized")
	}
	if strings.TrimSpace(record.Fingerprint) == "" {
		return false, fmt.Errorf("record fingerprint is empty")
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin insert tx: %w", err)
	}

	inserted, err := insertAcceptedTx(ctx, tx, record, discoveredAt)
	if err != nil {
		_ = tx.Rollback(ctx)
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return false, fmt.Errorf("commit insert tx: %w", err)
	}
	return inserted, nil
}

func insertAcceptedTx(ctx context.Context, tx Tx, record lead.ScoredRecord, discoveredAt time.Time) (bool, error) {
	const markSeen = `
INSERT INTO leads.seen_fingerprints (fingerprint, first_seen_at)
VALUES ($1, $2)
ON CONFLICT (fingerprint) DO NOTHING
`
	seenTag, err := tx.Exec(ctx, markSeen, record.Fingerprint, discoveredAt)
	if err != nil {
		return false, fmt.Errorf("mark fingerprint seen: %w", err)
	}
	if seenTag.RowsAffected() == 0 {
		// Another writer already accepted this fingerprint.
		return false, nil
	}

	const insertBusiness = `
INSERT INTO leads.businesses (
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
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14, $14)
ON CONFLICT (fingerprint) DO NOTHING
`
	tag, err := tx.Exec(
		ctx,
		insertBusiness,
		record.Fingerprint,
		string(record.Candidate.Platform),
		record.Candidate.SourceURL,
		record.Candidate.Title,
		record.Candidate.Description,
		record.Category,
		nullableString(record.Location),
		nullableString(record.Phone),
		nullableString(record.Email),
		nullableString(record.Language),
		record.Score,
		string(record.Priority),
		record.Candidate.PageCreatedAt,
		discoveredAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert business fingerprint=%q: %w", record.Fingerprint, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListBusinesses returns stored businesses ordered by discovery time,
// newest first.
func (p *Pool) ListBusinesses(ctx context.Context, filter BusinessFilter) ([]BusinessRow, error) {
	if p == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
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
WHERE confidence_score >= $1
  AND ($2 = '' OR platform = $2)
  AND ($3 = '' OR category = $3)
  AND ($4 = '' OR priority = $4)
ORDER BY discovered_at DESC, business_id DESC
LIMIT $5
`
	rows, err := p.Query(
		ctx,
		query,
		filter.MinScore,
		strings.ToLower(strings.TrimSpace(filter.Platform)),
		strings.TrimSpace(filter.Category),
		strings.ToLower(strings.TrimSpace(filter.Priority)),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query businesses: %w", err)
	}
	defer rows.Close()

	results := make([]BusinessRow, 0, limit)
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
			return nil, fmt.Errorf("scan business row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate businesses: %w", err)
	}
	return results, nil
}

// GetBusiness looks one business up by its UUID.
func (p *Pool) GetBusiness(ctx context.Context, businessUUID string) (*BusinessRow, error) {
	if p == nil {
		return nil, fmt.Errorf("database pool is not initialized")
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
WHERE business_uuid = $1::uuid
`
	var row BusinessRow
	err := p.QueryRow(ctx, query, strings.TrimSpace(businessUUID)).Scan(
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
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get business %q: %w", businessUUID, err)
	}
	return &row, nil
}

// StartDiscoveryRun opens a ledger row for one ingest batch.
func (p *Pool) StartDiscoveryRun(ctx context.Context, source string, startedAt time.Time) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("database pool is not initialized")
	}

	const query = `
INSERT INTO leads.discovery_runs (source, started_at, created_at)
VALUES ($1, $2, $2)
RETURNING run_id
`
	var runID int64
	if err := p.QueryRow(ctx, query, strings.TrimSpace(source), startedAt).Scan(&runID); err != nil {
		return 0, fmt.Errorf("start discovery run: %w", err)
	}
	return runID, nil
}

// RunCounters summarize a finished batch for the run ledger.
type RunCounters struct {
	CandidatesTotal  int
	Accepted         int
	RejectedInvalid  int
	RejectedDupes    int
	RejectedLowScore int
}

// FinishDiscoveryRun closes a ledger row with final counters.
func (p *Pool) FinishDiscoveryRun(ctx context.Context, runID int64, counters RunCounters, finishedAt time.Time) error {
	if p == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	const query = `
UPDATE leads.discovery_runs
SET
	finished_at = $2,
	candidates_total = $3,
	accepted = $4,
	rejected_invalid_url = $5,
	rejected_duplicate = $6,
	rejected_below_floor = $7
WHERE run_id = $1
`
	_, err := p.Exec(
		ctx,
		query,
		runID,
		finishedAt,
		counters.CandidatesTotal,
		counters.Accepted,
		counters.RejectedInvalid,
		counters.RejectedDupes,
		counters.RejectedLowScore,
	)
	if err != nil {
		return fmt.Errorf("finish discovery run run_id=%d: %w", runID, err)
	}
	return nil
}

func nullableString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
