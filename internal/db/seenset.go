package db

import (
	"context"
	"fmt"

	"leadscout/internal/globaltime"
)

// SeenStore is the persistent fingerprint set backed by
// leads.seen_fingerprints. It implements dedup.SeenSet.
type SeenStore struct {
	pool *Pool
}

// NewSeenStore wraps a pool as a fingerprint set.
func NewSeenStore(pool *Pool) (*SeenStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	return &SeenStore{pool: pool}, nil
}

// IsNew reports whether the fingerprint has never been recorded.
func (s *SeenStore) IsNew(ctx context.Context, fingerprint string) (bool, error) {
	const query = `
SELECT 1
FROM leads.seen_fingerprints
WHERE fingerprint = $1
`
	var one int
	err := s.pool.QueryRow(ctx, query, fingerprint).Scan(&one)
	if err != nil {
		if IsNoRows(err) {
			return true, nil
		}
		return false, fmt.Errorf("check fingerprint %q: %w", fingerprint, err)
	}
	return false, nil
}

// RecordSeen marks a fingerprint as seen. Recording an already-seen
// fingerprint is a no-op.
func (s *SeenStore) RecordSeen(ctx context.Context, fingerprint string) error {
	const query = `
INSERT INTO leads.seen_fingerprints (fingerprint, first_seen_at)
VALUES ($1, $2)
ON CONFLICT (fingerprint) DO NOTHING
`
	if _, err := s.pool.Exec(ctx, query, fingerprint, globaltime.UTC()); err != nil {
		return fmt.Errorf("record fingerprint %q: %w", fingerprint, err)
	}
	return nil
}
