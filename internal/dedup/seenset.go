package dedup

import (
	"context"
	"sync"
)

// SeenSet is the persistent collection of previously accepted fingerprints.
// RecordSeen is idempotent: inserting an existing fingerprint is a no-op.
// Callers that run batches concurrently must make the IsNew-then-RecordSeen
// sequence atomic per fingerprint; implementations do not lock across the
// two calls.
type SeenSet interface {
	IsNew(ctx context.Context, fingerprint string) (bool, error)
	RecordSeen(ctx context.Context, fingerprint string) error
}

// MemorySeenSet is an in-memory SeenSet for tests and single-process runs.
type MemorySeenSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewMemorySeenSet() *MemorySeenSet {
	return &MemorySeenSet{seen: make(map[string]struct{})}
}

func (s *MemorySeenSet) IsNew(_ context.Context, fingerprint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.seen[fingerprint]
	return !found, nil
}

func (s *MemorySeenSet) RecordSeen(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[fingerprint] = struct{}{}
	return nil
}

// Len reports the number of distinct fingerprints recorded.
func (s *MemorySeenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
