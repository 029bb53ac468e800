package dedup

import (
	"context"
	"testing"
)

func TestMemorySeenSetRecordSeenIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	set := NewMemorySeenSet()

	isNew, err := set.IsNew(ctx, "facebook|acme|/acme")
	if err != nil {
		t.Fatalf("IsNew failed: %v", err)
	}
	if !isNew {
		t.Fatalf("expected unseen fingerprint to be new")
	}

	if err := set.RecordSeen(ctx, "facebook|acme|/acme"); err != nil {
		t.Fatalf("RecordSeen failed: %v", err)
	}
	if err := set.RecordSeen(ctx, "facebook|acme|/acme"); err != nil {
		t.Fatalf("repeated RecordSeen failed: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("expected one recorded fingerprint, got %d", set.Len())
	}

	isNew, err = set.IsNew(ctx, "facebook|acme|/acme")
	if err != nil {
		t.Fatalf("IsNew failed: %v", err)
	}
	if isNew {
		t.Fatalf("expected recorded fingerprint to not be new")
	}
}

func TestMemorySeenSetSeparatesFingerprints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	set := NewMemorySeenSet()

	if err := set.RecordSeen(ctx, "facebook|acme|/acme"); err != nil {
		t.Fatalf("RecordSeen failed: %v", err)
	}

	isNew, err := set.IsNew(ctx, "linkedin|acme|/company/acme")
	if err != nil {
		t.Fatalf("IsNew failed: %v", err)
	}
	if !isNew {
		t.Fatalf("expected a different fingerprint to be new")
	}
}
