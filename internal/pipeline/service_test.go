package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"leadscout/internal/dedup"
	"leadscout/internal/globaltime"
	"leadscout/internal/lead"
	"leadscout/internal/rules"
)

func testService(t *testing.T, seen dedup.SeenSet) *Service {
	t.Helper()

	r, err := rules.Default()
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}
	if seen == nil {
		seen = dedup.NewMemorySeenSet()
	}
	service, err := NewService(r, seen, zerolog.Nop())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return service
}

func strongCandidate(now time.Time) lead.RawCandidate {
	created := now.Add(-48 * time.Hour)
	return lead.RawCandidate{
		Platform:  lead.PlatformFacebook,
		SourceURL: "https://www.facebook.com/lagostechhub",
		Title:     "Lagos Tech Startup Hub",
		Description: "Innovation hub and accelerator for startup founders in Lekki. " +
			"We host weekly pitch nights, mentorship sessions, and a resident incubator " +
			"for early stage teams building products for African markets. " +
			"Call +234 801 234 5678 or mail hello@lagostechhub.ng to book a tour.",
		DeclaredCategory: "startups",
		DeclaredLocation: "Lagos",
		Phone:            "+2348012345678",
		Email:            "hello@lagostechhub.ng",
		PageCreatedAt:    &created,
		FetchedAt:        now,
	}
}

func TestIngestAcceptsStrongCandidate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(now)
	defer globaltime.ResetTime()

	service := testService(t, nil)
	result, err := service.Ingest(context.Background(), []lead.RawCandidate{strongCandidate(now)})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if len(result.Accepted) != 1 || len(result.Rejected) != 0 {
		t.Fatalf("unexpected result: %d accepted, %d rejected", len(result.Accepted), len(result.Rejected))
	}

	record := result.Accepted[0]
	if record.Priority != lead.PriorityHigh {
		t.Fatalf("expected high priority, got %s (score %d)", record.Priority, record.Score)
	}
	if record.Category != "startups" {
		t.Fatalf("expected startups category, got %q", record.Category)
	}
	if record.Fingerprint == "" {
		t.Fatalf("accepted record must carry its fingerprint")
	}
	if record.Phone != "08012345678" {
		t.Fatalf("unexpected normalized phone: %q", record.Phone)
	}
	if record.Email != "hello@lagostechhub.ng" {
		t.Fatalf("unexpected email: %q", record.Email)
	}
}

func TestIngestRejectsInvalidURLFirst(t *testing.T) {
	t.Parallel()

	service := testService(t, nil)
	c := lead.RawCandidate{
		Platform: lead.PlatformFacebook,
		// Would also score below the floor, but the URL check comes first.
		SourceURL: "not a url",
		Title:     "x",
	}

	result, err := service.Ingest(context.Background(), []lead.RawCandidate{c})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if len(result.Rejected) != 1 {
		t.Fatalf("expected one rejection, got %d", len(result.Rejected))
	}
	if result.Rejected[0].Reason != lead.ReasonInvalidURL {
		t.Fatalf("unexpected reason: %s", result.Rejected[0].Reason)
	}
	if result.Rejected[0].Fingerprint != "" {
		t.Fatalf("invalid-url rejections must not carry a fingerprint")
	}
}

func TestIngestRejectsDuplicateAfterCallerRecordsSeen(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(now)
	defer globaltime.ResetTime()

	seen := dedup.NewMemorySeenSet()
	service := testService(t, seen)
	ctx := context.Background()

	first := strongCandidate(now)
	result, err := service.Ingest(ctx, []lead.RawCandidate{first})
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if len(result.Accepted) != 1 {
		t.Fatalf("expected first pass to accept, got %d", len(result.Accepted))
	}

	// The pipeline itself must not have touched the seen set.
	if seen.Len() != 0 {
		t.Fatalf("pipeline mutated the seen set: %d entries", seen.Len())
	}

	// Caller persists, then marks seen.
	if err := seen.RecordSeen(ctx, result.Accepted[0].Fingerprint); err != nil {
		t.Fatalf("record seen failed: %v", err)
	}

	// Same page again, with cosmetic URL noise.
	second := strongCandidate(now)
	second.SourceURL = "https://www.facebook.com/LagosTechHub/?utm_source=share&fbclid=abc"
	second.Title = "  LAGOS tech  startup hub "

	result, err = service.Ingest(ctx, []lead.RawCandidate{second})
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if len(result.Accepted) != 0 || len(result.Rejected) != 1 {
		t.Fatalf("expected duplicate rejection, got %d accepted, %d rejected", len(result.Accepted), len(result.Rejected))
	}
	if result.Rejected[0].Reason != lead.ReasonDuplicate {
		t.Fatalf("unexpected reason: %s", result.Rejected[0].Reason)
	}
	if result.Rejected[0].Fingerprint == "" {
		t.Fatalf("duplicate rejections carry the fingerprint")
	}
}

func TestIngestRejectsSparseCandidateBelowFloor(t *testing.T) {
	t.Parallel()

	service := testService(t, nil)
	c := lead.RawCandidate{
		Platform:  lead.PlatformLinkedIn,
		SourceURL: "https://www.linkedin.com/company/quiet-co",
		Title:     "Company",
	}

	result, err := service.Ingest(context.Background(), []lead.RawCandidate{c})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if len(result.Rejected) != 1 {
		t.Fatalf("expected one rejection, got %d", len(result.Rejected))
	}

	rejection := result.Rejected[0]
	if rejection.Reason != lead.ReasonBelowFloor {
		t.Fatalf("unexpected reason: %s", rejection.Reason)
	}
	if rejection.Fingerprint == "" {
		t.Fatalf("below-floor rejections carry the fingerprint")
	}
	if rejection.Score >= 30 {
		t.Fatalf("unexpected score: %d", rejection.Score)
	}
}

func TestIngestPreservesInputOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(now)
	defer globaltime.ResetTime()

	service := testService(t, nil)

	a := strongCandidate(now)
	b := strongCandidate(now)
	b.SourceURL = "https://www.facebook.com/otherhub"
	b.Title = "Ikeja Fintech Hub"

	bad := lead.RawCandidate{Platform: lead.PlatformGoogle, SourceURL: "::::", Title: "broken"}

	result, err := service.Ingest(context.Background(), []lead.RawCandidate{a, bad, b})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if len(result.Accepted) != 2 {
		t.Fatalf("expected two accepted, got %d", len(result.Accepted))
	}
	if result.Accepted[0].Candidate.Title != a.Title || result.Accepted[1].Candidate.Title != b.Title {
		t.Fatalf("accepted order not preserved: %q then %q",
			result.Accepted[0].Candidate.Title, result.Accepted[1].Candidate.Title)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Candidate.Title != "broken" {
		t.Fatalf("unexpected rejections: %+v", result.Rejected)
	}
}

type failingSeenSet struct{}

func (failingSeenSet) IsNew(context.Context, string) (bool, error) {
	return false, errors.New("backend down")
}

func (failingSeenSet) RecordSeen(context.Context, string) error {
	return errors.New("backend down")
}

func TestIngestPropagatesSeenSetErrors(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(now)
	defer globaltime.ResetTime()

	service := testService(t, failingSeenSet{})
	_, err := service.Ingest(context.Background(), []lead.RawCandidate{strongCandidate(now)})
	if err == nil {
		t.Fatalf("expected seen-set error to propagate")
	}
}

func TestIngestStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	service := testService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Ingest(ctx, []lead.RawCandidate{{
		Platform:  lead.PlatformFacebook,
		SourceURL: "https://www.facebook.com/acme",
		Title:     "Acme",
	}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScoreOneFillsContactFields(t *testing.T) {
	t.Parallel()

	service := testService(t, nil)
	record := service.ScoreOne(lead.RawCandidate{
		Platform:    lead.PlatformFacebook,
		SourceURL:   "https://www.facebook.com/acme",
		Title:       "Acme Stores",
		Description: "Shop online, call 0801 234 5678 or mail orders@acme.ng.",
	})

	if record.Phone != "08012345678" {
		t.Fatalf("unexpected phone: %q", record.Phone)
	}
	if record.Email != "orders@acme.ng" {
		t.Fatalf("unexpected email: %q", record.Email)
	}
}

func TestNewServiceValidatesInputs(t *testing.T) {
	t.Parallel()

	r, err := rules.Default()
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}

	if _, err := NewService(nil, dedup.NewMemorySeenSet(), zerolog.Nop()); err == nil {
		t.Fatalf("expected nil rules to fail")
	}
	if _, err := NewService(r, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected nil seen set to fail")
	}
}
