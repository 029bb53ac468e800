package signal

import (
	"strings"
	"testing"
	"time"

	"leadscout/internal/globaltime"
	"leadscout/internal/lead"
	"leadscout/internal/rules"
)

func testRules(t *testing.T) *rules.Rules {
	t.Helper()
	r, err := rules.Default()
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}
	return r
}

func TestExtractMatchesGazetteerCities(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	c := lead.RawCandidate{
		Platform:    lead.PlatformFacebook,
		SourceURL:   "https://www.facebook.com/acme",
		Title:       "Acme Foods",
		Description: "Catering service based in Benin City, delivering across Lagos daily.",
	}

	sig := Extract(c, r)
	if len(sig.LocationMatches) != 2 {
		t.Fatalf("expected two city matches, got %v", sig.LocationMatches)
	}
	// Gazetteer order, not text order.
	if sig.LocationMatches[0] != "Lagos" || sig.LocationMatches[1] != "Benin City" {
		t.Fatalf("unexpected match order: %v", sig.LocationMatches)
	}
}

func TestExtractRequiresWordBoundaries(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	c := lead.RawCandidate{
		Title:       "The Lagosian Times",
		Description: "Stories about city life.",
	}

	sig := Extract(c, r)
	if len(sig.LocationMatches) != 0 {
		t.Fatalf("expected no match inside a longer word, got %v", sig.LocationMatches)
	}
}

func TestExtractCountsEachKeywordPhraseOnce(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	c := lead.RawCandidate{
		Title:       "Startup startup STARTUP",
		Description: "A startup and innovation hub with an accelerator program.",
	}

	sig := Extract(c, r)
	if sig.CategoryMatches["startups"] != 3 {
		t.Fatalf("expected 3 distinct keyword hits, got %d", sig.CategoryMatches["startups"])
	}
}

func TestExtractEmailPrefersStructuredHint(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	c := lead.RawCandidate{
		Title:       "Acme",
		Description: "Reach us at info@other.example for details.",
		Email:       "hello@acme.ng",
	}

	sig := Extract(c, r)
	if !sig.HasEmail {
		t.Fatalf("expected email signal")
	}
	if sig.EmailMatch != "hello@acme.ng" {
		t.Fatalf("expected hint email, got %q", sig.EmailMatch)
	}
}

func TestExtractEmailFromText(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	c := lead.RawCandidate{
		Title:       "Acme",
		Description: "Orders: orders@acme-stores.com.ng or walk in.",
	}

	sig := Extract(c, r)
	if sig.EmailMatch != "orders@acme-stores.com.ng" {
		t.Fatalf("unexpected email match: %q", sig.EmailMatch)
	}
}

func TestExtractAgeHint(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(now)
	defer globaltime.ResetTime()

	r := testRules(t)
	created := now.Add(-48 * time.Hour)
	c := lead.RawCandidate{
		Title:         "Acme",
		PageCreatedAt: &created,
	}

	sig := Extract(c, r)
	if sig.AgeHint == nil {
		t.Fatalf("expected age hint")
	}
	if *sig.AgeHint != 48*time.Hour {
		t.Fatalf("unexpected age: %s", *sig.AgeHint)
	}
}

func TestExtractFutureCreationDateIsNeutral(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(now)
	defer globaltime.ResetTime()

	r := testRules(t)
	created := now.Add(24 * time.Hour)
	c := lead.RawCandidate{
		Title:         "Acme",
		PageCreatedAt: &created,
	}

	sig := Extract(c, r)
	if sig.AgeHint != nil {
		t.Fatalf("expected nil age hint for a future date, got %s", *sig.AgeHint)
	}
}

func TestTextCompletenessBounds(t *testing.T) {
	t.Parallel()

	sparse := lead.RawCandidate{Title: "Acme"}
	if got := textCompleteness(sparse); got >= 0.1 {
		t.Fatalf("expected near-zero completeness, got %f", got)
	}

	full := lead.RawCandidate{
		Title:            "Acme Stores Lagos",
		Description:      strings.Repeat("Quality household goods at fair prices. ", 6),
		DeclaredCategory: "ecommerce",
		DeclaredLocation: "Lagos",
		Phone:            "08012345678",
		Email:            "hello@acme.ng",
	}
	if got := textCompleteness(full); got != 1.0 {
		t.Fatalf("expected full completeness, got %f", got)
	}
}

func TestStrongestCategoryTieBreaksByConfiguredOrder(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	matches := map[string]int{
		"fintech":  2,
		"startups": 2,
	}

	id, hits := StrongestCategory(matches, r)
	if id != "startups" || hits != 2 {
		t.Fatalf("expected startups to win the tie, got %q (%d)", id, hits)
	}
}

func TestStrongestCategoryEmpty(t *testing.T) {
	t.Parallel()

	r := testRules(t)
	if id, hits := StrongestCategory(nil, r); id != "" || hits != 0 {
		t.Fatalf("expected empty result, got %q (%d)", id, hits)
	}
}
