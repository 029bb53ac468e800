package rules

import (
	"strings"
	"testing"
)

func TestDefaultRulesLoad(t *testing.T) {
	t.Parallel()

	r, err := Default()
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}

	if r.Version != "v1" {
		t.Fatalf("unexpected rules version: %q", r.Version)
	}
	if r.Country.DialCode != "234" || r.Country.TrunkPrefix != "0" {
		t.Fatalf("unexpected country prefixes: %+v", r.Country)
	}
	if len(r.Gazetteer) == 0 || len(r.Categories) == 0 {
		t.Fatalf("expected gazetteer and categories to be populated")
	}

	totalWeight := r.Weights.Location + r.Weights.Category + r.Weights.Contact +
		r.Weights.Freshness + r.Weights.Completeness
	if totalWeight != 100 {
		t.Fatalf("expected weights to sum to 100, got %d", totalWeight)
	}
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	t.Parallel()

	if _, err := Parse(nil); err == nil {
		t.Fatalf("expected empty document to fail")
	}
	if _, err := Parse([]byte("   ")); err == nil {
		t.Fatalf("expected blank document to fail")
	}
}

func TestParseRejectsTrailingContent(t *testing.T) {
	t.Parallel()

	payload := append([]byte(nil), defaultRulesJSON...)
	payload = append(payload, []byte("{}")...)
	if _, err := Parse(payload); err == nil {
		t.Fatalf("expected trailing content to fail")
	}
}

func TestParseRejectsMissingRequiredSections(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte(`{"rules_version":"v1"}`)); err == nil {
		t.Fatalf("expected schema validation to fail")
	}
}

func TestParseRejectsDuplicateCategoryIDs(t *testing.T) {
	t.Parallel()

	doc := strings.Replace(string(defaultRulesJSON), `"id": "fintech"`, `"id": "startups"`, 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected duplicate category ids to fail")
	}
}

func TestParseRejectsInvertedPriorityThresholds(t *testing.T) {
	t.Parallel()

	doc := strings.Replace(string(defaultRulesJSON), `"priority_medium": 60`, `"priority_medium": 90`, 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected inverted priority thresholds to fail")
	}
}

func TestParseDefaultsFreshnessOuterBound(t *testing.T) {
	t.Parallel()

	doc := strings.Replace(
		string(defaultRulesJSON),
		`"recency_window_days": 7,
    "freshness_outer_bound_days": 30`,
		`"recency_window_days": 7`,
		1,
	)
	if doc == string(defaultRulesJSON) {
		t.Fatalf("test document edit did not apply")
	}

	r, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	if r.Thresholds.FreshnessOuterBoundDays != 28 {
		t.Fatalf("expected outer bound to default to 4x window, got %d", r.Thresholds.FreshnessOuterBoundDays)
	}
}

func TestCategoryRank(t *testing.T) {
	t.Parallel()

	r, err := Default()
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}

	if r.CategoryRank("startups") != 0 {
		t.Fatalf("expected startups to rank first")
	}
	if r.CategoryRank("unknown") != len(r.Categories) {
		t.Fatalf("expected unknown ids to rank last")
	}
}

func TestIsTrackingParam(t *testing.T) {
	t.Parallel()

	r, err := Default()
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}

	cases := []struct {
		name string
		want bool
	}{
		{"utm_source", true},
		{"utm_anything_at_all", true},
		{"UTM_CAMPAIGN", true},
		{"fbclid", true},
		{"FBCLID", true},
		{"ref", true},
		{"page", false},
		{"id", false},
	}
	for _, tc := range cases {
		if got := r.IsTrackingParam(tc.name); got != tc.want {
			t.Fatalf("IsTrackingParam(%q) = %t, want %t", tc.name, got, tc.want)
		}
	}
}
