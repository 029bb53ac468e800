// Package scoring combines extracted signals into a bounded confidence
// score and priority tier using the weighted-rule model from the rules
// document. Score is a pure function: identical inputs and rules always
// produce identical output, which keeps re-scoring after a rules change
// safe.
package scoring

import (
	"time"

	"leadscout/internal/lead"
	"leadscout/internal/rules"
	"leadscout/internal/signal"
)

// Result carries the outcome of one scoring pass.
type Result struct {
	Score    int
	Priority lead.Priority
	Category string
	Location string
}

// Score applies the five weighted components. Each component is capped at
// its configured weight before summation, and the total is clamped to
// [0,100] at the end.
func Score(c lead.RawCandidate, sig signal.Signals, r *rules.Rules) Result {
	total := locationComponent(sig, r) +
		categoryComponent(sig, r) +
		contactComponent(sig, r) +
		freshnessComponent(sig, r) +
		completenessComponent(sig, r)

	score := clamp(total, 0, 100)

	category, _ := signal.StrongestCategory(sig.CategoryMatches, r)
	if category == "" {
		category = lead.UncategorizedID
	}

	location := ""
	if len(sig.LocationMatches) > 0 {
		location = sig.LocationMatches[0]
	}

	return Result{
		Score:    score,
		Priority: lead.PriorityForScore(score, r.Thresholds.PriorityHigh, r.Thresholds.PriorityMedium),
		Category: category,
		Location: location,
	}
}

// locationComponent grants full weight when both a gazetteer city match and
// a country-pattern phone match are present, half weight for exactly one,
// zero otherwise.
func locationComponent(sig signal.Signals, r *rules.Rules) int {
	cityMatch := len(sig.LocationMatches) > 0
	switch {
	case cityMatch && sig.CountryPhoneMatch:
		return r.Weights.Location
	case cityMatch || sig.CountryPhoneMatch:
		return r.Weights.Location / 2
	default:
		return 0
	}
}

// categoryComponent scales with the strongest category's hit count relative
// to the saturation threshold, capped at full weight.
func categoryComponent(sig signal.Signals, r *rules.Rules) int {
	_, hits := signal.StrongestCategory(sig.CategoryMatches, r)
	if hits <= 0 {
		return 0
	}

	saturation := r.Thresholds.CategorySaturation
	if saturation < 1 {
		saturation = 1
	}
	if hits >= saturation {
		return r.Weights.Category
	}
	return r.Weights.Category * hits / saturation
}

func contactComponent(sig signal.Signals, r *rules.Rules) int {
	half := r.Weights.Contact / 2
	points := 0
	if sig.HasPhone {
		points += half
	}
	if sig.HasEmail {
		points += half
	}
	return points
}

// freshnessComponent grants full weight inside the recency window, decays
// linearly out to the outer bound, and is zero beyond it. An unknown age is
// neutral, never a penalty.
func freshnessComponent(sig signal.Signals, r *rules.Rules) int {
	if sig.AgeHint == nil {
		return 0
	}

	window := time.Duration(r.Thresholds.RecencyWindowDays) * 24 * time.Hour
	outer := time.Duration(r.Thresholds.FreshnessOuterBoundDays) * 24 * time.Hour
	age := *sig.AgeHint

	switch {
	case age <= window:
		return r.Weights.Freshness
	case age >= outer || outer <= window:
		return 0
	default:
		remaining := float64(outer-age) / float64(outer-window)
		return int(float64(r.Weights.Freshness) * remaining)
	}
}

func completenessComponent(sig signal.Signals, r *rules.Rules) int {
	ratio := sig.TextCompleteness
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return int(float64(r.Weights.Completeness) * ratio)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
