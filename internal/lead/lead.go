// Package lead defines the candidate and scored-record types shared by the
// extraction, scoring, dedup, and ingestion packages.
package lead

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies where a candidate listing was discovered.
type Platform string

const (
	PlatformFacebook Platform = "facebook"
	PlatformLinkedIn Platform = "linkedin"
	PlatformGoogle   Platform = "google"
)

// ParsePlatform normalizes a platform label to one of the known values.
func ParsePlatform(raw string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "facebook", "fb":
		return PlatformFacebook, nil
	case "linkedin", "li":
		return PlatformLinkedIn, nil
	case "google", "google_search", "google-derived":
		return PlatformGoogle, nil
	default:
		return "", fmt.Errorf("unknown platform %q", raw)
	}
}

// RawCandidate is a single unprocessed listing as produced by a discovery
// source. Immutable once created; all derived values live elsewhere.
type RawCandidate struct {
	Platform    Platform
	SourceURL   string
	Title       string
	Description string

	// Structured hints supplied by the extractor that produced the record.
	DeclaredCategory string
	DeclaredLocation string
	Phone            string
	Email            string

	// PageCreatedAt is the declared creation/publish time of the source
	// page, when the platform exposes one.
	PageCreatedAt *time.Time

	FetchedAt time.Time
}

// Priority is the triage tier derived from the confidence score.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PriorityForScore maps a clamped confidence score to its tier.
func PriorityForScore(score, highCutoff, mediumCutoff int) Priority {
	switch {
	case score >= highCutoff:
		return PriorityHigh
	case score >= mediumCutoff:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// UncategorizedID is the assigned category when no keywords match.
const UncategorizedID = "uncategorized"

// ScoredRecord is a RawCandidate after one scoring pass.
type ScoredRecord struct {
	Candidate RawCandidate

	Score    int
	Priority Priority
	Category string
	Location string

	// Fingerprint keys the record for dedup; the caller persists it when
	// the record is accepted.
	Fingerprint string

	// Best extracted contact details, carried for persistence. Empty when
	// no match was found.
	Phone string
	Email string

	// Language is the detected ISO 639-1 code of the description, or
	// empty when undeterminable. Informational only.
	Language string
}

// RejectReason classifies why the pipeline declined a candidate.
type RejectReason string

const (
	ReasonInvalidURL RejectReason = "invalid_url"
	ReasonDuplicate  RejectReason = "duplicate"
	ReasonBelowFloor RejectReason = "below_floor"
)

// Rejection pairs a declined candidate with its reason.
type Rejection struct {
	Candidate RawCandidate
	Reason    RejectReason

	// Fingerprint is set for duplicate and below_floor rejections; it is
	// empty when the source URL could not be parsed.
	Fingerprint string

	// Score is populated for below_floor rejections.
	Score int
}
