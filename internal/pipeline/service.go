// Package pipeline orchestrates extraction, scoring, fingerprinting, and
// dedup for batches of raw candidates. The pipeline itself performs no
// storage side effects: accepted records carry their fingerprint so the
// caller can persist-and-mark-seen atomically.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"leadscout/internal/dedup"
	"leadscout/internal/langdetect"
	"leadscout/internal/lead"
	"leadscout/internal/rules"
	"leadscout/internal/scoring"
	"leadscout/internal/signal"
)

type Service struct {
	rules  *rules.Rules
	seen   dedup.SeenSet
	logger zerolog.Logger
}

// Result is the outcome of one ingestion batch. Input order is preserved in
// both sequences.
type Result struct {
	Accepted []lead.ScoredRecord
	Rejected []lead.Rejection
}

func NewService(r *rules.Rules, seen dedup.SeenSet, logger zerolog.Logger) (*Service, error) {
	if r == nil {
		return nil, fmt.Errorf("scoring rules are required")
	}
	if seen == nil {
		return nil, fmt.Errorf("seen set is required")
	}
	return &Service{
		rules:  r,
		seen:   seen,
		logger: logger,
	}, nil
}

// Ingest classifies each candidate in input order. Rejection reasons are
// mutually exclusive and checked as: invalid URL, then duplicate, then
// below the acceptance floor. An error is returned only when the seen-set
// lookup fails; per-record classification never errors.
func (s *Service) Ingest(ctx context.Context, candidates []lead.RawCandidate) (Result, error) {
	if s == nil || s.rules == nil || s.seen == nil {
		return Result{}, fmt.Errorf("pipeline service is not initialized")
	}

	result := Result{
		Accepted: make([]lead.ScoredRecord, 0, len(candidates)),
		Rejected: make([]lead.Rejection, 0),
	}

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if !dedup.ValidURL(candidate.SourceURL) {
			result.Rejected = append(result.Rejected, lead.Rejection{
				Candidate: candidate,
				Reason:    lead.ReasonInvalidURL,
			})
			s.logger.Debug().
				Str("platform", string(candidate.Platform)).
				Str("title", candidate.Title).
				Msg("candidate rejected: invalid url")
			continue
		}

		fingerprint := dedup.Fingerprint(candidate, s.rules)

		isNew, err := s.seen.IsNew(ctx, fingerprint)
		if err != nil {
			return result, fmt.Errorf("seen-set lookup for %q: %w", fingerprint, err)
		}
		if !isNew {
			result.Rejected = append(result.Rejected, lead.Rejection{
				Candidate:   candidate,
				Reason:      lead.ReasonDuplicate,
				Fingerprint: fingerprint,
			})
			s.logger.Debug().
				Str("fingerprint", fingerprint).
				Msg("candidate rejected: duplicate")
			continue
		}

		record := s.ScoreOne(candidate)
		record.Fingerprint = fingerprint

		if record.Score < s.rules.Thresholds.MinAcceptScore {
			result.Rejected = append(result.Rejected, lead.Rejection{
				Candidate:   candidate,
				Reason:      lead.ReasonBelowFloor,
				Fingerprint: fingerprint,
				Score:       record.Score,
			})
			s.logger.Debug().
				Str("fingerprint", fingerprint).
				Int("score", record.Score).
				Msg("candidate rejected: below acceptance floor")
			continue
		}

		result.Accepted = append(result.Accepted, record)
		s.logger.Info().
			Str("platform", string(candidate.Platform)).
			Str("title", candidate.Title).
			Int("score", record.Score).
			Str("priority", string(record.Priority)).
			Str("category", record.Category).
			Msg("candidate accepted")
	}

	return result, nil
}

// ScoreOne runs extraction and scoring for a single candidate without any
// dedup check. Exposed for standalone re-scoring of historical records.
func (s *Service) ScoreOne(candidate lead.RawCandidate) lead.ScoredRecord {
	sig := signal.Extract(candidate, s.rules)
	scored := scoring.Score(candidate, sig, s.rules)

	record := lead.ScoredRecord{
		Candidate: candidate,
		Score:     scored.Score,
		Priority:  scored.Priority,
		Category:  scored.Category,
		Location:  scored.Location,
		Language:  langdetect.DetectISO6391(candidate.Description),
	}
	if len(sig.PhoneMatches) > 0 {
		record.Phone = sig.PhoneMatches[0]
	}
	if sig.HasEmail {
		record.Email = sig.EmailMatch
	}
	return record
}

// FingerprintOf exposes the fingerprint computation on the service's rules.
func (s *Service) FingerprintOf(candidate lead.RawCandidate) string {
	return dedup.Fingerprint(candidate, s.rules)
}
