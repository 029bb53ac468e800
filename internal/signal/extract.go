// Package signal extracts structured scoring signals from a raw candidate's
// free-text fields. Extraction is pure: malformed or empty text never fails,
// it just contributes nothing.
package signal

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"leadscout/internal/globaltime"
	"leadscout/internal/lead"
	"leadscout/internal/rules"
)

// Signals holds everything the scorer needs about one candidate. Computed
// fresh on every pass; never persisted.
type Signals struct {
	// LocationMatches are canonical city names found in the text, in
	// gazetteer order.
	LocationMatches []string

	// PhoneMatches are normalized national phone numbers (digits only,
	// trunk form), deduplicated.
	PhoneMatches []string

	// CountryPhoneMatch is true when at least one phone match carried the
	// country dial code marker.
	CountryPhoneMatch bool

	// CategoryMatches maps category id to keyword hit count. Each keyword
	// phrase counts at most once per record.
	CategoryMatches map[string]int

	HasEmail bool
	HasPhone bool

	// EmailMatch is the first email-like string found, for persistence.
	EmailMatch string

	// AgeHint is the elapsed time since the declared page creation date,
	// or nil when undeterminable. Nil is neutral, not zero.
	AgeHint *time.Duration

	// TextCompleteness is a 0..1 ratio over description length and field
	// population.
	TextCompleteness float64
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// descriptionSaturationChars is the description length at which the
// completeness ratio maxes out its length share.
const descriptionSaturationChars = 200

// Extract derives all scoring signals for one candidate under the supplied
// rules.
func Extract(c lead.RawCandidate, r *rules.Rules) Signals {
	text := combinedText(c)

	phones, countryMatch := matchPhones(text, c.Phone, r)

	sig := Signals{
		LocationMatches:   matchLocations(text, r),
		PhoneMatches:      phones,
		CountryPhoneMatch: countryMatch,
		CategoryMatches:   matchCategories(text, r),
		EmailMatch:        matchEmail(text, c.Email),
		TextCompleteness:  textCompleteness(c),
	}
	sig.HasEmail = sig.EmailMatch != ""
	sig.HasPhone = len(sig.PhoneMatches) > 0

	if c.PageCreatedAt != nil && !c.PageCreatedAt.IsZero() {
		age := globaltime.UTC().Sub(c.PageCreatedAt.UTC())
		if age >= 0 {
			sig.AgeHint = &age
		}
	}

	return sig
}

func combinedText(c lead.RawCandidate) string {
	parts := []string{c.Title, c.Description, c.DeclaredLocation, c.DeclaredCategory}
	return strings.ToLower(strings.Join(parts, " "))
}

func matchLocations(text string, r *rules.Rules) []string {
	if text == "" {
		return nil
	}

	var matches []string
	for _, place := range r.Gazetteer {
		city := strings.ToLower(strings.TrimSpace(place.City))
		if city == "" {
			continue
		}
		if containsToken(text, city) {
			matches = append(matches, place.City)
		}
	}
	return matches
}

// containsToken reports whether needle occurs in haystack on word
// boundaries. Both inputs must already be lower-cased.
func containsToken(haystack, needle string) bool {
	for start := 0; ; {
		idx := strings.Index(haystack[start:], needle)
		if idx < 0 {
			return false
		}
		idx += start

		before := idx == 0 || isBoundary(rune(haystack[idx-1]))
		afterIdx := idx + len(needle)
		after := afterIdx >= len(haystack) || isBoundary(rune(haystack[afterIdx]))
		if before && after {
			return true
		}

		start = idx + 1
		if start >= len(haystack) {
			return false
		}
	}
}

func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func matchCategories(text string, r *rules.Rules) map[string]int {
	if text == "" {
		return nil
	}

	matches := make(map[string]int)
	for _, category := range r.Categories {
		count := 0
		for _, keyword := range category.Keywords {
			kw := strings.ToLower(strings.TrimSpace(keyword))
			if kw == "" {
				continue
			}
			// Cap at one hit per phrase so repetition cannot inflate
			// the count.
			if containsToken(text, kw) {
				count++
			}
		}
		if count > 0 {
			matches[category.ID] = count
		}
	}
	if len(matches) == 0 {
		return nil
	}
	return matches
}

func matchEmail(text, hint string) string {
	if trimmed := strings.TrimSpace(hint); trimmed != "" {
		if m := emailPattern.FindString(trimmed); m != "" {
			return m
		}
	}
	return emailPattern.FindString(text)
}

// StrongestCategory returns the category with the highest match count, ties
// broken by the configured category order. Empty result means no match.
func StrongestCategory(matches map[string]int, r *rules.Rules) (string, int) {
	if len(matches) == 0 {
		return "", 0
	}

	ids := make([]string, 0, len(matches))
	for id := range matches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if matches[ids[i]] != matches[ids[j]] {
			return matches[ids[i]] > matches[ids[j]]
		}
		return r.CategoryRank(ids[i]) < r.CategoryRank(ids[j])
	})
	return ids[0], matches[ids[0]]
}

func textCompleteness(c lead.RawCandidate) float64 {
	descLen := len(strings.TrimSpace(c.Description))
	lengthShare := float64(descLen) / float64(descriptionSaturationChars)
	if lengthShare > 1 {
		lengthShare = 1
	}

	fields := 0
	populated := 0
	for _, field := range []string{c.Title, c.Description, c.DeclaredCategory, c.DeclaredLocation, c.Phone, c.Email} {
		fields++
		if strings.TrimSpace(field) != "" {
			populated++
		}
	}
	fieldShare := float64(populated) / float64(fields)

	return 0.5*lengthShare + 0.5*fieldShare
}
