package signal

import (
	"regexp"
	"strings"

	"leadscout/internal/rules"
)

// phoneCandidatePattern finds digit runs allowing the separators that show
// up in scraped listing text. Candidates are verified against the national
// numbering rules afterwards.
var phoneCandidatePattern = regexp.MustCompile(`\+?\d[\d\s\-\.\(\)]{6,18}\d`)

const (
	minNationalDigits = 11
	maxNationalDigits = 14
)

// matchPhones scans free text plus the structured phone hint for national
// phone numbers. Returned numbers are normalized to their digit string in
// trunk form ("0" + subscriber digits) and deduplicated. The second result
// reports whether any match carried the country dial code, which doubles as
// the country-specific location marker.
func matchPhones(text, hint string, r *rules.Rules) ([]string, bool) {
	seen := make(map[string]struct{})
	var matches []string
	countryMarker := false

	consider := func(raw string) {
		normalized, viaDialCode, ok := normalizePhone(raw, r)
		if !ok {
			return
		}
		if viaDialCode {
			countryMarker = true
		}
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}
		matches = append(matches, normalized)
	}

	if trimmed := strings.TrimSpace(hint); trimmed != "" {
		consider(trimmed)
	}
	for _, candidate := range phoneCandidatePattern.FindAllString(text, -1) {
		consider(candidate)
	}

	return matches, countryMarker
}

// normalizePhone reduces a phone-like substring to bare digits and checks it
// against the configured national prefix rules. A number qualifies when it
// starts with the country dial code or the trunk prefix and its digit count
// falls in the national range.
func normalizePhone(raw string, r *rules.Rules) (normalized string, viaDialCode bool, ok bool) {
	hadPlus := strings.Contains(raw, "+")
	digits := keepDigits(raw)
	if digits == "" {
		return "", false, false
	}

	dialCode := r.Country.DialCode
	trunk := r.Country.TrunkPrefix

	switch {
	case dialCode != "" && strings.HasPrefix(digits, dialCode) && (hadPlus || len(digits) > len(dialCode)+8):
		rest := digits[len(dialCode):]
		if trunk != "" && !strings.HasPrefix(rest, trunk) {
			rest = trunk + rest
		}
		digits = rest
		viaDialCode = true
	case trunk != "" && strings.HasPrefix(digits, trunk):
		// Already in trunk form.
	default:
		return "", false, false
	}

	if len(digits) < minNationalDigits || len(digits) > maxNationalDigits {
		return "", false, false
	}
	return digits, viaDialCode, true
}

func keepDigits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
