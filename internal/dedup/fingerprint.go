// Package dedup derives stable identity fingerprints for candidate listings
// and decides novelty against the set of previously seen fingerprints.
package dedup

import (
	"net/url"
	"strings"
	"unicode"

	"leadscout/internal/lead"
	"leadscout/internal/rules"
)

const fingerprintSeparator = "|"

// Fingerprint returns the content-derived identity of a candidate:
// platform + normalized business name + normalized URL path, joined with a
// fixed separator. Two candidates with equal fingerprints describe the same
// real-world listing regardless of casing, trailing slashes, or tracking
// parameters. The result is never empty: when the name is unrecoverable the
// full normalized URL is used as the basis instead.
func Fingerprint(c lead.RawCandidate, r *rules.Rules) string {
	name := NormalizeName(c.Title)
	canonical, path := NormalizeURL(c.SourceURL, r)

	basis := path
	if name == "" {
		basis = canonical
		if basis == "" {
			// Unparseable URL and no name; fall back to the raw URL so
			// the candidate is still classifiable as new-or-duplicate.
			basis = strings.TrimSpace(strings.ToLower(c.SourceURL))
		}
		return string(c.Platform) + fingerprintSeparator + basis
	}

	return string(c.Platform) + fingerprintSeparator + name + fingerprintSeparator + path
}

// NormalizeName lower-cases a business name, collapses internal whitespace
// to single spaces, and trims the ends.
func NormalizeName(raw string) string {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSpace := false
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

// NormalizeURL canonicalizes a source URL: lower-cased scheme and host,
// tracking query parameters stripped, fragment dropped, trailing slash
// trimmed. It returns the full canonical URL and its path component. Both
// are empty when the URL cannot be parsed as absolute.
func NormalizeURL(raw string, r *rules.Rules) (canonical string, path string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", ""
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", ""
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Hostname())
	if port := parsed.Port(); port != "" {
		defaultPort := (parsed.Scheme == "http" && port == "80") || (parsed.Scheme == "https" && port == "443")
		if !defaultPort {
			parsed.Host = parsed.Host + ":" + port
		}
	}

	parsed.Fragment = ""
	p := strings.TrimSpace(parsed.EscapedPath())
	if p == "" {
		p = "/"
	}
	p = strings.ReplaceAll(p, "//", "/")
	if strings.HasSuffix(p, "/") && p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	parsed.Path = strings.ToLower(p)
	parsed.RawPath = ""

	q := parsed.Query()
	for key := range q {
		if r.IsTrackingParam(key) {
			q.Del(key)
		}
	}
	if len(q) > 0 {
		parsed.RawQuery = q.Encode()
	} else {
		parsed.RawQuery = ""
	}

	return parsed.String(), parsed.Path
}

// ValidURL reports whether the candidate's source URL parses as an absolute
// URL. The pipeline checks this before anything else.
func ValidURL(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	return parsed.Scheme != "" && parsed.Host != ""
}
