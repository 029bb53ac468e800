package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"leadscout/internal/dedup"
	payloadschema "leadscout/schema"
)

// runFingerprint prints the dedup identity of a candidate payload so
// operators can check why two pages collapse into one lead.
func runFingerprint(args []string) int {
	fs := flag.NewFlagSet("fingerprint", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	payload := fs.String("payload", "", "Candidate payload JSON")
	payloadFile := fs.String("payload-file", "", "Path to payload JSON file (overrides --payload)")
	rulesPath := fs.String("rules", "", "Path to a scoring rules JSON file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	payloadJSON, err := loadJSONInput(*payload, *payloadFile, "payload")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 2
	}

	validated, err := payloadschema.ValidateCandidatePayload(payloadJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 2
	}

	candidate, err := candidateFromPayload(validated)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid payload: %v\n", err)
		return 2
	}

	scoringRules, err := loadRules(*rulesPath, os.Getenv("LS_RULES_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scoring rules: %v\n", err)
		return 1
	}

	if !dedup.ValidURL(candidate.SourceURL) {
		fmt.Fprintf(os.Stderr, "Source URL is not a valid absolute URL: %s\n", candidate.SourceURL)
		return 1
	}

	canonical, path := dedup.NormalizeURL(candidate.SourceURL, scoringRules)
	output := map[string]string{
		"fingerprint":     dedup.Fingerprint(candidate, scoringRules),
		"normalized_name": dedup.NormalizeName(candidate.Title),
		"canonical_url":   canonical,
		"url_path":        path,
	}

	if err := printJSON(output); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}
