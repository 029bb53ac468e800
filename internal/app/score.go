package app

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"leadscout/internal/dedup"
	"leadscout/internal/logging"
	"leadscout/internal/pipeline"
	payloadschema "leadscout/schema"
)

type scoreOutput struct {
	Fingerprint string `json:"fingerprint"`
	Score       int    `json:"score"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Location    string `json:"location,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Language    string `json:"language,omitempty"`
	ValidURL    bool   `json:"valid_url"`
	Title       string `json:"title"`
	Platform    string `json:"platform"`
}

// runScore classifies one candidate payload without a database. Useful for
// tuning rules documents against known pages.
func runScore(args []string) int {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
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

	logger, err := logging.New("local", "warn")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	service, err := pipeline.NewService(scoringRules, dedup.NewMemorySeenSet(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	record := service.ScoreOne(candidate)
	output := scoreOutput{
		Fingerprint: service.FingerprintOf(candidate),
		Score:       record.Score,
		Priority:    string(record.Priority),
		Category:    record.Category,
		Location:    record.Location,
		Phone:       record.Phone,
		Email:       record.Email,
		Language:    record.Language,
		ValidURL:    dedup.ValidURL(candidate.SourceURL),
		Title:       candidate.Title,
		Platform:    string(candidate.Platform),
	}

	if err := printJSON(output); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		return 1
	}
	return 0
}
