package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"leadscout/internal/cli"
	"leadscout/internal/config"
	"leadscout/internal/db"
	"leadscout/internal/globaltime"
	"leadscout/internal/lead"
	"leadscout/internal/logging"
	"leadscout/internal/pipeline"
	payloadschema "leadscout/schema"
)

type ingestSummary struct {
	RunID              int64  `json:"run_id,omitempty"`
	DryRun             bool   `json:"dry_run"`
	Files              int    `json:"files"`
	Candidates         int    `json:"candidates"`
	Accepted           int    `json:"accepted"`
	Stored             int    `json:"stored"`
	RejectedInvalidURL int    `json:"rejected_invalid_url"`
	RejectedDuplicate  int    `json:"rejected_duplicate"`
	RejectedBelowFloor int    `json:"rejected_below_floor"`
	Source             string `json:"source"`
}

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Command timeout")
	payloadFile := fs.String("payload-file", "", "Path to one candidate payload JSON file")
	dir := fs.String("dir", "", "Directory of candidate payload *.json files")
	rulesPath := fs.String("rules", "", "Path to a scoring rules JSON file (overrides LS_RULES_PATH)")
	source := fs.String("source", "manual_cli", "Source label recorded on the discovery run")
	dryRun := fs.Bool("dry-run", false, "Classify without storing accepted leads")
	format := fs.String("format", outputFormatJSON, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "ingest does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	files, err := collectPayloadFiles(*payloadFile, *dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	candidates := make([]lead.RawCandidate, 0, len(files))
	for _, file := range files {
		raw, readErr := os.ReadFile(file)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", file, readErr)
			return 2
		}
		payload, validateErr := payloadschema.ValidateCandidatePayload(raw)
		if validateErr != nil {
			fmt.Fprintf(os.Stderr, "Invalid payload %s: %v\n", file, validateErr)
			return 2
		}
		candidate, convErr := candidateFromPayload(payload)
		if convErr != nil {
			fmt.Fprintf(os.Stderr, "Invalid payload %s: %v\n", file, convErr)
			return 2
		}
		candidates = append(candidates, candidate)
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	scoringRules, err := loadRules(*rulesPath, cfg.RulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scoring rules: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("ingest failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	seenStore, err := db.NewSeenStore(pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build seen store: %v\n", err)
		return 1
	}

	service, err := pipeline.NewService(scoringRules, seenStore, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	summary := ingestSummary{
		DryRun:     *dryRun,
		Files:      len(files),
		Candidates: len(candidates),
		Source:     *source,
	}

	var runID int64
	startedAt := globaltime.UTC()
	if !*dryRun {
		runID, err = pool.StartDiscoveryRun(ctx, *source, startedAt)
		if err != nil {
			logger.Error().Err(err).Msg("start discovery run failed")
			fmt.Fprintf(os.Stderr, "Failed to start discovery run: %v\n", err)
			return 1
		}
		summary.RunID = runID
	}

	result, err := service.Ingest(ctx, candidates)
	if err != nil {
		logger.Error().Err(err).Msg("ingest batch failed")
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}

	for _, rejection := range result.Rejected {
		switch rejection.Reason {
		case lead.ReasonInvalidURL:
			summary.RejectedInvalidURL++
		case lead.ReasonDuplicate:
			summary.RejectedDuplicate++
		case lead.ReasonBelowFloor:
			summary.RejectedBelowFloor++
		}
	}
	summary.Accepted = len(result.Accepted)

	if !*dryRun {
		for _, record := range result.Accepted {
			inserted, insertErr := pool.InsertAccepted(ctx, record, globaltime.UTC())
			if insertErr != nil {
				logger.Error().Err(insertErr).Str("fingerprint", record.Fingerprint).Msg("store accepted lead failed")
				fmt.Fprintf(os.Stderr, "Failed to store lead: %v\n", insertErr)
				return 1
			}
			if inserted {
				summary.Stored++
				continue
			}
			// Lost a race with a concurrent writer on the same fingerprint.
			summary.Accepted--
			summary.RejectedDuplicate++
		}

		counters := db.RunCounters{
			CandidatesTotal:  summary.Candidates,
			Accepted:         summary.Stored,
			RejectedInvalid:  summary.RejectedInvalidURL,
			RejectedDupes:    summary.RejectedDuplicate,
			RejectedLowScore: summary.RejectedBelowFloor,
		}
		if err := pool.FinishDiscoveryRun(ctx, runID, counters, globaltime.UTC()); err != nil {
			logger.Error().Err(err).Int64("run_id", runID).Msg("finish discovery run failed")
			fmt.Fprintf(os.Stderr, "Failed to finish discovery run: %v\n", err)
			return 1
		}
	}

	logger.Info().
		Int64("run_id", runID).
		Bool("dry_run", *dryRun).
		Int("candidates", summary.Candidates).
		Int("accepted", summary.Accepted).
		Int("stored", summary.Stored).
		Msg("ingest batch finished")

	if outputFormat == outputFormatJSON {
		if err := printJSON(summary); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{"files", fmt.Sprintf("%d", summary.Files)},
		{"candidates", fmt.Sprintf("%d", summary.Candidates)},
		{"accepted", fmt.Sprintf("%d", summary.Accepted)},
		{"stored", fmt.Sprintf("%d", summary.Stored)},
		{"rejected_invalid_url", fmt.Sprintf("%d", summary.RejectedInvalidURL)},
		{"rejected_duplicate", fmt.Sprintf("%d", summary.RejectedDuplicate)},
		{"rejected_below_floor", fmt.Sprintf("%d", summary.RejectedBelowFloor)},
	}
	if err := writeTable([]string{"metric", "value"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
