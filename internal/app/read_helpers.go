package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"leadscout/internal/cli"
	"leadscout/internal/config"
	"leadscout/internal/db"
	"leadscout/internal/globaltime"
	"leadscout/internal/lead"
	"leadscout/internal/reader"
	"leadscout/internal/rules"
	payloadschema "leadscout/schema"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

func utcDayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

func defaultUTCDay() time.Time {
	now := globaltime.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func pointerStringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func connectReadPool(timeout time.Duration, envLoader *cli.EnvLoader) (context.Context, context.CancelFunc, *db.Pool, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return ctx, cancel, pool, nil
}

// loadRules resolves the scoring rules document: an explicit flag wins,
// then LS_RULES_PATH, then the embedded defaults.
func loadRules(flagPath, configPath string) (*rules.Rules, error) {
	path := strings.TrimSpace(flagPath)
	if path == "" {
		path = strings.TrimSpace(configPath)
	}
	if path == "" {
		return rules.Default()
	}
	return rules.Load(path)
}

func loadJSONInput(inline, filePath, label string) ([]byte, error) {
	if trimmed := strings.TrimSpace(filePath); trimmed != "" {
		raw, err := os.ReadFile(trimmed)
		if err != nil {
			return nil, fmt.Errorf("read %s file: %w", label, err)
		}
		return raw, nil
	}
	if trimmed := strings.TrimSpace(inline); trimmed != "" {
		return []byte(trimmed), nil
	}
	return nil, fmt.Errorf("%s is required", label)
}

// collectPayloadFiles gathers the *.json candidate files referenced by
// --payload-file and --dir, sorted for deterministic batch order.
func collectPayloadFiles(payloadFile, dir string) ([]string, error) {
	files := make([]string, 0, 16)

	if trimmed := strings.TrimSpace(payloadFile); trimmed != "" {
		files = append(files, trimmed)
	}

	if trimmed := strings.TrimSpace(dir); trimmed != "" {
		entries, err := os.ReadDir(trimmed)
		if err != nil {
			return nil, fmt.Errorf("read payload dir: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
				continue
			}
			files = append(files, filepath.Join(trimmed, entry.Name()))
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no payload files: pass --payload-file or --dir")
	}
	sort.Strings(files)
	return files, nil
}

// candidateFromPayload converts a validated payload into the domain
// candidate. description_html is reduced to readable text when no plain
// description was supplied.
func candidateFromPayload(payload *payloadschema.Candidate) (lead.RawCandidate, error) {
	platform, err := lead.ParsePlatform(payload.Platform)
	if err != nil {
		return lead.RawCandidate{}, err
	}

	description := pointerStringOrEmpty(payload.Description)
	if description == "" {
		if rawHTML := pointerStringOrEmpty(payload.DescriptionHTML); rawHTML != "" {
			extracted, extractErr := reader.DescriptionFromHTML(rawHTML, payload.SourceURL, payload.Title)
			if extractErr == nil {
				description = extracted
			}
		}
	}

	candidate := lead.RawCandidate{
		Platform:         platform,
		SourceURL:        strings.TrimSpace(payload.SourceURL),
		Title:            strings.TrimSpace(payload.Title),
		Description:      description,
		DeclaredCategory: pointerStringOrEmpty(payload.DeclaredCategory),
		DeclaredLocation: pointerStringOrEmpty(payload.DeclaredLocation),
		Phone:            pointerStringOrEmpty(payload.Phone),
		Email:            pointerStringOrEmpty(payload.Email),
	}

	if raw := pointerStringOrEmpty(payload.PageCreatedAt); raw != "" {
		parsed, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return lead.RawCandidate{}, fmt.Errorf("invalid page_created_at: %w", parseErr)
		}
		createdAt := parsed.UTC()
		candidate.PageCreatedAt = &createdAt
	}

	if raw := pointerStringOrEmpty(payload.FetchedAt); raw != "" {
		parsed, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return lead.RawCandidate{}, fmt.Errorf("invalid fetched_at: %w", parseErr)
		}
		candidate.FetchedAt = parsed.UTC()
	} else {
		candidate.FetchedAt = globaltime.UTC()
	}

	return candidate, nil
}
