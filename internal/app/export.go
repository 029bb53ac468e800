package app

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"leadscout/internal/cli"
)

var exportHeader = []string{
	"business_uuid",
	"business_name",
	"platform",
	"category",
	"priority",
	"confidence_score",
	"location",
	"phone",
	"email",
	"source_url",
	"language",
	"discovered_at",
}

func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 60*time.Second, "Command timeout")
	out := fs.String("out", "", "Output CSV path (default stdout)")
	minScore := fs.Int("min-score", 0, "Only export leads at or above this score")
	limit := fs.Int("limit", 1000, "Maximum rows to export")
	keep := fs.Bool("keep", false, "Do not mark exported rows, so they appear in the next export")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "export does not accept positional arguments")
		return 2
	}
	if *minScore < 0 || *minScore > 100 {
		fmt.Fprintln(os.Stderr, "--min-score must be between 0 and 100")
		return 2
	}

	ctx, cancel, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	rows, err := pool.ListUnexported(ctx, *minScore, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list leads: %v\n", err)
		return 1
	}

	output := os.Stdout
	if *out != "" {
		file, createErr := os.Create(*out)
		if createErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *out, createErr)
			return 1
		}
		defer file.Close()
		output = file
	}

	writer := csv.NewWriter(output)
	if err := writer.Write(exportHeader); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write CSV header: %v\n", err)
		return 1
	}
	for _, row := range rows {
		record := []string{
			row.BusinessUUID,
			row.BusinessName,
			row.Platform,
			row.Category,
			row.Priority,
			fmt.Sprintf("%d", row.Score),
			pointerStringOrEmpty(row.Location),
			pointerStringOrEmpty(row.Phone),
			pointerStringOrEmpty(row.Email),
			row.SourceURL,
			pointerStringOrEmpty(row.Language),
			row.DiscoveredAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write CSV row: %v\n", err)
			return 1
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush CSV: %v\n", err)
		return 1
	}

	if !*keep && len(rows) > 0 {
		uuids := make([]string, 0, len(rows))
		for _, row := range rows {
			uuids = append(uuids, row.BusinessUUID)
		}
		marked, markErr := pool.MarkExported(ctx, uuids)
		if markErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to mark leads exported: %v\n", markErr)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Exported %d leads (%d marked)\n", len(rows), marked)
		return 0
	}

	fmt.Fprintf(os.Stderr, "Exported %d leads\n", len(rows))
	return 0
}
