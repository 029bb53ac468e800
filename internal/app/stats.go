package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"leadscout/internal/cli"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, pool, err := connectReadPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	dayStart := defaultUTCDay()
	_, dayEnd := utcDayBounds(dayStart)

	stats, err := pool.QueryDiscoveryStats(ctx, dayStart, dayEnd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query discovery stats: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	platformRows := make([][]string, 0, len(stats.ByPlatform))
	for _, row := range stats.ByPlatform {
		platformRows = append(platformRows, []string{row.Key, fmt.Sprintf("%d", row.Count)})
	}
	if err := writeTable([]string{"platform", "businesses"}, platformRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render platform table: %v\n", err)
		return 1
	}

	fmt.Println()
	categoryRows := make([][]string, 0, len(stats.ByCategory))
	for _, row := range stats.ByCategory {
		categoryRows = append(categoryRows, []string{row.Key, fmt.Sprintf("%d", row.Count)})
	}
	if err := writeTable([]string{"category", "businesses"}, categoryRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render category table: %v\n", err)
		return 1
	}

	fmt.Println()
	priorityRows := make([][]string, 0, len(stats.ByPriority))
	for _, row := range stats.ByPriority {
		priorityRows = append(priorityRows, []string{row.Key, fmt.Sprintf("%d", row.Count)})
	}
	if err := writeTable([]string{"priority", "businesses"}, priorityRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render priority table: %v\n", err)
		return 1
	}

	fmt.Println()
	summaryRows := [][]string{
		{"total", fmt.Sprintf("%d", stats.Total)},
		{"average_score", fmt.Sprintf("%.1f", stats.AverageScore)},
		{"discovered_last_day", fmt.Sprintf("%d", stats.Throughput.DiscoveredLastDay)},
		{"high_priority_total", fmt.Sprintf("%d", stats.Throughput.HighPriorityTotal)},
		{"pending_unalerted", fmt.Sprintf("%d", stats.Throughput.PendingUnalerted)},
		{"pending_unexported", fmt.Sprintf("%d", stats.Throughput.PendingUnexported)},
	}
	if err := writeTable([]string{"metric", "value"}, summaryRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render summary table: %v\n", err)
		return 1
	}

	return 0
}
