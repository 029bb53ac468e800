package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "ingest":
		return runIngest(args[1:])
	case "score":
		return runScore(args[1:])
	case "fingerprint":
		return runFingerprint(args[1:])
	case "stats":
		return runStats(args[1:])
	case "export":
		return runExport(args[1:])
	case "hash-token":
		return runHashToken(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "leadscout CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  leadscout <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health       Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  ingest       Score candidate payload files and store accepted leads")
	fmt.Fprintln(os.Stderr, "  score        Score one candidate payload without touching storage")
	fmt.Fprintln(os.Stderr, "  fingerprint  Print the dedup fingerprint of a candidate payload")
	fmt.Fprintln(os.Stderr, "  stats        Show stored lead counts and daily throughput")
	fmt.Fprintln(os.Stderr, "  export       Write unexported leads to a CSV file")
	fmt.Fprintln(os.Stderr, "  hash-token   Print a bcrypt hash for LS_API_TOKEN_HASH")
	fmt.Fprintln(os.Stderr, "  serve        Start the Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"leadscout <command> -h\" for command-specific flags.")
}
