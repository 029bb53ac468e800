package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"leadscout/internal/auth"
)

// runHashToken prints the bcrypt hash to store in LS_API_TOKEN_HASH.
func runHashToken(args []string) int {
	fs := flag.NewFlagSet("hash-token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	token := fs.String("token", "", "Token to hash (reads LS_API_TOKEN when empty)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	value := strings.TrimSpace(*token)
	if value == "" {
		value = strings.TrimSpace(os.Getenv("LS_API_TOKEN"))
	}
	if value == "" {
		fmt.Fprintln(os.Stderr, "pass --token or set LS_API_TOKEN")
		return 2
	}

	hash, err := auth.HashToken(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash token: %v\n", err)
		return 1
	}

	fmt.Println(hash)
	return 0
}
