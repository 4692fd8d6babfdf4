package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/salesquery/salesquery/internal/cli/salesqueryctl"
)

func main() {
	options := salesqueryctl.Options{
		BaseURL: strings.TrimSpace(os.Getenv("SALESQUERY_API_URL")),
		Timeout: parseDurationWithDefault(strings.TrimSpace(os.Getenv("SALESQUERY_CLI_TIMEOUT")), 60*time.Second),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}

	code := salesqueryctl.Run(context.Background(), os.Args[1:], options)
	os.Exit(code)
}

func parseDurationWithDefault(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid SALESQUERY_CLI_TIMEOUT %q; using %s\n", raw, fallback)
		return fallback
	}
	return parsed
}
