package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dukelaw/repometrics/internal/importer"
	"github.com/fatih/color"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("error:"), msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status  string `json:"status"`
	Driver  string `json:"driver,omitempty"`
	Path    string `json:"path,omitempty"`
	Version int64  `json:"version,omitempty"`
}

// ImportResponse reports the outcome of an import pass.
type ImportResponse struct {
	importer.Stats
	Skipped  []string `json:"skipped_contexts,omitempty"`
	Duration string   `json:"duration"`
}

// printStatsHuman prints row counters with colored status words.
func printStatsHuman(title string, s importer.Stats, d time.Duration) {
	outputHuman("%s: %d rows in %s\n", title, s.Rows, formatDuration(d))
	outputHuman("  %-11s %d\n", color.GreenString("created"), s.Created)
	outputHuman("  %-11s %d\n", color.GreenString("updated"), s.Updated)
	if s.Missing > 0 {
		outputHuman("  %-11s %d\n", color.YellowString("missing"), s.Missing)
	}
	if s.Duplicates > 0 {
		outputHuman("  %-11s %d\n", color.YellowString("duplicate"), s.Duplicates)
	}
	if s.Failed > 0 {
		outputHuman("  %-11s %d\n", color.RedString("failed"), s.Failed)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// formatList formats names as a comma-separated string.
func formatList(names []string) string {
	return strings.Join(names, ", ")
}
