package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dukelaw/repometrics/internal/report"
	"github.com/spf13/cobra"
)

var reportOutput string

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "CSV file to write (default stdout)")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <kind>",
	Short: "Write a CSV report",
	Long: fmt.Sprintf(`Write a CSV report of stored articles.

Kinds:
  %s

  author-month        one row per emailed creator per month with downloads
  articles-by-author  one row per creator with the article byline
  articles-month      one row per article per download month
  article-summary     one row per article
  faculty             faculty items by month with journal-copy downloads added

Usage:
  repometrics report faculty -o faculty.csv
  repometrics report article-summary > summary.csv`, kindNames()),
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func kindNames() string {
	names := make([]string, 0, len(report.Kinds()))
	for _, k := range report.Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

// ReportResponse describes a written report.
type ReportResponse struct {
	Kind string `json:"kind"`
	Rows int    `json:"rows"`
	Path string `json:"path,omitempty"`
}

func runReport(cmd *cobra.Command, args []string) error {
	kind, err := report.ParseKind(args[0])
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	cfg := mustLoadConfig()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	log := mustNewLogger(cfg)
	defer log.Sync()
	store := mustOpenStore(ctx, cfg, log)
	defer store.Close()

	var w io.Writer = os.Stdout
	if reportOutput != "" {
		f, err := os.Create(reportOutput)
		if err != nil {
			exitWithError(ExitError, "creating %s: %v", reportOutput, err)
		}
		defer f.Close()
		w = f
	}

	rows, err := report.Generate(ctx, kind, store, w, log)
	if err != nil {
		exitWithError(ExitError, "writing %s report: %v", kind, err)
	}

	// With no -o the CSV owns stdout.
	if reportOutput == "" {
		return nil
	}
	if humanOutput {
		outputHuman("Wrote %d rows to %s\n", rows, reportOutput)
		return nil
	}
	return outputJSON(ReportResponse{Kind: string(kind), Rows: rows, Path: reportOutput})
}
