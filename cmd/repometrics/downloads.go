package main

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	downloadsHeaderRow int
	downloadsFirstRow  int
)

func init() {
	downloadsCmd.Flags().IntVar(&downloadsHeaderRow, "header-row", -1, "Zero-based row holding the month labels (default from config)")
	downloadsCmd.Flags().IntVar(&downloadsFirstRow, "first-row", -1, "Zero-based first data row (default from config)")
	rootCmd.AddCommand(downloadsCmd)
}

var downloadsCmd = &cobra.Command{
	Use:   "downloads <url-or-path>",
	Short: "Import a monthly downloads report",
	Long: `Import a monthly downloads report.

Each row is matched to a stored article by its URL column and the article's
monthly download counts are replaced with the row's values. Columns whose
label is a date are month columns.

Usage:
  repometrics downloads https://example.org/reports/downloads.xlsx
  repometrics downloads ./downloads.xlsx --header-row 0 --first-row 1`,
	Args: cobra.ExactArgs(1),
	RunE: runDownloads,
}

func runDownloads(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if cmd.Flags().Changed("header-row") {
		cfg.Downloads.HeaderRow = downloadsHeaderRow
	}
	if cmd.Flags().Changed("first-row") {
		cfg.Downloads.FirstRow = downloadsFirstRow
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid layout: %v", err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	log := mustNewLogger(cfg)
	defer log.Sync()
	store := mustOpenStore(ctx, cfg, log)
	defer store.Close()

	start := time.Now()
	stats, err := newImporter(cfg, store, log).ImportDownloads(ctx, args[0])
	if err != nil {
		if ctx.Err() != nil {
			exitWithError(ExitError, "import interrupted: %v", err)
		}
		exitWithError(ExitDataError, "%v", err)
	}
	elapsed := time.Since(start)

	if humanOutput {
		printStatsHuman("Downloads", stats, elapsed)
		return nil
	}
	return outputJSON(ImportResponse{Stats: stats, Duration: elapsed.String()})
}
