package main

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [server] [contexts...]",
	Short: "Import editor and metadata reports",
	Long: `Import editor and metadata reports for one or more contexts.

For each context the editor report <server><context>_editor.xlsx is paired
with <server><context>_metadata.xlsx by article URL. Articles are upserted by
stable identifier; creators, keywords and disciplines are replaced.

Usage:
  repometrics import                                  # server and contexts from config
  repometrics import https://example.org/reports/     # all configured contexts
  repometrics import https://example.org/reports/ dlj lcp

The server may also be a local directory holding the exported reports.
A context whose editor report cannot be read is skipped.`,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	server := cfg.Server
	contexts := cfg.Contexts
	if len(args) > 0 {
		server = args[0]
	}
	if len(args) > 1 {
		contexts = args[1:]
	}
	if server == "" {
		exitWithError(ExitConfigError, "no server given and server is not configured")
	}
	if len(contexts) == 0 {
		exitWithError(ExitConfigError, "no contexts given and contexts is empty")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	log := mustNewLogger(cfg)
	defer log.Sync()
	store := mustOpenStore(ctx, cfg, log)
	defer store.Close()

	start := time.Now()
	stats, skipped, err := newImporter(cfg, store, log).ImportContexts(ctx, server, contexts)
	if err != nil {
		exitWithError(ExitError, "import interrupted: %v", err)
	}
	elapsed := time.Since(start)

	if humanOutput {
		printStatsHuman("Imported", stats, elapsed)
		if len(skipped) > 0 {
			outputHuman("  %-11s %s\n", color.YellowString("skipped"), formatList(skipped))
		}
		return nil
	}
	return outputJSON(ImportResponse{Stats: stats, Skipped: skipped, Duration: elapsed.String()})
}
