package main

import (
	"sort"

	"github.com/dukelaw/repometrics/internal/storage"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	dbCmd.AddCommand(dbCreateCmd)
	dbCmd.AddCommand(dbDropCmd)
	dbCmd.AddCommand(dbInfoCmd)
	dbDropCmd.Flags().BoolVar(&dbDropYes, "yes", false, "Confirm dropping every table")
	rootCmd.AddCommand(dbCmd)
}

var dbDropYes bool

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the article database",
	Long: `Manage the article database.

Subcommands:
  create  Apply all schema migrations
  drop    Drop every table (requires --yes)
  info    Show schema version and row counts`,
}

var dbCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the schema",
	Args:  cobra.NoArgs,
	RunE:  runDBCreate,
}

var dbDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every table",
	Args:  cobra.NoArgs,
	RunE:  runDBDrop,
}

var dbInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show schema version and table counts",
	Args:  cobra.NoArgs,
	RunE:  runDBInfo,
}

func runDBCreate(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	ctx, cancel := commandContext(cmd)
	defer cancel()
	log := mustNewLogger(cfg)
	defer log.Sync()

	store := mustOpenStore(ctx, cfg, log)
	defer store.Close()

	version, err := store.Version(ctx)
	if err != nil {
		exitWithError(ExitError, "reading schema version: %v", err)
	}
	if humanOutput {
		outputHuman("%s schema version %d (%s)\n", color.GreenString("ok"), version, store.Driver())
		return nil
	}
	return outputJSON(StatusResponse{Status: "created", Driver: store.Driver(), Version: version})
}

func runDBDrop(cmd *cobra.Command, args []string) error {
	if !dbDropYes {
		exitWithError(ExitError, "refusing to drop tables without --yes")
	}
	cfg := mustLoadConfig()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	defer store.Close()

	if err := store.Drop(ctx); err != nil {
		exitWithError(ExitError, "dropping tables: %v", err)
	}
	if humanOutput {
		outputHuman("%s all tables\n", color.YellowString("dropped"))
		return nil
	}
	return outputJSON(StatusResponse{Status: "dropped", Driver: store.Driver()})
}

// DBInfoResponse reports the schema version and per-table row counts.
type DBInfoResponse struct {
	Driver  string         `json:"driver"`
	Version int64          `json:"version"`
	Tables  map[string]int `json:"tables"`
}

func runDBInfo(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	ctx, cancel := commandContext(cmd)
	defer cancel()
	log := mustNewLogger(cfg)
	defer log.Sync()

	store := mustOpenStore(ctx, cfg, log)
	defer store.Close()

	version, err := store.Version(ctx)
	if err != nil {
		exitWithError(ExitError, "reading schema version: %v", err)
	}
	counts, err := store.TableCounts(ctx)
	if err != nil {
		exitWithError(ExitError, "counting rows: %v", err)
	}

	if humanOutput {
		outputHuman("Driver:  %s\n", store.Driver())
		outputHuman("Version: %d\n", version)
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			outputHuman("  %-12s %d\n", name, counts[name])
		}
		return nil
	}
	return outputJSON(DBInfoResponse{Driver: store.Driver(), Version: version, Tables: counts})
}
