// Package main provides the repometrics CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukelaw/repometrics/internal/config"
	"github.com/dukelaw/repometrics/internal/fetch"
	"github.com/dukelaw/repometrics/internal/importer"
	"github.com/dukelaw/repometrics/internal/logger"
	"github.com/dukelaw/repometrics/internal/sheet"
	"github.com/dukelaw/repometrics/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string
	logMode     string
	logLevel    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "repometrics",
	Short: "Load repository reports and write download statistics",
	Long: `repometrics loads the editor, metadata and download reports of a
scholarship repository into a relational store and writes CSV reports of
articles, authors and monthly downloads.

Typical run:
  repometrics db create
  repometrics import https://example.org/reports/
  repometrics downloads downloads-2015.xlsx
  repometrics report faculty -o faculty.csv

All commands output JSON by default; pass --human for terminal output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/repometrics/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "Log encoder: development or production (overrides log.mode)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Minimum log level (overrides log.level)")
	rootCmd.Version = Version
}

// commandContext returns a context canceled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// mustLoadConfig loads and validates configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if logMode != "" {
		cfg.Log.Mode = logMode
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return cfg
}

// mustNewLogger builds the run logger, exits on error.
// The caller is responsible for calling Sync() on the returned logger.
func mustNewLogger(cfg *config.Config) *logger.Logger {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		exitWithError(ExitConfigError, "creating logger: %v", err)
	}
	return log
}

// mustOpenStore opens the configured database and applies pending migrations.
// The caller is responsible for calling Close() on the returned store.
func mustOpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) *storage.Store {
	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	applied, err := store.Migrate(ctx)
	if err != nil {
		store.Close()
		exitWithError(ExitError, "migrating database: %v", err)
	}
	if applied > 0 {
		log.Info("schema migrated", "version", applied, "driver", store.Driver())
	}
	return store
}

// newImporter wires the fetch client and importer options from cfg.
func newImporter(cfg *config.Config, store *storage.Store, log *logger.Logger) *importer.Importer {
	client := fetch.NewClient(
		fetch.WithRateLimit(cfg.Fetch.RateLimit),
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithUserAgent("repometrics/"+Version),
	)
	opts := importer.Options{
		IdentifierPrefix: cfg.Identifier.Prefix,
		PDFBase:          cfg.Identifier.PDFBase,
		Downloads: sheet.Options{
			HeaderRow:    cfg.Downloads.HeaderRow,
			FirstDataRow: cfg.Downloads.FirstRow,
		},
	}
	return importer.New(store, client, log, opts)
}
