// Package config handles repometrics configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukelaw/repometrics/internal/article"
	"github.com/dukelaw/repometrics/internal/storage"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/repometrics/config.yml.
// Every key can be overridden by a REPOMETRICS_ environment variable, e.g.
// REPOMETRICS_DATABASE_DSN for database.dsn.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database" json:"database"`
	Server     string           `mapstructure:"server" yaml:"server" json:"server"`       // Base URL of the report exports
	Contexts   []string         `mapstructure:"contexts" yaml:"contexts" json:"contexts"` // Contexts imported by default
	Identifier IdentifierConfig `mapstructure:"identifier" yaml:"identifier" json:"identifier"`
	Downloads  DownloadsConfig  `mapstructure:"downloads" yaml:"downloads" json:"downloads"`
	Fetch      FetchConfig      `mapstructure:"fetch" yaml:"fetch" json:"fetch"`
	Log        LogConfig        `mapstructure:"log" yaml:"log" json:"log"`
}

// DatabaseConfig selects the storage driver and connection.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver" json:"driver"` // sqlite or pgx
	DSN    string `mapstructure:"dsn" yaml:"dsn" json:"dsn"`
}

// IdentifierConfig controls how stable identifiers and PDF URLs are derived.
type IdentifierConfig struct {
	Prefix  string `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
	PDFBase string `mapstructure:"pdf_base" yaml:"pdf_base" json:"pdf_base"`
}

// DownloadsConfig describes the layout of the monthly downloads sheet (zero-based rows).
type DownloadsConfig struct {
	HeaderRow int `mapstructure:"header_row" yaml:"header_row" json:"header_row"`
	FirstRow  int `mapstructure:"first_row" yaml:"first_row" json:"first_row"`
}

// FetchConfig controls report retrieval.
type FetchConfig struct {
	RateLimit float64       `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"` // Requests per second
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// LogConfig selects the log encoder and minimum level.
type LogConfig struct {
	Mode  string `mapstructure:"mode" yaml:"mode" json:"mode"`    // development or production
	Level string `mapstructure:"level" yaml:"level" json:"level"` // debug, info, warn or error; empty keeps the mode default
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME and XDG_DATA_HOME.
	ConfigDir = "repometrics"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// DBFile is the default SQLite database file name.
	DBFile = "repometrics.db"
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "REPOMETRICS"

	DriverSQLite   = storage.DriverSQLite
	DriverPostgres = storage.DriverPostgres

	DefaultPDFBase = "http://scholarship.law.duke.edu/cgi/viewcontent.cgi"
)

// ValidDrivers lists the supported database drivers.
var ValidDrivers = []string{DriverSQLite, DriverPostgres}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    filepath.Join(dataHome(), ConfigDir, DBFile),
		},
		Contexts: article.KnownContexts(),
		Identifier: IdentifierConfig{
			Prefix:  article.DefaultIdentifierPrefix,
			PDFBase: DefaultPDFBase,
		},
		Downloads: DownloadsConfig{HeaderRow: 1, FirstRow: 2},
		Fetch:     FetchConfig{RateLimit: 2, Timeout: 2 * time.Minute},
		Log:       LogConfig{Mode: "development"},
	}
}

// Path returns the config file location.
// REPOMETRICS_CONFIG wins, then XDG_CONFIG_HOME, then ~/.config.
func Path() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return ExpandTilde(p)
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

func dataHome() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// Load reads configuration from path (Path() when empty), layering
// environment overrides over the file over defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !os.IsNotExist(err) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Server = strings.TrimSpace(cfg.Server)
	if cfg.Database.Driver == DriverSQLite {
		cfg.Database.DSN = ExpandTilde(cfg.Database.DSN)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("server", d.Server)
	v.SetDefault("contexts", d.Contexts)
	v.SetDefault("identifier.prefix", d.Identifier.Prefix)
	v.SetDefault("identifier.pdf_base", d.Identifier.PDFBase)
	v.SetDefault("downloads.header_row", d.Downloads.HeaderRow)
	v.SetDefault("downloads.first_row", d.Downloads.FirstRow)
	v.SetDefault("fetch.rate_limit", d.Fetch.RateLimit)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("log.mode", d.Log.Mode)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks values that would otherwise fail deep inside an import.
func (c *Config) Validate() error {
	if err := ValidateDriver(c.Database.Driver); err != nil {
		return err
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is empty")
	}
	if c.Identifier.Prefix == "" {
		return fmt.Errorf("identifier.prefix is empty")
	}
	if c.Downloads.HeaderRow < 0 || c.Downloads.FirstRow <= c.Downloads.HeaderRow {
		return fmt.Errorf("downloads.first_row (%d) must follow downloads.header_row (%d)",
			c.Downloads.FirstRow, c.Downloads.HeaderRow)
	}
	if c.Fetch.RateLimit <= 0 {
		return fmt.Errorf("fetch.rate_limit must be positive, got %v", c.Fetch.RateLimit)
	}
	return nil
}

// ValidateDriver checks that the driver value is supported.
func ValidateDriver(driver string) error {
	for _, valid := range ValidDrivers {
		if driver == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid database.driver: %s (valid: %v)", driver, ValidDrivers)
}

// Save writes the configuration as YAML, creating parent directories.
// It refuses to overwrite an existing file unless force is set.
func (c *Config) Save(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// HelpfulConfigMessage explains how to create a config file.
func HelpfulConfigMessage() string {
	configPath := Path()
	return fmt.Sprintf(`Tip: create %s with defaults:
  repometrics config init

or set values through the environment, e.g.
  export %s_SERVER=https://example.org/reports/`,
		configPath, EnvPrefix)
}
