package main

import (
	"github.com/dukelaw/repometrics/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or show configuration",
	Long: `Create or show configuration.

Usage:
  repometrics config init          # Write defaults to the config path
  repometrics config show          # Print the effective configuration

Every key can be overridden by an environment variable, e.g.
REPOMETRICS_DATABASE_DSN or REPOMETRICS_SERVER.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	if path == "" {
		exitWithError(ExitConfigError, "cannot determine config path; pass --config")
	}
	if err := config.Default().Save(path, configForce); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if humanOutput {
		outputHuman("%s %s\n", color.GreenString("created"), path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "created", Path: path})
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if humanOutput {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			exitWithError(ExitError, "encoding config: %v", err)
		}
		outputHuman("%s", data)
		return nil
	}
	return outputJSON(cfg)
}
