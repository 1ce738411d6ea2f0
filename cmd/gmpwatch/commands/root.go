package commands

import (
	"github.com/spf13/cobra"

	"gmpwatch/pkg/config"
)

var (
	// Global flags
	configFile string
	useSecrets bool
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gmpwatch",
	Short: "GMP alert pipeline for Indian IPOs",
	Long: `gmpwatch - IPO Grey Market Premium alerts over WhatsApp

Scrapes the live GMP report, screens IPOs closing within the alert
window against the configured premium thresholds, and pushes one
WhatsApp message per eligible issue.

Usage:
  gmpwatch [command]

Examples:
  gmpwatch run
  gmpwatch run --dry-run --days 5
  gmpwatch fetch
  gmpwatch watch`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", ".env", "config file (key=value)")
	rootCmd.PersistentFlags().BoolVar(&useSecrets, "secrets", false, "read config from the process environment instead of a file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug|info|warn|error)")
}

// resolveConfig resolves the full Config from the selected source plus
// any command-level overrides. The global --log-level flag folds into
// the overrides here so every subcommand honors it.
func resolveConfig(ov config.Overrides) (config.Config, error) {
	if logLevel != "" {
		ov.LogLevel = &logLevel
	}

	mode := config.ModeFile
	if useSecrets {
		mode = config.ModeEnv
	}

	return config.Resolve(mode, configFile, ov)
}
