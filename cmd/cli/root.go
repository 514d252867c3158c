// Package cli implements the jobtrack command line: the API server and the
// one-shot sync, import, export and rule debugging commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobtrack-backend/pkg/config"
	"jobtrack-backend/pkg/logger"
)

var (
	// version information
	version = "dev"

	databaseURL string
	rulesFile   string
	logLevel    string
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "jobtrack",
	Short: "Track job applications from email and browser captures",
	Long: `jobtrack reconciles job-application evidence from your mailbox and from
browser-extension captures into one record per application.

Run "jobtrack serve" for the HTTP API used by the browser extension, or the
one-shot commands to sync, import and export from the terminal.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database DSN (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "rule table YAML file (overrides RULES_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json or console (overrides LOG_FORMAT)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flag overrides
func loadConfig() *config.Config {
	cfg := config.Load()
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if rulesFile != "" {
		cfg.RulesFile = rulesFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}
