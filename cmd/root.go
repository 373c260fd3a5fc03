// Package cmd defines and implements the CLI commands for the
// visasq-watch executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ymgch/visasq-watch/internal/config"
	"github.com/ymgch/visasq-watch/internal/logging"
	"github.com/ymgch/visasq-watch/internal/metrics"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visasq-watch",
		Short: "Watches VisasQ public listings for keyword matches",
		Long: `visasq-watch fetches the VisasQ public listing page, extracts the
posted issues, matches them against a keyword list, and notifies a
Slack webhook about matches it has not reported before. Already
notified issue IDs are kept in a small JSON ledger on disk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml if present)")

	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// loadConfig builds the runtime configuration for a subcommand and a
// logger matching it. Flag overrides from the caller are applied by
// the subcommand before the App is constructed.
func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	metrics.Init()
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	// Load .env early so the variables are visible to viper.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "visasq-watch: %v\n", err)
		os.Exit(1)
	}
}
