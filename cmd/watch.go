package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ymgch/visasq-watch/internal/app"
)

// newWatchCmd creates the 'watch' subcommand, which performs exactly
// one fetch-match-notify cycle and exits.
func newWatchCmd() *cobra.Command {
	var (
		dryRun bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Runs a single watch cycle",
		Long: `Fetches the listing page once, notifies keyword matches that have not
been reported before, and exits. The exit code is non-zero when the
run fails, including notification delivery failures.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Notify.DryRun = true
			}
			if force {
				cfg.Notify.Force = true
			}

			a := app.New(cfg, logger)
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			_, err = a.RunOnce(ctx)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the notification instead of delivering it and leave the ledger untouched")
	cmd.Flags().BoolVar(&force, "force", false, "notify all matches even when already recorded in the ledger")

	return cmd
}
