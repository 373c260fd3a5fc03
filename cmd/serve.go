package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ymgch/visasq-watch/internal/api"
	"github.com/ymgch/visasq-watch/internal/app"
	"github.com/ymgch/visasq-watch/internal/sched"
)

// newServeCmd creates the 'serve' subcommand, which keeps the watcher
// running on a schedule and exposes the admin HTTP endpoints.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the watcher periodically with an admin HTTP server",
		Long: `Runs watch cycles on the configured cron schedule and serves the admin
endpoints (/healthz, /readyz, /metrics, /status) until interrupted.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	a := app.New(cfg, logger)
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := sched.New(a, logger.Named("sched"))
	if err := scheduler.Start(cfg.Serve.Schedule); err != nil {
		return err
	}
	// First run fires immediately rather than one full interval in.
	go scheduler.RunNow()

	apiServer := api.NewServer(a, logger.Named("api"))
	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("admin server started", zap.String("addr", cfg.Serve.Addr))
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("admin server error", zap.Error(serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown error", zap.Error(err))
	}
	scheduler.Stop()
	logger.Info("shutdown complete")
	return nil
}
