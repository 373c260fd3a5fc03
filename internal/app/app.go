// Package app initializes and holds the watcher's long-lived services,
// acting as a dependency injection container, and drives runs end to
// end. It is built once at startup from the loaded configuration and
// reused across runs in serve mode.
package app

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ymgch/visasq-watch/internal/archive"
	"github.com/ymgch/visasq-watch/internal/clock/system"
	"github.com/ymgch/visasq-watch/internal/config"
	"github.com/ymgch/visasq-watch/internal/fetch"
	collyfetch "github.com/ymgch/visasq-watch/internal/fetch/colly"
	"github.com/ymgch/visasq-watch/internal/fetch/headless"
	"github.com/ymgch/visasq-watch/internal/id/uuid"
	"github.com/ymgch/visasq-watch/internal/metrics"
	"github.com/ymgch/visasq-watch/internal/notify"
	"github.com/ymgch/visasq-watch/internal/sitemap"
	"github.com/ymgch/visasq-watch/internal/watch"
)

// Discoverer yields items when the listing page produced none.
type Discoverer interface {
	Discover(ctx context.Context) ([]watch.Item, error)
}

// App holds the shared services for the watcher.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	clk    watch.Clock
	ids    *uuid.Generator

	fetcher    watch.Fetcher
	discoverer Discoverer
	deliverer  notify.Deliverer
	snapshots  *archive.Archive

	// mode and persist are fixed per process: dry-run prints and never
	// persists, a configured webhook posts, anything else prints to
	// stdout but still persists like the original program did.
	mode    string
	persist bool

	closers []func()

	mu   sync.Mutex
	last *RunReport
}

// New assembles an App from the configuration. Construction never
// fetches anything; a broken headless environment degrades to a
// fetcher that fails the run when first used.
func New(cfg config.Config, logger *zap.Logger) *App {
	clk := system.New()

	base, closeFetcher := newBaseFetcher(cfg, logger)
	policy := fetch.Policy{MaxAttempts: cfg.Fetch.MaxAttempts, Base: cfg.RetryBackoff()}
	retrying := fetch.WithRetry(base, policy, logger)

	discoverer := sitemap.New(sitemap.Config{
		Origin:   cfg.Site.Origin,
		Path:     cfg.Site.SitemapPath,
		MaxItems: cfg.Sitemap.MaxItems,
		Delay:    cfg.SitemapDelay(),
	}, retrying, logger)

	var (
		deliverer notify.Deliverer
		mode      string
		persist   bool
	)
	switch {
	case cfg.Notify.DryRun:
		deliverer, mode, persist = notify.NewPrinter(os.Stdout), metrics.ModeDryRun, false
	case cfg.Notify.WebhookURL != "":
		deliverer, mode, persist = notify.NewSlack(cfg.Notify.WebhookURL, cfg.FetchTimeout(), logger), metrics.ModeWebhook, true
	default:
		deliverer, mode, persist = notify.NewPrinter(os.Stdout), metrics.ModeStdout, true
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		clk:        clk,
		ids:        uuid.New(),
		fetcher:    retrying,
		discoverer: discoverer,
		deliverer:  deliverer,
		snapshots:  archive.New(cfg.Archive.Dir, cfg.Archive.MaxBytes, clk, logger),
		mode:       mode,
		persist:    persist,
		closers:    []func(){closeFetcher},
	}
}

func newBaseFetcher(cfg config.Config, logger *zap.Logger) (watch.Fetcher, func()) {
	if cfg.Fetch.UseHeadless {
		hf, err := headless.NewChromedp(headless.Config{
			UserAgent:         cfg.Fetch.UserAgent,
			AcceptLanguage:    cfg.Fetch.AcceptLanguage,
			NavigationTimeout: cfg.NavTimeout(),
		})
		if err != nil {
			logger.Warn("headless fetcher unavailable, runs will fail until fixed", zap.Error(err))
			return headless.NewNoop(), func() {}
		}
		return hf, hf.Close
	}
	return collyfetch.New(collyfetch.Config{
		UserAgent:      cfg.Fetch.UserAgent,
		AcceptLanguage: cfg.Fetch.AcceptLanguage,
		Timeout:        cfg.FetchTimeout(),
	}), func() {}
}

// LastReport returns a copy of the most recent run summary, or nil
// before the first run completes.
func (a *App) LastReport() *RunReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return nil
	}
	cp := *a.last
	return &cp
}

func (a *App) setLast(r RunReport) {
	a.mu.Lock()
	a.last = &r
	a.mu.Unlock()
}

// Close releases long-lived resources, such as the headless browser
// when one was started, and flushes the logger.
func (a *App) Close() {
	for _, fn := range a.closers {
		fn()
	}
	_ = a.logger.Sync()
}
