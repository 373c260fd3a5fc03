package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ymgch/visasq-watch/internal/extract"
	"github.com/ymgch/visasq-watch/internal/ledger"
	"github.com/ymgch/visasq-watch/internal/metrics"
	"github.com/ymgch/visasq-watch/internal/notify"
	"github.com/ymgch/visasq-watch/internal/watch"
)

// RunReport summarizes one completed run for logs and /status.
type RunReport struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Source          string    `json:"source"`
	Items           int       `json:"items"`
	Matches         int       `json:"matches"`
	Notified        bool      `json:"notified"`
	Persisted       bool      `json:"persisted"`
	Result          string    `json:"result"`
	Error           string    `json:"error,omitempty"`
}

// RunOnce executes a single watch run: fetch the listing, extract,
// match against the keyword list, notify, and record notified IDs.
// Every step runs strictly in sequence. The returned report is also
// retained for LastReport.
func (a *App) RunOnce(ctx context.Context) (RunReport, error) {
	started := a.clk.Now()
	runID := a.newRunID()
	logger := a.logger.With(zap.String("run_id", runID))

	report := RunReport{
		RunID:     runID,
		StartedAt: started,
		Source:    metrics.SourceListing,
	}

	logger.Info("run started", zap.String("listing_url", a.cfg.Site.ListingURL))
	err := a.runPipeline(ctx, logger, &report)
	report.DurationSeconds = a.clk.Now().Sub(started).Seconds()

	if err != nil {
		report.Result = metrics.ResultFailure
		report.Error = err.Error()
		metrics.ObserveRun(metrics.ResultFailure)
		logger.Error("run failed", zap.Error(err))
	} else {
		report.Result = metrics.ResultSuccess
		metrics.ObserveRun(metrics.ResultSuccess)
		logger.Info("run finished",
			zap.Int("items", report.Items),
			zap.Int("matches", report.Matches),
			zap.Bool("notified", report.Notified))
	}

	a.setLast(report)
	return report, err
}

func (a *App) runPipeline(ctx context.Context, logger *zap.Logger, report *RunReport) error {
	lock := ledger.NewLock(a.cfg.State.Path)
	if err := lock.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire state lock: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release state lock", zap.Error(err))
		}
	}()

	led := ledger.Load(a.cfg.State.Path)
	logger.Debug("ledger loaded", zap.Int("seen_ids", led.Len()))

	page, err := a.fetcher.Fetch(ctx, a.cfg.Site.ListingURL)
	if err != nil {
		metrics.ObservePageFetch(metrics.SourceListing, metrics.OutcomeError)
		return fmt.Errorf("fetch listing: %w", err)
	}
	metrics.ObservePageFetch(metrics.SourceListing, metrics.OutcomeSuccess)

	items := extract.Listing(page.Body, a.cfg.Site.Origin)
	metrics.ObserveItemsExtracted(metrics.SourceListing, len(items))

	if len(items) == 0 {
		logger.Warn("no items extracted from listing page",
			zap.Int("status", page.StatusCode),
			zap.Int("body_bytes", len(page.Body)))
		if path, serr := a.snapshots.Save(ctx, page); serr != nil {
			logger.Warn("archive snapshot", zap.Error(serr))
		} else if path != "" {
			logger.Info("listing snapshot archived", zap.String("path", path))
		}

		metrics.ObserveSitemapFallback()
		items, err = a.discoverer.Discover(ctx)
		if err != nil {
			return fmt.Errorf("sitemap fallback: %w", err)
		}
		metrics.ObserveItemsExtracted(metrics.SourceSitemap, len(items))
		report.Source = metrics.SourceSitemap
		logger.Info("sitemap fallback finished", zap.Int("items", len(items)))
	}
	report.Items = len(items)

	var seen watch.Seen = led
	if a.cfg.Notify.Force {
		logger.Info("force mode enabled, seen filter disabled")
		seen = nil
	}
	matches := watch.MatchItems(items, seen, a.cfg.Keywords)
	report.Matches = len(matches)
	metrics.ObserveMatches(len(matches))

	if len(matches) == 0 {
		logger.Info("no new matches, notification skipped")
		return nil
	}

	if a.mode == metrics.ModeStdout {
		logger.Warn("webhook not configured, printing notification to stdout")
	}
	doc := notify.Compose(matches, a.cfg.Keywords, a.cfg.Site.ListingURL, a.clk.Now())
	if err := a.deliverer.Deliver(ctx, doc); err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	metrics.ObserveNotification(a.mode)
	report.Notified = true
	logger.Info("notification delivered",
		zap.String("mode", a.mode),
		zap.Int("matches", len(matches)))

	if !a.persist {
		logger.Info("dry run, seen ledger not updated")
		return nil
	}

	for _, m := range matches {
		led.Add(m.ID)
	}
	if err := led.Save(); err != nil {
		return fmt.Errorf("persist seen ledger: %w", err)
	}
	report.Persisted = true
	logger.Info("seen ledger updated", zap.Int("seen_ids", led.Len()))
	return nil
}

func (a *App) newRunID() string {
	id, err := a.ids.NewID()
	if err != nil {
		return "unknown"
	}
	return id
}
