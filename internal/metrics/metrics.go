// Package metrics exposes Prometheus collectors for the watcher.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values used by the run loop.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	SourceListing = "listing"
	SourceSitemap = "sitemap"
	SourceDetail  = "detail"

	OutcomeSuccess = "success"
	OutcomeError   = "error"

	ModeWebhook = "webhook"
	ModeStdout  = "stdout"
	ModeDryRun  = "dry_run"
)

var (
	watchRunsTotal             *prometheus.CounterVec
	watchPagesFetchedTotal     *prometheus.CounterVec
	watchItemsExtractedTotal   *prometheus.CounterVec
	watchMatchesTotal          prometheus.Counter
	watchNotificationsTotal    *prometheus.CounterVec
	watchSitemapFallbackTotal  prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		watchRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watch_runs_total",
				Help: "Total number of watch runs, labeled by result.",
			},
			[]string{"result"},
		)

		watchPagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watch_pages_fetched_total",
				Help: "Total number of pages fetched, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		watchItemsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watch_items_extracted_total",
				Help: "Total number of items extracted, labeled by source.",
			},
			[]string{"source"},
		)

		watchMatchesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watch_matches_total",
				Help: "Total number of keyword matches notified.",
			},
		)

		watchNotificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watch_notifications_total",
				Help: "Total number of notifications produced, labeled by delivery mode.",
			},
			[]string{"mode"},
		)

		watchSitemapFallbackTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "watch_sitemap_fallback_total",
				Help: "Total number of runs that fell back to sitemap discovery.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun increments the run counter for the given result.
func ObserveRun(result string) {
	watchRunsTotal.WithLabelValues(result).Inc()
}

// ObservePageFetch increments the page fetch counter.
func ObservePageFetch(source, outcome string) {
	watchPagesFetchedTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveItemsExtracted adds to the extracted item counter.
func ObserveItemsExtracted(source string, n int) {
	if n > 0 {
		watchItemsExtractedTotal.WithLabelValues(source).Add(float64(n))
	}
}

// ObserveMatches adds to the match counter.
func ObserveMatches(n int) {
	if n > 0 {
		watchMatchesTotal.Add(float64(n))
	}
}

// ObserveNotification increments the notification counter for a mode.
func ObserveNotification(mode string) {
	watchNotificationsTotal.WithLabelValues(mode).Inc()
}

// ObserveSitemapFallback increments the fallback counter.
func ObserveSitemapFallback() {
	watchSitemapFallbackTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
