package fetch

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ymgch/visasq-watch/internal/watch"
)

// Retrying decorates a fetcher with the retry policy. A non-200 status
// or an empty body is treated the same as a transport failure: the
// attempt is retried, and the last failure is returned when attempts
// run out.
type Retrying struct {
	inner  watch.Fetcher
	policy Policy
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps inner with policy.
func WithRetry(inner watch.Fetcher, policy Policy, logger *zap.Logger) *Retrying {
	return &Retrying{
		inner:  inner,
		policy: policy,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Fetch runs attempts sequentially until one yields a 200 page with a
// non-empty body, the policy is exhausted, or ctx is done.
func (r *Retrying) Fetch(ctx context.Context, rawURL string) (watch.Page, error) {
	var (
		page watch.Page
		err  error
	)
	for attempt := 1; ; attempt++ {
		page, err = r.inner.Fetch(ctx, rawURL)
		if err == nil {
			err = checkPage(rawURL, page)
		}
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil || !r.policy.ShouldRetry(err, attempt) {
			return page, err
		}
		wait := r.policy.Backoff(attempt)
		r.logger.Warn("fetch attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if sleepErr := r.sleep(ctx, wait); sleepErr != nil {
			return page, err
		}
	}
}

func checkPage(rawURL string, page watch.Page) error {
	if page.StatusCode != http.StatusOK {
		return &StatusError{URL: rawURL, StatusCode: page.StatusCode}
	}
	if len(bytes.TrimSpace(page.Body)) == 0 {
		return ErrEmptyBody
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
