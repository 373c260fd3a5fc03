package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ymgch/visasq-watch/internal/watch"
)

// scriptedFetcher replays a fixed sequence of results.
type scriptedFetcher struct {
	test  *testing.T
	pages []watch.Page
	errs  []error
	calls int
}

func (s *scriptedFetcher) Fetch(_ context.Context, _ string) (watch.Page, error) {
	i := s.calls
	s.calls++
	require.Less(s.test, i, len(s.pages), "fetcher called more often than scripted")
	return s.pages[i], s.errs[i]
}

func okPage(body string) watch.Page {
	return watch.Page{StatusCode: http.StatusOK, Body: []byte(body)}
}

func newRetrying(inner watch.Fetcher, policy Policy) (*Retrying, *[]time.Duration) {
	r := WithRetry(inner, policy, zap.NewNop())
	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, &slept
}

func TestRetryingSucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{
		test:  t,
		pages: []watch.Page{okPage("<html>ok</html>")},
		errs:  []error{nil},
	}
	r, slept := newRetrying(inner, DefaultPolicy())

	page, err := r.Fetch(context.Background(), "https://example.com/")

	require.NoError(t, err)
	assert.Equal(t, []byte("<html>ok</html>"), page.Body)
	assert.Equal(t, 1, inner.calls)
	assert.Empty(t, *slept)
}

func TestRetryingRecoversWithLinearBackoff(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{
		test: t,
		pages: []watch.Page{
			{StatusCode: http.StatusServiceUnavailable},
			{StatusCode: http.StatusOK, Body: []byte("   ")},
			okPage("<html>finally</html>"),
		},
		errs: []error{nil, nil, nil},
	}
	r, slept := newRetrying(inner, Policy{MaxAttempts: 3, Base: time.Second})

	page, err := r.Fetch(context.Background(), "https://example.com/")

	require.NoError(t, err)
	assert.Equal(t, []byte("<html>finally</html>"), page.Body)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestRetryingExhaustsOnStatusError(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{
		test: t,
		pages: []watch.Page{
			{StatusCode: http.StatusNotFound},
			{StatusCode: http.StatusNotFound},
			{StatusCode: http.StatusNotFound},
		},
		errs: []error{nil, nil, nil},
	}
	r, _ := newRetrying(inner, Policy{MaxAttempts: 3, Base: time.Millisecond})

	_, err := r.Fetch(context.Background(), "https://example.com/missing")

	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingReportsEmptyBody(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{
		test: t,
		pages: []watch.Page{
			{StatusCode: http.StatusOK},
			{StatusCode: http.StatusOK},
		},
		errs: []error{nil, nil},
	}
	r, _ := newRetrying(inner, Policy{MaxAttempts: 2, Base: time.Millisecond})

	_, err := r.Fetch(context.Background(), "https://example.com/")

	require.ErrorIs(t, err, ErrEmptyBody)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryingRetriesTransportErrors(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{
		test:  t,
		pages: []watch.Page{{}, okPage("<html>up again</html>")},
		errs:  []error{errors.New("connection refused"), nil},
	}
	r, slept := newRetrying(inner, DefaultPolicy())

	page, err := r.Fetch(context.Background(), "https://example.com/")

	require.NoError(t, err)
	assert.Equal(t, []byte("<html>up again</html>"), page.Body)
	assert.Len(t, *slept, 1)
}

func TestRetryingStopsWhenContextDone(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{
		test:  t,
		pages: []watch.Page{{StatusCode: http.StatusBadGateway}},
		errs:  []error{nil},
	}
	r := WithRetry(inner, DefaultPolicy(), zap.NewNop())
	r.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Fetch(ctx, "https://example.com/")

	require.Error(t, err)
	var statusErr *StatusError
	assert.ErrorAs(t, err, &statusErr, "the fetch failure wins over the context error")
	assert.Equal(t, 1, inner.calls)
}
