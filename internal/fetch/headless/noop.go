package headless

import (
	"context"
	"errors"

	"github.com/ymgch/visasq-watch/internal/watch"
)

// Noop implements watch.Fetcher but always fails. It stands in when
// headless fetching is requested but no browser could be started.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch returns an error since no browser is available.
func (Noop) Fetch(_ context.Context, _ string) (watch.Page, error) {
	return watch.Page{}, errors.New("headless fetcher not available")
}
