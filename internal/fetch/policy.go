package fetch

import "time"

// Policy controls how page fetches are retried. Attempts are numbered
// from 1.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
}

// DefaultPolicy allows three attempts with linearly growing waits
// between them (1s after the first failure, 2s after the second).
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Base: time.Second}
}

// ShouldRetry reports whether another attempt is allowed after attempt
// failed with err.
func (p Policy) ShouldRetry(err error, attempt int) bool {
	return err != nil && attempt < p.MaxAttempts
}

// Backoff returns the wait inserted after the given failed attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * p.Base
}
