// Package fetch defines the shared fetch failure types and the retry
// wrapper applied around the plain and headless implementations.
package fetch

import (
	"errors"
	"fmt"
)

// ErrEmptyBody reports a 200 response that carried no usable body.
// Such responses count as failed attempts for retry purposes.
var ErrEmptyBody = errors.New("empty response body")

// StatusError reports a response with a non-200 status code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}
