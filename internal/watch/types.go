// Package watch defines the core types and pipeline of the listing watcher.
package watch

import (
	"context"
	"net/http"
	"time"
)

// ItemKind distinguishes the two detail-page families on the site.
type ItemKind string

// Item kinds as they appear in detail-page paths.
const (
	KindIssue           ItemKind = "issue"
	KindDirectInterview ItemKind = "direct-interview"
)

// Item is one posting extracted from the site. All display fields keep
// the site's own wording ("2025年08月18日", "¥30,000 〜 ¥50,000", ...);
// anything the markup did not yield stays empty.
type Item struct {
	ID           string   `json:"id"`
	Kind         ItemKind `json:"kind"`
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Labels       []string `json:"labels,omitempty"`
	Created      string   `json:"created,omitempty"`
	Due          string   `json:"due,omitempty"`
	Reward       string   `json:"reward,omitempty"`
	MeetingTime  string   `json:"meeting_time,omitempty"`
	Headcount    string   `json:"headcount,omitempty"`
	Location     string   `json:"location,omitempty"`
	Organization string   `json:"organization,omitempty"`
}

// Match pairs an item with the keywords that selected it, in keyword
// declaration order.
type Match struct {
	Item
	MatchedKeywords []string `json:"matched_keywords"`
}

// Page is the result of fetching a single URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
