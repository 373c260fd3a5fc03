// Package archive stores diagnostic page snapshots on disk. A snapshot
// is written when listing extraction yields zero items, so the HTML
// that defeated the selectors can be inspected after the fact.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ymgch/visasq-watch/internal/clock/system"
	"github.com/ymgch/visasq-watch/internal/hash/sha256"
	"github.com/ymgch/visasq-watch/internal/watch"
)

// DefaultMaxBytes caps a single snapshot at 5 MiB.
const DefaultMaxBytes = 5 << 20

var invalidFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Archive writes page snapshots under a root directory. An empty root
// disables it; Save then becomes a no-op.
type Archive struct {
	root     string
	maxBytes int64
	hasher   *sha256.Hasher
	clk      watch.Clock
	logger   *zap.Logger
}

type snapshotMeta struct {
	URL       string    `json:"url"`
	FinalURL  string    `json:"final_url,omitempty"`
	Status    int       `json:"status"`
	BodyBytes int       `json:"body_bytes"`
	SavedAt   time.Time `json:"saved_at"`
}

// New returns an archive rooted at root. A non-positive maxBytes falls
// back to DefaultMaxBytes.
func New(root string, maxBytes int64, clk watch.Clock, logger *zap.Logger) *Archive {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if clk == nil {
		clk = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{
		root:     root,
		maxBytes: maxBytes,
		hasher:   sha256.New(),
		clk:      clk,
		logger:   logger,
	}
}

// Enabled reports whether snapshots will be written.
func (a *Archive) Enabled() bool {
	return a.root != ""
}

// Save writes the page body plus a metadata sidecar and returns the
// snapshot path. A disabled archive returns an empty path and no error.
func (a *Archive) Save(ctx context.Context, page watch.Page) (string, error) {
	if !a.Enabled() {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(page.Body) == 0 {
		return "", fmt.Errorf("empty page body")
	}
	if int64(len(page.Body)) > a.maxBytes {
		return "", fmt.Errorf("snapshot size %d exceeds max %d", len(page.Body), a.maxBytes)
	}

	now := a.clk.Now().UTC()
	target := filepath.Join(a.root, a.baseName(page, now)+".html")
	if err := os.MkdirAll(a.root, 0o750); err != nil {
		return "", fmt.Errorf("create archive dir %s: %w", a.root, err)
	}
	if err := os.WriteFile(target, page.Body, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", target, err)
	}

	meta := snapshotMeta{
		URL:       page.URL,
		FinalURL:  page.FinalURL,
		Status:    page.StatusCode,
		BodyBytes: len(page.Body),
		SavedAt:   now,
	}
	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot meta: %w", err)
	}
	metaPath := strings.TrimSuffix(target, ".html") + ".json"
	if err := os.WriteFile(metaPath, payload, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot meta %s: %w", metaPath, err)
	}

	a.logger.Info("snapshot archived",
		zap.String("path", target),
		zap.Int("bytes", len(page.Body)))
	return target, nil
}

// baseName is timestamp-first so consecutive zero-extraction runs keep
// distinct snapshots instead of overwriting the last one.
func (a *Archive) baseName(page watch.Page, now time.Time) string {
	raw := page.FinalURL
	if raw == "" {
		raw = page.URL
	}
	host := "page"
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		host = invalidFilenameChars.ReplaceAllString(u.Hostname(), "_")
	}
	digest, err := a.hasher.Hash([]byte(raw))
	if err != nil || len(digest) < 12 {
		digest = "000000000000"
	}
	return fmt.Sprintf("%s_%s_%s", now.Format("20060102T150405Z"), host, digest[:12])
}
