// Package sitemap implements the discovery fallback used when the
// listing page yields no extractable items, typically because the
// listing now hydrates client-side. The sitemap names every detail
// page with a lastmod, so the newest postings are still reachable with
// one polite fetch per item.
package sitemap

import (
	"context"
	"encoding/xml"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ymgch/visasq-watch/internal/extract"
	"github.com/ymgch/visasq-watch/internal/watch"
)

// DefaultPath is the well-known sitemap location.
const DefaultPath = "/sitemap.xml"

// Entry is one <url> element of a sitemap. LastMod stays a string; the
// site emits a fixed date format, so lexicographic comparison orders
// entries correctly.
type Entry struct {
	Loc     string
	LastMod string
}

// xmlURLSet is the root element of a standard sitemap document.
type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []xmlURL `xml:"url"`
}

// xmlURL is a single <url> entry inside a <urlset>.
type xmlURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// Parse extracts the urlset entries. A malformed document yields nil;
// the fallback then simply has nothing to offer.
func Parse(body []byte) []Entry {
	var urlset xmlURLSet
	if err := xml.Unmarshal(body, &urlset); err != nil {
		return nil
	}
	entries := make([]Entry, 0, len(urlset.URLs))
	for _, u := range urlset.URLs {
		entries = append(entries, Entry{
			Loc:     strings.TrimSpace(u.Loc),
			LastMod: strings.TrimSpace(u.LastMod),
		})
	}
	return entries
}

// Config controls the fallback.
type Config struct {
	Origin   string
	Path     string
	MaxItems int
	// Delay is the minimum spacing between detail fetches, honoring
	// the site's crawl-delay. Detail pages are fetched strictly one at
	// a time.
	Delay time.Duration
}

// Fallback discovers recent items through the sitemap.
type Fallback struct {
	cfg     Config
	fetcher watch.Fetcher
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New builds a Fallback around fetcher.
func New(cfg Config, fetcher watch.Fetcher, logger *zap.Logger) *Fallback {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 30
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	cfg.Origin = strings.TrimSuffix(cfg.Origin, "/")
	return &Fallback{
		cfg:     cfg,
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(cfg.Delay), 1),
		logger:  logger,
	}
}

// Discover fetches the sitemap and derives items from the most recently
// modified detail pages. A missing or malformed sitemap is not an
// error: the result is simply empty. A failed detail fetch skips that
// item without aborting the batch. The returned error is non-nil only
// when ctx ends the run early.
func (f *Fallback) Discover(ctx context.Context) ([]watch.Item, error) {
	sitemapURL := f.cfg.Origin + f.cfg.Path
	page, err := f.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		f.logger.Warn("sitemap fetch failed", zap.String("url", sitemapURL), zap.Error(err))
		return nil, nil
	}

	picked := pickItemEntries(Parse(page.Body), f.cfg.MaxItems)
	f.logger.Info("sitemap entries selected", zap.Int("count", len(picked)))

	items := make([]watch.Item, 0, len(picked))
	for _, e := range picked {
		if err := f.limiter.Wait(ctx); err != nil {
			return items, err
		}
		detail, err := f.fetcher.Fetch(ctx, e.Loc)
		if err != nil {
			f.logger.Debug("detail fetch skipped", zap.String("url", e.Loc), zap.Error(err))
			continue
		}
		if it, ok := extract.Detail(detail.Body, e.Loc); ok {
			items = append(items, it)
		}
	}
	return items, nil
}

// pickItemEntries keeps detail-page entries, newest lastmod first, at
// most max of them. Entries without a lastmod sort last.
func pickItemEntries(entries []Entry, max int) []Entry {
	var picked []Entry
	for _, e := range entries {
		u, err := url.Parse(e.Loc)
		if err != nil {
			continue
		}
		if _, id := extract.ParseItemPath(u.Path); id == "" {
			continue
		}
		picked = append(picked, e)
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].LastMod > picked[j].LastMod
	})
	if len(picked) > max {
		picked = picked[:max]
	}
	return picked
}
