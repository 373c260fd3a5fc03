// Package config loads and validates watcher configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ymgch/visasq-watch/internal/watch"
)

// Config captures all watcher configuration knobs loaded via Viper.
type Config struct {
	Site     SiteConfig     `mapstructure:"site"`
	Keywords []string       `mapstructure:"keywords"`
	State    StateConfig    `mapstructure:"state"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Sitemap  SitemapConfig  `mapstructure:"sitemap"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Serve    ServeConfig    `mapstructure:"serve"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SiteConfig names the watched listing. Origin is derived from the
// listing URL when left empty.
type SiteConfig struct {
	ListingURL  string `mapstructure:"listing_url"`
	Origin      string `mapstructure:"origin"`
	SitemapPath string `mapstructure:"sitemap_path"`
}

// StateConfig locates the seen-ID ledger file.
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// NotifyConfig controls delivery. An empty webhook URL falls back to
// printing the payload to stdout.
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	DryRun     bool   `mapstructure:"dry_run"`
	Force      bool   `mapstructure:"force"`
}

// FetchConfig configures the HTTP fetcher and retry behavior.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	AcceptLanguage string `mapstructure:"accept_language"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	BackoffSeconds int    `mapstructure:"backoff_seconds"`
	UseHeadless    bool   `mapstructure:"use_headless"`
}

// HeadlessConfig configures the chromedp fetcher.
type HeadlessConfig struct {
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
}

// SitemapConfig governs the zero-extraction fallback.
type SitemapConfig struct {
	MaxItems     int `mapstructure:"max_items"`
	DelaySeconds int `mapstructure:"delay_seconds"`
}

// ArchiveConfig enables diagnostic snapshots when Dir is set.
type ArchiveConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// ServeConfig controls the scheduled mode and its admin server.
type ServeConfig struct {
	Schedule string `mapstructure:"schedule"`
	Addr     string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VISASQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// SLACK_WEBHOOK_URL is the name the original deployment used.
	if err := v.BindEnv("notify.webhook_url", "VISASQ_NOTIFY_WEBHOOK_URL", "SLACK_WEBHOOK_URL"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Site.Origin == "" {
		origin, err := deriveOrigin(cfg.Site.ListingURL)
		if err != nil {
			return Config{}, err
		}
		cfg.Site.Origin = origin
	}
	cfg.Site.Origin = strings.TrimRight(cfg.Site.Origin, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.listing_url", "https://expert.visasq.com/issue/?is_started_only=true")
	v.SetDefault("site.origin", "")
	v.SetDefault("site.sitemap_path", "/sitemap.xml")
	v.SetDefault("keywords", watch.DefaultKeywords)
	v.SetDefault("state.path", "state/seen_ids.json")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.dry_run", false)
	v.SetDefault("notify.force", false)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; VisasQWatcher/1.0; +https://github.com/ymgch/visasq-watch)")
	v.SetDefault("fetch.accept_language", "ja-JP,ja;q=0.9")
	v.SetDefault("fetch.timeout_seconds", 20)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.backoff_seconds", 1)
	v.SetDefault("fetch.use_headless", false)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("sitemap.max_items", 30)
	v.SetDefault("sitemap.delay_seconds", 1)
	v.SetDefault("archive.dir", "")
	v.SetDefault("archive.max_bytes", int64(5<<20))
	v.SetDefault("serve.schedule", "@every 15m")
	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("logging.development", true)
}

func deriveOrigin(listingURL string) (string, error) {
	u, err := url.Parse(listingURL)
	if err != nil {
		return "", fmt.Errorf("parse site.listing_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("site.listing_url must be absolute: %q", listingURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Site.ListingURL == "" {
		return fmt.Errorf("site.listing_url must be set")
	}
	if c.Site.Origin == "" {
		return fmt.Errorf("site.origin must be set")
	}
	if len(c.Keywords) == 0 {
		return fmt.Errorf("keywords must not be empty")
	}
	for _, kw := range c.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keywords must not contain blank entries")
		}
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path must be set")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be > 0")
	}
	if c.Fetch.BackoffSeconds < 0 {
		return fmt.Errorf("fetch.backoff_seconds must be >= 0")
	}
	if c.Sitemap.MaxItems <= 0 {
		return fmt.Errorf("sitemap.max_items must be > 0")
	}
	if c.Sitemap.DelaySeconds < 0 {
		return fmt.Errorf("sitemap.delay_seconds must be >= 0")
	}
	if c.Serve.Addr == "" {
		return fmt.Errorf("serve.addr must be set")
	}
	if c.Serve.Schedule == "" {
		return fmt.Errorf("serve.schedule must be set")
	}
	return nil
}

// FetchTimeout converts the request timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RetryBackoff converts the backoff base config into a duration.
func (c Config) RetryBackoff() time.Duration {
	return time.Duration(c.Fetch.BackoffSeconds) * time.Second
}

// NavTimeout converts the headless navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}

// SitemapDelay converts the per-fetch crawl delay into a duration.
func (c Config) SitemapDelay() time.Duration {
	return time.Duration(c.Sitemap.DelaySeconds) * time.Second
}
