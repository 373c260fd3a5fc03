package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ymgch/visasq-watch/internal/watch"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", "")
	t.Setenv("VISASQ_NOTIFY_WEBHOOK_URL", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ListingURL != "https://expert.visasq.com/issue/?is_started_only=true" {
		t.Fatalf("unexpected listing URL: %s", cfg.Site.ListingURL)
	}
	if cfg.Site.Origin != "https://expert.visasq.com" {
		t.Fatalf("expected origin derived from listing URL, got %s", cfg.Site.Origin)
	}
	if cfg.Site.SitemapPath != "/sitemap.xml" {
		t.Fatalf("unexpected sitemap path: %s", cfg.Site.SitemapPath)
	}
	if len(cfg.Keywords) != len(watch.DefaultKeywords) || cfg.Keywords[0] != "SEO" {
		t.Fatalf("expected canonical keyword list, got %v", cfg.Keywords)
	}
	if cfg.State.Path != "state/seen_ids.json" {
		t.Fatalf("unexpected state path: %s", cfg.State.Path)
	}
	if cfg.Notify.WebhookURL != "" || cfg.Notify.DryRun || cfg.Notify.Force {
		t.Fatalf("expected notify defaults, got %+v", cfg.Notify)
	}
	if got := cfg.FetchTimeout(); got != 20*time.Second {
		t.Fatalf("expected fetch timeout 20s, got %v", got)
	}
	if cfg.Fetch.MaxAttempts != 3 || cfg.RetryBackoff() != time.Second {
		t.Fatalf("expected retry defaults, got %+v", cfg.Fetch)
	}
	if cfg.Fetch.UseHeadless {
		t.Fatal("expected headless off by default")
	}
	if got := cfg.NavTimeout(); got != 30*time.Second {
		t.Fatalf("expected nav timeout 30s, got %v", got)
	}
	if cfg.Sitemap.MaxItems != 30 || cfg.SitemapDelay() != time.Second {
		t.Fatalf("expected sitemap defaults, got %+v", cfg.Sitemap)
	}
	if cfg.Archive.Dir != "" || cfg.Archive.MaxBytes != 5<<20 {
		t.Fatalf("expected archive defaults, got %+v", cfg.Archive)
	}
	if cfg.Serve.Schedule != "@every 15m" || cfg.Serve.Addr != ":8080" {
		t.Fatalf("expected serve defaults, got %+v", cfg.Serve)
	}
	if !cfg.Logging.Development {
		t.Fatal("expected development logging by default")
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", "")
	t.Setenv("VISASQ_NOTIFY_WEBHOOK_URL", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
site:
  listing_url: https://staging.example.com/issue/?is_started_only=true
  origin: https://staging.example.com/
keywords:
  - SEO
  - ブランディング
state:
  path: /var/lib/watch/seen.json
notify:
  webhook_url: https://hooks.slack.com/services/T0/B0/XXX
  dry_run: true
fetch:
  user_agent: custom-agent
  timeout_seconds: 45
  max_attempts: 5
  backoff_seconds: 2
  use_headless: true
headless:
  nav_timeout_seconds: 60
sitemap:
  max_items: 10
  delay_seconds: 3
archive:
  dir: /tmp/snapshots
serve:
  schedule: "@every 5m"
  addr: 127.0.0.1:9090
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ListingURL != "https://staging.example.com/issue/?is_started_only=true" {
		t.Fatalf("expected listing override to apply, got %s", cfg.Site.ListingURL)
	}
	if cfg.Site.Origin != "https://staging.example.com" {
		t.Fatalf("expected origin trailing slash to be trimmed, got %s", cfg.Site.Origin)
	}
	if len(cfg.Keywords) != 2 || cfg.Keywords[1] != "ブランディング" {
		t.Fatalf("expected keyword override, got %v", cfg.Keywords)
	}
	if cfg.State.Path != "/var/lib/watch/seen.json" {
		t.Fatalf("expected state path override, got %s", cfg.State.Path)
	}
	if cfg.Notify.WebhookURL != "https://hooks.slack.com/services/T0/B0/XXX" || !cfg.Notify.DryRun {
		t.Fatalf("expected notify overrides, got %+v", cfg.Notify)
	}
	if cfg.Fetch.UserAgent != "custom-agent" || !cfg.Fetch.UseHeadless {
		t.Fatalf("expected fetch overrides, got %+v", cfg.Fetch)
	}
	if got := cfg.FetchTimeout(); got != 45*time.Second {
		t.Fatalf("expected fetch timeout 45s, got %v", got)
	}
	if got := cfg.RetryBackoff(); got != 2*time.Second {
		t.Fatalf("expected backoff 2s, got %v", got)
	}
	if got := cfg.NavTimeout(); got != 60*time.Second {
		t.Fatalf("expected nav timeout 60s, got %v", got)
	}
	if cfg.Sitemap.MaxItems != 10 || cfg.SitemapDelay() != 3*time.Second {
		t.Fatalf("expected sitemap overrides, got %+v", cfg.Sitemap)
	}
	if cfg.Archive.Dir != "/tmp/snapshots" {
		t.Fatalf("expected archive dir override, got %s", cfg.Archive.Dir)
	}
	if cfg.Serve.Schedule != "@every 5m" || cfg.Serve.Addr != "127.0.0.1:9090" {
		t.Fatalf("expected serve overrides, got %+v", cfg.Serve)
	}
	if cfg.Logging.Development {
		t.Fatal("expected development logging off")
	}
}

func TestLoadWebhookFromLegacyEnv(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T1/B1/YYY")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Notify.WebhookURL != "https://hooks.slack.com/services/T1/B1/YYY" {
		t.Fatalf("expected legacy env webhook, got %s", cfg.Notify.WebhookURL)
	}
}

func TestLoadRejectsRelativeListingURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("site:\n  listing_url: /issue/only\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "must be absolute") {
		t.Fatalf("expected absolute URL error, got %v", err)
	}
}

func validConfig() Config {
	return Config{
		Site: SiteConfig{
			ListingURL:  "https://expert.visasq.com/issue/?is_started_only=true",
			Origin:      "https://expert.visasq.com",
			SitemapPath: "/sitemap.xml",
		},
		Keywords: []string{"SEO"},
		State:    StateConfig{Path: "state/seen_ids.json"},
		Fetch:    FetchConfig{UserAgent: "ua", TimeoutSeconds: 20, MaxAttempts: 3},
		Sitemap:  SitemapConfig{MaxItems: 30, DelaySeconds: 1},
		Serve:    ServeConfig{Schedule: "@every 15m", Addr: ":8080"},
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing listing url",
			mutate: func(c *Config) { c.Site.ListingURL = "" },
			want:   "site.listing_url",
		},
		{
			name:   "empty keywords",
			mutate: func(c *Config) { c.Keywords = nil },
			want:   "keywords",
		},
		{
			name:   "blank keyword entry",
			mutate: func(c *Config) { c.Keywords = []string{"SEO", "  "} },
			want:   "blank",
		},
		{
			name:   "missing state path",
			mutate: func(c *Config) { c.State.Path = "" },
			want:   "state.path",
		},
		{
			name:   "invalid timeout",
			mutate: func(c *Config) { c.Fetch.TimeoutSeconds = 0 },
			want:   "fetch.timeout_seconds",
		},
		{
			name:   "invalid attempts",
			mutate: func(c *Config) { c.Fetch.MaxAttempts = 0 },
			want:   "fetch.max_attempts",
		},
		{
			name:   "negative backoff",
			mutate: func(c *Config) { c.Fetch.BackoffSeconds = -1 },
			want:   "fetch.backoff_seconds",
		},
		{
			name:   "invalid sitemap cap",
			mutate: func(c *Config) { c.Sitemap.MaxItems = 0 },
			want:   "sitemap.max_items",
		},
		{
			name:   "negative sitemap delay",
			mutate: func(c *Config) { c.Sitemap.DelaySeconds = -1 },
			want:   "sitemap.delay_seconds",
		},
		{
			name:   "missing serve addr",
			mutate: func(c *Config) { c.Serve.Addr = "" },
			want:   "serve.addr",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
