package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
)

// Config is the persistent application configuration
type Config struct {
	Upstream UpstreamConfig `json:"upstream"`
	Refresh  RefreshConfig  `json:"refresh"`
	View     ViewConfig     `json:"view"`
	Server   ServerConfig   `json:"server"`
	Archive  ArchiveConfig  `json:"archive"`
	Log      LogConfig      `json:"log"`
}

// UpstreamConfig describes the listing endpoint
type UpstreamConfig struct {
	BaseURL        string `json:"base_url"`  // API host, e.g. a local proxy
	SiteURL        string `json:"site_url"`  // used to build item links
	AuctionID      string `json:"auction_id"`
	PerPage        int    `json:"per_page"`
	MaxPages       int    `json:"max_pages"`
	SortBy         string `json:"sort_by"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	PageIntervalMs int    `json:"page_interval_ms"` // 0 = no pacing between pages
	UserAgent      string `json:"user_agent,omitempty"`
}

// RefreshConfig holds auto-refresh defaults
type RefreshConfig struct {
	Auto            bool `json:"auto"`
	IntervalSeconds int  `json:"interval_seconds"`
}

// ViewConfig holds the initial table view
type ViewConfig struct {
	Sort         string `json:"sort"`
	Dir          string `json:"dir"`
	OnlyWithBids bool   `json:"only_with_bids"`
}

// ServerConfig is used by `aw serve`
type ServerConfig struct {
	Addr      string `json:"addr"`
	RateLimit string `json:"rate_limit"` // ulule format, e.g. "120-M"
	FeedLimit int    `json:"feed_limit"`
}

// ArchiveConfig controls the optional sqlite snapshot history
type ArchiveConfig struct {
	Enabled       bool   `json:"enabled"`
	Path          string `json:"path,omitempty"` // defaults to <data dir>/archive.db
	RetentionDays int    `json:"retention_days"`
}

// LogConfig holds logging preferences
type LogConfig struct {
	Level string `json:"level"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			BaseURL:        "https://givebutter.com",
			SiteURL:        "https://givebutter.com",
			AuctionID:      "38788",
			PerPage:        28,
			MaxPages:       50,
			SortBy:         "ending_soonest",
			TimeoutSeconds: 30,
		},
		Refresh: RefreshConfig{
			Auto:            true,
			IntervalSeconds: 60,
		},
		View: ViewConfig{
			Sort: "ends",
			Dir:  "asc",
		},
		Server: ServerConfig{
			Addr:      "127.0.0.1:8080",
			RateLimit: "120-M",
			FeedLimit: 50,
		},
		Archive: ArchiveConfig{
			RetentionDays: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DataDir is where config, logs, events and the archive live.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".auctionwatch")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// Load reads the default config file with environment overrides applied.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path, or returns defaults when it does not
// exist. Fields missing from the file keep their defaults. Environment
// overrides are applied last.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes config to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ApplyEnv overrides fields from AUCTIONWATCH_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("AUCTIONWATCH_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("AUCTIONWATCH_AUCTION_ID"); v != "" {
		c.Upstream.AuctionID = v
	}
	if v := os.Getenv("AUCTIONWATCH_REFRESH_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUCTIONWATCH_REFRESH_SECONDS: %w", err)
		}
		c.Refresh.IntervalSeconds = n
	}
	if v := os.Getenv("AUCTIONWATCH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("AUCTIONWATCH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url %q is not an absolute URL", c.Upstream.BaseURL)
	}
	if strings.TrimSpace(c.Upstream.AuctionID) == "" {
		return errors.New("upstream.auction_id is required")
	}
	if c.Upstream.PerPage <= 0 {
		return fmt.Errorf("upstream.per_page must be positive, got %d", c.Upstream.PerPage)
	}
	if c.Upstream.MaxPages <= 0 {
		return fmt.Errorf("upstream.max_pages must be positive, got %d", c.Upstream.MaxPages)
	}
	if c.Server.RateLimit != "" {
		if _, err := limiter.NewRateFromFormatted(c.Server.RateLimit); err != nil {
			return fmt.Errorf("server.rate_limit %q: %w", c.Server.RateLimit, err)
		}
	}
	if c.Archive.RetentionDays < 0 {
		return fmt.Errorf("archive.retention_days must not be negative, got %d", c.Archive.RetentionDays)
	}
	return nil
}

// ListingURL is the paginated items endpoint for the configured auction.
func (u UpstreamConfig) ListingURL() string {
	return strings.TrimRight(u.BaseURL, "/") + "/api/auctions/" + url.PathEscape(u.AuctionID) + "/items"
}

// Timeout is the per-request timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// PageInterval is the minimum spacing between page requests.
func (u UpstreamConfig) PageInterval() time.Duration {
	return time.Duration(u.PageIntervalMs) * time.Millisecond
}

// Interval is the configured auto-refresh period before clamping.
func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

// ArchivePath resolves the archive database location.
func (c *Config) ArchivePath() string {
	if c.Archive.Path != "" {
		return c.Archive.Path
	}
	return filepath.Join(DataDir(), "archive.db")
}
