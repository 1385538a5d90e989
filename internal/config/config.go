// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Site     SiteConfig     `mapstructure:"site"`
	Run      RunConfig      `mapstructure:"run"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Enrich   EnrichConfig   `mapstructure:"enrich"`
	State    StateConfig    `mapstructure:"state"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Render   RenderConfig   `mapstructure:"render"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SiteConfig identifies the cinema site and listing scope.
type SiteConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Location  string `mapstructure:"location"`
	UserAgent string `mapstructure:"user_agent"`
}

// RunConfig controls how the run date is resolved.
type RunConfig struct {
	DateMode  string `mapstructure:"date_mode"`
	FixedDate string `mapstructure:"fixed_date"`
	Timezone  string `mapstructure:"timezone"`
}

// CacheConfig configures the film description cache.
type CacheConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	RedisURL           string `mapstructure:"redis_url"`
	PositiveTTLSeconds int    `mapstructure:"positive_ttl_seconds"`
	NegativeTTLSeconds int    `mapstructure:"negative_ttl_seconds"`
}

// EnrichConfig governs the detail enrichment pipeline.
type EnrichConfig struct {
	Concurrency     int  `mapstructure:"concurrency"`
	ScheduleEnabled bool `mapstructure:"schedule_enabled"`
	MaxSessions     int  `mapstructure:"max_sessions"`
}

// StateConfig locates the durable snapshot file and caps the event log.
type StateConfig struct {
	Path      string `mapstructure:"path"`
	MaxEvents int    `mapstructure:"max_events"`
}

// TelegramConfig lists the channels mirrored into feeds.
type TelegramConfig struct {
	Channels  []string `mapstructure:"channels"`
	PostLimit int      `mapstructure:"post_limit"`
	Images    string   `mapstructure:"images"`
}

// FeedConfig controls RSS output files and headers.
type FeedConfig struct {
	OutDir      string `mapstructure:"out_dir"`
	Filename    string `mapstructure:"filename"`
	Title       string `mapstructure:"title"`
	Link        string `mapstructure:"link"`
	Description string `mapstructure:"description"`
	EventsLimit int    `mapstructure:"events_limit"`
}

// RenderConfig configures the headless rendering subsystem.
type RenderConfig struct {
	NavTimeoutSeconds  int `mapstructure:"nav_timeout_seconds"`
	WaitTimeoutSeconds int `mapstructure:"wait_timeout_seconds"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CINEFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://cineplexx.me")
	v.SetDefault("site.location", "0")
	v.SetDefault("site.user_agent", "cinefeed-bot/0.1")
	v.SetDefault("run.date_mode", "today")
	v.SetDefault("run.fixed_date", "")
	v.SetDefault("run.timezone", "Europe/Podgorica")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.positive_ttl_seconds", 604800)
	v.SetDefault("cache.negative_ttl_seconds", 3600)
	v.SetDefault("enrich.concurrency", 4)
	v.SetDefault("enrich.schedule_enabled", true)
	v.SetDefault("enrich.max_sessions", 0)
	v.SetDefault("state.path", "out/state.json")
	v.SetDefault("state.max_events", 5000)
	v.SetDefault("telegram.post_limit", 5)
	v.SetDefault("telegram.images", "all")
	v.SetDefault("feed.out_dir", "out")
	v.SetDefault("feed.filename", "cineplexx_rss.xml")
	v.SetDefault("feed.title", "Cineplexx — репертуар")
	v.SetDefault("feed.link", "https://cineplexx.me")
	v.SetDefault("feed.description", "Текущие фильмы в прокате")
	v.SetDefault("feed.events_limit", 150)
	v.SetDefault("render.nav_timeout_seconds", 25)
	v.SetDefault("render.wait_timeout_seconds", 10)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":8080")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url must be set")
	}
	if c.Run.DateMode != "today" && c.Run.DateMode != "fixed" {
		return fmt.Errorf("run.date_mode must be today or fixed")
	}
	if c.Run.DateMode == "fixed" && c.Run.FixedDate == "" {
		return fmt.Errorf("run.fixed_date must be set when run.date_mode is fixed")
	}
	if c.Cache.Enabled && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url must be set when cache is enabled")
	}
	if c.Cache.PositiveTTLSeconds <= 0 || c.Cache.NegativeTTLSeconds <= 0 {
		return fmt.Errorf("cache TTLs must be > 0")
	}
	if c.Enrich.Concurrency <= 0 {
		return fmt.Errorf("enrich.concurrency must be > 0")
	}
	if c.State.MaxEvents < 0 {
		return fmt.Errorf("state.max_events must be >= 0")
	}
	switch c.Telegram.Images {
	case "all", "first", "none":
	default:
		return fmt.Errorf("telegram.images must be all, first or none")
	}
	if c.Feed.EventsLimit < 0 {
		return fmt.Errorf("feed.events_limit must be >= 0")
	}
	if c.Render.NavTimeoutSeconds <= 0 || c.Render.WaitTimeoutSeconds <= 0 {
		return fmt.Errorf("render timeouts must be > 0")
	}
	return nil
}

// PositiveTTL returns the TTL applied to successful cache entries.
func (c Config) PositiveTTL() time.Duration {
	return time.Duration(c.Cache.PositiveTTLSeconds) * time.Second
}

// NegativeTTL returns the TTL applied to not-found cache markers.
func (c Config) NegativeTTL() time.Duration {
	return time.Duration(c.Cache.NegativeTTLSeconds) * time.Second
}

// NavTimeout returns the page navigation budget.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Render.NavTimeoutSeconds) * time.Second
}

// WaitTimeout returns the in-page element wait budget.
func (c Config) WaitTimeout() time.Duration {
	return time.Duration(c.Render.WaitTimeoutSeconds) * time.Second
}
