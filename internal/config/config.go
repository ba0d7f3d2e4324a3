// Package config handles loading and validating the application
// configuration from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog adapter names accepted in catalog.adapter.
const (
	AdapterShopfront = "shopfront"
	AdapterListing   = "listing"
)

// Config is the top-level application configuration.
type Config struct {
	Catalog       CatalogConfig       `yaml:"catalog"`
	Snapshot      SnapshotConfig      `yaml:"snapshot"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// CatalogConfig defines the catalog source being monitored.
type CatalogConfig struct {
	Adapter   string          `yaml:"adapter"` // shopfront, listing
	URL       string          `yaml:"url"`
	UserAgent string          `yaml:"user_agent"`
	MaxPages  int             `yaml:"max_pages"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig throttles page fetches against the catalog host.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// SnapshotConfig defines where the last-known product set is persisted.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// AlertsConfig defines alert message shaping.
type AlertsConfig struct {
	// EmbedCap is the maximum number of per-product detail blocks in a
	// single message; categories with more events paginate into
	// additional messages.
	EmbedCap int `yaml:"embed_cap"`
}

// ScheduleConfig defines the polling interval for watch mode.
type ScheduleConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// ServerConfig defines the health/metrics endpoint served in watch mode.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment
// variable substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content. The webhook URL
	// in particular is usually supplied as ${DISCORD_WEBHOOK}.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyCatalogDefaults(&cfg.Catalog)
	applySnapshotDefaults(&cfg.Snapshot)
	applyAlertsDefaults(&cfg.Alerts)
	applyScheduleDefaults(&cfg.Schedule)
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
}

func applyCatalogDefaults(c *CatalogConfig) {
	if c.Adapter == "" {
		c.Adapter = AdapterShopfront
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if c.MaxPages == 0 {
		c.MaxPages = 50
	}
	if c.RateLimit.PerSecond == 0 {
		c.RateLimit.PerSecond = 2.0
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 1
	}
}

func applySnapshotDefaults(s *SnapshotConfig) {
	if s.Path == "" {
		s.Path = "cardwatch_products.json"
	}
}

func applyAlertsDefaults(a *AlertsConfig) {
	if a.EmbedCap == 0 {
		a.EmbedCap = 10
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.PollInterval == 0 {
		s.PollInterval = time.Minute
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Catalog.URL == "" {
		errs = append(errs, fmt.Errorf("catalog.url is required"))
	}

	switch cfg.Catalog.Adapter {
	case AdapterShopfront, AdapterListing:
	default:
		errs = append(errs, fmt.Errorf(
			"catalog.adapter must be one of: %s, %s (got %q)",
			AdapterShopfront, AdapterListing, cfg.Catalog.Adapter,
		))
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf(
			"notifications.discord.webhook_url is required when discord is enabled",
		))
	}

	if cfg.Alerts.EmbedCap < 0 {
		errs = append(errs, fmt.Errorf("alerts.embed_cap must not be negative"))
	}

	return errors.Join(errs...)
}
