// Package config loads cinegate configuration from the environment or from
// a YAML file with environment variable expansion.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultChannels is the membership gate fallback when CHANNELS is unset.
var DefaultChannels = []string{"@cinegate_movies", "@cinegate_series", "@cinegate_updates"}

const (
	defaultDeleteAfter    = 1200 * time.Second
	defaultPendingTTL     = time.Hour
	defaultPort           = 8080
	defaultPollingTimeout = 30
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Config holds the full cinegate configuration.
//
// APIID and APIHash are the MTProto application credentials from the original
// deployment contract. The Bot API transport authenticates with BotToken
// alone, but both stay required so an env set that ran the previous
// generation of the bot still runs this one.
type Config struct {
	APIID         int64  `yaml:"api_id"`
	APIHash       string `yaml:"api_hash"`
	BotToken      string `yaml:"bot_token"`
	AdminID       int64  `yaml:"admin_id"`
	DatabaseURL   string `yaml:"database_url"`
	SourceChannel string `yaml:"source_channel"`

	Channels       []string      `yaml:"channels"`
	DeleteAfter    time.Duration `yaml:"delete_after"`
	PendingTTL     time.Duration `yaml:"pending_ttl"`
	Port           int           `yaml:"port"`
	LogLevel       string        `yaml:"log_level"`
	APIURL         string        `yaml:"api_url"`
	PollingTimeout int           `yaml:"polling_timeout"`
	OTLPEndpoint   string        `yaml:"otlp_endpoint"`
}

// defaults applies default values to unset optional fields.
func (c *Config) defaults() {
	if len(c.Channels) == 0 {
		c.Channels = DefaultChannels
	}
	if c.DeleteAfter == 0 {
		c.DeleteAfter = defaultDeleteAfter
	}
	if c.PendingTTL == 0 {
		c.PendingTTL = defaultPendingTTL
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.APIURL == "" {
		c.APIURL = "https://api.telegram.org"
	}
	if c.PollingTimeout == 0 {
		c.PollingTimeout = defaultPollingTimeout
	}
}

// Validate checks that every required setting is present and well-formed.
// A failure here is fatal: the process must exit before serving.
func (c *Config) Validate() error {
	var missing []string
	if c.APIID == 0 {
		missing = append(missing, "API_ID")
	}
	if c.APIHash == "" {
		missing = append(missing, "API_HASH")
	}
	if c.BotToken == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if c.AdminID == 0 {
		missing = append(missing, "ADMIN_ID")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.SourceChannel == "" {
		missing = append(missing, "SOURCE_CHANNEL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}

	if !tokenPattern.MatchString(c.BotToken) {
		return fmt.Errorf("config: bot token format invalid (expected <bot_id>:<hash>)")
	}

	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config: api_url must be a valid http/https URL, got %q", c.APIURL)
	}

	if c.PollingTimeout < 0 || c.PollingTimeout > 50 {
		return fmt.Errorf("config: polling_timeout must be 0-50, got %d", c.PollingTimeout)
	}

	if c.DeleteAfter < 0 {
		return fmt.Errorf("config: delete_after must be non-negative, got %s", c.DeleteAfter)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port must be 1-65535, got %d", c.Port)
	}

	return nil
}

// Level parses LogLevel into a slog.Level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
