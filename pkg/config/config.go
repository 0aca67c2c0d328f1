// Package config provides configuration management for oliviabot.
// Supports TOML configuration files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/oliviabot/oliviabot/pkg/logger"
)

// Helper function to validate directory exists or can be created
func validateDirectoryWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}

	testFile := filepath.Join(dir, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("cannot write to directory: %w", err)
	}
	f.Close()
	os.Remove(testFile)

	return nil
}

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingValue  = errors.New("missing required configuration value")
)

// Config holds all bot configuration
type Config struct {
	Bot         BotConfig         `toml:"bot" envPrefix:"BOT_"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics" envPrefix:"DIAGNOSTICS_"`
	Database    DatabaseConfig    `toml:"database" envPrefix:"DATABASE_"`
	Repo        RepoConfig        `toml:"repo" envPrefix:"REPO_"`
	Metrics     MetricsConfig     `toml:"metrics" envPrefix:"METRICS_"`
	Logging     LoggingConfig     `toml:"logging" envPrefix:"LOG_"`
	Embed       EmbedConfig       `toml:"embed" envPrefix:"EMBED_"`
}

// BotConfig holds the chat connection settings
type BotConfig struct {
	// Token is the bot token used for the gateway and REST API
	Token string `toml:"token" env:"TOKEN"`

	// Prefix starts every text command
	Prefix string `toml:"prefix" env:"PREFIX"`

	// Dev enables debug logging
	Dev bool `toml:"dev" env:"DEV"`

	// OwnerIDs may run owner-only commands
	OwnerIDs []string `toml:"owner_ids" env:"OWNER_IDS" envSeparator:","`

	// GatewayURL overrides the gateway endpoint (tests and proxies)
	GatewayURL string `toml:"gateway_url" env:"GATEWAY_URL"`
}

// DiagnosticsConfig configures failure reporting
type DiagnosticsConfig struct {
	// WebhookURL receives every diagnostic report
	WebhookURL string `toml:"webhook_url" env:"WEBHOOK_URL"`

	// SourceURLFormat renders a file (%s) and line (%d) as a link
	SourceURLFormat string `toml:"source_url_format" env:"SOURCE_URL_FORMAT"`

	// RatePerMinute paces webhook executions (0 = unlimited)
	RatePerMinute int `toml:"rate_per_minute" env:"RATE_PER_MINUTE"`
}

// DatabaseConfig configures the neofetch table
type DatabaseConfig struct {
	Path string `toml:"path" env:"PATH"`

	// NeofetchCSV is imported on startup when set
	NeofetchCSV string `toml:"neofetch_csv" env:"NEOFETCH_CSV"`

	// RefreshSchedule is a cron expression for re-importing the CSV
	RefreshSchedule string `toml:"refresh_schedule" env:"REFRESH_SCHEDULE"`
}

// RepoConfig points at the checkout the bot runs from
type RepoConfig struct {
	Path string `toml:"path" env:"PATH"`
}

// MetricsConfig configures the prometheus listener
type MetricsConfig struct {
	// Listen is the address of the /metrics server; empty disables it
	Listen string `toml:"listen" env:"LISTEN"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
	Output string `toml:"output" env:"OUTPUT"`
}

// EmbedConfig holds embed styling
type EmbedConfig struct {
	DefaultColor Color `toml:"default_color" env:"DEFAULT_COLOR"`
}

// Color is an RGB color written as "#rrggbb" or "0xrrggbb"
type Color int

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || v > 0xFFFFFF {
		return fmt.Errorf("%w: invalid color %q", ErrInvalidConfig, string(text))
	}
	*c = Color(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (c Color) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("#%06x", int(c))), nil
}

// DefaultSourceURLFormat links into the upstream repository
const DefaultSourceURLFormat = "https://github.com/RocketRace/oliviabot/blob/main/%s#L%d"

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Prefix: "+",
		},
		Diagnostics: DiagnosticsConfig{
			SourceURLFormat: DefaultSourceURLFormat,
			RatePerMinute:   30,
		},
		Database: DatabaseConfig{
			Path: "oliviabot.db",
		},
		Repo: RepoConfig{
			Path: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Embed: EmbedConfig{
			DefaultColor: 0xE0A0FF,
		},
	}
}

// ConfigPaths returns the list of default configuration file paths to check
func ConfigPaths() []string {
	paths := []string{"./oliviabot.toml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "oliviabot", "config.toml"))
	}
	return append(paths, filepath.Join("/etc", "oliviabot", "config.toml"))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("%w: bot.token", ErrMissingValue)
	}
	if c.Bot.Prefix == "" {
		return fmt.Errorf("%w: bot.prefix", ErrMissingValue)
	}

	if c.Diagnostics.WebhookURL == "" {
		return fmt.Errorf("%w: diagnostics.webhook_url", ErrMissingValue)
	}
	u, err := url.Parse(c.Diagnostics.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: diagnostics.webhook_url must be an http(s) URL", ErrInvalidConfig)
	}

	format := c.Diagnostics.SourceURLFormat
	if !strings.Contains(format, "%s") || !strings.Contains(format, "%d") {
		return fmt.Errorf("%w: diagnostics.source_url_format must contain %%s and %%d", ErrInvalidConfig)
	}
	if strings.Index(format, "%s") > strings.Index(format, "%d") {
		return fmt.Errorf("%w: diagnostics.source_url_format must place %%s before %%d", ErrInvalidConfig)
	}

	if c.Diagnostics.RatePerMinute < 0 {
		return fmt.Errorf("%w: diagnostics.rate_per_minute cannot be negative", ErrInvalidConfig)
	}

	if c.Database.Path != "" && c.Database.Path != ":memory:" {
		dir := filepath.Dir(c.Database.Path)
		if err := validateDirectoryWritable(dir); err != nil {
			return fmt.Errorf("%w: database directory %s: %w", ErrInvalidConfig, dir, err)
		}
	}
	if c.Database.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.Database.RefreshSchedule); err != nil {
			return fmt.Errorf("%w: database.refresh_schedule: %w", ErrInvalidConfig, err)
		}
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: logging.level must be one of: debug, info, warn, error", ErrInvalidConfig)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("%w: logging.format must be one of: json, text", ErrInvalidConfig)
	}

	return nil
}

// LoggerConfig converts the logging section to a logger configuration
func (c *Config) LoggerConfig(component string) logger.Config {
	level := c.Logging.Level
	if c.Bot.Dev {
		level = string(logger.LevelDebug)
	}
	return logger.Config{
		Level:     level,
		Format:    c.Logging.Format,
		Output:    c.Logging.Output,
		Component: component,
	}
}
