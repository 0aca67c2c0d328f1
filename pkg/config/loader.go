package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/oliviabot/oliviabot/pkg/logger"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "OLIVIABOT_"

// Load loads configuration from a file path. Environment overrides are
// applied after the file, and the result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		for _, p := range ConfigPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		logger.Warn("no configuration file found, using defaults and environment",
			"checked", ConfigPaths(),
		)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides overwrites fields whose OLIVIABOT_* variable is set
func applyEnvOverrides(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save saves the configuration to a file
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgCopy := *cfg
	cfgCopy.Database.Path = filepath.ToSlash(cfg.Database.Path)
	cfgCopy.Repo.Path = filepath.ToSlash(cfg.Repo.Path)

	data, err := toml.Marshal(&cfgCopy)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	// the file holds the bot token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateExampleConfig writes an example configuration file
func GenerateExampleConfig(path string) error {
	cfg := DefaultConfig()
	cfg.Bot.Token = "change-me"
	cfg.Bot.OwnerIDs = []string{"000000000000000000"}
	cfg.Diagnostics.WebhookURL = "https://discord.com/api/webhooks/000/change-me"
	cfg.Database.NeofetchCSV = "data/neofetch.csv"
	cfg.Database.RefreshSchedule = "@daily"
	cfg.Metrics.Listen = "127.0.0.1:9464"

	return Save(cfg, path)
}
