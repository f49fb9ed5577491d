// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source describes the game status endpoint being polled.
type Source struct {
	BaseURL        string `yaml:"base_url"`
	GuildName      string `yaml:"guild_name"`
	Format         string `yaml:"format"` // "html" (default) or "json"
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// History describes where snapshots are persisted.
type History struct {
	CSVPath     string `yaml:"csv_path"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

// Notify holds optional announcement settings. The Discord bot token itself
// comes from the DISCORD_BOT_TOKEN environment variable, never from the file.
type Notify struct {
	DiscordChannelID string `yaml:"discord_channel_id"`
}

// Config is the root configuration for one monitored guild.
type Config struct {
	Source  Source   `yaml:"source"`
	Roster  []string `yaml:"roster"`
	History History  `yaml:"history"`
	Notify  Notify   `yaml:"notify"`
}

// Timeout returns the bounded fetch timeout for the status source.
func (s Source) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Load validates the YAML config against the CUE schema, unmarshals it, and
// applies environment overrides (GUILD_URL, GUILD_NAME).
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if env := os.Getenv("GUILD_URL"); env != "" {
		cfg.Source.BaseURL = env
	}
	if env := os.Getenv("GUILD_NAME"); env != "" {
		cfg.Source.GuildName = env
	}
	if cfg.Source.UserAgent == "" {
		cfg.Source.UserAgent = "Mozilla/5.0 (compatible; guildwatch/1.0)"
	}
	if cfg.Source.Format == "" {
		cfg.Source.Format = "html"
	}
	if cfg.Source.BaseURL == "" {
		return nil, fmt.Errorf("source.base_url is required")
	}
	if cfg.History.CSVPath == "" {
		return nil, fmt.Errorf("history.csv_path is required")
	}
	if len(cfg.Roster) == 0 {
		return nil, fmt.Errorf("roster must not be empty")
	}

	return &cfg, nil
}
