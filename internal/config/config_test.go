package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testSchema = `
source: {
	base_url:         string & !=""
	guild_name?:      string
	format?:          "html" | "json"
	user_agent?:      string
	timeout_seconds?: int & >0 & <=300
}
roster: [...string] & [_, ...]
history: {
	csv_path:     string & !=""
	snapshot_dir?: string
}
notify?: {
	discord_channel_id?: string
}
`

func writeFiles(t *testing.T, yaml string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	schemaPath := filepath.Join(dir, "config.cue")
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(schemaPath, []byte(testSchema), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return cfgPath, schemaPath
}

func TestLoadConfig_Valid(t *testing.T) {
	yaml := `
source:
  base_url: "https://game.example/"
  guild_name: "True Knife"
roster:
  - Alice
  - Bob
history:
  csv_path: data/history.csv
  snapshot_dir: data/snapshots
`
	cfgPath, schemaPath := writeFiles(t, yaml)
	cfg, err := Load(cfgPath, schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Source.GuildName != "True Knife" {
		t.Errorf("unexpected guild name: %q", cfg.Source.GuildName)
	}
	if len(cfg.Roster) != 2 || cfg.Roster[0] != "Alice" {
		t.Errorf("unexpected roster: %v", cfg.Roster)
	}
	if cfg.Source.Format != "html" {
		t.Errorf("expected html default format, got %q", cfg.Source.Format)
	}
	if cfg.Source.Timeout().Seconds() != 30 {
		t.Errorf("expected 30s default timeout, got %v", cfg.Source.Timeout())
	}
	if cfg.Source.UserAgent == "" {
		t.Error("expected default user agent")
	}
}

func TestLoadConfig_EmptyRoster(t *testing.T) {
	yaml := `
source:
  base_url: "https://game.example/"
roster: []
history:
  csv_path: data/history.csv
`
	cfgPath, schemaPath := writeFiles(t, yaml)
	if _, err := Load(cfgPath, schemaPath); err == nil {
		t.Fatal("expected error for empty roster")
	}
}

func TestLoadConfig_BadFormat(t *testing.T) {
	yaml := `
source:
  base_url: "https://game.example/"
  format: xml
roster:
  - Alice
history:
  csv_path: data/history.csv
`
	cfgPath, schemaPath := writeFiles(t, yaml)
	if _, err := Load(cfgPath, schemaPath); err == nil {
		t.Fatal("expected schema validation error for bad format")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	yaml := `
source:
  base_url: "https://game.example/"
roster:
  - Alice
history:
  csv_path: data/history.csv
`
	cfgPath, schemaPath := writeFiles(t, yaml)
	t.Setenv("GUILD_URL", "https://other.example/")
	t.Setenv("GUILD_NAME", "Night Watch")
	cfg, err := Load(cfgPath, schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Source.BaseURL != "https://other.example/" {
		t.Errorf("env override not applied: %q", cfg.Source.BaseURL)
	}
	if cfg.Source.GuildName != "Night Watch" {
		t.Errorf("guild override not applied: %q", cfg.Source.GuildName)
	}
}
