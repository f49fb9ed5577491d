package main

import (
	"path/filepath"
	"testing"

	"guildwatch/internal/config"
	"guildwatch/internal/logging"
	"guildwatch/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Source: config.Source{BaseURL: "https://game.example/", GuildName: "g"},
		Roster: []string{"Alice"},
		History: config.History{
			CSVPath:     filepath.Join(dir, "history.csv"),
			SnapshotDir: filepath.Join(dir, "snapshots"),
		},
	}
}

func TestNewRunWritersPrintOnly(t *testing.T) {
	w, cleanup, err := newRunWriters(testConfig(t), true, false, logging.New())
	if err != nil {
		t.Fatalf("newRunWriters: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*store.StdoutWriter); !ok {
		t.Fatalf("expected stdout writer in print-only mode, got %T", w)
	}
}

func TestNewRunWritersDefault(t *testing.T) {
	// No sink env vars: CSV store plus snapshot writer behind a MultiWriter.
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	t.Setenv("DATABASE_URL", "")

	w, cleanup, err := newRunWriters(testConfig(t), false, false, logging.New())
	if err != nil {
		t.Fatalf("newRunWriters: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*store.MultiWriter); !ok {
		t.Fatalf("expected multi writer, got %T", w)
	}
}

func TestNewRunWritersNoSnapshot(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	t.Setenv("DATABASE_URL", "")

	cfg := testConfig(t)
	w, cleanup, err := newRunWriters(cfg, false, true, logging.New())
	if err != nil {
		t.Fatalf("newRunWriters: %v", err)
	}
	defer cleanup()
	if w == nil {
		t.Fatal("expected writer")
	}
}
