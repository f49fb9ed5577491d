package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"guildwatch/internal/config"
	"guildwatch/internal/store"
)

// newRunWriters sets up the snapshot writers for a collection run: the CSV
// history store first, then the per-run snapshot file and any sinks enabled
// via environment (GREPTIMEDB_ENDPOINT, DATABASE_URL). It returns the fanned
// writer and a cleanup function to close held resources.
func newRunWriters(cfg *config.Config, printOnly, noSnapshot bool, log *slog.Logger) (store.SnapshotWriter, func(), error) {
	if printOnly {
		return &store.StdoutWriter{}, func() {}, nil
	}

	csvStore, err := store.NewCSVStore(cfg.History.CSVPath)
	if err != nil {
		return nil, nil, err
	}
	writers := []store.SnapshotWriter{csvStore}

	if !noSnapshot && cfg.History.SnapshotDir != "" {
		sw, err := store.NewSnapshotFileWriter(cfg.History.SnapshotDir, cfg.Source.GuildName)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, sw)
	}

	sinks, cleanup, err := sinkWriters(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	writers = append(writers, sinks...)

	mw := store.NewMultiWriter(writers...)
	return mw, cleanup, nil
}

// sinkWriters builds the optional secondary sinks from the environment.
func sinkWriters(cfg *config.Config, log *slog.Logger) ([]store.SnapshotWriter, func(), error) {
	var (
		writers []store.SnapshotWriter
		closers []func()
	)
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		gw, err := store.NewGreptimeDBWriter(endpoint, "public", cfg.Source.GuildName, log)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("greptime sink: %w", err)
		}
		writers = append(writers, gw)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		pg, err := store.OpenPostgres(context.Background(), url, cfg.Source.GuildName)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres sink: %w", err)
		}
		writers = append(writers, pg)
		closers = append(closers, func() { _ = pg.Close() })
	}
	return writers, cleanup, nil
}
