package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"guildwatch/internal/config"
	"guildwatch/internal/logging"
	"guildwatch/internal/store"
)

var (
	replayConfigPath string
	replaySchemaPath string
	replayInput      string
	replaySpeed      float64
	replayPrintOnly  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay the history file into configured sinks",
	Long:  "replay streams recorded runs into GreptimeDB/Postgres (or STDOUT), e.g. to backfill a sink enabled after collection started.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(replayConfigPath, replaySchemaPath)
		if err != nil {
			return err
		}
		input := replayInput
		if input == "" {
			input = cfg.History.CSVPath
		}

		var writer store.SnapshotWriter
		if replayPrintOnly {
			writer = &store.StdoutWriter{}
		} else {
			sinks, cleanup, err := sinkWriters(cfg, logging.New())
			if err != nil {
				return err
			}
			defer cleanup()
			if len(sinks) == 0 {
				return fmt.Errorf("no sink configured; set GREPTIMEDB_ENDPOINT or DATABASE_URL, or use --print-only")
			}
			writer = store.NewMultiWriter(sinks...)
		}

		return store.ReplayFile(input, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayConfigPath, "config", "config/config.yaml", "Path to configuration YAML")
	replayCmd.Flags().StringVar(&replaySchemaPath, "schema", "schemas/config.cue", "Path to CUE schema file")
	replayCmd.Flags().StringVar(&replayInput, "input", "", "History CSV to replay (defaults to the configured store)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 0, "Playback speed multiplier; 0 replays without delay")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing sinks")
}
