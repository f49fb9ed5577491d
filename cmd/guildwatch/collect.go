package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"guildwatch/internal/collect"
	"guildwatch/internal/config"
	"guildwatch/internal/logging"
	"guildwatch/internal/notify"
	"guildwatch/internal/presence"
	"guildwatch/internal/source"
	"guildwatch/internal/store"
)

var (
	collectConfigPath string
	collectSchemaPath string
	collectPrintOnly  bool
	collectNoSnapshot bool
	collectNoProfiles bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Record one presence snapshot for the configured roster",
	Long: "collect fetches the current online-player list once, marks every roster entry " +
		"online or offline, and appends the run to the history store. Intended to be " +
		"invoked by an external scheduler; exits non-zero on fetch or write failure.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(collectConfigPath, collectSchemaPath)
		if err != nil {
			return err
		}
		roster, err := presence.NewRoster(cfg.Roster)
		if err != nil {
			return err
		}

		log := logging.New()
		ctx := logging.NewContext(context.Background(), log)

		src := source.New(cfg.Source.BaseURL, cfg.Source.GuildName,
			source.WithTimeout(cfg.Source.Timeout()),
			source.WithUserAgent(cfg.Source.UserAgent),
			source.WithFormat(cfg.Source.Format),
		)

		writer, cleanup, err := newRunWriters(cfg, collectPrintOnly, collectNoSnapshot, log)
		if err != nil {
			return err
		}
		defer cleanup()

		notifier := newNotifier(cfg, log)

		// The previous run is read before appending so transitions compare
		// against the state the last scheduler invocation recorded.
		var prev []presence.SnapshotRow
		if notifier != nil && !collectPrintOnly {
			if history, err := readHistory(cfg); err == nil {
				prev = presence.LatestRun(history)
			} else {
				log.Warn("previous run unavailable", "error", err)
			}
		}

		collector := collect.New(roster, src, writer, !collectNoProfiles)
		rows, err := collector.Run(ctx)
		if err != nil {
			return err
		}

		if notifier != nil && !collectPrintOnly {
			notifier.Announce(ctx, notify.Transitions(prev, rows))
		}
		return nil
	},
}

func newNotifier(cfg *config.Config, log *slog.Logger) *notify.DiscordNotifier {
	token := os.Getenv("DISCORD_BOT_TOKEN")
	if token == "" || cfg.Notify.DiscordChannelID == "" {
		return nil
	}
	n, err := notify.NewDiscordNotifier(token, cfg.Notify.DiscordChannelID)
	if err != nil {
		log.Warn("discord notifier disabled", "error", err)
		return nil
	}
	return n
}

func readHistory(cfg *config.Config) ([]presence.SnapshotRow, error) {
	s, err := store.NewCSVStore(cfg.History.CSVPath)
	if err != nil {
		return nil, err
	}
	return s.ReadAll()
}

func init() {
	collectCmd.Flags().StringVar(&collectConfigPath, "config", "config/config.yaml", "Path to configuration YAML")
	collectCmd.Flags().StringVar(&collectSchemaPath, "schema", "schemas/config.cue", "Path to CUE schema file")
	collectCmd.Flags().BoolVar(&collectPrintOnly, "print-only", false, "Print snapshot rows to STDOUT instead of writing the store")
	collectCmd.Flags().BoolVar(&collectNoSnapshot, "no-snapshot", false, "Skip the per-run JSON snapshot file")
	collectCmd.Flags().BoolVar(&collectNoProfiles, "no-profiles", false, "Skip per-player profile pages (no last-login data)")
}
