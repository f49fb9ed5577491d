package main

import (
	"time"

	"github.com/spf13/cobra"

	"guildwatch/internal/config"
	"guildwatch/internal/dashboard"
	"guildwatch/internal/presence"
	"guildwatch/internal/store"
)

var (
	dashConfigPath string
	dashSchemaPath string
	dashRefresh    time.Duration
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Run the terminal presence dashboard",
	Long:  "dashboard renders per-player aggregates and the recent observation log in the terminal, re-reading the history store periodically.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(dashConfigPath, dashSchemaPath)
		if err != nil {
			return err
		}
		roster, err := presence.NewRoster(cfg.Roster)
		if err != nil {
			return err
		}
		reader, err := store.NewCSVStore(cfg.History.CSVPath)
		if err != nil {
			return err
		}
		return dashboard.Run(reader, roster, cfg.Source.GuildName, dashRefresh)
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashConfigPath, "config", "config/config.yaml", "Path to configuration YAML")
	dashboardCmd.Flags().StringVar(&dashSchemaPath, "schema", "schemas/config.cue", "Path to CUE schema file")
	dashboardCmd.Flags().DurationVar(&dashRefresh, "refresh", 30*time.Second, "History reload interval (0 disables)")
}
