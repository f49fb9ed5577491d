package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"guildwatch/internal/config"
	"guildwatch/internal/presence"
)

var (
	reportConfigPath string
	reportSchemaPath string
	reportJSON       bool
	reportWindow     time.Duration
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print per-player presence aggregates",
	Long:  "report scans the full history store and prints online/offline counts, last-seen times, and ratio per roster entry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(reportConfigPath, reportSchemaPath)
		if err != nil {
			return err
		}
		roster, err := presence.NewRoster(cfg.Roster)
		if err != nil {
			return err
		}

		rows, err := readHistory(cfg)
		if err != nil {
			return err
		}
		if reportWindow > 0 {
			rows = presence.FilterWindow(rows, time.Now().Add(-reportWindow), time.Time{})
		}
		sums := presence.Summarize(rows, roster)

		if reportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sums)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PLAYER\tONLINE\tOFFLINE\tRATIO\tLAST SEEN ONLINE\tLAST OBSERVED")
		for _, s := range sums {
			lastSeen := "never"
			if !s.LastSeenOnline.IsZero() {
				lastSeen = s.LastSeenOnline.Format("2006-01-02 15:04")
			}
			lastObs := "never"
			if !s.LastObserved.IsZero() {
				lastObs = s.LastObserved.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%.0f%%\t%s\t%s\n",
				s.Player, s.OnlineCount, s.OfflineCount, s.OnlineRatio*100, lastSeen, lastObs)
		}
		return w.Flush()
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportConfigPath, "config", "config/config.yaml", "Path to configuration YAML")
	reportCmd.Flags().StringVar(&reportSchemaPath, "schema", "schemas/config.cue", "Path to CUE schema file")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Emit JSON instead of a table")
	reportCmd.Flags().DurationVar(&reportWindow, "window", 0, "Only aggregate observations newer than this (e.g. 168h)")
}
