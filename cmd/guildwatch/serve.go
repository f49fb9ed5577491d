package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"guildwatch/internal/config"
	"guildwatch/internal/presence"
	"guildwatch/internal/store"
	"guildwatch/internal/web"
)

var (
	serveConfigPath string
	serveSchemaPath string
	serveAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web presence view",
	Long:  "serve exposes a read-only HTML summary page plus /api/summary and /api/history JSON endpoints over the history store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveConfigPath, serveSchemaPath)
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

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := web.NewServer(reader, roster, cfg.Source.GuildName)
		slog.Info("web view listening", "addr", serveAddr)
		if err := srv.Start(ctx, serveAddr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config/config.yaml", "Path to configuration YAML")
	serveCmd.Flags().StringVar(&serveSchemaPath, "schema", "schemas/config.cue", "Path to CUE schema file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}
