package main

import (
	"log/slog"

	"github.com/joho/godotenv"

	"guildwatch/internal/logging"
)

func main() {
	// Secrets and endpoints may live in a local .env; absence is fine.
	_ = godotenv.Load()
	slog.SetDefault(logging.New())
	Execute()
}
