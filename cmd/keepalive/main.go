package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"pontual/internal/backend"
	"pontual/internal/config"
	"pontual/internal/db"
	"pontual/internal/keepalive"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("PONTUAL_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	var counter keepalive.Counter
	if cfg.Backend.Enabled {
		counter = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey)
		logger.Info().Str("base_url", cfg.Backend.BaseURL).Msg("pinging remote backend")
	} else {
		database, err := db.NewDB(cfg.Database.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("open db error")
		}
		defer database.Close()
		counter = database
		logger.Info().Str("path", cfg.Database.Path).Msg("pinging local database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := keepalive.New(counter, db.ExportTables, keepalive.FromEnv(), &logger)
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("keepalive error")
	}
	logger.Info().Msg("keepalive stopped")
}
