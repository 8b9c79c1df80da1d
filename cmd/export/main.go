package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"pontual/internal/config"
	"pontual/internal/db"
	"pontual/internal/export"
)

func main() {
	format := flag.String("format", "both", "export format: json, excel or both")
	retention := flag.Int("retention-days", 0, "delete exports older than this many days (0 disables)")
	flag.Parse()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("PONTUAL_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	database, err := db.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	svc := export.New(database, cfg.Export.Path, &logger)
	ctx := context.Background()

	if *format == "json" || *format == "both" {
		path, err := svc.ExportJSON(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("JSON export failed")
		}
		logger.Info().Str("path", path).Msg("JSON export done")
	}
	if *format == "excel" || *format == "both" {
		path, err := svc.ExportExcel(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("Excel export failed")
		}
		logger.Info().Str("path", path).Msg("Excel export done")
	}

	if *retention > 0 {
		svc.CleanupOld(*retention)
	}
}
