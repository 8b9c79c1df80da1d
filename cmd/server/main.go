package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pontual/internal/api"
	"pontual/internal/auth"
	"pontual/internal/backend"
	"pontual/internal/backup"
	"pontual/internal/cache"
	"pontual/internal/config"
	"pontual/internal/db"
	"pontual/internal/metrics"
	"pontual/internal/repository"
)

func main() {
	// Initialize logger
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

	var rdb *redis.Client
	var store cache.Store
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		store = cache.NewRedisStore(rdb, cfg.Cache.Prefix+"*", 24*time.Hour)
	} else if cfg.Cache.MaxEntries > 0 || cfg.Cache.MaxBytes > 0 {
		store = cache.NewBoundedMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.MaxBytes)
	} else {
		store = cache.NewMemoryStore()
	}

	secureCache := cache.New(store, cfg.Cache.Prefix, cfg.CacheTTL(), &logger)
	authSvc := auth.New(database, secureCache, &logger)

	var recordStore repository.RecordStore = database
	var status func(ctx context.Context) string
	if cfg.Backend.Enabled {
		client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey)
		recordStore = client
		status = client.Status
		logger.Info().Str("base_url", cfg.Backend.BaseURL).Msg("using remote backend")
	}

	repo := repository.New(recordStore, secureCache, authSvc, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go secureCache.Sweep(ctx, cfg.SweepInterval())

	backupSvc := backup.New(cfg.Database.Path, backup.Config{
		Enabled:       cfg.Backup.Enabled,
		StoragePath:   cfg.Backup.StoragePath,
		Interval:      cfg.BackupInterval(),
		RetentionDays: cfg.Backup.RetentionDays,
	}, &logger)
	go backupSvc.Start(ctx)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	srv := api.NewHTTPServer(repo, authSvc, secureCache, status, cfg.Server.APIKey, &logger)
	logger.Info().Msg("pontual server started")
	if err := srv.Start(ctx, cfg.Server.APIPort); err != nil {
		logger.Fatal().Err(err).Msg("api server error")
	}
}

func startHealthServer(ctx context.Context, port int, database *db.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.Ping(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
