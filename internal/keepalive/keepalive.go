// Package keepalive issues periodic count queries so a hosted backend on a
// free tier is never suspended for inactivity.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pontual/internal/metrics"
)

// Defaults keep the backend warm without hammering it.
const (
	DefaultInterval    = 10 * time.Minute
	DefaultMaxLogBytes = 1 << 20 // rotate the text log at 1 MiB
)

// Config is read from the environment.
type Config struct {
	// Interval between keep-alive queries.
	Interval time.Duration
	// MaxQueries stops the pinger after this many queries; 0 means run
	// until cancelled.
	MaxQueries int
	// LogPath is the rotating text log; empty disables file logging.
	LogPath string
	// MaxLogBytes triggers rotation of LogPath.
	MaxLogBytes int64
}

// FromEnv reads KEEP_ALIVE_INTERVAL (Go duration or plain seconds),
// MAX_KEEP_ALIVE_QUERIES and KEEP_ALIVE_LOG_FILE.
func FromEnv() Config {
	cfg := Config{Interval: DefaultInterval, MaxLogBytes: DefaultMaxLogBytes}

	if v := os.Getenv("KEEP_ALIVE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Interval = d
		} else if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Interval = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("MAX_KEEP_ALIVE_QUERIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxQueries = n
		}
	}
	cfg.LogPath = os.Getenv("KEEP_ALIVE_LOG_FILE")
	return cfg
}

// Counter is the query surface the pinger needs; both the local database
// and the remote backend client satisfy it.
type Counter interface {
	CountRows(ctx context.Context, table string) (int64, error)
}

// Service runs the keep-alive loop.
type Service struct {
	counter Counter
	tables  []string
	cfg     Config
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// New constructs the pinger. tables are queried round-robin, one per tick.
func New(counter Counter, tables []string, cfg Config, logger *zerolog.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxLogBytes <= 0 {
		cfg.MaxLogBytes = DefaultMaxLogBytes
	}
	// Never more than one query per second regardless of configuration.
	return &Service{
		counter: counter,
		tables:  tables,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger,
	}
}

// Run pings until ctx is cancelled or MaxQueries is reached. The first
// query fires immediately so a short-lived invocation still pings once.
func (s *Service) Run(ctx context.Context) error {
	if len(s.tables) == 0 {
		return errors.New("keepalive: no tables to query")
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	queries := 0
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		s.ping(ctx, queries)
		queries++

		if s.cfg.MaxQueries > 0 && queries >= s.cfg.MaxQueries {
			s.logger.Info().Int("queries", queries).Msg("keepalive: query budget reached, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) ping(ctx context.Context, n int) {
	table := s.tables[n%len(s.tables)]

	ctxQuery, cancel := context.WithTimeout(ctx, 10*time.Second)
	count, err := s.counter.CountRows(ctxQuery, table)
	cancel()

	if err != nil {
		metrics.IncKeepAlivePing("error")
		s.logger.Error().Err(err).Str("table", table).Msg("keepalive: query failed")
		s.appendLog(fmt.Sprintf("%s ERROR table=%s err=%v", time.Now().Format(time.RFC3339), table, err))
		return
	}

	metrics.IncKeepAlivePing("ok")
	s.logger.Info().Str("table", table).Int64("count", count).Msg("keepalive: ping ok")
	s.appendLog(fmt.Sprintf("%s OK table=%s count=%d", time.Now().Format(time.RFC3339), table, count))
}

// appendLog writes one line to the text log, rotating it once it exceeds
// MaxLogBytes. Log failures are not fatal to the pinger.
func (s *Service) appendLog(line string) {
	if s.cfg.LogPath == "" {
		return
	}

	if info, err := os.Stat(s.cfg.LogPath); err == nil && info.Size() >= s.cfg.MaxLogBytes {
		rotated := s.cfg.LogPath + ".1"
		os.Remove(rotated)
		if err := os.Rename(s.cfg.LogPath, rotated); err != nil {
			s.logger.Warn().Err(err).Msg("keepalive: log rotation failed")
		}
	}

	f, err := os.OpenFile(s.cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Warn().Err(err).Msg("keepalive: open log failed")
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line + "\n")
}
