// Package backup copies the sqlite database file to timestamped snapshots
// on a schedule, with retention cleanup.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the snapshot schedule.
type Config struct {
	Enabled       bool
	StoragePath   string
	Interval      time.Duration
	RetentionDays int
}

type Service struct {
	dbPath string
	cfg    Config
	logger *zerolog.Logger
}

func New(dbPath string, cfg Config, logger *zerolog.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = "backups"
	}
	return &Service{dbPath: dbPath, cfg: cfg, logger: logger}
}

// Start runs the snapshot loop until ctx is cancelled. The first snapshot
// is taken immediately.
func (s *Service) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("backup service is disabled")
		return
	}

	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("backup service started")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	if _, err := s.Snapshot(); err != nil {
		s.logger.Error().Err(err).Msg("initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Snapshot(); err != nil {
				s.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			s.CleanupOld()
		}
	}
}

// Snapshot copies the database file into the storage directory and returns
// the snapshot path.
func (s *Service) Snapshot() (string, error) {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("pontual_%s.db", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.cfg.StoragePath, name)

	source, err := os.Open(s.dbPath)
	if err != nil {
		return "", err
	}
	defer source.Close()

	destination, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer destination.Close()

	if _, err = io.Copy(destination, source); err != nil {
		return "", err
	}

	s.logger.Info().Str("path", path).Msg("backup completed")
	return path, nil
}

// CleanupOld deletes snapshots older than RetentionDays.
func (s *Service) CleanupOld() {
	if s.cfg.RetentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("read backup directory for cleanup failed")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("deleting old backup")
			os.Remove(filepath.Join(s.cfg.StoragePath, file.Name()))
		}
	}
}
