// Package export dumps the backend tables to timestamped files, for audits
// and offline backups.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"pontual/internal/db"
)

// Service writes table dumps under outDir.
type Service struct {
	db     *db.DB
	outDir string
	logger *zerolog.Logger
}

// New constructs an export service.
func New(database *db.DB, outDir string, logger *zerolog.Logger) *Service {
	return &Service{db: database, outDir: outDir, logger: logger}
}

func (s *Service) ensureDir() error {
	return os.MkdirAll(s.outDir, 0o755)
}

func timestamp() string {
	return time.Now().Format("20060102_150405")
}

// ExportJSON dumps every known table into one JSON file and returns its path.
func (s *Service) ExportJSON(ctx context.Context) (string, error) {
	if err := s.ensureDir(); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	dump := make(map[string][]map[string]any)
	for _, table := range db.ExportTables {
		columns, rows, err := s.db.DumpTable(ctx, table)
		if err != nil {
			return "", err
		}
		records := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			rec := make(map[string]any, len(columns))
			for i, col := range columns {
				rec[col] = row[i]
			}
			records = append(records, rec)
		}
		dump[table] = records
		s.logger.Info().Str("table", table).Int("rows", len(records)).Msg("export: table dumped")
	}

	path := filepath.Join(s.outDir, fmt.Sprintf("export_%s.json", timestamp()))
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("export: JSON written")
	return path, nil
}

// ExportExcel dumps every known table into one workbook, one sheet per
// table with a bold header row, and returns its path.
func (s *Service) ExportExcel(ctx context.Context) (string, error) {
	if err := s.ensureDir(); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	file := excelize.NewFile()
	defer file.Close()

	for i, table := range db.ExportTables {
		sheet := table
		if len(sheet) > 31 { // Excel sheet name limit
			sheet = sheet[:31]
		}
		if i == 0 {
			file.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := file.NewSheet(sheet); err != nil {
				return "", fmt.Errorf("create sheet %s: %w", sheet, err)
			}
		}

		columns, rows, err := s.db.DumpTable(ctx, table)
		if err != nil {
			return "", err
		}

		for col, name := range columns {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return "", err
			}
			if err := file.SetCellValue(sheet, cell, name); err != nil {
				return "", err
			}
		}
		if style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
			startCell, _ := excelize.CoordinatesToCellName(1, 1)
			endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
			_ = file.SetCellStyle(sheet, startCell, endCell, style)
		}

		for rowIdx, row := range rows {
			for col, val := range row {
				cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
				if err != nil {
					return "", err
				}
				if err := file.SetCellValue(sheet, cell, val); err != nil {
					return "", err
				}
			}
		}
	}

	path := filepath.Join(s.outDir, fmt.Sprintf("export_%s.xlsx", timestamp()))
	if err := file.SaveAs(path); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("export: workbook written")
	return path, nil
}

// CleanupOld removes export files older than retentionDays, mirroring the
// backup retention policy.
func (s *Service) CleanupOld(retentionDays int) {
	if retentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(s.outDir)
	if err != nil {
		s.logger.Error().Err(err).Msg("export: read directory for cleanup failed")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("export: deleting old export")
			os.Remove(filepath.Join(s.outDir, file.Name()))
		}
	}
}
