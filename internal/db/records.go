package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pontual/internal/model"
	"pontual/internal/timeutil"
)

const recordColumns = `id, user_id, data, entrada1, saida1, entrada2, saida2,
	intervalo_minutos, observacao, total_minutos, status, created_at, updated_at`

// CreateRecord inserts a fully composed time record.
func (db *DB) CreateRecord(ctx context.Context, r *model.TimeRecord) error {
	total := 0
	if r.WorkingHours != nil {
		total = r.WorkingHours.TotalMinutes
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO agendamento (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Date, nullable(r.Entry1), nullable(r.Exit1),
		nullable(r.Entry2), nullable(r.Exit2), r.BreakMinutes, nullable(r.Note),
		total, string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// ListRecordsByUser returns all records of one user, newest date first.
func (db *DB) ListRecordsByUser(ctx context.Context, userID string) ([]model.TimeRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM agendamento
		WHERE user_id = ?
		ORDER BY data DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListRecordsByRange returns the user's records with start <= data <= end.
// Dates are fixed-format YYYY-MM-DD, so string comparison is chronological.
func (db *DB) ListRecordsByRange(ctx context.Context, userID, start, end string) ([]model.TimeRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM agendamento
		WHERE user_id = ? AND data >= ? AND data <= ?
		ORDER BY data DESC`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list records by range: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetRecord returns one record by id, or sql.ErrNoRows.
func (db *DB) GetRecord(ctx context.Context, id string) (*model.TimeRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM agendamento
		WHERE id = ?`,
		id,
	)
	r, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteRecord removes a record. Deleting a missing id is not an error.
func (db *DB) DeleteRecord(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM agendamento WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// UpdateRecordStatus moves a record to a new status and refreshes updated_at.
func (db *DB) UpdateRecordStatus(ctx context.Context, id string, status model.Status, updatedAt time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE agendamento SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), updatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("update record status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.TimeRecord, error) {
	var r model.TimeRecord
	var entrada1, saida1, entrada2, saida2, observacao sql.NullString
	var total int
	var status string

	err := row.Scan(
		&r.ID, &r.UserID, &r.Date, &entrada1, &saida1, &entrada2, &saida2,
		&r.BreakMinutes, &observacao, &total, &status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Entry1 = entrada1.String
	r.Exit1 = saida1.String
	r.Entry2 = entrada2.String
	r.Exit2 = saida2.String
	r.Note = observacao.String
	r.Status = model.Status(status)

	wh := timeutil.FormatMinutes(total)
	r.WorkingHours = &wh
	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]model.TimeRecord, error) {
	var records []model.TimeRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
