package db

import (
	"context"
	"fmt"
)

// ExportTables is the closed list of tables the export and keep-alive tools
// may touch. Table names are interpolated into SQL, so only names from this
// list are accepted.
var ExportTables = []string{"profiles", "agendamento", "empresas", "projetos"}

func knownTable(name string) bool {
	for _, t := range ExportTables {
		if t == name {
			return true
		}
	}
	return false
}

// CountRows returns the row count of one of the known tables.
func (db *DB) CountRows(ctx context.Context, table string) (int64, error) {
	if !knownTable(table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var count int64
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// DumpTable reads a whole table as column names plus generic rows, for the
// export tool.
func (db *DB) DumpTable(ctx context.Context, table string) ([]string, [][]any, error) {
	if !knownTable(table) {
		return nil, nil, fmt.Errorf("unknown table %q", table)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, nil, fmt.Errorf("dump %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	return columns, out, rows.Err()
}
