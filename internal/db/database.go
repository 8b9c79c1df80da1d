package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the point-registration service.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// User profiles (auth identities live in the BaaS; this mirrors them)
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			name TEXT,
			role TEXT NOT NULL DEFAULT 'employee',
			empresa_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Companies
		`CREATE TABLE IF NOT EXISTS empresas (
			id TEXT PRIMARY KEY,
			nome TEXT UNIQUE NOT NULL,
			cnpj TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Projects, owned by a company
		`CREATE TABLE IF NOT EXISTS projetos (
			id TEXT PRIMARY KEY,
			empresa_id TEXT NOT NULL,
			nome TEXT NOT NULL,
			ativo BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (empresa_id) REFERENCES empresas(id)
		)`,

		// Point registrations, one row per user per day entry
		`CREATE TABLE IF NOT EXISTS agendamento (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			data TEXT NOT NULL,
			entrada1 TEXT,
			saida1 TEXT,
			entrada2 TEXT,
			saida2 TEXT,
			intervalo_minutos INTEGER NOT NULL DEFAULT 0,
			observacao TEXT,
			total_minutos INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES profiles(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_agendamento_user_data ON agendamento(user_id, data)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// Ping checks the connection with a context.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}
