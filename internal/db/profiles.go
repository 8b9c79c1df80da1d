package db

import (
	"context"
	"database/sql"
	"fmt"

	"pontual/internal/model"
)

// CreateProfile inserts a profile row.
func (db *DB) CreateProfile(ctx context.Context, p *model.Profile) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, name, role, empresa_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, nullable(p.Name), string(p.Role), nullable(p.EmpresaID), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetProfile returns a profile by id, or sql.ErrNoRows.
func (db *DB) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	return db.scanProfile(db.QueryRowContext(ctx, `
		SELECT id, email, name, role, empresa_id, created_at
		FROM profiles WHERE id = ?`, id))
}

// GetProfileByEmail returns a profile by email, or sql.ErrNoRows.
func (db *DB) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return db.scanProfile(db.QueryRowContext(ctx, `
		SELECT id, email, name, role, empresa_id, created_at
		FROM profiles WHERE email = ?`, email))
}

func (db *DB) scanProfile(row *sql.Row) (*model.Profile, error) {
	var p model.Profile
	var name, empresaID sql.NullString
	var role string
	if err := row.Scan(&p.ID, &p.Email, &name, &role, &empresaID, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Name = name.String
	p.EmpresaID = empresaID.String
	p.Role = model.Role(role)
	return &p, nil
}
