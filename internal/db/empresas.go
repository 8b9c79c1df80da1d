package db

import (
	"context"
	"database/sql"
	"fmt"

	"pontual/internal/model"
)

// CreateEmpresa inserts a company row.
func (db *DB) CreateEmpresa(ctx context.Context, e *model.Empresa) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO empresas (id, nome, cnpj, created_at)
		VALUES (?, ?, ?, ?)`,
		e.ID, e.Name, nullable(e.CNPJ), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert empresa: %w", err)
	}
	return nil
}

// ListEmpresas returns all companies ordered by name.
func (db *DB) ListEmpresas(ctx context.Context) ([]model.Empresa, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, nome, cnpj, created_at FROM empresas ORDER BY nome`)
	if err != nil {
		return nil, fmt.Errorf("list empresas: %w", err)
	}
	defer rows.Close()

	var out []model.Empresa
	for rows.Next() {
		var e model.Empresa
		var cnpj sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &cnpj, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan empresa: %w", err)
		}
		e.CNPJ = cnpj.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateProjeto inserts a project row.
func (db *DB) CreateProjeto(ctx context.Context, p *model.Projeto) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO projetos (id, empresa_id, nome, ativo, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.EmpresaID, p.Name, p.Active, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert projeto: %w", err)
	}
	return nil
}

// ListProjetos returns the active projects of a company.
func (db *DB) ListProjetos(ctx context.Context, empresaID string) ([]model.Projeto, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, empresa_id, nome, ativo, created_at
		FROM projetos WHERE empresa_id = ? AND ativo = 1 ORDER BY nome`,
		empresaID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projetos: %w", err)
	}
	defer rows.Close()

	var out []model.Projeto
	for rows.Next() {
		var p model.Projeto
		if err := rows.Scan(&p.ID, &p.EmpresaID, &p.Name, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan projeto: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
