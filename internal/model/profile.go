package model

import "time"

// Role controls what a profile may do with other users' records.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

// Profile is a row of the profiles table.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	EmpresaID string    `json:"empresa_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Empresa is a company row.
type Empresa struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	CNPJ      string    `json:"cnpj,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Projeto is a project row, owned by a company.
type Projeto struct {
	ID        string    `json:"id"`
	EmpresaID string    `json:"empresa_id"`
	Name      string    `json:"nome"`
	Active    bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
}
