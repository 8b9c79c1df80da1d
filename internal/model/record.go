package model

import "time"

// Status is the review state of a time record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// WorkingHours is the derived duration of a record. It is recomputed from the
// entry/exit/break fields on every save and never set directly.
type WorkingHours struct {
	TotalMinutes int    `json:"total_minutes"`
	Hours        int    `json:"hours"`
	Minutes      int    `json:"minutes"`
	Formatted    string `json:"formatted"`
}

// TimeRecord represents a single day's point registration (agendamento).
// Wire names follow the backend table columns (Portuguese, snake_case).
type TimeRecord struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Date         string        `json:"data"`               // YYYY-MM-DD
	Entry1       string        `json:"entrada1,omitempty"` // HH:MM
	Exit1        string        `json:"saida1,omitempty"`
	Entry2       string        `json:"entrada2,omitempty"`
	Exit2        string        `json:"saida2,omitempty"`
	BreakMinutes int           `json:"intervalo_minutos,omitempty"`
	Note         string        `json:"observacao,omitempty"`
	WorkingHours *WorkingHours `json:"working_hours,omitempty"`
	Status       Status        `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// HasSecondShift reports whether both afternoon fields are set.
func (r *TimeRecord) HasSecondShift() bool {
	return r.Entry2 != "" && r.Exit2 != ""
}
