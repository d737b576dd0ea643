package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubjectWeighting is the program catalog entry giving a subject its
// weight within a program for a session/term. Owned by the catalog
// service; this core only reads it, once, at note creation.
type SubjectWeighting struct {
	ID           string          `db:"id" json:"id"`
	TenantID     string          `db:"tenant_id" json:"tenant_id"`
	ProgramID    string          `db:"program_id" json:"program_id"`
	SubjectID    string          `db:"subject_id" json:"subject_id"`
	SessionID    string          `db:"session_id" json:"session_id"`
	TermID       string          `db:"term_id" json:"term_id"`
	Coefficient  decimal.Decimal `db:"coefficient" json:"coefficient"`
	Credits      int             `db:"credits" json:"credits"`
	Mandatory    bool            `db:"mandatory" json:"mandatory"`
	HoursPerWeek int             `db:"hours_per_week" json:"hours_per_week"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
