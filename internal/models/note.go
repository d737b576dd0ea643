package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoteKind categorises what kind of evaluation a note records.
type NoteKind string

const (
	NoteKindParticipation NoteKind = "participation"
	NoteKindHomework      NoteKind = "homework"
	NoteKindQuiz          NoteKind = "quiz"
	NoteKindMidterm       NoteKind = "midterm"
	NoteKindFinal         NoteKind = "final"
	NoteKindProject       NoteKind = "project"
	NoteKindPresentation  NoteKind = "presentation"
	NoteKindBehavior      NoteKind = "behavior"
	NoteKindAttendance    NoteKind = "attendance"
	NoteKindOther         NoteKind = "other"
)

// NoteStatus captures the approval workflow state of a note.
type NoteStatus string

const (
	NoteStatusDraft             NoteStatus = "draft"
	NoteStatusPending           NoteStatus = "pending"
	NoteStatusApproved          NoteStatus = "approved"
	NoteStatusRejected          NoteStatus = "rejected"
	NoteStatusRevisionRequested NoteStatus = "revision_requested"
)

// Note is one scored evaluation recorded by a professor for a student.
// The coefficient is copied from the program catalog at creation time so
// the weighted score stays reproducible after catalog edits.
type Note struct {
	ID          string `db:"id" json:"id"`
	TenantID    string `db:"tenant_id" json:"tenant_id"`
	StudentID   string `db:"student_id" json:"student_id"`
	ProfessorID string `db:"professor_id" json:"professor_id"`
	ProgramID   string `db:"program_id" json:"program_id"`
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SessionID   string `db:"session_id" json:"session_id"`
	TermID      string `db:"term_id" json:"term_id"`

	Kind          NoteKind        `db:"kind" json:"kind"`
	Score         decimal.Decimal `db:"score" json:"score"`
	MaxScore      decimal.Decimal `db:"max_score" json:"max_score"`
	Coefficient   decimal.Decimal `db:"coefficient" json:"coefficient"`
	WeightedScore decimal.Decimal `db:"weighted_score" json:"weighted_score"`

	Comment     string `db:"comment" json:"comment"`
	PrivateNote string `db:"private_note" json:"private_note,omitempty"`

	Status      NoteStatus `db:"status" json:"status"`
	ReviewedBy  *string    `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes string     `db:"review_notes" json:"review_notes,omitempty"`

	IsDeleted bool       `db:"is_deleted" json:"is_deleted"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	DeletedBy *string    `db:"deleted_by" json:"deleted_by,omitempty"`

	Version        int64     `db:"version" json:"version"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
	LastModifiedBy string    `db:"last_modified_by" json:"last_modified_by"`
}

// ValidKind reports whether the kind is part of the evaluation catalogue.
func ValidKind(kind NoteKind) bool {
	switch kind {
	case NoteKindParticipation, NoteKindHomework, NoteKindQuiz, NoteKindMidterm,
		NoteKindFinal, NoteKindProject, NoteKindPresentation, NoteKindBehavior,
		NoteKindAttendance, NoteKindOther:
		return true
	}
	return false
}
