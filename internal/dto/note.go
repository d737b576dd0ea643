package dto

import "github.com/shopspring/decimal"

// CreateNoteRequest is the payload for recording a new evaluation. The
// coefficient is not part of it: it is resolved from the program
// catalog and snapshotted onto the note.
type CreateNoteRequest struct {
	StudentID   string          `json:"student_id" validate:"required"`
	ProgramID   string          `json:"program_id" validate:"required"`
	SubjectID   string          `json:"subject_id" validate:"required"`
	SessionID   string          `json:"session_id" validate:"required"`
	TermID      string          `json:"term_id" validate:"required"`
	Kind        string          `json:"kind" validate:"required"`
	Score       decimal.Decimal `json:"score"`
	MaxScore    decimal.Decimal `json:"max_score"`
	Comment     string          `json:"comment"`
	PrivateNote string          `json:"private_note"`
}

// UpdateNoteRequest carries a partial edit plus the version the caller
// read the note at. Nil pointers leave fields untouched.
type UpdateNoteRequest struct {
	Version     int64            `json:"version" validate:"required,min=1"`
	Kind        *string          `json:"kind,omitempty"`
	Score       *decimal.Decimal `json:"score,omitempty"`
	MaxScore    *decimal.Decimal `json:"max_score,omitempty"`
	Comment     *string          `json:"comment,omitempty"`
	PrivateNote *string          `json:"private_note,omitempty"`
}

// TransitionRequest is the body for submit and resubmit.
type TransitionRequest struct {
	Version int64 `json:"version" validate:"required,min=1"`
}

// ReviewNoteRequest is the body for the direction review decision.
type ReviewNoteRequest struct {
	Version int64  `json:"version" validate:"required,min=1"`
	Action  string `json:"action" validate:"required,oneof=approve reject request_revision"`
	Notes   string `json:"notes"`
}
