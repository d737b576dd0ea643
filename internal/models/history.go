package models

import "time"

// HistoryAction enumerates the state-changing actions recorded in a
// note's audit trail.
type HistoryAction string

const (
	HistoryActionCreated           HistoryAction = "created"
	HistoryActionUpdated           HistoryAction = "updated"
	HistoryActionSubmitted         HistoryAction = "submitted"
	HistoryActionApproved          HistoryAction = "approved"
	HistoryActionRejected          HistoryAction = "rejected"
	HistoryActionRevisionRequested HistoryAction = "revision_requested"
	HistoryActionSoftDeleted       HistoryAction = "soft_deleted"
)

// NoteHistoryEntry is one immutable audit record for a note. Entries are
// append-only; the ordered sequence reconstructs every state the note
// has held.
type NoteHistoryEntry struct {
	ID        string        `db:"id" json:"id"`
	NoteID    string        `db:"note_id" json:"note_id"`
	Seq       int64         `db:"seq" json:"seq"`
	Action    HistoryAction `db:"action" json:"action"`
	ChangedBy string        `db:"changed_by" json:"changed_by"`
	ChangedAt time.Time     `db:"changed_at" json:"changed_at"`
	OldValues []byte        `db:"old_values" json:"old_values,omitempty"`
	NewValues []byte        `db:"new_values" json:"new_values,omitempty"`
	Summary   string        `db:"summary" json:"summary"`
}
