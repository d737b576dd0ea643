package models

import "time"

// NoteStatusChangedEvent is emitted after every committed workflow
// transition. Delivery is fire-and-forget; the notification dispatcher
// owns retries and fan-out.
type NoteStatusChangedEvent struct {
	NoteID    string     `json:"note_id"`
	TenantID  string     `json:"tenant_id"`
	OldStatus NoteStatus `json:"old_status"`
	NewStatus NoteStatus `json:"new_status"`
	ChangedBy string     `json:"changed_by"`
	ChangedAt time.Time  `json:"changed_at"`
}
