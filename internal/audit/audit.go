// Package audit builds the immutable history entries that make up a
// note's audit trail. The orchestrator computes the mutation first and
// then asks this package for the matching entry, so the trail is
// written explicitly on the same code path as the change.
package audit

import (
	"encoding/json"
	"fmt"

	"github.com/noah-isme/notes-approval-api/internal/models"
	appErrors "github.com/noah-isme/notes-approval-api/pkg/errors"
)

// Snapshot is the audited subset of a note. Stored as JSON in the
// old_values/new_values columns; decimals are serialised as strings so
// snapshots compare byte-stable across reads.
type Snapshot struct {
	Kind          models.NoteKind   `json:"kind"`
	Score         string            `json:"score"`
	MaxScore      string            `json:"max_score"`
	Coefficient   string            `json:"coefficient"`
	WeightedScore string            `json:"weighted_score"`
	Status        models.NoteStatus `json:"status"`
	Comment       string            `json:"comment"`
	PrivateNote   string            `json:"private_note"`
	ReviewNotes   string            `json:"review_notes"`
	IsDeleted     bool              `json:"is_deleted"`
}

// Capture records the audited fields of a note.
func Capture(note *models.Note) Snapshot {
	return Snapshot{
		Kind:          note.Kind,
		Score:         note.Score.String(),
		MaxScore:      note.MaxScore.String(),
		Coefficient:   note.Coefficient.String(),
		WeightedScore: note.WeightedScore.String(),
		Status:        note.Status,
		Comment:       note.Comment,
		PrivateNote:   note.PrivateNote,
		ReviewNotes:   note.ReviewNotes,
		IsDeleted:     note.IsDeleted,
	}
}

// Entry builds one history record. prev may be nil for creation.
func Entry(noteID string, action models.HistoryAction, actorID string, prev *Snapshot, curr Snapshot, summary string) (*models.NoteHistoryEntry, error) {
	newValues, err := json.Marshal(curr)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode history snapshot")
	}
	entry := &models.NoteHistoryEntry{
		NoteID:    noteID,
		Action:    action,
		ChangedBy: actorID,
		NewValues: newValues,
		Summary:   summary,
	}
	if prev != nil {
		oldValues, err := json.Marshal(*prev)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode history snapshot")
		}
		entry.OldValues = oldValues
	}
	return entry, nil
}

// Summarize produces the human-readable line stored with an update
// entry, naming what actually changed.
func Summarize(prev, curr Snapshot) string {
	switch {
	case prev.Score != curr.Score:
		return fmt.Sprintf("score changed from %s to %s", prev.Score, curr.Score)
	case prev.MaxScore != curr.MaxScore:
		return fmt.Sprintf("max score changed from %s to %s", prev.MaxScore, curr.MaxScore)
	case prev.Coefficient != curr.Coefficient:
		return fmt.Sprintf("coefficient changed from %s to %s", prev.Coefficient, curr.Coefficient)
	case prev.Comment != curr.Comment:
		return "comment updated"
	case prev.PrivateNote != curr.PrivateNote:
		return "private note updated"
	case prev.Kind != curr.Kind:
		return fmt.Sprintf("kind changed from %s to %s", prev.Kind, curr.Kind)
	}
	return "note updated"
}

// TransitionSummary describes a status change.
func TransitionSummary(prev, curr models.NoteStatus) string {
	return fmt.Sprintf("status changed from %s to %s", prev, curr)
}
