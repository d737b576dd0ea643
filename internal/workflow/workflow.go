// Package workflow holds the approval state machine for notes. The
// transition table below is the single source of truth: any
// (state, action) pair not listed is rejected.
package workflow

import (
	"fmt"

	"github.com/noah-isme/notes-approval-api/internal/models"
	appErrors "github.com/noah-isme/notes-approval-api/pkg/errors"
)

// Action is a workflow verb applied to a note.
type Action string

const (
	ActionCreate          Action = "create"
	ActionUpdate          Action = "update"
	ActionSubmit          Action = "submit"
	ActionResubmit        Action = "resubmit"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionRequestRevision Action = "request_revision"
	ActionSoftDelete      Action = "soft_delete"
	ActionHardDelete      Action = "hard_delete"
	ActionRead            Action = "read"
)

type transitionKey struct {
	from   models.NoteStatus
	action Action
}

var transitions = map[transitionKey]models.NoteStatus{
	{models.NoteStatusDraft, ActionSubmit}:               models.NoteStatusPending,
	{models.NoteStatusPending, ActionApprove}:            models.NoteStatusApproved,
	{models.NoteStatusPending, ActionReject}:             models.NoteStatusRejected,
	{models.NoteStatusPending, ActionRequestRevision}:    models.NoteStatusRevisionRequested,
	{models.NoteStatusRevisionRequested, ActionResubmit}: models.NoteStatusPending,
	{models.NoteStatusApproved, ActionSoftDelete}:        models.NoteStatusApproved,
}

// Next returns the status a note moves to when action is applied.
func Next(from models.NoteStatus, action Action) (models.NoteStatus, error) {
	to, ok := transitions[transitionKey{from, action}]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("cannot %s a %s note", action, from))
	}
	return to, nil
}

// Mutable reports whether content fields may still change. Approval
// freezes a note; rejection ends the author's ability to edit it.
func Mutable(status models.NoteStatus) bool {
	switch status {
	case models.NoteStatusDraft, models.NoteStatusPending, models.NoteStatusRevisionRequested:
		return true
	}
	return false
}

// CheckUpdate validates that an edit is legal in the current state.
func CheckUpdate(note *models.Note) error {
	if note.IsDeleted {
		return appErrors.Clone(appErrors.ErrIllegalTransition, "cannot update a deleted note")
	}
	if note.Status == models.NoteStatusApproved {
		return appErrors.Clone(appErrors.ErrImmutableRecord, "approved notes cannot be edited")
	}
	if !Mutable(note.Status) {
		return appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("cannot update a %s note", note.Status))
	}
	return nil
}

// CheckHardDelete validates permanent removal. Once approved a note is
// never destroyed, only hidden via the soft-delete flag.
func CheckHardDelete(note *models.Note) error {
	if note.Status == models.NoteStatusApproved {
		return appErrors.Clone(appErrors.ErrImmutableRecord, "approved notes can only be soft-deleted")
	}
	return nil
}

// HistoryAction maps a workflow action to the audit action it records.
func HistoryAction(action Action) models.HistoryAction {
	switch action {
	case ActionCreate:
		return models.HistoryActionCreated
	case ActionUpdate:
		return models.HistoryActionUpdated
	case ActionSubmit, ActionResubmit:
		return models.HistoryActionSubmitted
	case ActionApprove:
		return models.HistoryActionApproved
	case ActionReject:
		return models.HistoryActionRejected
	case ActionRequestRevision:
		return models.HistoryActionRevisionRequested
	case ActionSoftDelete:
		return models.HistoryActionSoftDeleted
	}
	return models.HistoryAction(action)
}
