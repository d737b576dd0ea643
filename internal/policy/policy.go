// Package policy decides whether an actor may perform an action on a
// note. It owns the role capabilities; state legality lives in the
// workflow package.
package policy

import (
	"fmt"

	"github.com/noah-isme/notes-approval-api/internal/models"
	"github.com/noah-isme/notes-approval-api/internal/workflow"
	appErrors "github.com/noah-isme/notes-approval-api/pkg/errors"
)

// CanCreate reports whether the actor may create notes at all.
// Professors author notes; direction may record them too.
func CanCreate(actor *models.ActorClaims) error {
	switch actor.Role {
	case models.RoleProfessor, models.RoleDirection, models.RoleSuperAdmin:
		return nil
	}
	return appErrors.Clone(appErrors.ErrPermissionDenied, "only professors and direction may create notes")
}

// Decide gates action against the actor's capabilities on this note.
// Tenant scoping happens at the repository; superusers skip it there
// but get no extra capability here.
func Decide(actor *models.ActorClaims, note *models.Note, action workflow.Action) error {
	isAuthor := note.ProfessorID == actor.ActorID
	isAuthority := actor.Role == models.RoleDirection || actor.Role == models.RoleSuperAdmin

	switch action {
	case workflow.ActionSubmit, workflow.ActionResubmit:
		if !isAuthor {
			return appErrors.Clone(appErrors.ErrPermissionDenied, "only the author may submit this note")
		}
		return nil

	case workflow.ActionUpdate:
		if isAuthor || isAuthority {
			return nil
		}
		return appErrors.Clone(appErrors.ErrPermissionDenied, "only the author or direction may edit this note")

	case workflow.ActionApprove, workflow.ActionReject, workflow.ActionRequestRevision:
		if !isAuthority {
			return appErrors.Clone(appErrors.ErrPermissionDenied, "only direction may review notes")
		}
		if isAuthor {
			return appErrors.Clone(appErrors.ErrPermissionDenied, "reviewers may not review their own notes")
		}
		return nil

	case workflow.ActionSoftDelete:
		if !isAuthority {
			return appErrors.Clone(appErrors.ErrPermissionDenied, "only direction may soft-delete an approved note")
		}
		return nil

	case workflow.ActionHardDelete:
		if isAuthor || isAuthority {
			return nil
		}
		return appErrors.Clone(appErrors.ErrPermissionDenied, "only the author or direction may delete this note")

	case workflow.ActionRead:
		if isAuthor || isAuthority {
			return nil
		}
		if actor.Role == models.RoleStudent && note.StudentID == actor.ActorID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrPermissionDenied, "note does not pertain to this actor")
	}

	return appErrors.Clone(appErrors.ErrPermissionDenied, fmt.Sprintf("unknown action %s", action))
}

// CanListPending reports whether the actor may browse the review queue.
func CanListPending(actor *models.ActorClaims) error {
	if actor.Role == models.RoleDirection || actor.Role == models.RoleSuperAdmin {
		return nil
	}
	return appErrors.Clone(appErrors.ErrPermissionDenied, "only direction may list pending notes")
}

// CanListForStudent limits the student feed to the student themselves
// and the staff roles.
func CanListForStudent(actor *models.ActorClaims, studentID string) error {
	switch actor.Role {
	case models.RoleDirection, models.RoleSuperAdmin, models.RoleProfessor:
		return nil
	case models.RoleStudent:
		if actor.ActorID == studentID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrPermissionDenied, "cannot list notes for another student")
}
