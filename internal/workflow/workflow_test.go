package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notes-approval-api/internal/models"
	appErrors "github.com/noah-isme/notes-approval-api/pkg/errors"
)

func TestNextAllowedTransitions(t *testing.T) {
	cases := []struct {
		from   models.NoteStatus
		action Action
		to     models.NoteStatus
	}{
		{models.NoteStatusDraft, ActionSubmit, models.NoteStatusPending},
		{models.NoteStatusPending, ActionApprove, models.NoteStatusApproved},
		{models.NoteStatusPending, ActionReject, models.NoteStatusRejected},
		{models.NoteStatusPending, ActionRequestRevision, models.NoteStatusRevisionRequested},
		{models.NoteStatusRevisionRequested, ActionResubmit, models.NoteStatusPending},
		{models.NoteStatusApproved, ActionSoftDelete, models.NoteStatusApproved},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_"+string(tc.action), func(t *testing.T) {
			to, err := Next(tc.from, tc.action)
			require.NoError(t, err)
			assert.Equal(t, tc.to, to)
		})
	}
}

func TestNextRejectsUnlistedPairs(t *testing.T) {
	cases := []struct {
		from   models.NoteStatus
		action Action
	}{
		{models.NoteStatusDraft, ActionApprove},
		{models.NoteStatusDraft, ActionResubmit},
		{models.NoteStatusPending, ActionSubmit},
		{models.NoteStatusApproved, ActionApprove},
		{models.NoteStatusApproved, ActionSubmit},
		{models.NoteStatusRejected, ActionSubmit},
		{models.NoteStatusRejected, ActionApprove},
		{models.NoteStatusRevisionRequested, ActionApprove},
	}
	for _, tc := range cases {
		_, err := Next(tc.from, tc.action)
		require.Error(t, err, "%s on %s", tc.action, tc.from)
		assert.True(t, errors.Is(err, appErrors.ErrIllegalTransition))
	}
}

func TestMutable(t *testing.T) {
	assert.True(t, Mutable(models.NoteStatusDraft))
	assert.True(t, Mutable(models.NoteStatusPending))
	assert.True(t, Mutable(models.NoteStatusRevisionRequested))
	assert.False(t, Mutable(models.NoteStatusApproved))
	assert.False(t, Mutable(models.NoteStatusRejected))
}

func TestCheckUpdate(t *testing.T) {
	require.NoError(t, CheckUpdate(&models.Note{Status: models.NoteStatusDraft}))
	require.NoError(t, CheckUpdate(&models.Note{Status: models.NoteStatusPending}))
	require.NoError(t, CheckUpdate(&models.Note{Status: models.NoteStatusRevisionRequested}))

	err := CheckUpdate(&models.Note{Status: models.NoteStatusApproved})
	assert.True(t, errors.Is(err, appErrors.ErrImmutableRecord))

	err = CheckUpdate(&models.Note{Status: models.NoteStatusRejected})
	assert.True(t, errors.Is(err, appErrors.ErrIllegalTransition))

	err = CheckUpdate(&models.Note{Status: models.NoteStatusDraft, IsDeleted: true})
	assert.True(t, errors.Is(err, appErrors.ErrIllegalTransition))
}

func TestCheckHardDelete(t *testing.T) {
	require.NoError(t, CheckHardDelete(&models.Note{Status: models.NoteStatusDraft}))
	require.NoError(t, CheckHardDelete(&models.Note{Status: models.NoteStatusRejected}))

	err := CheckHardDelete(&models.Note{Status: models.NoteStatusApproved})
	assert.True(t, errors.Is(err, appErrors.ErrImmutableRecord))
}

func TestHistoryAction(t *testing.T) {
	assert.Equal(t, models.HistoryActionSubmitted, HistoryAction(ActionSubmit))
	assert.Equal(t, models.HistoryActionSubmitted, HistoryAction(ActionResubmit))
	assert.Equal(t, models.HistoryActionApproved, HistoryAction(ActionApprove))
	assert.Equal(t, models.HistoryActionSoftDeleted, HistoryAction(ActionSoftDelete))
}
