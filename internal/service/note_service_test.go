package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notes-approval-api/internal/dto"
	"github.com/noah-isme/notes-approval-api/internal/models"
	"github.com/noah-isme/notes-approval-api/internal/repository"
	appErrors "github.com/noah-isme/notes-approval-api/pkg/errors"
)

type noteStoreStub struct {
	notes          map[string]*models.Note
	history        map[string][]models.NoteHistoryEntry
	failNextUpdate bool
}

func newNoteStoreStub() *noteStoreStub {
	return &noteStoreStub{
		notes:   make(map[string]*models.Note),
		history: make(map[string][]models.NoteHistoryEntry),
	}
}

func (s *noteStoreStub) Insert(ctx context.Context, note *models.Note, entry *models.NoteHistoryEntry) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now
	stored := *note
	s.notes[note.ID] = &stored
	s.appendHistory(note.ID, entry)
	return nil
}

func (s *noteStoreStub) Update(ctx context.Context, note *models.Note, entry *models.NoteHistoryEntry) error {
	if s.failNextUpdate {
		s.failNextUpdate = false
		return repository.ErrStaleVersion
	}
	current, ok := s.notes[note.ID]
	if !ok || current.Version != note.Version {
		return repository.ErrStaleVersion
	}
	note.UpdatedAt = time.Now().UTC()
	note.Version++
	stored := *note
	s.notes[note.ID] = &stored
	s.appendHistory(note.ID, entry)
	return nil
}

func (s *noteStoreStub) HardDelete(ctx context.Context, id string, version int64) error {
	current, ok := s.notes[id]
	if !ok || current.Version != version {
		return repository.ErrStaleVersion
	}
	delete(s.notes, id)
	delete(s.history, id)
	return nil
}

func (s *noteStoreStub) GetByID(ctx context.Context, id, tenantID string) (*models.Note, error) {
	note, ok := s.notes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if tenantID != "" && note.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	copied := *note
	return &copied, nil
}

func (s *noteStoreStub) ListPending(ctx context.Context, tenantID string) ([]models.Note, error) {
	var result []models.Note
	for _, note := range s.notes {
		if note.Status != models.NoteStatusPending || note.IsDeleted {
			continue
		}
		if tenantID != "" && note.TenantID != tenantID {
			continue
		}
		result = append(result, *note)
	}
	return result, nil
}

func (s *noteStoreStub) ListForStudent(ctx context.Context, tenantID, studentID string) ([]models.Note, error) {
	var result []models.Note
	for _, note := range s.notes {
		if note.StudentID != studentID || note.IsDeleted {
			continue
		}
		if tenantID != "" && note.TenantID != tenantID {
			continue
		}
		result = append(result, *note)
	}
	return result, nil
}

func (s *noteStoreStub) History(ctx context.Context, noteID string) ([]models.NoteHistoryEntry, error) {
	return s.history[noteID], nil
}

func (s *noteStoreStub) appendHistory(noteID string, entry *models.NoteHistoryEntry) {
	stored := *entry
	stored.NoteID = noteID
	stored.Seq = int64(len(s.history[noteID]) + 1)
	s.history[noteID] = append(s.history[noteID], stored)
}

type weightingStub struct {
	weighting *models.SubjectWeighting
}

func (w *weightingStub) FindByScope(ctx context.Context, tenantID, programID, subjectID, sessionID, termID string) (*models.SubjectWeighting, error) {
	if w.weighting == nil {
		return nil, sql.ErrNoRows
	}
	return w.weighting, nil
}

type notifierStub struct {
	events []models.NoteStatusChangedEvent
}

func (n *notifierStub) NotifyStatusChanged(event models.NoteStatusChangedEvent) {
	n.events = append(n.events, event)
}

var (
	professorActor = &models.ActorClaims{ActorID: "prof-1", Role: models.RoleProfessor, TenantID: "tenant-1"}
	directionActor = &models.ActorClaims{ActorID: "dir-1", Role: models.RoleDirection, TenantID: "tenant-1"}
	studentActor   = &models.ActorClaims{ActorID: "student-1", Role: models.RoleStudent, TenantID: "tenant-1"}
)

func newTestService(store *noteStoreStub, notifier *notifierStub) *NoteService {
	weightings := &weightingStub{weighting: &models.SubjectWeighting{
		Coefficient: decimal.RequireFromString("2.5"),
		Credits:     4,
		Mandatory:   true,
	}}
	var statusSink statusNotifier
	if notifier != nil {
		statusSink = notifier
	}
	return NewNoteService(store, weightings, statusSink, nil, nil, nil)
}

func createDraft(t *testing.T, svc *NoteService) *models.Note {
	t.Helper()
	note, err := svc.Create(context.Background(), dto.CreateNoteRequest{
		StudentID:   "student-1",
		ProgramID:   "program-1",
		SubjectID:   "subject-1",
		SessionID:   "session-2026",
		TermID:      "term-1",
		Kind:        "midterm",
		Score:       decimal.RequireFromString("18"),
		MaxScore:    decimal.RequireFromString("20"),
		Comment:     "solid work",
		PrivateNote: "ask about question 4",
	}, professorActor)
	require.NoError(t, err)
	return note
}

func TestCreateSnapshotsCoefficientAndWeightsScore(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)

	note := createDraft(t, svc)

	require.Equal(t, models.NoteStatusDraft, note.Status)
	require.Equal(t, int64(1), note.Version)
	require.Equal(t, "2.5", note.Coefficient.String())
	require.Equal(t, "225", note.WeightedScore.String())

	entries := store.history[note.ID]
	require.Len(t, entries, 1)
	require.Equal(t, models.HistoryActionCreated, entries[0].Action)
	require.Nil(t, entries[0].OldValues)
	require.NotEmpty(t, entries[0].NewValues)
}

func TestCreateWithoutWeightingFails(t *testing.T) {
	store := newNoteStoreStub()
	svc := NewNoteService(store, &weightingStub{}, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateNoteRequest{
		StudentID: "student-1",
		ProgramID: "program-1",
		SubjectID: "subject-1",
		SessionID: "session-2026",
		TermID:    "term-1",
		Kind:      "quiz",
		Score:     decimal.RequireFromString("5"),
		MaxScore:  decimal.RequireFromString("10"),
	}, professorActor)
	require.ErrorIs(t, err, appErrors.ErrConfigurationMissing)
	require.Empty(t, store.notes)
	require.Empty(t, store.history)
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)

	_, err := svc.Create(context.Background(), dto.CreateNoteRequest{
		StudentID: "student-1",
		ProgramID: "program-1",
		SubjectID: "subject-1",
		SessionID: "session-2026",
		TermID:    "term-1",
		Kind:      "extracurricular",
		Score:     decimal.RequireFromString("5"),
		MaxScore:  decimal.RequireFromString("10"),
	}, professorActor)
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStudentsCannotCreate(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)

	_, err := svc.Create(context.Background(), dto.CreateNoteRequest{
		StudentID: "student-1",
		ProgramID: "program-1",
		SubjectID: "subject-1",
		SessionID: "session-2026",
		TermID:    "term-1",
		Kind:      "quiz",
		Score:     decimal.RequireFromString("5"),
		MaxScore:  decimal.RequireFromString("10"),
	}, studentActor)
	require.ErrorIs(t, err, appErrors.ErrPermissionDenied)
}

func TestUpdateRecomputesWeightedScore(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	score := decimal.RequireFromString("15")
	updated, err := svc.Update(context.Background(), note.ID, dto.UpdateNoteRequest{
		Version: note.Version,
		Score:   &score,
	}, professorActor)
	require.NoError(t, err)
	require.Equal(t, "187.5", updated.WeightedScore.String())
	require.Equal(t, int64(2), updated.Version)

	entries := store.history[note.ID]
	require.Len(t, entries, 2)
	require.Equal(t, models.HistoryActionUpdated, entries[1].Action)
	require.Contains(t, entries[1].Summary, "score")
}

func TestUpdateWithoutChangesWritesNoHistory(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	comment := "solid work"
	updated, err := svc.Update(context.Background(), note.ID, dto.UpdateNoteRequest{
		Version: note.Version,
		Comment: &comment,
	}, professorActor)
	require.NoError(t, err)
	require.Equal(t, note.Version, updated.Version)
	require.Len(t, store.history[note.ID], 1)
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	comment := "first edit"
	_, err := svc.Update(context.Background(), note.ID, dto.UpdateNoteRequest{Version: note.Version, Comment: &comment}, professorActor)
	require.NoError(t, err)

	stale := "second edit from a stale read"
	_, err = svc.Update(context.Background(), note.ID, dto.UpdateNoteRequest{Version: note.Version, Comment: &stale}, professorActor)
	require.ErrorIs(t, err, appErrors.ErrConcurrencyConflict)
	require.Len(t, store.history[note.ID], 2)
}

func TestUpdateRetriesOncePastWriteRace(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	store.failNextUpdate = true
	comment := "edited"
	updated, err := svc.Update(context.Background(), note.ID, dto.UpdateNoteRequest{Version: note.Version, Comment: &comment}, professorActor)
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Comment)
	require.Equal(t, int64(2), updated.Version)
}

func TestSubmitApproveFreezesNote(t *testing.T) {
	store := newNoteStoreStub()
	notifier := &notifierStub{}
	svc := newTestService(store, notifier)
	note := createDraft(t, svc)

	submitted, err := svc.Submit(context.Background(), note.ID, note.Version, professorActor)
	require.NoError(t, err)
	require.Equal(t, models.NoteStatusPending, submitted.Status)

	approved, err := svc.Review(context.Background(), note.ID, dto.ReviewNoteRequest{
		Version: submitted.Version,
		Action:  "approve",
		Notes:   "looks right",
	}, directionActor)
	require.NoError(t, err)
	require.Equal(t, models.NoteStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	require.Equal(t, "dir-1", *approved.ReviewedBy)
	require.Equal(t, "looks right", approved.ReviewNotes)

	entries := store.history[note.ID]
	require.Len(t, entries, 3)
	require.Equal(t, models.HistoryActionCreated, entries[0].Action)
	require.Equal(t, models.HistoryActionSubmitted, entries[1].Action)
	require.Equal(t, models.HistoryActionApproved, entries[2].Action)

	comment := "late edit"
	_, err = svc.Update(context.Background(), note.ID, dto.UpdateNoteRequest{Version: approved.Version, Comment: &comment}, professorActor)
	require.ErrorIs(t, err, appErrors.ErrImmutableRecord)
	require.Len(t, store.history[note.ID], 3)

	require.Len(t, notifier.events, 2)
	require.Equal(t, models.NoteStatusDraft, notifier.events[0].OldStatus)
	require.Equal(t, models.NoteStatusPending, notifier.events[0].NewStatus)
	require.Equal(t, models.NoteStatusApproved, notifier.events[1].NewStatus)
}

func TestRevisionRoundTripEndsRejected(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	submitted, err := svc.Submit(context.Background(), note.ID, note.Version, professorActor)
	require.NoError(t, err)

	revised, err := svc.Review(context.Background(), note.ID, dto.ReviewNoteRequest{
		Version: submitted.Version,
		Action:  "request_revision",
		Notes:   "check the max score",
	}, directionActor)
	require.NoError(t, err)
	require.Equal(t, models.NoteStatusRevisionRequested, revised.Status)

	resubmitted, err := svc.Resubmit(context.Background(), note.ID, revised.Version, professorActor)
	require.NoError(t, err)
	require.Equal(t, models.NoteStatusPending, resubmitted.Status)

	rejected, err := svc.Review(context.Background(), note.ID, dto.ReviewNoteRequest{
		Version: resubmitted.Version,
		Action:  "reject",
		Notes:   "duplicate entry",
	}, directionActor)
	require.NoError(t, err)
	require.Equal(t, models.NoteStatusRejected, rejected.Status)

	entries := store.history[note.ID]
	require.Len(t, entries, 5)
	require.Equal(t, models.HistoryActionSubmitted, entries[1].Action)
	require.Equal(t, models.HistoryActionRevisionRequested, entries[2].Action)
	require.Equal(t, models.HistoryActionSubmitted, entries[3].Action)
	require.Equal(t, models.HistoryActionRejected, entries[4].Action)

	_, err = svc.Resubmit(context.Background(), note.ID, rejected.Version, professorActor)
	require.ErrorIs(t, err, appErrors.ErrIllegalTransition)
}

func TestSubmitRequiresAuthor(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	_, err := svc.Submit(context.Background(), note.ID, note.Version, directionActor)
	require.ErrorIs(t, err, appErrors.ErrPermissionDenied)
	require.Len(t, store.history[note.ID], 1)
}

func TestReviewersCannotReviewOwnNotes(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)

	note, err := svc.Create(context.Background(), dto.CreateNoteRequest{
		StudentID: "student-1",
		ProgramID: "program-1",
		SubjectID: "subject-1",
		SessionID: "session-2026",
		TermID:    "term-1",
		Kind:      "project",
		Score:     decimal.RequireFromString("14"),
		MaxScore:  decimal.RequireFromString("20"),
	}, directionActor)
	require.NoError(t, err)

	submitted, err := svc.Submit(context.Background(), note.ID, note.Version, directionActor)
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), note.ID, dto.ReviewNoteRequest{
		Version: submitted.Version,
		Action:  "approve",
	}, directionActor)
	require.ErrorIs(t, err, appErrors.ErrPermissionDenied)
}

func TestReviewOnDraftIsIllegal(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	_, err := svc.Review(context.Background(), note.ID, dto.ReviewNoteRequest{
		Version: note.Version,
		Action:  "approve",
	}, directionActor)
	require.ErrorIs(t, err, appErrors.ErrIllegalTransition)
	require.Len(t, store.history[note.ID], 1)
}

func TestDeleteDraftIsHard(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	err := svc.Delete(context.Background(), note.ID, note.Version, professorActor)
	require.NoError(t, err)
	require.Empty(t, store.notes)

	_, err = svc.Get(context.Background(), note.ID, professorActor)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestApprovedNoteSoftDeletesForDirectionOnly(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	submitted, err := svc.Submit(context.Background(), note.ID, note.Version, professorActor)
	require.NoError(t, err)
	approved, err := svc.Review(context.Background(), note.ID, dto.ReviewNoteRequest{Version: submitted.Version, Action: "approve"}, directionActor)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), note.ID, approved.Version, professorActor)
	require.ErrorIs(t, err, appErrors.ErrPermissionDenied)

	err = svc.Delete(context.Background(), note.ID, approved.Version, directionActor)
	require.NoError(t, err)

	stored := store.notes[note.ID]
	require.NotNil(t, stored)
	require.True(t, stored.IsDeleted)
	require.Equal(t, models.NoteStatusApproved, stored.Status)
	require.Len(t, store.history[note.ID], 4)
	require.Equal(t, models.HistoryActionSoftDeleted, store.history[note.ID][3].Action)
}

func TestStudentReadRedactsPrivateNote(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	got, err := svc.Get(context.Background(), note.ID, studentActor)
	require.NoError(t, err)
	require.Empty(t, got.PrivateNote)

	staff, err := svc.Get(context.Background(), note.ID, professorActor)
	require.NoError(t, err)
	require.Equal(t, "ask about question 4", staff.PrivateNote)
}

func TestStudentCannotReadOthersNote(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	other := &models.ActorClaims{ActorID: "student-2", Role: models.RoleStudent, TenantID: "tenant-1"}
	_, err := svc.Get(context.Background(), note.ID, other)
	require.ErrorIs(t, err, appErrors.ErrPermissionDenied)
}

func TestHistoryIsStaffOnly(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	entries, err := svc.History(context.Background(), note.ID, professorActor)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = svc.History(context.Background(), note.ID, studentActor)
	require.ErrorIs(t, err, appErrors.ErrPermissionDenied)
}

func TestListPendingIsDirectionOnly(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)
	_, err := svc.Submit(context.Background(), note.ID, note.Version, professorActor)
	require.NoError(t, err)

	pending, err := svc.ListPending(context.Background(), directionActor)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = svc.ListPending(context.Background(), professorActor)
	require.ErrorIs(t, err, appErrors.ErrPermissionDenied)
}

func TestListForStudentRedactsForStudents(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	createDraft(t, svc)

	notes, err := svc.ListForStudent(context.Background(), "student-1", studentActor)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Empty(t, notes[0].PrivateNote)

	other := &models.ActorClaims{ActorID: "student-2", Role: models.RoleStudent, TenantID: "tenant-1"}
	_, err = svc.ListForStudent(context.Background(), "student-1", other)
	require.ErrorIs(t, err, appErrors.ErrPermissionDenied)
}

func TestTenantScopeHidesForeignNotes(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)
	note := createDraft(t, svc)

	foreign := &models.ActorClaims{ActorID: "prof-9", Role: models.RoleProfessor, TenantID: "tenant-2"}
	_, err := svc.Get(context.Background(), note.ID, foreign)
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	super := &models.ActorClaims{ActorID: "root", Role: models.RoleSuperAdmin, TenantID: ""}
	got, err := svc.Get(context.Background(), note.ID, super)
	require.NoError(t, err)
	require.Equal(t, note.ID, got.ID)
}

func TestNoEventWhenTransitionFails(t *testing.T) {
	store := newNoteStoreStub()
	notifier := &notifierStub{}
	svc := newTestService(store, notifier)
	note := createDraft(t, svc)

	_, err := svc.Submit(context.Background(), note.ID, note.Version+7, professorActor)
	require.ErrorIs(t, err, appErrors.ErrConcurrencyConflict)
	require.Empty(t, notifier.events)
	require.Len(t, store.history[note.ID], 1)
}

func TestDeleteOnMissingNote(t *testing.T) {
	store := newNoteStoreStub()
	svc := newTestService(store, nil)

	err := svc.Delete(context.Background(), "missing", 1, professorActor)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	require.True(t, errors.Is(err, appErrors.ErrNotFound))
}
