package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/notes-approval-api/internal/audit"
	"github.com/noah-isme/notes-approval-api/internal/dto"
	"github.com/noah-isme/notes-approval-api/internal/models"
	"github.com/noah-isme/notes-approval-api/internal/policy"
	"github.com/noah-isme/notes-approval-api/internal/repository"
	"github.com/noah-isme/notes-approval-api/internal/scoring"
	"github.com/noah-isme/notes-approval-api/internal/workflow"
	appErrors "github.com/noah-isme/notes-approval-api/pkg/errors"
)

type noteStore interface {
	Insert(ctx context.Context, note *models.Note, entry *models.NoteHistoryEntry) error
	Update(ctx context.Context, note *models.Note, entry *models.NoteHistoryEntry) error
	HardDelete(ctx context.Context, id string, version int64) error
	GetByID(ctx context.Context, id, tenantID string) (*models.Note, error)
	ListPending(ctx context.Context, tenantID string) ([]models.Note, error)
	ListForStudent(ctx context.Context, tenantID, studentID string) ([]models.Note, error)
	History(ctx context.Context, noteID string) ([]models.NoteHistoryEntry, error)
}

type weightingResolver interface {
	FindByScope(ctx context.Context, tenantID, programID, subjectID, sessionID, termID string) (*models.SubjectWeighting, error)
}

type statusNotifier interface {
	NotifyStatusChanged(event models.NoteStatusChangedEvent)
}

type operationRecorder interface {
	RecordNoteOperation(operation string, err error)
	RecordTransition(action string)
}

// NoteService orchestrates the note lifecycle: every mutating call runs
// policy, workflow, scoring and audit in order, commits note + history
// atomically, and only then emits the status-changed event.
type NoteService struct {
	store      noteStore
	weightings weightingResolver
	notifier   statusNotifier
	metrics    operationRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewNoteService constructs the orchestrator. notifier and metrics may
// be nil.
func NewNoteService(store noteStore, weightings weightingResolver, notifier statusNotifier, metrics operationRecorder, validate *validator.Validate, logger *zap.Logger) *NoteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{
		store:      store,
		weightings: weightings,
		notifier:   notifier,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// Create records a new evaluation in draft, snapshotting the subject
// coefficient from the program catalog.
func (s *NoteService) Create(ctx context.Context, req dto.CreateNoteRequest, actor *models.ActorClaims) (note *models.Note, err error) {
	defer s.record("create", &err)
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	if !models.ValidKind(models.NoteKind(req.Kind)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown note kind")
	}
	if err = policy.CanCreate(actor); err != nil {
		return nil, err
	}

	weighting, err := s.weightings.FindByScope(ctx, actor.TenantID, req.ProgramID, req.SubjectID, req.SessionID, req.TermID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConfigurationMissing, "no weighting configured for this program, subject and term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject weighting")
	}

	weighted, err := scoring.WeightedScore(req.Score, req.MaxScore, weighting.Coefficient)
	if err != nil {
		return nil, err
	}

	note = &models.Note{
		TenantID:       actor.TenantID,
		StudentID:      req.StudentID,
		ProfessorID:    actor.ActorID,
		ProgramID:      req.ProgramID,
		SubjectID:      req.SubjectID,
		SessionID:      req.SessionID,
		TermID:         req.TermID,
		Kind:           models.NoteKind(req.Kind),
		Score:          req.Score,
		MaxScore:       req.MaxScore,
		Coefficient:    weighting.Coefficient,
		WeightedScore:  weighted,
		Comment:        req.Comment,
		PrivateNote:    req.PrivateNote,
		Status:         models.NoteStatusDraft,
		Version:        1,
		LastModifiedBy: actor.ActorID,
	}

	entry, err := audit.Entry(note.ID, models.HistoryActionCreated, actor.ActorID, nil, audit.Capture(note), "note created")
	if err != nil {
		return nil, err
	}
	if err = s.store.Insert(ctx, note, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create note")
	}
	return note, nil
}

// Update edits a mutable note, recomputing the weighted score when any
// score input changed. The request carries the version it was read at.
func (s *NoteService) Update(ctx context.Context, id string, req dto.UpdateNoteRequest, actor *models.ActorClaims) (note *models.Note, err error) {
	defer s.record("update", &err)
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	if req.Kind != nil && !models.ValidKind(models.NoteKind(*req.Kind)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown note kind")
	}

	err = s.withConflictRetry(func() error {
		loaded, loadErr := s.load(ctx, id, actor)
		if loadErr != nil {
			return loadErr
		}
		if decideErr := policy.Decide(actor, loaded, workflow.ActionUpdate); decideErr != nil {
			return decideErr
		}
		if stateErr := workflow.CheckUpdate(loaded); stateErr != nil {
			return stateErr
		}
		if loaded.Version != req.Version {
			return appErrors.Clone(appErrors.ErrConcurrencyConflict, "note changed since it was read")
		}

		prev := audit.Capture(loaded)
		if req.Kind != nil {
			loaded.Kind = models.NoteKind(*req.Kind)
		}
		if req.Score != nil {
			loaded.Score = *req.Score
		}
		if req.MaxScore != nil {
			loaded.MaxScore = *req.MaxScore
		}
		if req.Comment != nil {
			loaded.Comment = *req.Comment
		}
		if req.PrivateNote != nil {
			loaded.PrivateNote = *req.PrivateNote
		}
		if req.Score != nil || req.MaxScore != nil {
			weighted, scoreErr := scoring.WeightedScore(loaded.Score, loaded.MaxScore, loaded.Coefficient)
			if scoreErr != nil {
				return scoreErr
			}
			loaded.WeightedScore = weighted
		}
		curr := audit.Capture(loaded)
		if prev == curr {
			note = loaded
			return nil
		}
		loaded.LastModifiedBy = actor.ActorID

		entry, entryErr := audit.Entry(loaded.ID, models.HistoryActionUpdated, actor.ActorID, &prev, curr, audit.Summarize(prev, curr))
		if entryErr != nil {
			return entryErr
		}
		if storeErr := s.store.Update(ctx, loaded, entry); storeErr != nil {
			return s.mapStoreErr(storeErr)
		}
		note = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// Submit moves a draft into the review queue.
func (s *NoteService) Submit(ctx context.Context, id string, version int64, actor *models.ActorClaims) (*models.Note, error) {
	return s.transition(ctx, id, workflow.ActionSubmit, version, "", actor)
}

// Resubmit returns a revision-requested note to the review queue.
func (s *NoteService) Resubmit(ctx context.Context, id string, version int64, actor *models.ActorClaims) (*models.Note, error) {
	return s.transition(ctx, id, workflow.ActionResubmit, version, "", actor)
}

// Review applies the direction decision on a pending note. Approval
// freezes the record.
func (s *NoteService) Review(ctx context.Context, id string, req dto.ReviewNoteRequest, actor *models.ActorClaims) (*models.Note, error) {
	if err := s.validator.Struct(req); err != nil {
		wrapped := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
		s.recordErr("review", wrapped)
		return nil, wrapped
	}
	var action workflow.Action
	switch req.Action {
	case "approve":
		action = workflow.ActionApprove
	case "reject":
		action = workflow.ActionReject
	case "request_revision":
		action = workflow.ActionRequestRevision
	default:
		err := appErrors.Clone(appErrors.ErrValidation, "action must be approve, reject or request_revision")
		s.recordErr("review", err)
		return nil, err
	}
	return s.transition(ctx, id, action, req.Version, req.Notes, actor)
}

// Delete removes a note: hard delete while it is not approved, soft
// delete (direction only) once it is.
func (s *NoteService) Delete(ctx context.Context, id string, version int64, actor *models.ActorClaims) (err error) {
	defer s.record("delete", &err)
	note, err := s.load(ctx, id, actor)
	if err != nil {
		return err
	}
	if note.IsDeleted {
		return appErrors.Clone(appErrors.ErrNotFound, "note not found")
	}

	if note.Status == models.NoteStatusApproved {
		_, err = s.transitionLoaded(ctx, id, workflow.ActionSoftDelete, version, "", actor)
		return err
	}

	if err = policy.Decide(actor, note, workflow.ActionHardDelete); err != nil {
		return err
	}
	if err = workflow.CheckHardDelete(note); err != nil {
		return err
	}
	if note.Version != version {
		return appErrors.Clone(appErrors.ErrConcurrencyConflict, "note changed since it was read")
	}
	if err = s.store.HardDelete(ctx, id, version); err != nil {
		return s.mapStoreErr(err)
	}
	return nil
}

// Get returns one note visible to the actor. Students never see the
// private note or soft-deleted records.
func (s *NoteService) Get(ctx context.Context, id string, actor *models.ActorClaims) (*models.Note, error) {
	note, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := policy.Decide(actor, note, workflow.ActionRead); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent {
		if note.IsDeleted {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		redacted := *note
		redacted.PrivateNote = ""
		return &redacted, nil
	}
	return note, nil
}

// History returns the full audit trail of a note. Staff only: the
// snapshots include the private note.
func (s *NoteService) History(ctx context.Context, id string, actor *models.ActorClaims) ([]models.NoteHistoryEntry, error) {
	note, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := policy.Decide(actor, note, workflow.ActionRead); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "history is not visible to students")
	}
	entries, err := s.store.History(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note history")
	}
	return entries, nil
}

// ListPending returns the review queue for the actor's tenant.
func (s *NoteService) ListPending(ctx context.Context, actor *models.ActorClaims) ([]models.Note, error) {
	if err := policy.CanListPending(actor); err != nil {
		return nil, err
	}
	notes, err := s.store.ListPending(ctx, s.scope(actor))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending notes")
	}
	return notes, nil
}

// ListForStudent returns the notes recorded for one student.
func (s *NoteService) ListForStudent(ctx context.Context, studentID string, actor *models.ActorClaims) ([]models.Note, error) {
	if err := policy.CanListForStudent(actor, studentID); err != nil {
		return nil, err
	}
	notes, err := s.store.ListForStudent(ctx, s.scope(actor), studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student notes")
	}
	if actor.Role == models.RoleStudent {
		for i := range notes {
			notes[i].PrivateNote = ""
		}
	}
	return notes, nil
}

func (s *NoteService) transition(ctx context.Context, id string, action workflow.Action, version int64, reviewNotes string, actor *models.ActorClaims) (note *models.Note, err error) {
	defer s.record(string(action), &err)
	return s.transitionLoaded(ctx, id, action, version, reviewNotes, actor)
}

// transitionLoaded runs one workflow transition with a single automatic
// retry on write races. The event is enqueued only after commit.
func (s *NoteService) transitionLoaded(ctx context.Context, id string, action workflow.Action, version int64, reviewNotes string, actor *models.ActorClaims) (*models.Note, error) {
	var note *models.Note
	var oldStatus models.NoteStatus
	err := s.withConflictRetry(func() error {
		loaded, loadErr := s.load(ctx, id, actor)
		if loadErr != nil {
			return loadErr
		}
		if decideErr := policy.Decide(actor, loaded, action); decideErr != nil {
			return decideErr
		}
		if loaded.IsDeleted {
			return appErrors.Clone(appErrors.ErrIllegalTransition, "note is deleted")
		}
		next, flowErr := workflow.Next(loaded.Status, action)
		if flowErr != nil {
			return flowErr
		}
		if loaded.Version != version {
			return appErrors.Clone(appErrors.ErrConcurrencyConflict, "note changed since it was read")
		}

		prev := audit.Capture(loaded)
		oldStatus = loaded.Status
		now := time.Now().UTC()
		summary := audit.TransitionSummary(oldStatus, next)
		switch action {
		case workflow.ActionApprove, workflow.ActionReject, workflow.ActionRequestRevision:
			reviewer := actor.ActorID
			loaded.ReviewedBy = &reviewer
			loaded.ReviewedAt = &now
			loaded.ReviewNotes = reviewNotes
		case workflow.ActionSoftDelete:
			deleter := actor.ActorID
			loaded.IsDeleted = true
			loaded.DeletedAt = &now
			loaded.DeletedBy = &deleter
			summary = "note soft-deleted"
		}
		loaded.Status = next
		loaded.LastModifiedBy = actor.ActorID

		entry, entryErr := audit.Entry(loaded.ID, workflow.HistoryAction(action), actor.ActorID, &prev, audit.Capture(loaded), summary)
		if entryErr != nil {
			return entryErr
		}
		if storeErr := s.store.Update(ctx, loaded, entry); storeErr != nil {
			return s.mapStoreErr(storeErr)
		}
		note = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(string(action))
	}
	if s.notifier != nil && note.Status != oldStatus {
		s.notifier.NotifyStatusChanged(models.NoteStatusChangedEvent{
			NoteID:    note.ID,
			TenantID:  note.TenantID,
			OldStatus: oldStatus,
			NewStatus: note.Status,
			ChangedBy: actor.ActorID,
			ChangedAt: note.UpdatedAt,
		})
	}
	return note, nil
}

// withConflictRetry reruns fn once when it reports a concurrency
// conflict, re-reading the note on the second attempt.
func (s *NoteService) withConflictRetry(fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, appErrors.ErrConcurrencyConflict) {
		return err
	}
	s.logger.Debug("retrying after concurrency conflict")
	return fn()
}

func (s *NoteService) load(ctx context.Context, id string, actor *models.ActorClaims) (*models.Note, error) {
	note, err := s.store.GetByID(ctx, id, s.scope(actor))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}
	return note, nil
}

// scope returns the tenant partition key for reads. Superusers bypass
// tenant scoping but nothing else.
func (s *NoteService) scope(actor *models.ActorClaims) string {
	if actor.Superuser() {
		return ""
	}
	return actor.TenantID
}

func (s *NoteService) mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrStaleVersion) {
		return appErrors.Clone(appErrors.ErrConcurrencyConflict, "note was modified concurrently")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist note")
}

func (s *NoteService) record(operation string, err *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordNoteOperation(operation, *err)
}

func (s *NoteService) recordErr(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordNoteOperation(operation, err)
}
