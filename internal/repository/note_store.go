package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/notes-approval-api/internal/models"
)

// ErrStaleVersion signals that a guarded write matched no row because
// the note changed since it was read.
var ErrStaleVersion = errors.New("stale note version")

// NoteStore persists notes together with their history entries. Every
// mutation and its history entry commit in one transaction: a state
// change without an audit record can never be observed.
type NoteStore struct {
	db *sqlx.DB
}

// NewNoteStore creates a new note store.
func NewNoteStore(db *sqlx.DB) *NoteStore {
	return &NoteStore{db: db}
}

const noteColumns = `id, tenant_id, student_id, professor_id, program_id, subject_id, session_id, term_id,
        kind, score, max_score, coefficient, weighted_score, comment, private_note,
        status, reviewed_by, reviewed_at, review_notes,
        is_deleted, deleted_at, deleted_by,
        version, created_at, updated_at, last_modified_by`

// Insert stores a new note and its creation history entry atomically.
func (s *NoteStore) Insert(ctx context.Context, note *models.Note, entry *models.NoteHistoryEntry) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Version == 0 {
		note.Version = 1
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert note: %w", err)
	}
	const query = `INSERT INTO notes (` + noteColumns + `)
        VALUES (:id, :tenant_id, :student_id, :professor_id, :program_id, :subject_id, :session_id, :term_id,
                :kind, :score, :max_score, :coefficient, :weighted_score, :comment, :private_note,
                :status, :reviewed_by, :reviewed_at, :review_notes,
                :is_deleted, :deleted_at, :deleted_by,
                :version, :created_at, :updated_at, :last_modified_by)`
	if _, err := tx.NamedExecContext(ctx, query, note); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert note: %w", err)
	}
	if err := appendHistory(ctx, tx, note.ID, entry); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit note: %w", err)
	}
	return nil
}

// Update writes a note guarded by its read version and appends the
// history entry in the same transaction. Returns ErrStaleVersion when
// the guard matches no row.
func (s *NoteStore) Update(ctx context.Context, note *models.Note, entry *models.NoteHistoryEntry) error {
	note.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update note: %w", err)
	}
	const query = `UPDATE notes SET
            kind = :kind, score = :score, max_score = :max_score, coefficient = :coefficient,
            weighted_score = :weighted_score, comment = :comment, private_note = :private_note,
            status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at, review_notes = :review_notes,
            is_deleted = :is_deleted, deleted_at = :deleted_at, deleted_by = :deleted_by,
            version = version + 1, updated_at = :updated_at, last_modified_by = :last_modified_by
        WHERE id = :id AND version = :version`
	result, err := tx.NamedExecContext(ctx, query, note)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update note rows: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return ErrStaleVersion
	}
	if err := appendHistory(ctx, tx, note.ID, entry); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit note update: %w", err)
	}
	note.Version++
	return nil
}

// HardDelete permanently removes a non-approved note. History rows go
// with it via the FK cascade; approved notes never reach this path.
func (s *NoteStore) HardDelete(ctx context.Context, id string, version int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND version = $2`, id, version)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleVersion
	}
	return nil
}

// GetByID loads one note scoped to a tenant. An empty tenantID skips
// the scope filter (superuser access).
func (s *NoteStore) GetByID(ctx context.Context, id, tenantID string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`
	args := []interface{}{id}
	if tenantID != "" {
		query += ` AND tenant_id = $2`
		args = append(args, tenantID)
	}
	var note models.Note
	if err := s.db.GetContext(ctx, &note, query, args...); err != nil {
		return nil, err
	}
	return &note, nil
}

// ListPending returns the review queue for a tenant, oldest first.
func (s *NoteStore) ListPending(ctx context.Context, tenantID string) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
        WHERE status = $1 AND is_deleted = FALSE`
	args := []interface{}{models.NoteStatusPending}
	if tenantID != "" {
		query += ` AND tenant_id = $2`
		args = append(args, tenantID)
	}
	query += ` ORDER BY created_at ASC`
	var notes []models.Note
	if err := s.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("list pending notes: %w", err)
	}
	return notes, nil
}

// ListForStudent returns a student's visible notes, newest first.
func (s *NoteStore) ListForStudent(ctx context.Context, tenantID, studentID string) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
        WHERE student_id = $1 AND is_deleted = FALSE`
	args := []interface{}{studentID}
	if tenantID != "" {
		query += ` AND tenant_id = $2`
		args = append(args, tenantID)
	}
	query += ` ORDER BY created_at DESC`
	var notes []models.Note
	if err := s.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("list student notes: %w", err)
	}
	return notes, nil
}

// History returns a note's audit trail in insertion order.
func (s *NoteStore) History(ctx context.Context, noteID string) ([]models.NoteHistoryEntry, error) {
	const query = `SELECT id, note_id, seq, action, changed_by, changed_at, old_values, new_values, summary
        FROM note_history WHERE note_id = $1 ORDER BY seq ASC`
	var entries []models.NoteHistoryEntry
	if err := s.db.SelectContext(ctx, &entries, query, noteID); err != nil {
		return nil, fmt.Errorf("list note history: %w", err)
	}
	return entries, nil
}

// appendHistory inserts one entry inside the caller's transaction.
// note_history has no UPDATE or DELETE path anywhere in this codebase;
// seq comes from a sequence so ordering survives same-timestamp writes.
func appendHistory(ctx context.Context, tx *sqlx.Tx, noteID string, entry *models.NoteHistoryEntry) error {
	if entry == nil {
		return errors.New("append history: nil entry")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.NoteID = noteID
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	const query = `INSERT INTO note_history (id, note_id, action, changed_by, changed_at, old_values, new_values, summary)
        VALUES (:id, :note_id, :action, :changed_by, :changed_at, :old_values, :new_values, :summary)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
