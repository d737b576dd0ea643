package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/notes-approval-api/internal/models"
)

// WeightingRepository reads the program catalog's subject weightings.
// The catalog is owned elsewhere; this core only resolves a coefficient
// once, at note creation.
type WeightingRepository struct {
	db *sqlx.DB
}

// NewWeightingRepository creates a new weighting repository.
func NewWeightingRepository(db *sqlx.DB) *WeightingRepository {
	return &WeightingRepository{db: db}
}

// FindByScope returns the weighting for (program, subject, session,
// term) within a tenant. sql.ErrNoRows when none is configured.
func (r *WeightingRepository) FindByScope(ctx context.Context, tenantID, programID, subjectID, sessionID, termID string) (*models.SubjectWeighting, error) {
	const query = `SELECT id, tenant_id, program_id, subject_id, session_id, term_id,
            coefficient, credits, mandatory, hours_per_week, created_at, updated_at
        FROM program_subject_weightings
        WHERE tenant_id = $1 AND program_id = $2 AND subject_id = $3 AND session_id = $4 AND term_id = $5`
	var weighting models.SubjectWeighting
	if err := r.db.GetContext(ctx, &weighting, query, tenantID, programID, subjectID, sessionID, termID); err != nil {
		return nil, err
	}
	return &weighting, nil
}
