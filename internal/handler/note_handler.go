package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/notes-approval-api/internal/dto"
	"github.com/noah-isme/notes-approval-api/internal/models"
	appErrors "github.com/noah-isme/notes-approval-api/pkg/errors"
	"github.com/noah-isme/notes-approval-api/pkg/response"
)

// NoteOrchestrator is the service surface the handler consumes.
type NoteOrchestrator interface {
	Create(ctx context.Context, req dto.CreateNoteRequest, actor *models.ActorClaims) (*models.Note, error)
	Update(ctx context.Context, id string, req dto.UpdateNoteRequest, actor *models.ActorClaims) (*models.Note, error)
	Submit(ctx context.Context, id string, version int64, actor *models.ActorClaims) (*models.Note, error)
	Resubmit(ctx context.Context, id string, version int64, actor *models.ActorClaims) (*models.Note, error)
	Review(ctx context.Context, id string, req dto.ReviewNoteRequest, actor *models.ActorClaims) (*models.Note, error)
	Delete(ctx context.Context, id string, version int64, actor *models.ActorClaims) error
	Get(ctx context.Context, id string, actor *models.ActorClaims) (*models.Note, error)
	History(ctx context.Context, id string, actor *models.ActorClaims) ([]models.NoteHistoryEntry, error)
	ListPending(ctx context.Context, actor *models.ActorClaims) ([]models.Note, error)
	ListForStudent(ctx context.Context, studentID string, actor *models.ActorClaims) ([]models.Note, error)
}

// NoteHandler exposes the note lifecycle endpoints.
type NoteHandler struct {
	notes NoteOrchestrator
}

// NewNoteHandler constructs handler.
func NewNoteHandler(notes NoteOrchestrator) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// Create godoc
// @Summary Record a new evaluation note
// @Tags Notes
// @Accept json
// @Produce json
// @Param payload body dto.CreateNoteRequest true "Note payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.notes.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// Get godoc
// @Summary Fetch one note
// @Tags Notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notes/{id} [get]
func (h *NoteHandler) Get(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	note, err := h.notes.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// Update godoc
// @Summary Edit a mutable note
// @Tags Notes
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param payload body dto.UpdateNoteRequest true "Partial edit with read version"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notes/{id} [put]
func (h *NoteHandler) Update(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.notes.Update(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// Delete godoc
// @Summary Delete a note
// @Tags Notes
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param payload body dto.TransitionRequest true "Read version"
// @Success 204
// @Security BearerAuth
// @Router /notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.notes.Delete(c.Request.Context(), c.Param("id"), req.Version, actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit a draft for review
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param payload body dto.TransitionRequest true "Read version"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notes/{id}/submit [post]
func (h *NoteHandler) Submit(c *gin.Context) {
	h.runTransition(c, h.notes.Submit)
}

// Resubmit godoc
// @Summary Resubmit a revised note for review
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param payload body dto.TransitionRequest true "Read version"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notes/{id}/resubmit [post]
func (h *NoteHandler) Resubmit(c *gin.Context) {
	h.runTransition(c, h.notes.Resubmit)
}

// Review godoc
// @Summary Apply a review decision on a pending note
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param payload body dto.ReviewNoteRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notes/{id}/review [post]
func (h *NoteHandler) Review(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.notes.Review(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// History godoc
// @Summary Fetch the audit trail of a note
// @Tags Notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notes/{id}/history [get]
func (h *NoteHandler) History(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.notes.History(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ListPending godoc
// @Summary List notes awaiting review
// @Tags Workflow
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notes/pending [get]
func (h *NoteHandler) ListPending(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	notes, err := h.notes.ListPending(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}

// ListForStudent godoc
// @Summary List the notes recorded for a student
// @Tags Notes
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/notes [get]
func (h *NoteHandler) ListForStudent(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	notes, err := h.notes.ListForStudent(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}

func (h *NoteHandler) runTransition(c *gin.Context, fn func(ctx context.Context, id string, version int64, actor *models.ActorClaims) (*models.Note, error)) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := fn(c.Request.Context(), c.Param("id"), req.Version, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}
