package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"smart-notes/auth"
	"smart-notes/db"
	"smart-notes/models"
	"smart-notes/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	msgInvalidInput    = "Invalid input data."
	msgUnauthorized    = "Unauthorized access."
	msgNoteIDRequired  = "Note ID is required"
	msgNoteNotFound    = "Note not found or unauthorized"
	msgNoteCreated     = "Note created successfully"
	msgNotesFetched    = "Notes fetched successfully"
	msgNoteUpdated     = "Note updated successfully"
	msgNoteDeleted     = "Note deleted successfully"
	msgInternalCreate  = "Internal server error."
	msgInternalGeneric = "Internal server error"
)

type NoteStore interface {
	CreateNote(ctx context.Context, note *models.Note) error
	ListNotes(ctx context.Context, ownerID string) ([]models.Note, error)
	GetNote(ctx context.Context, id, ownerID string) (*models.Note, error)
	UpdateNote(ctx context.Context, note *models.Note) error
	DeleteNote(ctx context.Context, id string) error
}

type NoteHandler struct {
	Notes NoteStore
}

func NewNoteHandler(notes NoteStore) *NoteHandler {
	return &NoteHandler{Notes: notes}
}

type createNoteRequest struct {
	Title     *string        `json:"title" validate:"required"`
	Content   *string        `json:"content" validate:"required"`
	Tags      []*string      `json:"tags" validate:"required,dive,required"`
	AISummary optionalString `json:"aiSummary"`
}

// summary may be omitted but not null.
func (req *createNoteRequest) summary() (string, error) {
	if !req.AISummary.Set {
		return "", nil
	}
	if req.AISummary.Value == nil {
		return "", errors.New("aiSummary must be a string")
	}
	return *req.AISummary.Value, nil
}

func derefTags(tags []*string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, *tag)
	}
	return out
}

// optionalString records whether a JSON field was present at all, so an
// explicit null can be told apart from an omitted field.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

type updateNoteRequest struct {
	Title     *string        `json:"title"`
	Content   *string        `json:"content"`
	Tags      []*string      `json:"tags" validate:"omitempty,dive,required"`
	AISummary optionalString `json:"aiSummary"`
}

// apply overwrites title and content only with non-empty values and tags only
// with a non-null list, while aiSummary is replaced whenever the field is
// present, even with "" or null.
func (req *updateNoteRequest) apply(note *models.Note) {
	if req.Title != nil && *req.Title != "" {
		note.Title = *req.Title
	}
	if req.Content != nil && *req.Content != "" {
		note.Content = *req.Content
	}
	if req.Tags != nil {
		note.Tags = derefTags(req.Tags)
	}
	if req.AISummary.Set {
		note.AISummary = req.AISummary.Value
	}
}

type noteEnvelope struct {
	Message string       `json:"message,omitempty"`
	Note    *models.Note `json:"note"`
}

type notesEnvelope struct {
	Message string        `json:"message"`
	Notes   []models.Note `json:"notes"`
}

func callerID(r *http.Request) (string, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", webutil.ErrUnauthorized(msgUnauthorized)
	}
	return userID, nil
}

// noteID reads the {id} URL parameter. Ids that can never exist are reported
// as not found rather than leaking a format error.
func noteID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return "", webutil.ErrBadRequest(msgNoteIDRequired)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", webutil.ErrNotFoundWrap(msgNoteNotFound, err)
	}
	return id, nil
}

// findOwnedNote merges "absent" and "owned by someone else" into one 404.
func (h *NoteHandler) findOwnedNote(ctx context.Context, id, userID string) (*models.Note, error) {
	note, err := h.Notes.GetNote(ctx, id, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, webutil.ErrNotFoundWrap(msgNoteNotFound, err)
		}
		return nil, webutil.ErrInternalServerWrap(msgInternalGeneric, err)
	}
	return note, nil
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) error {
	var req createNoteRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil {
		return webutil.ErrValidation(http.StatusBadRequest, msgInvalidInput, err)
	}

	summary, err := req.summary()
	if err != nil {
		return webutil.ErrValidation(http.StatusBadRequest, msgInvalidInput, err)
	}

	userID, err := callerID(r)
	if err != nil {
		return err
	}

	note := &models.Note{
		Title:     *req.Title,
		Content:   *req.Content,
		Tags:      derefTags(req.Tags),
		AISummary: &summary,
		OwnerID:   userID,
	}
	if err := h.Notes.CreateNote(r.Context(), note); err != nil {
		return webutil.ErrInternalServerWrap(msgInternalCreate, err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, noteEnvelope{Message: msgNoteCreated, Note: note})
	return nil
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) error {
	userID, err := callerID(r)
	if err != nil {
		return err
	}

	notes, err := h.Notes.ListNotes(r.Context(), userID)
	if err != nil {
		return webutil.ErrInternalServerWrap(msgInternalGeneric, err)
	}
	if notes == nil {
		notes = []models.Note{}
	}

	webutil.RespondWithJSON(w, http.StatusOK, notesEnvelope{Message: msgNotesFetched, Notes: notes})
	return nil
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) error {
	userID, err := callerID(r)
	if err != nil {
		return err
	}
	id, err := noteID(r)
	if err != nil {
		return err
	}

	note, err := h.findOwnedNote(r.Context(), id, userID)
	if err != nil {
		return err
	}

	webutil.RespondWithJSON(w, http.StatusOK, noteEnvelope{Note: note})
	return nil
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) error {
	userID, err := callerID(r)
	if err != nil {
		return err
	}
	id, err := noteID(r)
	if err != nil {
		return err
	}

	var req updateNoteRequest
	if err := webutil.DecodeAndValidate(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return webutil.ErrValidation(http.StatusBadRequest, msgInvalidInput, err)
	}

	note, err := h.findOwnedNote(r.Context(), id, userID)
	if err != nil {
		return err
	}

	req.apply(note)
	if err := h.Notes.UpdateNote(r.Context(), note); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return webutil.ErrNotFoundWrap(msgNoteNotFound, err)
		}
		return webutil.ErrInternalServerWrap(msgInternalGeneric, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, noteEnvelope{Message: msgNoteUpdated, Note: note})
	return nil
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) error {
	userID, err := callerID(r)
	if err != nil {
		return err
	}
	id, err := noteID(r)
	if err != nil {
		return err
	}

	if _, err := h.findOwnedNote(r.Context(), id, userID); err != nil {
		return err
	}
	if err := h.Notes.DeleteNote(r.Context(), id); err != nil {
		return webutil.ErrInternalServerWrap(msgInternalGeneric, err)
	}

	webutil.RespondWithMessage(w, http.StatusOK, msgNoteDeleted)
	return nil
}
