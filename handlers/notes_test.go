package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"smart-notes/auth"
	"smart-notes/db"
	"smart-notes/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userOne = "11111111-1111-1111-1111-111111111111"
	userTwo = "22222222-2222-2222-2222-222222222222"
)

// failingNotes simulates a store outage.
type failingNotes struct{}

var errStoreDown = errors.New("store down")

func (failingNotes) CreateNote(ctx context.Context, note *models.Note) error { return errStoreDown }
func (failingNotes) ListNotes(ctx context.Context, ownerID string) ([]models.Note, error) {
	return nil, errStoreDown
}
func (failingNotes) GetNote(ctx context.Context, id, ownerID string) (*models.Note, error) {
	return nil, errStoreDown
}
func (failingNotes) UpdateNote(ctx context.Context, note *models.Note) error { return errStoreDown }
func (failingNotes) DeleteNote(ctx context.Context, id string) error       { return errStoreDown }

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func withNoteID(req *http.Request, id string) *http.Request {
	chiCtx := chi.NewRouteContext()
	chiCtx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func setupNotesTest(t *testing.T) (*NoteHandler, *db.MemoryStore, []*models.Note) {
	t.Helper()
	store := db.NewMemoryStore()
	empty := ""
	seed := []*models.Note{
		{Title: "Test Note 1", Content: "Content 1", Tags: []string{"a"}, AISummary: &empty, OwnerID: userOne},
		{Title: "Test Note 2", Content: "Content 2", Tags: []string{"b", "c"}, AISummary: &empty, OwnerID: userOne},
		{Title: "Test Note 3", Content: "Content 3", Tags: []string{}, AISummary: &empty, OwnerID: userTwo},
	}
	for _, n := range seed {
		require.NoError(t, store.CreateNote(context.Background(), n))
	}
	return NewNoteHandler(store), store, seed
}

func TestCreateNote(t *testing.T) {
	h, store, _ := setupNotesTest(t)

	t.Run("Create note", func(t *testing.T) {
		req := asUser(jsonRequest("POST", "/notes/create", map[string]any{
			"title":   "T",
			"content": "C",
			"tags":    []string{"x"},
		}), userOne)
		rr := serve(h.CreateNote, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, msgNoteCreated, body["message"])
		note := body["note"].(map[string]any)
		assert.Equal(t, "T", note["title"])
		assert.Equal(t, "C", note["content"])
		assert.Equal(t, []any{"x"}, note["tags"])
		assert.Equal(t, "", note["aiSummary"])
		assert.Equal(t, userOne, note["ownerId"])

		stored, err := store.GetNote(context.Background(), note["id"].(string), userOne)
		require.NoError(t, err)
		assert.Equal(t, "T", stored.Title)
	})

	t.Run("Create note with summary and empty tags", func(t *testing.T) {
		req := asUser(jsonRequest("POST", "/notes/create", map[string]any{
			"title":     "T",
			"content":   "C",
			"tags":      []string{},
			"aiSummary": "short",
		}), userOne)
		rr := serve(h.CreateNote, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		note := decodeBody(t, rr)["note"].(map[string]any)
		assert.Equal(t, "short", note["aiSummary"])
		assert.Equal(t, []any{}, note["tags"])
	})

	invalid := map[string]map[string]any{
		"Missing title":   {"content": "C", "tags": []string{}},
		"Missing tags":    {"title": "T", "content": "C"},
		"Tags not a list": {"title": "T", "content": "C", "tags": "x"},
		"Tag not string":  {"title": "T", "content": "C", "tags": []any{1}},
		"Title not text":  {"title": 5, "content": "C", "tags": []string{}},
		"Null summary":    {"title": "T", "content": "C", "tags": []string{}, "aiSummary": nil},
		"Null tag":        {"title": "T", "content": "C", "tags": []any{nil}},
		"Null tags":       {"title": "T", "content": "C", "tags": nil},
	}
	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			rr := serve(h.CreateNote, asUser(jsonRequest("POST", "/notes/create", body), userOne))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, msgInvalidInput, decodeBody(t, rr)["message"])
		})
	}

	t.Run("No user ID in context", func(t *testing.T) {
		rr := serve(h.CreateNote, jsonRequest("POST", "/notes/create", map[string]any{
			"title": "T", "content": "C", "tags": []string{},
		}))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, msgUnauthorized, decodeBody(t, rr)["message"])
	})

	t.Run("Store failure", func(t *testing.T) {
		failing := NewNoteHandler(failingNotes{})
		rr := serve(failing.CreateNote, asUser(jsonRequest("POST", "/notes/create", map[string]any{
			"title": "T", "content": "C", "tags": []string{},
		}), userOne))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, msgInternalCreate, decodeBody(t, rr)["message"])
		assert.NotContains(t, rr.Body.String(), "store down")
	})
}

func TestListNotes(t *testing.T) {
	h, _, seed := setupNotesTest(t)

	t.Run("Get notes for user 1", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/notes/bulk", nil)
		rr := serve(h.ListNotes, asUser(req, userOne))

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, msgNotesFetched, body["message"])
		notes := body["notes"].([]any)
		require.Len(t, notes, 2)
		for _, n := range notes {
			assert.Equal(t, userOne, n.(map[string]any)["ownerId"])
		}
		assert.Equal(t, seed[0].ID, notes[0].(map[string]any)["id"])
	})

	t.Run("User without notes gets an empty list", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/notes/bulk", nil)
		rr := serve(h.ListNotes, asUser(req, "33333333-3333-3333-3333-333333333333"))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"notes":[]`)
	})

	t.Run("Store failure", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/notes/bulk", nil)
		rr := serve(NewNoteHandler(failingNotes{}).ListNotes, asUser(req, userOne))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, msgInternalGeneric, decodeBody(t, rr)["message"])
	})
}

func TestGetNote(t *testing.T) {
	h, _, seed := setupNotesTest(t)

	t.Run("Own note", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/notes/"+seed[1].ID, nil)
		rr := serve(h.GetNote, withNoteID(asUser(req, userOne), seed[1].ID))

		require.Equal(t, http.StatusOK, rr.Code)
		note := decodeBody(t, rr)["note"].(map[string]any)
		assert.Equal(t, "Test Note 2", note["title"])
		assert.Equal(t, []any{"b", "c"}, note["tags"])
	})

	t.Run("Someone else's note", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/notes/"+seed[2].ID, nil)
		rr := serve(h.GetNote, withNoteID(asUser(req, userOne), seed[2].ID))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, msgNoteNotFound, decodeBody(t, rr)["message"])
	})

	t.Run("Unknown and malformed ids", func(t *testing.T) {
		for _, id := range []string{"99999999-9999-9999-9999-999999999999", "999"} {
			req, _ := http.NewRequest("GET", "/notes/"+id, nil)
			rr := serve(h.GetNote, withNoteID(asUser(req, userOne), id))

			assert.Equal(t, http.StatusNotFound, rr.Code, "id %s", id)
		}
	})

	t.Run("Missing id", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/notes/", nil)
		rr := serve(h.GetNote, withNoteID(asUser(req, userOne), ""))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, msgNoteIDRequired, decodeBody(t, rr)["message"])
	})

	t.Run("Store failure", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/notes/"+seed[0].ID, nil)
		rr := serve(NewNoteHandler(failingNotes{}).GetNote, withNoteID(asUser(req, userOne), seed[0].ID))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestUpdateNote(t *testing.T) {
	update := func(h *NoteHandler, userID, id string, body any) map[string]any {
		req := withNoteID(asUser(jsonRequest("PUT", "/notes/"+id, body), userID), id)
		rr := serve(h.UpdateNote, req)
		result := decodeBody(t, rr)
		result["status"] = rr.Code
		return result
	}

	t.Run("Only tags change", func(t *testing.T) {
		h, store, seed := setupNotesTest(t)
		res := update(h, userOne, seed[0].ID, map[string]any{"tags": []string{"new"}})

		require.Equal(t, http.StatusOK, res["status"])
		assert.Equal(t, msgNoteUpdated, res["message"])
		stored, err := store.GetNote(context.Background(), seed[0].ID, userOne)
		require.NoError(t, err)
		assert.Equal(t, "Test Note 1", stored.Title)
		assert.Equal(t, "Content 1", stored.Content)
		assert.Equal(t, []string{"new"}, stored.Tags)
	})

	t.Run("Empty title and null content are ignored", func(t *testing.T) {
		h, store, seed := setupNotesTest(t)
		res := update(h, userOne, seed[0].ID, map[string]any{"title": "", "content": nil, "tags": nil})

		require.Equal(t, http.StatusOK, res["status"])
		stored, err := store.GetNote(context.Background(), seed[0].ID, userOne)
		require.NoError(t, err)
		assert.Equal(t, "Test Note 1", stored.Title)
		assert.Equal(t, "Content 1", stored.Content)
		assert.Equal(t, []string{"a"}, stored.Tags)
	})

	t.Run("Title and content replaced", func(t *testing.T) {
		h, _, seed := setupNotesTest(t)
		res := update(h, userOne, seed[0].ID, map[string]any{"title": "New", "content": "Body"})

		require.Equal(t, http.StatusOK, res["status"])
		note := res["note"].(map[string]any)
		assert.Equal(t, "New", note["title"])
		assert.Equal(t, "Body", note["content"])
	})

	t.Run("aiSummary presence semantics", func(t *testing.T) {
		h, store, seed := setupNotesTest(t)

		res := update(h, userOne, seed[0].ID, map[string]any{"aiSummary": "summary"})
		require.Equal(t, http.StatusOK, res["status"])
		stored, _ := store.GetNote(context.Background(), seed[0].ID, userOne)
		require.NotNil(t, stored.AISummary)
		assert.Equal(t, "summary", *stored.AISummary)

		// Omitting the field keeps the value
		update(h, userOne, seed[0].ID, map[string]any{"title": "Renamed"})
		stored, _ = store.GetNote(context.Background(), seed[0].ID, userOne)
		assert.Equal(t, "summary", *stored.AISummary)

		// An empty string clears it
		update(h, userOne, seed[0].ID, map[string]any{"aiSummary": ""})
		stored, _ = store.GetNote(context.Background(), seed[0].ID, userOne)
		require.NotNil(t, stored.AISummary)
		assert.Equal(t, "", *stored.AISummary)

		// An explicit null sets it to null
		res = update(h, userOne, seed[0].ID, map[string]any{"aiSummary": nil})
		assert.Nil(t, res["note"].(map[string]any)["aiSummary"])
		stored, _ = store.GetNote(context.Background(), seed[0].ID, userOne)
		assert.Nil(t, stored.AISummary)
	})

	t.Run("Empty body keeps the note", func(t *testing.T) {
		h, _, seed := setupNotesTest(t)
		req, _ := http.NewRequest("PUT", "/notes/"+seed[0].ID, strings.NewReader(""))
		rr := serve(h.UpdateNote, withNoteID(asUser(req, userOne), seed[0].ID))

		require.Equal(t, http.StatusOK, rr.Code)
		note := decodeBody(t, rr)["note"].(map[string]any)
		assert.Equal(t, "Test Note 1", note["title"])
	})

	t.Run("Invalid field types", func(t *testing.T) {
		h, _, seed := setupNotesTest(t)
		res := update(h, userOne, seed[0].ID, map[string]any{"tags": "x"})

		assert.Equal(t, http.StatusBadRequest, res["status"])
		assert.Equal(t, msgInvalidInput, res["message"])
	})

	t.Run("Null tag element", func(t *testing.T) {
		h, store, seed := setupNotesTest(t)
		res := update(h, userOne, seed[0].ID, map[string]any{"tags": []any{"ok", nil}})

		assert.Equal(t, http.StatusBadRequest, res["status"])
		stored, err := store.GetNote(context.Background(), seed[0].ID, userOne)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, stored.Tags)
	})

	t.Run("Someone else's note", func(t *testing.T) {
		h, store, seed := setupNotesTest(t)
		res := update(h, userOne, seed[2].ID, map[string]any{"title": "Hijacked"})

		assert.Equal(t, http.StatusNotFound, res["status"])
		stored, err := store.GetNote(context.Background(), seed[2].ID, userTwo)
		require.NoError(t, err)
		assert.Equal(t, "Test Note 3", stored.Title)
	})

	t.Run("Store failure", func(t *testing.T) {
		h := NewNoteHandler(failingNotes{})
		res := update(h, userOne, userOne, map[string]any{"title": "x"})

		assert.Equal(t, http.StatusInternalServerError, res["status"])
	})
}

func TestDeleteNote(t *testing.T) {
	h, store, seed := setupNotesTest(t)

	del := func(userID, id string) map[string]any {
		req, _ := http.NewRequest("DELETE", "/notes/"+id, nil)
		rr := serve(h.DeleteNote, withNoteID(asUser(req, userID), id))
		result := decodeBody(t, rr)
		result["status"] = rr.Code
		return result
	}

	t.Run("Delete someone else's note", func(t *testing.T) {
		res := del(userOne, seed[2].ID)

		assert.Equal(t, http.StatusNotFound, res["status"])
		_, err := store.GetNote(context.Background(), seed[2].ID, userTwo)
		assert.NoError(t, err, "Note should still exist")
	})

	t.Run("Delete non-existent note", func(t *testing.T) {
		res := del(userOne, "99999999-9999-9999-9999-999999999999")

		assert.Equal(t, http.StatusNotFound, res["status"])
		assert.Equal(t, msgNoteNotFound, res["message"])
	})

	t.Run("Delete own note", func(t *testing.T) {
		res := del(userOne, seed[1].ID)

		require.Equal(t, http.StatusOK, res["status"])
		assert.Equal(t, msgNoteDeleted, res["message"])
		_, err := store.GetNote(context.Background(), seed[1].ID, userOne)
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("Delete twice", func(t *testing.T) {
		res := del(userOne, seed[1].ID)

		assert.Equal(t, http.StatusNotFound, res["status"])
	})

	t.Run("Store failure", func(t *testing.T) {
		req, _ := http.NewRequest("DELETE", "/notes/"+seed[0].ID, nil)
		rr := serve(NewNoteHandler(failingNotes{}).DeleteNote, withNoteID(asUser(req, userOne), seed[0].ID))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
