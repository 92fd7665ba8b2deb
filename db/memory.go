package db

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"smart-notes/models"

	"github.com/google/uuid"
)

// MemoryStore keeps users and notes in process memory. It backs the
// "memory" driver for local runs and the handler tests; it mirrors the
// MySQL repositories including the unique email constraint.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]models.User
	notes map[string]models.Note
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]models.User),
		notes: make(map[string]models.Note),
	}
}

func (s *MemoryStore) PingContext(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return nil, ErrDuplicateEmail
		}
	}
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[user.ID] = user
	return &user, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func cloneNote(n models.Note) models.Note {
	n.Tags = slices.Clone(n.Tags)
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.AISummary != nil {
		summary := *n.AISummary
		n.AISummary = &summary
	}
	return n
}

func (s *MemoryStore) CreateNote(ctx context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	note.ID = uuid.NewString()
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Tags == nil {
		note.Tags = []string{}
	}
	s.notes[note.ID] = cloneNote(*note)
	s.order = append(s.order, note.ID)
	return nil
}

func (s *MemoryStore) ListNotes(ctx context.Context, ownerID string) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := []models.Note{}
	for _, id := range s.order {
		if n := s.notes[id]; n.OwnerID == ownerID {
			notes = append(notes, cloneNote(n))
		}
	}
	return notes, nil
}

func (s *MemoryStore) GetNote(ctx context.Context, id, ownerID string) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	note := cloneNote(n)
	return &note, nil
}

func (s *MemoryStore) UpdateNote(ctx context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notes[note.ID]
	if !ok {
		return ErrNotFound
	}
	note.UpdatedAt = time.Now().UTC()
	updated := cloneNote(*note)
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	s.notes[note.ID] = updated
	return nil
}

func (s *MemoryStore) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return nil
	}
	delete(s.notes, id)
	s.order = slices.DeleteFunc(s.order, func(noteID string) bool { return noteID == id })
	return nil
}
