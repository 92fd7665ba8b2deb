package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smart-notes/models"

	"github.com/google/uuid"
)

const noteColumns = "id, title, content, tags, ai_summary, owner_id, created_at, updated_at"

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var (
		note      models.Note
		tags      []byte
		aiSummary sql.NullString
	)
	if err := row.Scan(&note.ID, &note.Title, &note.Content, &tags, &aiSummary,
		&note.OwnerID, &note.CreatedAt, &note.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &note.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of note %s: %w", note.ID, err)
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	if aiSummary.Valid {
		note.AISummary = &aiSummary.String
	}
	return &note, nil
}

func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateNote assigns the note an id and timestamps and inserts it.
func (r *NoteRepository) CreateNote(ctx context.Context, note *models.Note) error {
	tags, err := encodeTags(note.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO notes ("+noteColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id, note.Title, note.Content, string(tags), nullableString(note.AISummary), note.OwnerID, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	note.ID = id
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Tags == nil {
		note.Tags = []string{}
	}
	return nil
}

func (r *NoteRepository) ListNotes(ctx context.Context, ownerID string) ([]models.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE owner_id = ? ORDER BY created_at ASC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating note rows: %w", err)
	}
	return notes, nil
}

// GetNote returns the note only when it belongs to ownerID; otherwise ErrNotFound.
func (r *NoteRepository) GetNote(ctx context.Context, id, ownerID string) (*models.Note, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id = ? AND owner_id = ?", id, ownerID)
	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return note, nil
}

// UpdateNote persists every mutable field of note. Concurrent writers race
// and the last one wins.
func (r *NoteRepository) UpdateNote(ctx context.Context, note *models.Note) error {
	tags, err := encodeTags(note.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		"UPDATE notes SET title = ?, content = ?, tags = ?, ai_summary = ?, updated_at = ? WHERE id = ?",
		note.Title, note.Content, string(tags), nullableString(note.AISummary), now, note.ID)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	note.UpdatedAt = now
	return nil
}

func (r *NoteRepository) DeleteNote(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}
