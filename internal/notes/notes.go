package notes

import (
	"context"
	"database/sql"
	"errors"

	"github.com/carlofelipe-hub/coolifytest/internal/db"
	"github.com/carlofelipe-hub/coolifytest/internal/errs"
	"github.com/carlofelipe-hub/coolifytest/internal/obs"
)

// SetupMessage is the body message reported after schema setup succeeds.
const SetupMessage = "Table created successfully"

// Service handles note CRUD over the shared pool. Each operation is a single
// statement; there are no transactions and concurrent updates are last write
// wins.
type Service struct {
	db *db.DB
}

// NewService creates a notes service bound to the shared pool.
func NewService(store *db.DB) *Service {
	return &Service{db: store}
}

// Setup creates the notes table if it does not exist.
func (s *Service) Setup(ctx context.Context) error {
	if err := s.db.EnsureSchema(ctx); err != nil {
		return err
	}
	obs.From(ctx).Info("notes_schema_ready", "dialect", s.db.Dialect().Name)
	return nil
}

// List returns every note ordered by id. An empty table yields an empty,
// non-nil slice.
func (s *Service) List(ctx context.Context) ([]Note, error) {
	rows, err := s.db.Query(ctx, "SELECT id, content FROM notes ORDER BY id")
	if err != nil {
		return nil, errs.Store("failed to list notes", err)
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Content); err != nil {
			return nil, errs.Store("failed to scan note", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("failed to list notes", err)
	}
	return notes, nil
}

// Create inserts a note and returns it with its store-assigned id.
func (s *Service) Create(ctx context.Context, content string) (*Note, error) {
	if s.db.Dialect().Returning {
		note := &Note{}
		err := s.db.QueryRow(ctx,
			"INSERT INTO notes (content) VALUES (?) RETURNING id, content", content,
		).Scan(&note.ID, &note.Content)
		if err != nil {
			return nil, errs.Store("failed to create note", err)
		}
		return note, nil
	}

	res, err := s.db.Exec(ctx, "INSERT INTO notes (content) VALUES (?)", content)
	if err != nil {
		return nil, errs.Store("failed to create note", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errs.Store("failed to read new note id", err)
	}
	return &Note{ID: id, Content: content}, nil
}

// Update replaces the content of note id. It returns ErrNotFound when no row
// has that id.
func (s *Service) Update(ctx context.Context, id int64, content string) (*Note, error) {
	if s.db.Dialect().Returning {
		note := &Note{}
		err := s.db.QueryRow(ctx,
			"UPDATE notes SET content = ? WHERE id = ? RETURNING id, content", content, id,
		).Scan(&note.ID, &note.Content)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, errs.Store("failed to update note", err)
		}
		return note, nil
	}

	res, err := s.db.Exec(ctx, "UPDATE notes SET content = ? WHERE id = ?", content, id)
	if err != nil {
		return nil, errs.Store("failed to update note", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errs.Store("failed to update note", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return &Note{ID: id, Content: content}, nil
}

// Delete removes note id. Deleting a missing id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM notes WHERE id = ?", id); err != nil {
		return errs.Store("failed to delete note", err)
	}
	return nil
}
