package client

import (
	"context"

	"github.com/carlofelipe-hub/coolifytest/internal/notes"
)

// API is the subset of Client the Model drives.
type API interface {
	List(ctx context.Context) ([]notes.Note, error)
	Create(ctx context.Context, content string) (notes.Note, error)
	Update(ctx context.Context, id int64, content string) (notes.Note, error)
	Delete(ctx context.Context, id int64) error
}

// Model is the client-side view of the notes list. It is fetched once on
// Mount and afterwards reconciled from each mutating response. Other
// clients' changes stay invisible until the next Mount.
//
// Model is not safe for concurrent use.
type Model struct {
	api API

	Notes   []notes.Note
	Draft   string
	Editing *notes.Note
	Err     string
}

// NewModel returns an empty model over api.
func NewModel(api API) *Model {
	return &Model{api: api, Notes: []notes.Note{}}
}

// Mount loads the list. On failure the list is emptied and Err is set.
func (m *Model) Mount(ctx context.Context) {
	list, err := m.api.List(ctx)
	if err != nil {
		m.Notes = []notes.Note{}
		m.Err = err.Error()
		return
	}
	m.Notes = list
	m.Err = ""
}

// SetDraft replaces the form content.
func (m *Model) SetDraft(s string) {
	m.Draft = s
}

// SubmitCreate creates a note from Draft and appends it.
func (m *Model) SubmitCreate(ctx context.Context) {
	note, err := m.api.Create(ctx, m.Draft)
	if err != nil {
		m.Err = err.Error()
		return
	}
	if note.ID == 0 {
		m.Err = ErrInvalidData.Error()
		return
	}
	m.Notes = append(m.Notes, note)
	m.Draft = ""
	m.Err = ""
}

// SelectEdit switches the form to editing note.
func (m *Model) SelectEdit(note notes.Note) {
	n := note
	m.Editing = &n
	m.Draft = note.Content
}

// CancelEdit leaves edit mode and clears the form.
func (m *Model) CancelEdit() {
	m.Editing = nil
	m.Draft = ""
}

// SubmitUpdate saves Draft into the note being edited. Outside edit mode it
// does nothing. On failure the model stays in edit mode.
func (m *Model) SubmitUpdate(ctx context.Context) {
	if m.Editing == nil {
		return
	}
	note, err := m.api.Update(ctx, m.Editing.ID, m.Draft)
	if err != nil {
		m.Err = err.Error()
		return
	}
	for i := range m.Notes {
		if m.Notes[i].ID == note.ID {
			m.Notes[i] = note
		}
	}
	m.Editing = nil
	m.Draft = ""
	m.Err = ""
}

// Delete removes note id locally once the server confirms.
func (m *Model) Delete(ctx context.Context, id int64) {
	if err := m.api.Delete(ctx, id); err != nil {
		m.Err = err.Error()
		return
	}
	kept := make([]notes.Note, 0, len(m.Notes))
	for _, n := range m.Notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	m.Notes = kept
	m.Err = ""
}

// IsEditing reports whether the form is an update form.
func (m *Model) IsEditing() bool {
	return m.Editing != nil
}
