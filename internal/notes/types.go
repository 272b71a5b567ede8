package notes

import (
	"encoding/json"
	"strconv"

	"github.com/carlofelipe-hub/coolifytest/internal/errs"
)

// Error sentinels returned by the service and mapped to HTTP status by callers.
var (
	// ErrNotFound is returned when an update targets an id with no row.
	ErrNotFound = errs.New(errs.NotFound, "note not found")

	// ErrContentRequired is returned when content is missing, null, or not a string.
	ErrContentRequired = errs.New(errs.InvalidArgument, "content is required and must be a string")

	// ErrInvalidID is returned when a path id is not an integer.
	ErrInvalidID = errs.New(errs.InvalidArgument, "invalid note id")
)

// Note is a single row of the notes table.
type Note struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// NoteInput is the request body for create and update. Content is a raw
// message so that null and non-string values can be told apart from "".
type NoteInput struct {
	Content json.RawMessage `json:"content"`
}

// Text validates the input and returns the content string. The empty string
// is valid content.
func (in NoteInput) Text() (string, error) {
	if len(in.Content) == 0 || string(in.Content) == "null" {
		return "", ErrContentRequired
	}
	var s string
	if err := json.Unmarshal(in.Content, &s); err != nil {
		return "", ErrContentRequired
	}
	return s, nil
}

// DecodeInput parses a create/update request body.
func DecodeInput(body []byte) (string, error) {
	var in NoteInput
	if err := json.Unmarshal(body, &in); err != nil {
		return "", errs.Wrap(errs.InvalidArgument, "invalid JSON body", err)
	}
	return in.Text()
}

// ParseID parses a note id from a path segment.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}
	return id, nil
}
