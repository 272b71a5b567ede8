// Package client is a Go client for the notes HTTP API, plus the UI state
// machine built on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carlofelipe-hub/coolifytest/internal/notes"
)

// ErrInvalidData is returned when a 2xx response does not have the expected shape.
var ErrInvalidData = errors.New("Invalid data format received from server")

// APIError is a non-2xx response. Message is the server's {"error"} text, or
// the status text when the body has none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to a notes server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns every note.
func (c *Client) List(ctx context.Context) ([]notes.Note, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &raw); err != nil {
		return nil, err
	}
	// Anything but an array (including null) is malformed.
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, ErrInvalidData
	}
	var list []notes.Note
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, ErrInvalidData
	}
	return list, nil
}

// Create adds a note and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, content string) (notes.Note, error) {
	var note notes.Note
	if err := c.do(ctx, http.MethodPost, "/api/notes", contentBody{Content: content}, &note); err != nil {
		return notes.Note{}, err
	}
	if note.ID == 0 {
		return notes.Note{}, ErrInvalidData
	}
	return note, nil
}

// Update replaces the content of note id.
func (c *Client) Update(ctx context.Context, id int64, content string) (notes.Note, error) {
	var note notes.Note
	path := "/api/notes/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, contentBody{Content: content}, &note); err != nil {
		return notes.Note{}, err
	}
	if note.ID == 0 {
		return notes.Note{}, ErrInvalidData
	}
	return note, nil
}

// Delete removes note id. Deleting a missing note succeeds.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/notes/"+strconv.FormatInt(id, 10), nil, nil)
}

// Setup asks the server to create the notes table and returns its message.
func (c *Client) Setup(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/setup", nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Render returns the sanitized HTML the server produces for content.
func (c *Client) Render(ctx context.Context, content string) (string, error) {
	var out struct {
		HTML string `json:"html"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/render", contentBody{Content: content}, &out); err != nil {
		return "", err
	}
	return out.HTML, nil
}

type contentBody struct {
	Content string `json:"content"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return ErrInvalidData
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != nil && *payload.Error != "" {
		return &APIError{Status: status, Message: *payload.Error}
	}
	msg := http.StatusText(status)
	if msg == "" {
		msg = "HTTP " + strconv.Itoa(status)
	}
	return &APIError{Status: status, Message: msg}
}
