package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/carlofelipe-hub/coolifytest/internal/errs"
	"github.com/carlofelipe-hub/coolifytest/internal/logutil"
	"github.com/carlofelipe-hub/coolifytest/internal/notes"
	"github.com/carlofelipe-hub/coolifytest/internal/obs"
)

// Handler wraps the notes service and provides HTTP handlers
type Handler struct {
	notesService *notes.Service
}

// NewHandler creates a new API handler with the given notes service
func NewHandler(notesService *notes.Service) *Handler {
	return &Handler{notesService: notesService}
}

// RegisterRoutes registers all notes API routes on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/notes", h.ListNotes)
	mux.HandleFunc("POST /api/notes", h.CreateNote)
	mux.HandleFunc("PUT /api/notes/{id}", h.UpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", h.DeleteNote)
	mux.HandleFunc("GET /api/setup", h.Setup)
	mux.HandleFunc("POST /api/render", h.Render)
	mux.HandleFunc("/api/", unmatched(mux))
}

// probeMethods are tried when a request matches no route, to tell a wrong
// method apart from an unknown path.
var probeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// unmatched answers requests no API route claims with the usual {"error"}
// body: 405 plus Allow when another method would match, 404 otherwise.
func unmatched(mux *http.ServeMux) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var allow []string
		for _, method := range probeMethods {
			probe := r.Clone(r.Context())
			probe.Method = method
			if _, pattern := mux.Handler(probe); pattern != "" && pattern != "/api/" {
				allow = append(allow, method)
			}
		}
		if len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
			writeError(w, r, errs.New(errs.MethodNotAllowed, "method not allowed"))
			return
		}
		writeError(w, r, errs.New(errs.NotFound, "not found"))
	}
}

// SetupResponse is the body returned by GET /api/setup.
type SetupResponse struct {
	Message string `json:"message"`
}

// RenderResponse is the body returned by POST /api/render.
type RenderResponse struct {
	HTML string `json:"html"`
}

// ListNotes handles GET /api/notes - returns every note ordered by id
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	result, err := h.notesService.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateNote handles POST /api/notes - creates a new note
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	content, err := readContent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	note, err := h.notesService.Create(r.Context(), content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNote handles PUT /api/notes/{id} - replaces a note's content
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := notes.ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	content, err := readContent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	note, err := h.notesService.Update(r.Context(), id, content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id} - 204 whether or not the note existed
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := notes.ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.notesService.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Setup handles GET /api/setup - creates the notes table if absent
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	if err := h.notesService.Setup(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SetupResponse{Message: notes.SetupMessage})
}

// Render handles POST /api/render - returns sanitized HTML for note content
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	content, err := readContent(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{HTML: notes.RenderMarkdown(content)})
}

func readContent(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", errs.Wrap(errs.InvalidArgument, "failed to read request body", err)
	}
	content, err := notes.DecodeInput(body)
	if err != nil {
		obs.From(r.Context()).Debug("api_invalid_body",
			"path", r.URL.Path,
			"body", logutil.FormatBodyForLog(r.Header.Get("Content-Type"), body),
		)
		return "", err
	}
	return content, nil
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps a coded error to its status and writes {"error": msg}.
// Server-side failures are logged with the request's correlation fields.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(errs.CodeOf(err))
	message := errs.MessageOf(err)
	if status >= http.StatusInternalServerError {
		obs.From(r.Context()).Error("api_request_failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err.Error(),
		)
	}
	writeJSON(w, status, ErrorResponse{Error: message})
}
