package web

import (
	"io/fs"
	"net/http"

	"github.com/carlofelipe-hub/coolifytest/internal/notes"
	"github.com/carlofelipe-hub/coolifytest/internal/obs"
)

// PageData is passed to every page template.
type PageData struct {
	Title string
	Notes []notes.Note
}

// WebHandler provides HTTP handlers for the UI.
type WebHandler struct {
	renderer     *Renderer
	notesService *notes.Service
	static       http.Handler
}

// NewWebHandler creates a new web handler serving the embedded assets.
func NewWebHandler(renderer *Renderer, notesService *notes.Service) *WebHandler {
	assets, err := fs.Sub(staticFS, "static")
	if err != nil {
		// staticFS is embedded at build time; "static" always exists.
		panic(err)
	}
	return &WebHandler{
		renderer:     renderer,
		notesService: notesService,
		static:       http.StripPrefix("/static/", http.FileServerFS(assets)),
	}
}

// RegisterRoutes registers the UI routes on the given mux.
func (h *WebHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.Handle("GET /static/", h.static)
}

// HandleIndex renders the application shell. The current list is embedded
// for clients without JavaScript; a failed list still renders the page and
// leaves the error to the script's first fetch.
func (h *WebHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := h.notesService.List(r.Context())
	if err != nil {
		obs.From(r.Context()).Warn("web_index_list_failed", "error", err.Error())
		list = []notes.Note{}
	}

	if err := h.renderer.Render(w, "index.html", PageData{Notes: list}); err != nil {
		obs.From(r.Context()).Error("web_render_failed", "template", "index.html", "error", err.Error())
		h.renderer.RenderError(w, http.StatusInternalServerError, "Failed to render page")
	}
}
