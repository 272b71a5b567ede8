package mcp

import (
	"bytes"
	"io"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/carlofelipe-hub/coolifytest/internal/logutil"
	"github.com/carlofelipe-hub/coolifytest/internal/notes"
	"github.com/carlofelipe-hub/coolifytest/internal/obs"
)

// Server wraps the MCP server with notes handling
type Server struct {
	httpHandler http.Handler
}

// NewServer creates the MCP server exposing the notes tools.
func NewServer(notesSvc *notes.Service) *Server {
	handler := NewHandler(notesSvc)

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "notes",
			Version: "1.0.0",
		},
		nil,
	)

	for _, tool := range ToolDefinitions() {
		mcp.AddTool(mcpServer, tool, handler.createToolHandler(tool.Name))
	}
	registerPrompts(mcpServer)

	// Streamable HTTP with plain JSON responses. Stateless: every request is
	// self-contained, so no session survives between calls.
	httpHandler := mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			JSONResponse: true,
			Stateless:    true,
		},
	)

	return &Server{
		httpHandler: httpHandler,
	}
}

// ServeHTTP implements http.Handler for the Streamable HTTP transport.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Mcp-Session-Id, Mcp-Protocol-Version, Last-Event-ID")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	logger := obs.From(r.Context()).With("pkg", "mcp")

	var reqBody []byte
	if r.Body != nil && r.Method == http.MethodPost {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error("mcp_request_body_read_failed", "error", err)
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		reqBody = body
		r.Body = io.NopCloser(bytes.NewReader(reqBody))
	}
	logger.Debug("mcp_request",
		"method", r.Method,
		"content_type", r.Header.Get("Content-Type"),
		"body", logutil.FormatBodyForLog(r.Header.Get("Content-Type"), reqBody),
	)

	wrapped, recorder := obs.NewResponseRecorder(w)
	s.httpHandler.ServeHTTP(wrapped, r)

	if !recorder.WroteHeader() {
		logger.Error("mcp_no_response", "method", r.Method)
		http.Error(w, "MCP handler returned without writing response", http.StatusInternalServerError)
		return
	}
	if recorder.StatusCode() >= http.StatusBadRequest {
		logger.Warn("mcp_request_failed",
			"method", r.Method,
			"status", recorder.StatusCode(),
			"remote", r.RemoteAddr,
		)
	}
}
