package obs

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

// ResponseRecorder remembers the status and body size written through it.
type ResponseRecorder struct {
	http.ResponseWriter
	status  int
	written int64
	started bool
}

func (r *ResponseRecorder) WriteHeader(code int) {
	if r.started {
		return
	}
	r.status, r.started = code, true
	r.ResponseWriter.WriteHeader(code)
}

func (r *ResponseRecorder) Write(p []byte) (int, error) {
	if !r.started {
		r.status, r.started = http.StatusOK, true
	}
	n, err := r.ResponseWriter.Write(p)
	r.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *ResponseRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (r *ResponseRecorder) StatusCode() int  { return r.status }
func (r *ResponseRecorder) RespBytes() int64 { return r.written }
func (r *ResponseRecorder) WroteHeader() bool { return r.started }

type flushingRecorder struct{ *ResponseRecorder }

func (f flushingRecorder) Flush() { f.ResponseWriter.(http.Flusher).Flush() }

// NewResponseRecorder wraps w. The returned writer is an http.Flusher
// exactly when w is; the recorder is for reading the outcome.
func NewResponseRecorder(w http.ResponseWriter) (http.ResponseWriter, *ResponseRecorder) {
	rec := &ResponseRecorder{ResponseWriter: w, status: http.StatusOK}
	if _, ok := w.(http.Flusher); ok {
		return flushingRecorder{rec}, rec
	}
	return rec, rec
}

// RequestContextMiddleware attaches a Correlation to the request context.
// The request id is taken from X-Request-Id, else the W3C trace id, else a
// fresh uuid, and is echoed back in the response.
func RequestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := Correlation{
			RequestID:    strings.TrimSpace(r.Header.Get("X-Request-Id")),
			TraceID:      extractTraceID(r.Header.Get("traceparent")),
			MCPSessionID: strings.TrimSpace(r.Header.Get("Mcp-Session-Id")),
		}
		switch {
		case corr.RequestID != "":
		case corr.TraceID != "":
			corr.RequestID = corr.TraceID
		default:
			corr.RequestID = newRequestID()
		}
		w.Header().Set("X-Request-Id", corr.RequestID)
		next.ServeHTTP(w, r.WithContext(WithCorrelation(r.Context(), corr)))
	})
}

// AccessLogMiddleware logs one http_access event per request: debug for
// normal traffic, warn for 5xx.
func AccessLogMiddleware(pkg string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped, rec := NewResponseRecorder(w)
		next.ServeHTTP(wrapped, r)

		lvl := slog.LevelDebug
		if rec.StatusCode() >= http.StatusInternalServerError {
			lvl = slog.LevelWarn
		}
		From(r.Context()).Log(r.Context(), lvl, "http_access",
			"pkg", pkg,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.StatusCode(),
			"dur_ms", float64(time.Since(start).Microseconds())/1000.0,
			"req_bytes", max(r.ContentLength, 0),
			"resp_bytes", rec.RespBytes(),
		)
	})
}

// RecoverMiddleware turns a handler panic into a 500 JSON error response.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped, recorder := NewResponseRecorder(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			From(r.Context()).Error("http_panic",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			if recorder.WroteHeader() {
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
		}()
		next.ServeHTTP(wrapped, r)
	})
}

// extractTraceID returns the lowercase trace-id of a version-00 style
// traceparent header, or "" when the header is malformed or all zeros.
func extractTraceID(traceparent string) string {
	parts := strings.Split(strings.TrimSpace(traceparent), "-")
	if len(parts) != 4 || len(parts[1]) != 32 {
		return ""
	}
	id := strings.ToLower(parts[1])
	raw, err := hex.DecodeString(id)
	if err != nil || bytes.Count(raw, []byte{0}) == len(raw) {
		return ""
	}
	return id
}
