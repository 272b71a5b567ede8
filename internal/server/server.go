// Package server assembles the HTTP surface of the notes service: the JSON
// API, the browser UI, the MCP endpoint and the health check, behind the
// shared middleware chain.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/carlofelipe-hub/coolifytest/internal/api"
	"github.com/carlofelipe-hub/coolifytest/internal/db"
	"github.com/carlofelipe-hub/coolifytest/internal/mcp"
	"github.com/carlofelipe-hub/coolifytest/internal/notes"
	"github.com/carlofelipe-hub/coolifytest/internal/obs"
	"github.com/carlofelipe-hub/coolifytest/internal/ratelimit"
	"github.com/carlofelipe-hub/coolifytest/internal/web"
)

// Deps are the long-lived resources the handler tree is built on. They are
// created once in main and owned by the caller.
type Deps struct {
	DB *db.DB

	// RateLimiter throttles /api and /mcp per client. Nil disables limiting.
	RateLimiter *ratelimit.RateLimiter
	// TrustProxy keys the limiter on X-Forwarded-For instead of the peer address.
	TrustProxy  bool

	MCPEnabled bool
}

// NewHandler builds the complete handler tree.
func NewHandler(deps Deps) (http.Handler, error) {
	if deps.DB == nil {
		return nil, errors.New("server: DB is required")
	}

	notesSvc := notes.NewService(deps.DB)

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	limit := func(h http.Handler) http.Handler { return h }
	if deps.RateLimiter != nil {
		keyFunc := ratelimit.ClientKey
		if deps.TrustProxy {
			keyFunc = ratelimit.ForwardedClientKey
		}
		limit = ratelimit.RateLimitMiddleware(deps.RateLimiter, keyFunc)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler(deps.DB))
	mux.HandleFunc("GET /health", healthHandler(deps.DB))

	apiMux := http.NewServeMux()
	api.NewHandler(notesSvc).RegisterRoutes(apiMux)
	mux.Handle("/api/", limit(apiMux))

	if deps.MCPEnabled {
		mountMCPRoute(mux, "/mcp", limit(mcp.NewServer(notesSvc)))
	}

	web.NewWebHandler(renderer, notesSvc).RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = obs.RecoverMiddleware(handler)
	handler = obs.AccessLogMiddleware("http", handler)
	handler = obs.RequestContextMiddleware(handler)
	return handler, nil
}

// mountMCPRoute registers every Streamable HTTP method for the MCP endpoint.
func mountMCPRoute(mux *http.ServeMux, path string, handler http.Handler) {
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions} {
		mux.Handle(method+" "+path, handler)
	}
}

func healthHandler(store *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(ctx); err != nil {
			obs.From(r.Context()).Warn("health_check_failed", "error", err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "database unavailable"})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// Serve runs an http.Server on ln until ctx is cancelled, then shuts it down
// gracefully, waiting at most shutdownTimeout for in-flight requests.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, shutdownTimeout time.Duration) error {
	logger := obs.Pkg("server")
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server_shutting_down", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server_stopped")
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return Serve(ctx, ln, handler, shutdownTimeout)
}
