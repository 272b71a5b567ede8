// Package obs owns the process logger and per-request log correlation.
//
// Every log line is one JSON object on stderr. Handlers log through
// From(ctx) so request_id and trace_id follow the request; background code
// uses Pkg.
package obs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Correlation identifies the request a log line belongs to.
type Correlation struct {
	RequestID    string
	TraceID      string
	MCPSessionID string
}

func (c Correlation) merge(next Correlation) Correlation {
	if next.RequestID != "" {
		c.RequestID = next.RequestID
	}
	if next.TraceID != "" {
		c.TraceID = next.TraceID
	}
	if next.MCPSessionID != "" {
		c.MCPSessionID = next.MCPSessionID
	}
	return c
}

func (c Correlation) attrs() []any {
	var out []any
	for _, kv := range [...][2]string{
		{"request_id", c.RequestID},
		{"trace_id", c.TraceID},
		{"mcp_session_id", c.MCPSessionID},
	} {
		if kv[1] != "" {
			out = append(out, kv[0], kv[1])
		}
	}
	return out
}

type correlationKey struct{}

// WithCorrelation returns ctx carrying corr. Empty fields keep the values
// ctx already had.
func WithCorrelation(ctx context.Context, corr Correlation) context.Context {
	return context.WithValue(ctx, correlationKey{}, CorrelationFromContext(ctx).merge(corr))
}

// CorrelationFromContext returns the correlation stored in ctx, if any.
func CorrelationFromContext(ctx context.Context) Correlation {
	if ctx == nil {
		return Correlation{}
	}
	corr, _ := ctx.Value(correlationKey{}).(Correlation)
	return corr
}

var (
	mu     sync.RWMutex
	root   *slog.Logger
	level  = new(slog.LevelVar)
	output io.Writer = os.Stderr
)

// Init installs the JSON logger as the slog default. Calling it again is a no-op.
func Init() {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		install(output)
	}
}

// install must be called with mu held.
func install(w io.Writer) {
	root = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: utcTime,
	}))
	slog.SetDefault(root)
}

func utcTime(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.TimeKey {
		return attr
	}
	if t, ok := attr.Value.Any().(time.Time); ok {
		return slog.String(slog.TimeKey, t.UTC().Format(time.RFC3339Nano))
	}
	return attr
}

// SetLevel parses name (debug, info, warn, error) and applies it. It
// reports false, leaving the level alone, when name is not a level.
func SetLevel(name string) bool {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return false
	}
	level.Set(l)
	return true
}

// SetOutputForTests sends every level to w until the returned func is called.
func SetOutputForTests(w io.Writer) func() {
	mu.Lock()
	prevRoot, prevLevel := root, level.Level()
	level.Set(slog.LevelDebug)
	install(w)
	mu.Unlock()

	return func() {
		mu.Lock()
		defer mu.Unlock()
		level.Set(prevLevel)
		if prevRoot == nil {
			install(output)
			return
		}
		root = prevRoot
		slog.SetDefault(root)
	}
}

func current() *slog.Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	if l == nil {
		Init()
		mu.RLock()
		l = root
		mu.RUnlock()
	}
	return l
}

// Pkg returns the logger tagged with pkg.
func Pkg(pkg string) *slog.Logger {
	return current().With("pkg", pkg)
}

// From returns the logger tagged with the correlation carried by ctx.
func From(ctx context.Context) *slog.Logger {
	attrs := CorrelationFromContext(ctx).attrs()
	if len(attrs) == 0 {
		return current()
	}
	return current().With(attrs...)
}

func newRequestID() string {
	return "req-" + uuid.NewString()
}
