package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Key constants for structured log fields.
const (
	KeyComponent  = "component"
	KeySessionID  = "sessionId"
	KeyOutcome    = "outcome"
	KeyColor      = "color"
	KeyTool       = "tool"
	KeyDurationMs = "durationMs"
	KeyError      = "error"
)

// handlerBox gives the atomic pointer one concrete type whatever handler
// Init installs.
type handlerBox struct {
	h slog.Handler
}

// scope is one WithAttrs or WithGroup call, replayed in call order.
type scope struct {
	attrs []slog.Attr
	group string
}

// switchableHandler lets package-level loggers created before Init pick up
// the configured handler once Init runs.
type switchableHandler struct {
	current *atomic.Pointer[handlerBox]
	scopes  []scope
}

func (h *switchableHandler) materialize() slog.Handler {
	handler := h.current.Load().h
	for _, sc := range h.scopes {
		if sc.group != "" {
			handler = handler.WithGroup(sc.group)
		} else {
			handler = handler.WithAttrs(sc.attrs)
		}
	}
	return handler
}

func (h *switchableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.materialize().Enabled(ctx, level)
}

func (h *switchableHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.materialize().Handle(ctx, record)
}

func (h *switchableHandler) with(sc scope) *switchableHandler {
	scopes := make([]scope, 0, len(h.scopes)+1)
	scopes = append(scopes, h.scopes...)
	scopes = append(scopes, sc)
	return &switchableHandler{current: h.current, scopes: scopes}
}

func (h *switchableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(scope{attrs: attrs})
}

func (h *switchableHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(scope{group: name})
}

var root = func() *switchableHandler {
	p := &atomic.Pointer[handlerBox]{}
	// stdout carries the MCP protocol, so logs default to stderr.
	p.Store(&handlerBox{h: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})})
	return &switchableHandler{current: p}
}()

func init() {
	slog.SetDefault(slog.New(root))
}

// Init configures the global logger. Call once after config is loaded.
// format: "json" or "text" (default "text")
// level: "debug", "info", "warn", "error" (default "info")
// output: writer to log to (nil = os.Stderr)
func Init(format, level string, output io.Writer) {
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	root.current.Store(&handlerBox{h: handler})
	slog.SetDefault(slog.New(root))
}

// L returns a logger tagged with the given component name.
func L(component string) *slog.Logger {
	return slog.New(root).With(KeyComponent, component)
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
