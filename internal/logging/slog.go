package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName identifies the engine in OTel and GELF output.
const ServiceName = "gridwars"

// Outputs lists where Setup sends records besides the console. Every field
// is optional.
type Outputs struct {
	Console  io.Writer // defaults to os.Stdout
	File     io.Writer
	Provider *sdklog.LoggerProvider
	GELF     MessageWriter
}

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger
	load   *LoadHandler
	sinks  *fanout

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system.
func (m *SlogManager) Setup(level string, out Outputs) {
	lvl := ParseLevel(level)
	m.logProvider = out.Provider

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	console := out.Console
	if console == nil {
		console = os.Stdout
	}
	handlers := []slog.Handler{slog.NewTextHandler(console, handlerOpts)}

	if out.File != nil {
		handlers = append(handlers, slog.NewTextHandler(out.File, handlerOpts))
	}
	if out.Provider != nil {
		handlers = append(handlers, otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(out.Provider)))
	}
	if out.GELF != nil {
		handlers = append(handlers, NewGELFHandler(out.GELF, lvl))
	}

	m.sinks = newFanout(handlers...)
	m.load = NewLoadHandler(m.sinks)
	m.logger = slog.New(m.load)
	m.logger.Info("Logging initialized", "level", level, "sinks", len(m.sinks.sinks))
}

// Watch stamps every later record with the load of lp and tasks.
func (m *SlogManager) Watch(lp Backlog, tasks Tasks) {
	if m.load != nil {
		m.load.Watch(lp, tasks)
	}
}

// Dropped counts records a sink failed to take, a dead GELF socket say.
func (m *SlogManager) Dropped() int64 {
	if m.sinks == nil {
		return 0
	}
	return m.sinks.dropped.Load()
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// fanout hands each record to every sink enabled for its level. One failing
// sink does not keep the record from the others.
type fanout struct {
	sinks   []slog.Handler
	dropped *atomic.Int64
}

func newFanout(sinks ...slog.Handler) *fanout {
	f := &fanout{dropped: new(atomic.Int64)}
	for _, h := range sinks {
		if h != nil {
			f.sinks = append(f.sinks, h)
		}
	}
	return f
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.sinks {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f.sinks {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			f.dropped.Add(1)
		}
	}
	return nil
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanout) derive(fn func(slog.Handler) slog.Handler) *fanout {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, h := range f.sinks {
		sinks[i] = fn(h)
	}
	return &fanout{sinks: sinks, dropped: f.dropped}
}
