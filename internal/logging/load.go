package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Backlog is satisfied by *loop.Loop.
type Backlog interface {
	Backlog() int
}

// Tasks is satisfied by *scheduler.Scheduler.
type Tasks interface {
	Len() int
}

type load struct {
	loop  Backlog
	tasks Tasks
}

// LoadHandler stamps every record with the engine's load: "backlog" is the
// number of jobs waiting on the event loop and "tasks.pending" the number of
// units waiting on a tick. Records logged before Watch pass through bare,
// since logging starts before the loop exists.
type LoadHandler struct {
	inner slog.Handler
	src   *atomic.Pointer[load]
}

func NewLoadHandler(inner slog.Handler) *LoadHandler {
	return &LoadHandler{inner: inner, src: new(atomic.Pointer[load])}
}

// Watch binds the loop and scheduler. Either may be nil. Loggers derived
// with WithAttrs or WithGroup see the binding too.
func (h *LoadHandler) Watch(lp Backlog, tasks Tasks) {
	h.src.Store(&load{loop: lp, tasks: tasks})
}

func (h *LoadHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *LoadHandler) Handle(ctx context.Context, r slog.Record) error {
	if l := h.src.Load(); l != nil {
		if l.loop != nil {
			r.AddAttrs(slog.Int("backlog", l.loop.Backlog()))
		}
		if l.tasks != nil {
			r.AddAttrs(slog.Int("tasks.pending", l.tasks.Len()))
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *LoadHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LoadHandler{inner: h.inner.WithAttrs(attrs), src: h.src}
}

func (h *LoadHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &LoadHandler{inner: h.inner.WithGroup(name), src: h.src}
}
