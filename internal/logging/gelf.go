package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/Graylog2/go-gelf/gelf"
)

// syslog severities used by GELF
const (
	gelfError   int32 = 3
	gelfWarning int32 = 4
	gelfInfo    int32 = 6
	gelfDebug   int32 = 7
)

// MessageWriter is the part of *gelf.Writer the handler needs.
type MessageWriter interface {
	WriteMessage(m *gelf.Message) error
}

// GELFHandler sends records to Graylog as GELF messages. Attributes become
// additional fields, prefixed by their group names.
type GELFHandler struct {
	w      MessageWriter
	level  slog.Leveler
	host   string
	attrs  []slog.Attr
	groups []string
}

// NewGELFHandler creates a handler writing to w at level and above.
func NewGELFHandler(w MessageWriter, level slog.Leveler) *GELFHandler {
	host, err := os.Hostname()
	if err != nil {
		host = "gridwars"
	}
	return &GELFHandler{w: w, level: level, host: host}
}

// DialGELF opens a UDP GELF writer to addr.
func DialGELF(addr string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, err
	}
	w.Facility = ServiceName
	return w, nil
}

func (h *GELFHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *GELFHandler) Handle(_ context.Context, r slog.Record) error {
	extra := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		addExtra(extra, "", a)
	}
	prefix := groupPrefix(h.groups)
	r.Attrs(func(a slog.Attr) bool {
		addExtra(extra, prefix, a)
		return true
	})

	m := &gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    r.Message,
		TimeUnix: float64(r.Time.UnixNano()) / 1e9,
		Level:    gelfLevel(r.Level),
		Facility: ServiceName,
		Extra:    extra,
	}
	return h.w.WriteMessage(m)
}

func (h *GELFHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := groupPrefix(h.groups)
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), prefixed(prefix, attrs)...)
	return &next
}

func (h *GELFHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string{}, h.groups...), name)
	return &next
}

func gelfLevel(l slog.Level) int32 {
	switch {
	case l >= slog.LevelError:
		return gelfError
	case l >= slog.LevelWarn:
		return gelfWarning
	case l >= slog.LevelInfo:
		return gelfInfo
	default:
		return gelfDebug
	}
}

func groupPrefix(groups []string) string {
	if len(groups) == 0 {
		return ""
	}
	return strings.Join(groups, "_") + "_"
}

func prefixed(prefix string, attrs []slog.Attr) []slog.Attr {
	if prefix == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

// addExtra flattens a into extra. GELF field names must start with an
// underscore.
func addExtra(extra map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "_"
		}
		for _, ga := range v.Group() {
			addExtra(extra, p, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	key := "_" + prefix + a.Key
	switch v.Kind() {
	case slog.KindString:
		extra[key] = v.String()
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindBool:
		extra[key] = v.Any()
	default:
		if err, ok := v.Any().(error); ok {
			extra[key] = err.Error()
			return
		}
		extra[key] = v.String()
	}
}
