package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrDuplicateName  = errors.New("event already registered")
	ErrNoSuchEvent    = errors.New("no such event")
	ErrNoSuchListener = errors.New("no such listener")
)

// Outcome tells Fire whether to keep calling listeners.
type Outcome bool

const (
	Continue Outcome = false
	Stop     Outcome = true
)

// Listener handles a fired event. Returning Stop skips the remaining
// listeners. An error aborts the fire and is returned to the caller.
type Listener func(payload any) (Outcome, error)

// Handle identifies a listener so it can be removed again.
type Handle uint64

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures a Bus.
type Option func(*Bus)

// Logged adds debug logging to every fire.
func Logged() Option {
	return func(b *Bus) {
		b.logged = true
	}
}

type entry struct {
	handle Handle
	fn     Listener
}

// Bus is a name-keyed publish/subscribe registry. Events must be registered
// before anyone can listen to or fire them.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]entry
	next      Handle
	logger    Logger
	logged    bool

	fired  metric.Int64Counter
	called metric.Int64Counter
}

// New creates a Bus. Uses the global OTel meter for metrics (no-op if not
// configured).
func New(logger Logger, opts ...Option) (*Bus, error) {
	b := &Bus{
		listeners: make(map[string][]entry),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}

	m := meter()

	var err error
	b.fired, err = m.Int64Counter(
		"events.fired",
		metric.WithDescription("Total events fired"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fired counter: %w", err)
	}

	b.called, err = m.Int64Counter(
		"events.listeners.called",
		metric.WithDescription("Total listener invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating called counter: %w", err)
	}

	return b, nil
}

// Register creates a new event.
func (b *Bus) Register(name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listeners[name]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	b.listeners[name] = []entry{}
	return name, nil
}

// Unregister removes an event together with its listeners.
func (b *Bus) Unregister(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listeners[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchEvent, name)
	}
	delete(b.listeners, name)
	return nil
}

// Registered reports whether name exists.
func (b *Bus) Registered(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.listeners[name]
	return ok
}

// Listen appends fn to the listeners of name.
func (b *Bus) Listen(name string, fn Listener) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list, ok := b.listeners[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoSuchEvent, name)
	}
	b.next++
	b.listeners[name] = append(list, entry{handle: b.next, fn: fn})
	return b.next, nil
}

// ListenMultiple attaches fn to every named event. Nothing is attached if
// any name is unknown.
func (b *Bus) ListenMultiple(names []string, fn Listener) ([]Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range names {
		if _, ok := b.listeners[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchEvent, name)
		}
	}
	handles := make([]Handle, 0, len(names))
	for _, name := range names {
		b.next++
		b.listeners[name] = append(b.listeners[name], entry{handle: b.next, fn: fn})
		handles = append(handles, b.next)
	}
	return handles, nil
}

// Unlisten detaches the listener identified by h from name.
func (b *Bus) Unlisten(name string, h Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	list, ok := b.listeners[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchEvent, name)
	}
	for i, e := range list {
		if e.handle == h {
			b.listeners[name] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d on %s", ErrNoSuchListener, h, name)
}

// Fire calls the listeners of name in registration order and returns how
// many were called. A listener returning Stop is counted.
func (b *Bus) Fire(name string, payload any) (int, error) {
	b.mu.RLock()
	list, ok := b.listeners[name]
	// listeners may (un)listen while we iterate
	list = append([]entry(nil), list...)
	b.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoSuchEvent, name)
	}

	attrs := metric.WithAttributes(attribute.String("event", name))
	b.fired.Add(context.Background(), 1, attrs)

	called := 0
	for _, e := range list {
		called++
		outcome, err := e.fn(payload)
		if err != nil {
			b.called.Add(context.Background(), int64(called), attrs)
			if b.logged {
				b.logger.Error("listener failed", "event", name, "listener", e.handle, "error", err)
			}
			return called, fmt.Errorf("%s listener %d: %w", name, e.handle, err)
		}
		if outcome == Stop {
			break
		}
	}
	b.called.Add(context.Background(), int64(called), attrs)

	if b.logged {
		b.logger.Debug("event fired", "event", name, "listeners", called)
	}
	return called, nil
}
