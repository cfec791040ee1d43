// Package scheduler owns the single pending timer each busy entity has.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gridwars/engine/internal/clock"
	"github.com/gridwars/engine/pkg/core"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/gridwars/engine/internal/scheduler"

// Rand is the randomness the scheduler draws jitter from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// ProgressFunc advances one entity by one tick.
type ProgressFunc func(id core.ID) error

// Scheduler maps entity ids to their pending timer. Every method must be
// called from the event loop.
type Scheduler struct {
	clock    clock.Clock
	rng      Rand
	tickUnit time.Duration
	progress ProgressFunc
	tasks    map[core.ID]clock.Timer
	size     atomic.Int64 // len(tasks), readable off the loop

	started   metric.Int64Counter
	cancelled metric.Int64Counter
	fired     metric.Int64Counter
	pending   metric.Int64ObservableGauge
}

// New creates a Scheduler. A unit of type speed N waits a random delay in
// [0, N) * tickUnit between ticks.
func New(c clock.Clock, rng Rand, tickUnit time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		clock:    c,
		rng:      rng,
		tickUnit: tickUnit,
		tasks:    make(map[core.ID]clock.Timer),
	}

	m := otel.Meter(instrumentationName)

	var err error
	if s.started, err = m.Int64Counter("scheduler.tasks.started",
		metric.WithDescription("Tasks scheduled")); err != nil {
		return nil, fmt.Errorf("creating started counter: %w", err)
	}
	if s.cancelled, err = m.Int64Counter("scheduler.tasks.cancelled",
		metric.WithDescription("Pending tasks cancelled")); err != nil {
		return nil, fmt.Errorf("creating cancelled counter: %w", err)
	}
	if s.fired, err = m.Int64Counter("scheduler.tasks.fired",
		metric.WithDescription("Tasks that reached their entity")); err != nil {
		return nil, fmt.Errorf("creating fired counter: %w", err)
	}
	if s.pending, err = m.Int64ObservableGauge("scheduler.tasks.pending",
		metric.WithDescription("Entities with a pending task")); err != nil {
		return nil, fmt.Errorf("creating pending gauge: %w", err)
	}
	if _, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(s.pending, s.size.Load())
		return nil
	}, s.pending); err != nil {
		return nil, fmt.Errorf("registering pending callback: %w", err)
	}

	return s, nil
}

// SetProgress installs the function timers call. It must be set before the
// first StartTask.
func (s *Scheduler) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// TickUnit is the duration one speed point stands for.
func (s *Scheduler) TickUnit() time.Duration {
	return s.tickUnit
}

// Clock returns the clock timers are scheduled on.
func (s *Scheduler) Clock() clock.Clock {
	return s.clock
}

// Delay draws a delay for an entity of the given speed.
func (s *Scheduler) Delay(speed int) time.Duration {
	if speed <= 0 {
		return 0
	}
	return time.Duration(s.rng.Float64() * float64(speed) * float64(s.tickUnit))
}

// StartTask replaces any pending timer for id with a fresh one.
func (s *Scheduler) StartTask(id core.ID, speed int) {
	s.KillTask(id)
	var timer clock.Timer
	timer = s.clock.AfterFunc(s.Delay(speed), func() error {
		// a newer StartTask may already own the slot
		if s.tasks[id] == timer {
			delete(s.tasks, id)
			s.size.Store(int64(len(s.tasks)))
		}
		s.fired.Add(context.Background(), 1)
		return s.progress(id)
	})
	s.tasks[id] = timer
	s.size.Store(int64(len(s.tasks)))
	s.started.Add(context.Background(), 1)
}

// KillTask cancels the pending timer for id. Unknown ids and timers that
// already fired are ignored.
func (s *Scheduler) KillTask(id core.ID) {
	t, ok := s.tasks[id]
	if !ok {
		return
	}
	delete(s.tasks, id)
	s.size.Store(int64(len(s.tasks)))
	if t.Stop() {
		s.cancelled.Add(context.Background(), 1)
	}
}

// Pending reports whether id has a timer outstanding.
func (s *Scheduler) Pending(id core.ID) bool {
	_, ok := s.tasks[id]
	return ok
}

// Len returns the number of outstanding timers. Safe from any goroutine.
func (s *Scheduler) Len() int {
	return int(s.size.Load())
}
