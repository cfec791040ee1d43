// Package loop runs every game mutation on a single goroutine. Timers,
// console commands and delayed completions all post jobs here, so entity
// state never needs a lock.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gridwars/engine/internal/clock"
	"github.com/gridwars/engine/internal/queue"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("event loop stopped")

// Loop is a single-threaded job runner.
type Loop struct {
	jobs    *queue.Queue[clock.Job]
	wake    chan struct{}
	done    chan struct{}
	stopped atomic.Bool
	log     *slog.Logger
}

// New creates a Loop. Call Run to start it.
func New(log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		jobs: queue.New[clock.Job](),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log,
	}
}

// Post queues job. Safe from any goroutine.
func (l *Loop) Post(job clock.Job) {
	l.jobs.Push(job)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do posts job and waits for it to finish.
func (l *Loop) Do(ctx context.Context, job clock.Job) error {
	if l.stopped.Load() {
		return ErrStopped
	}
	result := make(chan error, 1)
	l.Post(func() error {
		result <- job()
		// the caller gets the error; the loop keeps going
		return nil
	})
	select {
	case err := <-result:
		return err
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backlog returns the number of queued jobs.
func (l *Loop) Backlog() int {
	return l.jobs.Len()
}

// Run executes jobs until ctx is cancelled or a job fails. A failing job is
// fatal: Run returns its error and the remaining jobs are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.stopped.Store(true)
		close(l.done)
	}()
	for {
		for {
			job, ok := l.jobs.TryPop()
			if !ok {
				break
			}
			if err := job(); err != nil {
				l.log.Error("Event loop job failed", "error", err, "backlog", l.jobs.Len())
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

// Clock returns a wall clock whose timers fire on this loop.
func (l *Loop) Clock() clock.Clock {
	return wallClock{loop: l}
}

type wallClock struct {
	loop *Loop
}

func (c wallClock) Now() time.Time {
	return time.Now()
}

func (c wallClock) AfterFunc(d time.Duration, job clock.Job) clock.Timer {
	t := &wallTimer{}
	t.timer = time.AfterFunc(d, func() {
		c.loop.Post(func() error {
			// stopped after firing but before reaching the front of the queue
			if !t.fired.CompareAndSwap(false, true) {
				return nil
			}
			return job()
		})
	})
	return t
}

type wallTimer struct {
	timer *time.Timer
	fired atomic.Bool // set once the job ran or the timer was stopped
}

func (t *wallTimer) Stop() bool {
	t.timer.Stop()
	return t.fired.CompareAndSwap(false, true)
}
