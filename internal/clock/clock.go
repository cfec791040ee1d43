// Package clock abstracts time so the event loop can be driven by a real
// timer in production and by hand in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Job is work run on the event loop. A returned error is fatal to the loop.
type Job func() error

// Timer is a pending one-shot job.
type Timer interface {
	// Stop cancels the job. It reports false if the job already ran or was
	// already stopped.
	Stop() bool
}

// Clock tells the time and schedules jobs.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, job Job) Timer
}

// Manual is a Clock that only moves when told to. Due jobs run in due-time
// order, ties broken by scheduling order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	c   *Manual
	at  time.Time
	seq uint64
	job Job
}

// NewManual creates a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, job Job) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{c: m, at: m.now.Add(d), seq: m.seq, job: job}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	for i, p := range t.c.pending {
		if p == t {
			t.c.pending = append(t.c.pending[:i], t.c.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the number of jobs not yet run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// NextAt returns when the earliest pending job is due.
func (m *Manual) NextAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return time.Time{}, false
	}
	m.sortLocked()
	return m.pending[0].at, true
}

// RunNext advances to the earliest pending job and runs it. It reports
// false when nothing is pending.
func (m *Manual) RunNext() (bool, error) {
	m.mu.Lock()
	if len(m.pending) == 0 {
		m.mu.Unlock()
		return false, nil
	}
	m.sortLocked()
	t := m.pending[0]
	m.pending = m.pending[1:]
	if t.at.After(m.now) {
		m.now = t.at
	}
	m.mu.Unlock()
	return true, t.job()
}

// Advance moves the clock forward by d, running every job that falls due on
// the way, including jobs scheduled by those jobs.
func (m *Manual) Advance(d time.Duration) error {
	m.mu.Lock()
	end := m.now.Add(d)
	m.mu.Unlock()
	for {
		at, ok := m.NextAt()
		if !ok || at.After(end) {
			break
		}
		if _, err := m.RunNext(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.now = end
	m.mu.Unlock()
	return nil
}

func (m *Manual) sortLocked() {
	sort.SliceStable(m.pending, func(i, j int) bool {
		a, b := m.pending[i], m.pending[j]
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.seq < b.seq
	})
}
