// Package monitor periodically reports engine load: pending unit tasks,
// loop backlog and entity counts.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gridwars/engine/internal/clock"
	"github.com/gridwars/engine/internal/storage"
)

// Tasks is the part of the scheduler the monitor reads.
type Tasks interface {
	Len() int
}

// Runner runs a job on the event loop and waits for it. *loop.Loop is one.
type Runner interface {
	Do(ctx context.Context, job clock.Job) error
	Backlog() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Store    storage.Store
	Tasks    Tasks
	Loop     Runner
	Logger   *slog.Logger
	Interval time.Duration
}

// Status is one snapshot of engine load.
type Status struct {
	Time         time.Time `json:"time"`
	PendingTasks int       `json:"pendingTasks"`
	Backlog      int       `json:"backlog"`
	Players      int       `json:"players"`
	Units        int       `json:"units"`
	BusyUnits    int       `json:"busyUnits"`
	Buildings    int       `json:"buildings"`
	Features     int       `json:"features"`
	Transports   int       `json:"transports"`
}

// String renders the status as indented JSON.
func (s Status) String() string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "%s"}`, err)
	}
	return string(b)
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Minute
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Collect takes a status snapshot. Store and scheduler reads happen on the
// event loop.
func (s *Service) Collect(ctx context.Context) (Status, error) {
	st := Status{Time: time.Now(), Backlog: s.deps.Loop.Backlog()}
	err := s.deps.Loop.Do(ctx, func() error {
		st.PendingTasks = s.deps.Tasks.Len()
		return s.count(&st)
	})
	return st, err
}

func (s *Service) count(st *Status) error {
	var err error
	counts := []struct {
		into *int
		find func() (int, error)
	}{
		{&st.Players, count(s.deps.Store.Players(), storage.Filter{})},
		{&st.Units, count(s.deps.Store.Units(), storage.Filter{})},
		{&st.BusyUnits, count(s.deps.Store.Units(), storage.Filter{Busy: true})},
		{&st.Buildings, count(s.deps.Store.Buildings(), storage.Filter{})},
		{&st.Features, count(s.deps.Store.Features(), storage.Filter{})},
		{&st.Transports, count(s.deps.Store.Transports(), storage.Filter{})},
	}
	for _, c := range counts {
		if *c.into, err = c.find(); err != nil {
			return err
		}
	}
	return nil
}

func count[T any](repo storage.Repo[T], f storage.Filter) func() (int, error) {
	return func() (int, error) {
		rows, err := repo.Find(f)
		return len(rows), err
	}
}

// Start begins logging a status every interval until Stop or ctx ends.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.report(ctx)
			}
		}
	}()
}

func (s *Service) report(ctx context.Context) {
	st, err := s.Collect(ctx)
	if err != nil {
		s.deps.Logger.Warn("Failed to collect status", "error", err)
		return
	}
	s.deps.Logger.Info("Engine status",
		"pendingTasks", st.PendingTasks,
		"backlog", st.Backlog,
		"players", st.Players,
		"units", st.Units,
		"busyUnits", st.BusyUnits,
		"buildings", st.Buildings,
		"features", st.Features,
		"transports", st.Transports,
	)
}

// Stop halts the reporting goroutine and waits for it.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	s.mu.Unlock()
	s.wg.Wait()
}
