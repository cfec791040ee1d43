// Package worldtest builds a small in-memory world on a manual clock for
// tests of the packages that act on it.
package worldtest

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/gridwars/engine/internal/catalog"
	"github.com/gridwars/engine/internal/clock"
	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/internal/notify"
	"github.com/gridwars/engine/internal/scheduler"
	"github.com/gridwars/engine/internal/storage/memory"
	"github.com/gridwars/engine/internal/world"
	"github.com/gridwars/engine/pkg/core"

	"github.com/stretchr/testify/require"
)

// Epoch is where every fixture clock starts.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Fixture is a 10x10 map backed by the memory store and the default
// catalog, with one tick lasting a second.
type Fixture struct {
	T        *testing.T
	World    *world.World
	Store    *memory.Backend
	Clock    *clock.Manual
	Sched    *scheduler.Scheduler
	Bus      *events.Bus
	Notes    *notify.Recorder
	Catalog  *catalog.Catalog
	Rand     *rand.Rand
	Location *core.Location
	Logger   *slog.Logger
}

// Option changes how New builds a fixture.
type Option func(*options)

type options struct {
	catalog *catalog.Catalog
}

// WithCatalog replaces the default catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// New builds a fixture. The scheduler's progress function does nothing
// until a test installs one.
func New(t *testing.T, opts ...Option) *Fixture {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cat := o.catalog
	if cat == nil {
		var err error
		cat, err = catalog.Default()
		require.NoError(t, err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := clock.NewManual(Epoch)
	rng := rand.New(rand.NewPCG(1, 2))
	sched, err := scheduler.New(c, rng, time.Second)
	require.NoError(t, err)
	sched.SetProgress(func(core.ID) error { return nil })

	bus, err := events.New(log)
	require.NoError(t, err)
	require.NoError(t, events.RegisterEngine(bus))

	store := memory.New(memory.Config{})
	require.NoError(t, store.Init())

	loc := &core.Location{Name: "Test", Width: 10, Height: 10}
	require.NoError(t, store.Locations().Save(loc))

	notes := &notify.Recorder{}
	w := world.New(world.Dependencies{
		Store:     store,
		Catalog:   cat,
		Scheduler: sched,
		Notifier:  notes,
		Logger:    log,
	})

	return &Fixture{
		T:        t,
		World:    w,
		Store:    store,
		Clock:    c,
		Sched:    sched,
		Bus:      bus,
		Notes:    notes,
		Catalog:  cat,
		Rand:     rng,
		Location: loc,
		Logger:   log,
	}
}

// Player adds a player standing at pos on the fixture map.
func (f *Fixture) Player(name string, pos core.Point) *core.Player {
	f.T.Helper()
	p := &core.Player{Name: name, LocationID: core.Ptr(f.Location.ID), Pos: pos}
	require.NoError(f.T, f.Store.Players().Save(p))
	return p
}

// Unit adds an idle unit of the named type.
func (f *Fixture) Unit(typeName string, owner *core.Player, pos core.Point) *core.Unit {
	f.T.Helper()
	ut, err := f.Catalog.UnitTypeNamed(typeName)
	require.NoError(f.T, err)
	u := &core.Unit{
		TypeID:     ut.ID,
		LocationID: core.Ptr(f.Location.ID),
		Pos:        pos,
		Target:     pos,
	}
	if owner != nil {
		u.OwnerID = core.Ptr(owner.ID)
	}
	require.NoError(f.T, f.Store.Units().Save(u))
	return u
}

// Building adds a building of the named type.
func (f *Fixture) Building(typeName string, owner *core.Player, pos core.Point) *core.Building {
	f.T.Helper()
	bt, err := f.Catalog.BuildingTypeNamed(typeName)
	require.NoError(f.T, err)
	b := &core.Building{TypeID: bt.ID, LocationID: f.Location.ID, Pos: pos, Stored: core.Resources{}}
	if owner != nil {
		b.OwnerID = core.Ptr(owner.ID)
	}
	require.NoError(f.T, f.Store.Buildings().Save(b))
	return b
}

// Feature adds a feature of the named type holding res.
func (f *Fixture) Feature(typeName string, pos core.Point, res core.Resources) *core.Feature {
	f.T.Helper()
	ft, err := f.Catalog.FeatureTypeNamed(typeName)
	require.NoError(f.T, err)
	feat := &core.Feature{TypeID: ft.ID, LocationID: f.Location.ID, Pos: pos, Remaining: res}
	require.NoError(f.T, f.Store.Features().Save(feat))
	return feat
}

// Reload fetches the current stored copy of a unit.
func (f *Fixture) Reload(u *core.Unit) *core.Unit {
	f.T.Helper()
	got, err := f.Store.Units().Get(u.ID)
	require.NoError(f.T, err)
	return got
}

// Ticks is n tick units.
func Ticks(n int) time.Duration {
	return time.Duration(n) * time.Second
}
