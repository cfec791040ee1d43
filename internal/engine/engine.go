// Package engine is the per-unit action state machine. Every busy unit has
// exactly one pending scheduler task; when it fires, Progress advances the
// unit by one tick and schedules the next one unless the unit went idle.
package engine

import (
	"errors"
	"fmt"

	"github.com/gridwars/engine/internal/combat"
	"github.com/gridwars/engine/internal/economy"
	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/internal/world"
	"github.com/gridwars/engine/pkg/core"
)

var (
	ErrUnemployed    = errors.New("unit has no owner")
	ErrOffMap        = errors.New("unit is not on a map")
	ErrOutOfBounds   = errors.New("coordinates out of bounds")
	ErrIncapable     = errors.New("unit type cannot do that")
	ErrInvalidTarget = errors.New("invalid target")
)

// Rand is the randomness heal and repair amounts are drawn from.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Dependencies holds everything an Engine is built from.
type Dependencies struct {
	World   *world.World
	Bus     *events.Bus
	Combat  *combat.Resolver
	Economy *economy.Resolver
	Rand    Rand
}

// Engine drives units. It must be used from the event loop.
type Engine struct {
	world   *world.World
	store   storage.Store
	bus     *events.Bus
	combat  *combat.Resolver
	economy *economy.Resolver
	rng     Rand

	states map[core.Action]func(*core.Unit) error
}

// New creates an Engine and installs Progress as the scheduler's tick
// function.
func New(deps Dependencies) *Engine {
	e := &Engine{
		world:   deps.World,
		store:   deps.World.Store(),
		bus:     deps.Bus,
		combat:  deps.Combat,
		economy: deps.Economy,
		rng:     deps.Rand,
	}
	e.states = map[core.Action]func(*core.Unit) error{
		core.Exploit:    e.exploit,
		core.Drop:       e.drop,
		core.Travel:     e.travel,
		core.PatrolOut:  e.patrolOut,
		core.PatrolBack: e.patrolBack,
		core.Repair:     e.mend,
		core.Heal:       e.mend,
		core.Guard:      e.guard,
		core.Attack:     e.attack,
	}
	deps.World.Scheduler().SetProgress(e.Progress)
	return e
}

// Progress advances unit id by one tick. A unit that no longer exists is
// ignored.
func (e *Engine) Progress(id core.ID) error {
	u, err := e.store.Units().Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("progressing unit %d: %w", id, err)
	}

	if u.OwnerID == nil || !u.OnMap() {
		return e.reset(u)
	}
	state, ok := e.states[u.Action]
	if !ok {
		return e.reset(u)
	}
	if err := state(u); err != nil {
		return fmt.Errorf("progressing unit %d (%s): %w", id, u.Action, err)
	}
	if u.Action != core.Idle {
		e.start(u)
	}
	return nil
}

func (e *Engine) unitType(u *core.Unit) *core.UnitType {
	ut, ok := e.world.Catalog().UnitType(u.TypeID)
	if !ok {
		return &core.UnitType{}
	}
	return ut
}

func (e *Engine) start(u *core.Unit) {
	e.world.Scheduler().StartTask(u.ID, e.unitType(u).Speed)
}

// reset idles u and saves it.
func (e *Engine) reset(u *core.Unit) error {
	e.world.Scheduler().KillTask(u.ID)
	u.Reset()
	return e.world.Save(u)
}

// moveTowards steps u one square towards target, within the map, sounding
// its footsteps on both squares.
func (e *Engine) moveTowards(u *core.Unit, target core.Point) error {
	sound := "move/" + e.unitType(u).Name + ".wav"
	if err := e.world.SoundAt(u, sound); err != nil {
		return err
	}

	next := u.Pos.StepTowards(target)
	loc, err := e.store.Locations().Get(*u.LocationID)
	switch {
	case err == nil:
		next = loc.Clamp(next)
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("finding location %d: %w", *u.LocationID, err)
	}
	u.Pos = next
	if err := e.world.Save(u); err != nil {
		return err
	}
	return e.world.SoundAt(u, sound)
}

// home returns u's home building, or nil when it has none or it is gone.
func (e *Engine) home(u *core.Unit) (*core.Building, error) {
	if u.HomeID == nil {
		return nil, nil
	}
	b, err := e.store.Buildings().Get(*u.HomeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding home of unit %d: %w", u.ID, err)
	}
	return b, nil
}

// Resume starts a task for every busy unit. It is meant for boot, when no
// tasks exist yet.
func (e *Engine) Resume() (int, error) {
	units, err := e.store.Units().Find(storage.Filter{Busy: true})
	if err != nil {
		return 0, fmt.Errorf("finding busy units: %w", err)
	}
	for _, u := range units {
		e.start(u)
	}
	return len(units), nil
}
