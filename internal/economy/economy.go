// Package economy moves resources: units gather from features and
// buildings and deliver to their home, buildings spend stock on recruits,
// skills and new buildings.
package economy

import (
	"errors"
	"fmt"

	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/internal/world"
	"github.com/gridwars/engine/pkg/core"
)

var (
	ErrInsufficient        = errors.New("insufficient resources")
	ErrNotOffered          = errors.New("not offered by this building")
	ErrCannotBuild         = errors.New("unit cannot build that")
	ErrMissingPrerequisite = errors.New("missing prerequisite building")
	ErrHomeless            = errors.New("unit has no home")
	ErrUnowned             = errors.New("not owned by anyone")
)

// Resolver applies resource transfers. It must be used from the event loop.
type Resolver struct {
	world *world.World
	bus   *events.Bus
}

func New(w *world.World, bus *events.Bus) *Resolver {
	return &Resolver{world: w, bus: bus}
}

// Exploit moves one load of u's material from source into u's hands and
// sets u to drop it off. It returns the amount taken. A feature left empty
// is deleted; buildings never are.
func (r *Resolver) Exploit(u *core.Unit, source core.Entity) (int, error) {
	m := u.Material
	ut, ok := r.world.Catalog().UnitType(u.TypeID)
	if !ok {
		return 0, fmt.Errorf("unit %d has unknown type %d", u.ID, u.TypeID)
	}
	stock := source.Stock()
	available := stock[m]

	payload := &events.Exploit{Unit: u, Source: source, Material: m, Amount: min(ut.Exploits[m], available)}
	if _, err := r.bus.Fire(events.OnExploit, payload); err != nil {
		return 0, fmt.Errorf("firing %s: %w", events.OnExploit, err)
	}
	amount := max(0, min(payload.Amount, available))

	u.Stock()[m] = amount
	stock[m] -= amount
	u.Action = core.Drop

	if err := r.world.SoundAt(u, "exploit/"+string(m)+".wav"); err != nil {
		return amount, err
	}

	store := r.world.Store()
	if err := store.Atomic(func(s storage.Store) error {
		if err := world.SaveIn(s, u); err != nil {
			return err
		}
		return world.SaveIn(s, source)
	}); err != nil {
		return amount, err
	}

	if f, ok := source.(*core.Feature); ok && f.Exhausted() {
		if _, err := r.bus.Fire(events.OnExhaust, &events.Exhaust{Unit: u, Feature: f}); err != nil {
			return amount, fmt.Errorf("firing %s: %w", events.OnExhaust, err)
		}
		if err := r.world.DeleteFeature(f); err != nil {
			return amount, err
		}
		r.world.Logger().Debug("Feature exhausted", "feature", f.ID, "unit", u.ID)
	}
	return amount, nil
}

// Drop delivers everything u carries to home and sets u back to
// exploiting.
func (r *Resolver) Drop(u *core.Unit, home *core.Building) error {
	delivered := u.Stock().Clone()
	home.Stock().AddAll(delivered)
	u.Carried = core.Resources{}
	u.Action = core.Exploit

	if err := r.world.Store().Atomic(func(s storage.Store) error {
		if err := world.SaveIn(s, home); err != nil {
			return err
		}
		return world.SaveIn(s, u)
	}); err != nil {
		return err
	}

	if _, err := r.bus.Fire(events.OnDrop, &events.Drop{Unit: u, Home: home, Delivered: delivered}); err != nil {
		return fmt.Errorf("firing %s: %w", events.OnDrop, err)
	}
	return nil
}
