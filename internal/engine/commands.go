package engine

import (
	"errors"
	"fmt"

	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/pkg/core"
)

// ready fetches unit id and checks it can take orders.
func (e *Engine) ready(id core.ID) (*core.Unit, error) {
	u, err := e.store.Units().Get(id)
	if err != nil {
		return nil, fmt.Errorf("unit %d: %w", id, err)
	}
	if u.OwnerID == nil {
		return nil, ErrUnemployed
	}
	if !u.OnMap() {
		return nil, ErrOffMap
	}
	return u, nil
}

// order replaces whatever u was doing with the fields set by fn, then
// starts its task.
func (e *Engine) order(u *core.Unit, fn func()) error {
	e.world.Scheduler().KillTask(u.ID)
	u.Reset()
	fn()
	if err := e.world.Save(u); err != nil {
		return err
	}
	e.start(u)
	return nil
}

func (e *Engine) inBounds(u *core.Unit, p core.Point) error {
	loc, err := e.store.Locations().Get(*u.LocationID)
	if err != nil {
		return fmt.Errorf("location %d: %w", *u.LocationID, err)
	}
	if !loc.Contains(p) {
		return fmt.Errorf("%s: %w", p, ErrOutOfBounds)
	}
	return nil
}

// onSameMap resolves t and checks it shares u's map.
func (e *Engine) onSameMap(u *core.Unit, t core.Target) (core.Entity, error) {
	target, err := e.world.Resolve(t)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("%s: %w", t, storage.ErrNotFound)
	}
	loc, _ := target.Where()
	if loc == nil || *loc != *u.LocationID {
		return nil, fmt.Errorf("%s is not on this map: %w", t, ErrInvalidTarget)
	}
	return target, nil
}

// Travel sends unit id to p.
func (e *Engine) Travel(id core.ID, p core.Point) error {
	u, err := e.ready(id)
	if err != nil {
		return err
	}
	if err := e.inBounds(u, p); err != nil {
		return err
	}
	return e.order(u, func() {
		u.Action = core.Travel
		u.Target = p
	})
}

// Patrol sends unit id back and forth between p and its home.
func (e *Engine) Patrol(id core.ID, p core.Point) error {
	u, err := e.ready(id)
	if err != nil {
		return err
	}
	if err := e.inBounds(u, p); err != nil {
		return err
	}
	return e.order(u, func() {
		u.Action = core.PatrolOut
		u.Target = p
	})
}

// Guard sets unit id to watch over its square.
func (e *Engine) Guard(id core.ID) error {
	u, err := e.ready(id)
	if err != nil {
		return err
	}
	return e.order(u, func() {
		u.Action = core.Guard
	})
}

// Exploit sets unit id gathering m from source, a feature or building.
func (e *Engine) Exploit(id core.ID, source core.Target, m core.Material) error {
	u, err := e.ready(id)
	if err != nil {
		return err
	}
	if source.Kind != core.FeatureKind && source.Kind != core.BuildingKind {
		return fmt.Errorf("cannot exploit %s: %w", source, ErrInvalidTarget)
	}
	src, err := e.onSameMap(u, source)
	if err != nil {
		return err
	}
	if _, isFeature := src.(*core.Feature); isFeature && !src.Stock().Applies(m) {
		return fmt.Errorf("%s holds no %s: %w", source, m, ErrInvalidTarget)
	}
	if !e.unitType(u).Exploits.Applies(m) {
		return fmt.Errorf("cannot gather %s: %w", m, ErrIncapable)
	}
	_, at := src.Where()
	return e.order(u, func() {
		u.Action = core.Exploit
		u.Exploiting = source
		u.Material = m
		u.Target = at
	})
}

// Repair sets unit id repairing a building.
func (e *Engine) Repair(id, building core.ID) error {
	u, err := e.ready(id)
	if err != nil {
		return err
	}
	if e.unitType(u).RepairAmount <= 0 {
		return ErrIncapable
	}
	t := core.BuildingTarget(building)
	if _, err := e.onSameMap(u, t); err != nil {
		return err
	}
	return e.order(u, func() {
		u.Action = core.Repair
		u.Exploiting = t
	})
}

// HealUnit sets unit id healing another unit.
func (e *Engine) HealUnit(id, patient core.ID) error {
	u, err := e.ready(id)
	if err != nil {
		return err
	}
	if e.unitType(u).HealAmount <= 0 {
		return ErrIncapable
	}
	t := core.UnitTarget(patient)
	if _, err := e.onSameMap(u, t); err != nil {
		return err
	}
	return e.order(u, func() {
		u.Action = core.Heal
		u.Exploiting = t
	})
}

// Attack sets unit id fighting a unit or building.
func (e *Engine) Attack(id core.ID, target core.Target) error {
	u, err := e.ready(id)
	if err != nil {
		return err
	}
	if e.unitType(u).AttackTypeID == nil {
		return ErrIncapable
	}
	if target.Kind != core.UnitKind && target.Kind != core.BuildingKind || target == u.Ref() {
		return fmt.Errorf("cannot attack %s: %w", target, ErrInvalidTarget)
	}
	if _, err := e.onSameMap(u, target); err != nil {
		return err
	}
	return e.order(u, func() {
		u.Action = core.Attack
		u.Exploiting = target
	})
}

// Release deletes unit id along with anything that goes with it.
func (e *Engine) Release(id core.ID) error {
	u, err := e.ready(id)
	if err != nil {
		return err
	}
	return e.world.DeleteUnit(u)
}

// Describe fetches unit id and describes what it is doing.
func (e *Engine) Describe(id core.ID) (string, error) {
	u, err := e.store.Units().Get(id)
	if err != nil {
		return "", fmt.Errorf("unit %d: %w", id, err)
	}
	return e.ActionDescription(u)
}

// IsValidation reports whether err is a rejected command rather than a
// failure.
func IsValidation(err error) bool {
	for _, target := range []error{ErrUnemployed, ErrOffMap, ErrOutOfBounds, ErrIncapable,
		ErrInvalidTarget, storage.ErrNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
