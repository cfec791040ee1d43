package engine

import (
	"fmt"

	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/pkg/core"
)

func (e *Engine) exploit(u *core.Unit) error {
	if u.Pos != u.Target {
		return e.moveTowards(u, u.Target)
	}
	src, err := e.world.Resolve(u.Exploiting)
	if err != nil {
		return err
	}
	if src == nil {
		if err := e.world.Speak(u, "nothing"); err != nil {
			return err
		}
		return e.reset(u)
	}
	if src.Stock()[u.Material] <= 0 {
		if err := e.world.Speak(u, "finished"); err != nil {
			return err
		}
		return e.reset(u)
	}
	_, err = e.economy.Exploit(u, src)
	return err
}

func (e *Engine) drop(u *core.Unit) error {
	home, err := e.home(u)
	if err != nil {
		return err
	}
	if home == nil || home.LocationID != *u.LocationID {
		return e.rehomeOrGiveUp(u)
	}
	if home.Pos != u.Pos {
		return e.moveTowards(u, home.Pos)
	}
	return e.economy.Drop(u, home)
}

// rehomeOrGiveUp spends the tick finding u a new home on its own map. A
// unit that cannot find one says so and goes idle.
func (e *Engine) rehomeOrGiveUp(u *core.Unit) error {
	found, err := e.world.Rehome(u)
	if err != nil || found {
		return err
	}
	if err := e.world.Speak(u, "homeless"); err != nil {
		return err
	}
	return e.reset(u)
}

func (e *Engine) travel(u *core.Unit) error {
	if u.Pos != u.Target {
		if err := e.moveTowards(u, u.Target); err != nil {
			return err
		}
		if u.Pos != u.Target {
			return nil
		}
	}
	if err := e.world.Speak(u, "here"); err != nil {
		return err
	}
	return e.reset(u)
}

func (e *Engine) patrolOut(u *core.Unit) error {
	if u.Pos != u.Target {
		return e.moveTowards(u, u.Target)
	}
	u.Action = core.PatrolBack
	return e.world.Save(u)
}

func (e *Engine) patrolBack(u *core.Unit) error {
	home, err := e.home(u)
	if err != nil {
		return err
	}
	if home == nil || home.LocationID != *u.LocationID {
		return e.rehomeOrGiveUp(u)
	}
	if home.Pos != u.Pos {
		return e.moveTowards(u, home.Pos)
	}
	u.Action = core.PatrolOut
	return e.world.Save(u)
}

// mend drives both repair and heal: walk to the target, then restore a
// random amount of its health until it is full.
func (e *Engine) mend(u *core.Unit) error {
	ut := e.unitType(u)
	amount, event := ut.HealAmount, events.OnHeal
	if u.Action == core.Repair {
		amount, event = ut.RepairAmount, events.OnRepair
	}

	target, err := e.world.Resolve(u.Exploiting)
	if err != nil {
		return err
	}
	if target == nil || amount <= 0 || target.Vitals().Full() {
		return e.reset(u)
	}
	loc, at := target.Where()
	if loc == nil || *loc != *u.LocationID {
		return e.reset(u)
	}
	if at != u.Pos {
		return e.moveTowards(u, at)
	}

	done, err := e.apply(u, target, amount, event)
	if err != nil || !done {
		return err
	}
	return e.reset(u)
}

// apply restores between 1 and amount health to target and reports
// whether it is now full.
func (e *Engine) apply(u *core.Unit, target core.Entity, amount int, event string) (bool, error) {
	payload := &events.Mend{Unit: u, Target: target, Amount: 1 + e.rng.IntN(amount)}
	if _, err := e.bus.Fire(event, payload); err != nil {
		return false, fmt.Errorf("firing %s: %w", event, err)
	}
	target.Vitals().Heal(max(payload.Amount, 0), e.world.MaxHealth(target))
	if err := e.world.Save(target); err != nil {
		return false, err
	}
	return target.Vitals().Full(), nil
}

// guard keeps watch over u's square. Each tick does the first of: attack
// any unit not owned by u's owner, unowned ones included; heal a hurt
// friendly unit; repair a damaged friendly building. The order is
// arbitrary but fixed.
func (e *Engine) guard(u *core.Unit) error {
	ut := e.unitType(u)
	square := storage.Square(*u.LocationID, u.Pos)

	if ut.AttackTypeID != nil {
		f := square
		f.NotOwner = u.OwnerID
		enemies, err := e.store.Units().Find(f)
		if err != nil {
			return fmt.Errorf("finding enemies of unit %d: %w", u.ID, err)
		}
		if len(enemies) > 0 {
			_, err := e.combat.Strike(u, enemies[0])
			return err
		}
	}

	if ut.AutoHeal && ut.HealAmount > 0 {
		f := square
		f.Owner, f.Damaged = u.OwnerID, true
		hurt, err := e.store.Units().Find(f)
		if err != nil {
			return fmt.Errorf("finding hurt units near unit %d: %w", u.ID, err)
		}
		if len(hurt) > 0 {
			_, err := e.apply(u, hurt[0], ut.HealAmount, events.OnHeal)
			return err
		}
	}

	if ut.AutoRepair && ut.RepairAmount > 0 {
		f := square
		f.Owner, f.Damaged = u.OwnerID, true
		damaged, err := e.store.Buildings().Find(f)
		if err != nil {
			return fmt.Errorf("finding damaged buildings near unit %d: %w", u.ID, err)
		}
		if len(damaged) > 0 {
			_, err := e.apply(u, damaged[0], ut.RepairAmount, events.OnRepair)
			return err
		}
	}
	return nil
}

func (e *Engine) attack(u *core.Unit) error {
	if e.unitType(u).AttackTypeID == nil {
		return e.reset(u)
	}
	target, err := e.world.Resolve(u.Exploiting)
	if err != nil {
		return err
	}
	if target == nil || !core.SameSquare(u, target) {
		return e.reset(u)
	}
	res, err := e.combat.Strike(u, target)
	if err != nil {
		return err
	}
	if res.Killed {
		return e.reset(u)
	}
	return nil
}
