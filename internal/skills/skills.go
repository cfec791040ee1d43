// Package skills turns purchased skills into event listeners. Hooks only
// rewrite payloads and touch the world; they never drive the action state
// machine themselves.
package skills

import (
	"fmt"

	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/internal/world"
	"github.com/gridwars/engine/pkg/core"
)

// Rand is the randomness hooks roll against. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Config holds the hook probabilities, each in [0, 1].
type Config struct {
	ResurrectChance   float64 `json:"resurrectChance" mapstructure:"resurrectChance"`
	SwitchSidesChance float64 `json:"switchSidesChance" mapstructure:"switchSidesChance"`
}

// Hooks holds what the listeners need.
type Hooks struct {
	world *world.World
	rng   Rand
	cfg   Config
}

func New(w *world.World, rng Rand, cfg Config) *Hooks {
	return &Hooks{world: w, rng: rng, cfg: cfg}
}

// Register subscribes every hook on b and returns the handles by event.
func (h *Hooks) Register(b *events.Bus) (map[string]events.Handle, error) {
	listeners := map[string]events.Listener{
		events.OnExploit: h.onExploit,
		events.OnKill:    h.onKill,
		events.OnAttack:  h.onAttack,
	}
	handles := make(map[string]events.Handle, len(listeners))
	for name, fn := range listeners {
		hd, err := b.Listen(name, fn)
		if err != nil {
			for n, done := range handles {
				_ = b.Unlisten(n, done)
			}
			return nil, fmt.Errorf("registering %s hook: %w", name, err)
		}
		handles[name] = hd
	}
	return handles, nil
}

func (h *Hooks) roll(chance float64) bool {
	return chance > 0 && h.rng.Float64() < chance
}

// onExploit multiplies the amount by the best exploit skill the unit's
// owner has.
func (h *Hooks) onExploit(payload any) (events.Outcome, error) {
	p, ok := payload.(*events.Exploit)
	if !ok || p.Unit.OwnerID == nil {
		return events.Continue, nil
	}
	owner := *p.Unit.OwnerID

	triple, err := h.world.HasSkill(owner, core.TripleExploit)
	if err != nil {
		return events.Continue, err
	}
	if triple {
		p.Amount *= 3
		return events.Continue, nil
	}
	double, err := h.world.HasSkill(owner, core.DoubleExploit)
	if err != nil {
		return events.Continue, err
	}
	if double {
		p.Amount *= 2
	}
	return events.Continue, nil
}

// onKill may bring a dead unit back for its former owner.
func (h *Hooks) onKill(payload any) (events.Outcome, error) {
	p, ok := payload.(*events.Kill)
	if !ok || p.OwnerID == nil {
		return events.Continue, nil
	}
	victim, ok := p.Victim.(*core.Unit)
	if !ok || victim.LocationID == nil {
		return events.Continue, nil
	}

	typeID, ok, err := h.resurrectionType(*p.OwnerID, victim)
	if err != nil || !ok {
		return events.Continue, err
	}
	if !h.roll(h.cfg.ResurrectChance) {
		return events.Continue, nil
	}

	u := &core.Unit{
		TypeID:     typeID,
		LocationID: core.Ptr(*victim.LocationID),
		Pos:        victim.Pos,
		Target:     victim.Pos,
		OwnerID:    core.Ptr(*p.OwnerID),
	}
	u.Health.Set(0, h.world.MaxHealth(u))
	if p.HomeID != nil {
		if _, err := h.world.Store().Buildings().Get(*p.HomeID); err == nil {
			u.HomeID = core.Ptr(*p.HomeID)
		}
	}
	if err := h.world.Save(u); err != nil {
		return events.Continue, err
	}
	if u.HomeID == nil {
		if _, err := h.world.Rehome(u); err != nil {
			return events.Continue, err
		}
	}

	name, err := h.world.Name(u)
	if err != nil {
		return events.Continue, err
	}
	h.world.Message(*p.OwnerID, name+" has been resurrected.")
	h.world.Logger().Info("Unit resurrected", "unit", u.ID, "type", u.TypeID, "owner", *p.OwnerID)
	return events.Continue, nil
}

// resurrectionType picks the type a dead unit comes back as, if its owner
// can resurrect at all.
func (h *Hooks) resurrectionType(owner core.ID, victim *core.Unit) (core.ID, bool, error) {
	specific, err := h.world.HasSkill(owner, core.SpecificResurrect)
	if err != nil {
		return 0, false, err
	}
	if specific {
		return victim.TypeID, true, nil
	}
	random, err := h.world.HasSkill(owner, core.RandomResurrect)
	if err != nil || !random {
		return 0, false, err
	}
	ids := h.world.Catalog().UnitTypeIDs()
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[h.rng.IntN(len(ids))], true, nil
}

// onAttack may turn the attacker to the defender's side, calling the
// strike off.
func (h *Hooks) onAttack(payload any) (events.Outcome, error) {
	p, ok := payload.(*events.Attack)
	if !ok || p.Cancelled {
		return events.Continue, nil
	}
	defOwner := p.Defender.OwnedBy()
	attacker := p.Attacker
	if defOwner == nil || attacker.OwnerID == nil || *attacker.OwnerID == *defOwner {
		return events.Continue, nil
	}

	has, err := h.world.HasSkill(*defOwner, core.SwitchSides)
	if err != nil || !has {
		return events.Continue, err
	}
	if !h.roll(h.cfg.SwitchSidesChance) {
		return events.Continue, nil
	}

	oldOwner := *attacker.OwnerID
	oldName, err := h.world.Name(attacker)
	if err != nil {
		return events.Continue, err
	}

	h.world.Scheduler().KillTask(attacker.ID)
	attacker.OwnerID = core.Ptr(*defOwner)
	attacker.HomeID = nil
	attacker.Reset()
	if _, err := h.world.Rehome(attacker); err != nil {
		return events.Continue, err
	}
	newName, err := h.world.Name(attacker)
	if err != nil {
		return events.Continue, err
	}

	p.Cancelled = true
	h.world.Message(oldOwner, oldName+" has switched sides.")
	h.world.Message(*defOwner, newName+" has joined your side.")
	h.world.Logger().Info("Unit switched sides", "unit", attacker.ID, "from", oldOwner, "to", *defOwner)
	return events.Stop, nil
}
