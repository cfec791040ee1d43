// Package combat resolves one strike of a unit against a unit or building,
// including death, payout and the victory checks a death can trigger.
package combat

import (
	"errors"
	"fmt"

	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/internal/world"
	"github.com/gridwars/engine/pkg/core"
)

// ErrUnarmed is returned for attackers whose type has no attack type.
var ErrUnarmed = errors.New("unit cannot attack")

// Rand is the randomness damage is drawn from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Resolver strikes. It must be used from the event loop.
type Resolver struct {
	world *world.World
	bus   *events.Bus
	rng   Rand
}

func New(w *world.World, bus *events.Bus, rng Rand) *Resolver {
	return &Resolver{world: w, bus: bus, rng: rng}
}

// Result describes what a strike did.
type Result struct {
	Damage    int
	Cancelled bool // a hook called the strike off
	Killed    bool
}

// Ceiling is the highest damage attacker can deal to defender. It is never
// below 1.
func (r *Resolver) Ceiling(attacker *core.Unit, defender core.Entity) (int, error) {
	ut, ok := r.world.Catalog().UnitType(attacker.TypeID)
	if !ok || ut.AttackTypeID == nil {
		return 0, ErrUnarmed
	}
	at, ok := r.world.Catalog().AttackType(*ut.AttackTypeID)
	if !ok {
		return 0, ErrUnarmed
	}
	return max(1, ut.Strength+at.Strength-r.world.Resistance(defender)), nil
}

// Strike makes attacker hit defender once. Both are persisted unless the
// defender dies, in which case it is deleted and its stock paid out to the
// attacker.
func (r *Resolver) Strike(attacker *core.Unit, defender core.Entity) (Result, error) {
	ceiling, err := r.Ceiling(attacker, defender)
	if err != nil {
		return Result{}, err
	}

	payload := &events.Attack{Attacker: attacker, Defender: defender, Damage: 1 + r.rng.IntN(ceiling)}
	if _, err := r.bus.Fire(events.OnAttack, payload); err != nil {
		return Result{}, fmt.Errorf("firing %s: %w", events.OnAttack, err)
	}
	if payload.Cancelled {
		return Result{Cancelled: true}, nil
	}
	res := Result{Damage: max(payload.Damage, 0)}

	var retaliator *core.Unit
	switch d := defender.(type) {
	case *core.Building:
		if err := r.world.SoundAt(attacker, "destroy.wav"); err != nil {
			return res, err
		}
	case *core.Unit:
		if err := r.world.SoundAt(attacker, r.attackSound(attacker)); err != nil {
			return res, err
		}
		if err := r.world.SoundAt(d, "ouch.wav"); err != nil {
			return res, err
		}
		if r.retaliates(d, attacker) {
			d.Action = core.Attack
			d.Exploiting = attacker.Ref()
			d.Material = ""
			retaliator = d
		}
	}

	maxHP := r.world.MaxHealth(defender)
	defender.Vitals().Damage(res.Damage, maxHP)

	if defender.Vitals().Dead(maxHP) {
		res.Killed = true
		return res, r.kill(attacker, defender)
	}

	if err := r.world.Save(attacker); err != nil {
		return res, err
	}
	if err := r.world.Save(defender); err != nil {
		return res, err
	}
	if retaliator != nil {
		ut, _ := r.world.Catalog().UnitType(retaliator.TypeID)
		r.world.Scheduler().StartTask(retaliator.ID, speedOf(ut))
	}
	return res, nil
}

func speedOf(ut *core.UnitType) int {
	if ut == nil {
		return 0
	}
	return ut.Speed
}

func (r *Resolver) attackSound(u *core.Unit) string {
	ut, ok := r.world.Catalog().UnitType(u.TypeID)
	if !ok || ut.AttackTypeID == nil {
		return ""
	}
	at, _ := r.world.Catalog().AttackType(*ut.AttackTypeID)
	return at.Sound
}

// retaliates reports whether defender is armed and not already fighting
// attacker.
func (r *Resolver) retaliates(defender, attacker *core.Unit) bool {
	ut, ok := r.world.Catalog().UnitType(defender.TypeID)
	if !ok || ut.AttackTypeID == nil {
		return false
	}
	return defender.Action != core.Attack || defender.Exploiting != attacker.Ref()
}

func (r *Resolver) kill(attacker *core.Unit, victim core.Entity) error {
	w := r.world

	name, err := w.Name(victim)
	if err != nil {
		return err
	}

	verb := "killed"
	if _, ok := victim.(*core.Building); ok {
		verb = "destroyed"
		if err := w.SoundAt(victim, "collapse.wav"); err != nil {
			return err
		}
		if err := w.SoundAt(attacker, "destroyed.wav"); err != nil {
			return err
		}
	} else if err := w.SoundAt(victim, "die.wav"); err != nil {
		return err
	}

	owner := victim.OwnedBy()
	if owner != nil {
		w.Message(*owner, fmt.Sprintf("%s has been %s.", name, verb))
	}

	attacker.Stock().AddAll(victim.Stock())
	if err := w.Save(attacker); err != nil {
		return err
	}

	var home *core.ID
	if u, ok := victim.(*core.Unit); ok {
		home = u.HomeID
	}
	if err := w.Delete(victim); err != nil {
		return err
	}
	if b, ok := victim.(*core.Building); ok && attacker.HomeID != nil && *attacker.HomeID == b.ID {
		attacker.HomeID = nil
	}
	w.Logger().Debug("Entity killed", "victim", victim.Ref().String(), "attacker", attacker.ID)

	if _, err := r.bus.Fire(events.OnKill, &events.Kill{
		Attacker: attacker, Victim: victim, OwnerID: owner, HomeID: home,
	}); err != nil {
		return fmt.Errorf("firing %s: %w", events.OnKill, err)
	}

	if owner == nil || attacker.OwnerID == nil || attacker.LocationID == nil {
		return nil
	}
	return r.settle(*attacker.OwnerID, *owner, *attacker.LocationID)
}

// settle runs the loss check for the victim's owner and the win check for
// the attacker's owner.
func (r *Resolver) settle(winnerID, loserID, location core.ID) error {
	w := r.world
	store := w.Store()

	if loserID != winnerID {
		lost, err := w.HasLost(loserID)
		if err != nil {
			return err
		}
		if lost {
			if err := r.defeat(winnerID, loserID, location); err != nil {
				return err
			}
		}
	}

	won, err := w.HasWon(winnerID, location)
	if err != nil || !won {
		return err
	}
	winner, err := store.Players().Get(winnerID)
	if err != nil {
		return fmt.Errorf("finding player %d: %w", winnerID, err)
	}
	w.Message(winner.ID, "You have won!")
	w.PlayerSound(winner.ID, "win.wav")
	winner.Wins++
	if err := store.Players().Save(winner); err != nil {
		return fmt.Errorf("saving player %d: %w", winner.ID, err)
	}
	w.Logger().Info("Player won", "player", winner.ID, "location", location)
	return nil
}

func (r *Resolver) defeat(winnerID, loserID, location core.ID) error {
	w := r.world
	store := w.Store()

	winner, err := store.Players().Get(winnerID)
	if err != nil {
		return fmt.Errorf("finding player %d: %w", winnerID, err)
	}
	loser, err := store.Players().Get(loserID)
	if err != nil {
		return fmt.Errorf("finding player %d: %w", loserID, err)
	}

	players, err := w.PlayersAt(location)
	if err != nil {
		return err
	}
	for _, p := range players {
		switch p.ID {
		case winner.ID, loser.ID:
		default:
			w.Message(p.ID, fmt.Sprintf("%s beats %s.", winner.Name, loser.Name))
		}
	}
	w.PlayerSound(winner.ID, "beat.wav")
	w.Message(winner.ID, fmt.Sprintf("You beat %s.", loser.Name))
	w.PlayerSound(loser.ID, "lose.wav")
	w.Message(loser.ID, fmt.Sprintf("You are beaten by %s.", winner.Name))

	if loser.LocationID != nil && *loser.LocationID == location {
		if err := w.LeaveMap(loser, location); err != nil {
			return err
		}
	}
	loser.Losses++
	if err := store.Players().Save(loser); err != nil {
		return fmt.Errorf("saving player %d: %w", loser.ID, err)
	}
	w.Logger().Info("Player beaten", "loser", loser.ID, "winner", winner.ID, "location", location)
	return nil
}
