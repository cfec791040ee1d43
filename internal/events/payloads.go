package events

import "github.com/gridwars/engine/pkg/core"

// Names of the events the engine registers.
const (
	OnAttack  = "on_attack"
	OnExploit = "on_exploit"
	OnExhaust = "on_exhaust"
	OnDrop    = "on_drop"
	OnHeal    = "on_heal"
	OnRepair  = "on_repair"
	OnKill    = "on_kill"
)

// Engine lists every event RegisterEngine creates.
var Engine = []string{OnAttack, OnExploit, OnExhaust, OnDrop, OnHeal, OnRepair, OnKill}

// RegisterEngine registers every engine event on b.
func RegisterEngine(b *Bus) error {
	for _, name := range Engine {
		if _, err := b.Register(name); err != nil {
			return err
		}
	}
	return nil
}

// Attack is fired before damage is applied. Listeners may change Damage or
// set Cancelled to call the strike off.
type Attack struct {
	Attacker  *core.Unit
	Defender  core.Entity
	Damage    int
	Cancelled bool
}

// Exploit is fired before resources change hands. Listeners may scale
// Amount; the resolver clamps it to what the source holds.
type Exploit struct {
	Unit     *core.Unit
	Source   core.Entity
	Material core.Material
	Amount   int
}

// Exhaust is fired when a feature has nothing left, just before it is
// deleted.
type Exhaust struct {
	Unit    *core.Unit
	Feature *core.Feature
}

// Drop is fired after a unit delivers its load.
type Drop struct {
	Unit      *core.Unit
	Home      *core.Building
	Delivered core.Resources
}

// Mend is the payload of on_heal and on_repair. Listeners may change
// Amount before it is applied.
type Mend struct {
	Unit   *core.Unit
	Target core.Entity
	Amount int
}

// Kill is fired after a defeated entity is deleted.
type Kill struct {
	Attacker *core.Unit
	Victim   core.Entity
	OwnerID  *core.ID
	HomeID   *core.ID // victim's home, for units
}
