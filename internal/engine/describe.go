package engine

import (
	"fmt"

	"github.com/gridwars/engine/pkg/core"
)

// ActionDescription says in words what u is doing.
func (e *Engine) ActionDescription(u *core.Unit) (string, error) {
	switch u.Action {
	case core.Idle:
		return "doing nothing", nil
	case core.Guard:
		return "guarding " + u.Pos.String(), nil
	case core.Exploit:
		return e.describeTarget("exploiting", u.Exploiting, "a non-existant resource")
	case core.Drop:
		home, err := e.home(u)
		if err != nil {
			return "", err
		}
		if home == nil {
			return "attempting to deliver resources", nil
		}
		name, err := e.world.Name(home)
		if err != nil {
			return "", err
		}
		return "delivering resources to " + name, nil
	case core.Travel:
		return "travelling to " + u.Target.String(), nil
	case core.PatrolOut, core.PatrolBack:
		home, err := e.home(u)
		if err != nil {
			return "", err
		}
		from := "nowhere"
		if home != nil {
			from = home.Pos.String()
		}
		return fmt.Sprintf("patrolling between %s and %s", from, u.Target), nil
	case core.Repair:
		return e.describeTarget("repairing", u.Exploiting, "nothing")
	case core.Heal:
		return e.describeTarget("healing", u.Exploiting, "nobody")
	case core.Attack:
		return e.describeTarget("attacking", u.Exploiting, "a memory")
	}
	return u.Action.String(), nil
}

func (e *Engine) describeTarget(verb string, t core.Target, missing string) (string, error) {
	name, err := e.world.NameOf(t, missing)
	if err != nil {
		return "", err
	}
	return verb + " " + name, nil
}
