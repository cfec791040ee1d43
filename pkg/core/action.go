// pkg/core/action.go
package core

import "fmt"

// Action is the behaviour a unit is currently carrying out.
type Action uint8

const (
	Idle Action = iota
	Exploit
	Drop
	Travel
	PatrolOut
	PatrolBack
	Repair
	Heal
	Guard
	Attack
)

var actionNames = [...]string{
	Idle:       "idle",
	Exploit:    "exploit",
	Drop:       "drop",
	Travel:     "travel",
	PatrolOut:  "patrol_out",
	PatrolBack: "patrol_back",
	Repair:     "repair",
	Heal:       "heal",
	Guard:      "guard",
	Attack:     "attack",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// ParseAction is the inverse of Action.String.
func ParseAction(s string) (Action, error) {
	for i, name := range actionNames {
		if name == s {
			return Action(i), nil
		}
	}
	return Idle, fmt.Errorf("unknown action %q", s)
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
