// pkg/core/unit.go
package core

// Unit is a mobile entity that performs one action at a time.
type Unit struct {
	ID         ID
	TypeID     ID
	LocationID *ID // nil while aboard a transport or in flight
	Pos        Point
	Target     Point
	OwnerID    *ID // nil means unemployed
	HomeID     *ID
	Action     Action
	Exploiting Target
	Material   Material // "" when not exploiting
	Carried    Resources
	Health     Health
	Selected   bool
	OnboardID  *ID // transport carrying this unit
}

// Reset returns the unit to idle, keeping it where it stands.
func (u *Unit) Reset() {
	u.Action = Idle
	u.Exploiting = Target{}
	u.Material = ""
	u.Target = u.Pos
}

// OnMap reports whether the unit is standing on a map.
func (u *Unit) OnMap() bool {
	return u.LocationID != nil
}

func (u *Unit) Ref() Target { return UnitTarget(u.ID) }
func (u *Unit) Type() ID    { return u.TypeID }
func (u *Unit) OwnedBy() *ID {
	return u.OwnerID
}
func (u *Unit) Vitals() *Health { return &u.Health }

func (u *Unit) Where() (*ID, Point) {
	return u.LocationID, u.Pos
}

func (u *Unit) Stock() Resources {
	if u.Carried == nil {
		u.Carried = Resources{}
	}
	return u.Carried
}
