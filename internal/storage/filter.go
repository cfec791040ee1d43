package storage

import (
	"time"

	"github.com/gridwars/engine/pkg/core"
)

// Filter selects records. Zero fields do not constrain. Setting a field a
// record kind does not have (Home on a building, say) matches nothing,
// except NotOwner, which every ownerless record satisfies.
type Filter struct {
	Location    *core.ID
	At          *core.Point
	Type        *core.ID
	Owner       *core.ID
	NotOwner    *core.ID // owner differs, including no owner at all
	Owned       bool     // owner is set
	Damaged     bool     // health below maximum
	Busy        bool     // units whose action is not idle
	Home        *core.ID
	Onboard     *core.ID
	Carrier     *core.ID
	Destination *core.ID
	Building    *core.ID
	Airborne    bool
	Exclude     *core.ID
}

// Square selects everything on one map square.
func Square(location core.ID, at core.Point) Filter {
	return Filter{Location: &location, At: &at}
}

// facts is the part of a record a Filter can look at. nil pointers to
// fields mean the kind lacks them.
type facts struct {
	id          core.ID
	location    *core.ID
	at          *core.Point
	typeID      *core.ID
	hasOwner    bool
	owner       *core.ID
	health      *core.Health
	action      *core.Action
	home        **core.ID
	onboard     **core.ID
	carrier     *core.ID
	destination *core.ID
	building    *core.ID
	landAt      **time.Time
}

func factsOf(v any) facts {
	switch r := v.(type) {
	case *core.Unit:
		return facts{id: r.ID, location: r.LocationID, at: &r.Pos, typeID: &r.TypeID,
			hasOwner: true, owner: r.OwnerID, health: &r.Health, action: &r.Action,
			home: &r.HomeID, onboard: &r.OnboardID}
	case *core.Building:
		return facts{id: r.ID, location: &r.LocationID, at: &r.Pos, typeID: &r.TypeID,
			hasOwner: true, owner: r.OwnerID, health: &r.Health}
	case *core.Feature:
		return facts{id: r.ID, location: &r.LocationID, at: &r.Pos, typeID: &r.TypeID,
			health: &r.Health}
	case *core.Transport:
		return facts{id: r.ID, carrier: &r.CarrierID, destination: &r.DestinationID, landAt: &r.LandAt}
	case *core.Skill:
		return facts{id: r.ID, building: &r.BuildingID}
	case *core.Player:
		return facts{id: r.ID, location: r.LocationID, at: &r.Pos}
	case *core.Location:
		return facts{id: r.ID}
	}
	panic("storage: filter on unsupported record")
}

func eqID(want *core.ID, have *core.ID) bool {
	return want == nil || (have != nil && *have == *want)
}

// Match reports whether a record passes f. Backends without a query
// language use it to scan.
func (f Filter) Match(v any) bool {
	r := factsOf(v)

	if f.Exclude != nil && r.id == *f.Exclude {
		return false
	}
	if !eqID(f.Location, r.location) || !eqID(f.Type, r.typeID) {
		return false
	}
	if f.At != nil && (r.at == nil || *r.at != *f.At) {
		return false
	}
	if f.Owner != nil && !eqID(f.Owner, r.owner) {
		return false
	}
	if f.NotOwner != nil && r.owner != nil && *r.owner == *f.NotOwner {
		return false
	}
	if f.Owned && r.owner == nil {
		return false
	}
	if f.Damaged && (r.health == nil || r.health.Full()) {
		return false
	}
	if f.Busy && (r.action == nil || *r.action == core.Idle) {
		return false
	}
	if f.Home != nil && (r.home == nil || !eqID(f.Home, *r.home)) {
		return false
	}
	if f.Onboard != nil && (r.onboard == nil || !eqID(f.Onboard, *r.onboard)) {
		return false
	}
	if !eqID(f.Carrier, r.carrier) || !eqID(f.Destination, r.destination) || !eqID(f.Building, r.building) {
		return false
	}
	if f.Airborne && (r.landAt == nil || *r.landAt == nil) {
		return false
	}
	return true
}
