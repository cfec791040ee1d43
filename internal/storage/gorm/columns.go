package gormstorage

import (
	"github.com/gridwars/engine/internal/storage"
	"gorm.io/gorm"
)

// columns names the table columns a Filter field maps to. An empty name
// means the kind has no such field.
type columns struct {
	location    string
	square      bool // has x and y
	typeID      string
	owner       string
	health      string
	action      string
	home        string
	onboard     string
	carrier     string
	destination string
	building    string
	landAt      string
}

var (
	unitColumns = columns{location: "location_id", square: true, typeID: "type_id", owner: "owner_id",
		health: "health", action: "action", home: "home_id", onboard: "onboard_id"}
	buildingColumns = columns{location: "location_id", square: true, typeID: "type_id", owner: "owner_id",
		health: "health"}
	featureColumns   = columns{location: "location_id", square: true, typeID: "type_id", health: "health"}
	transportColumns = columns{carrier: "carrier_id", destination: "destination_id", landAt: "land_at"}
	skillColumns     = columns{building: "building_id"}
	playerColumns    = columns{location: "location_id", square: true}
)

const matchNothing = "1 = 0"

// eq constrains col to v, or matches nothing when the kind lacks col.
func eq(q *gorm.DB, col string, v any) *gorm.DB {
	if col == "" {
		return q.Where(matchNothing)
	}
	return q.Where(col+" = ?", v)
}

func notNull(q *gorm.DB, col string) *gorm.DB {
	if col == "" {
		return q.Where(matchNothing)
	}
	return q.Where(col + " IS NOT NULL")
}

// apply translates f into WHERE clauses that select exactly what f.Match
// accepts.
func (c columns) apply(q *gorm.DB, f storage.Filter) *gorm.DB {
	if f.Exclude != nil {
		q = q.Where("id <> ?", uint(*f.Exclude))
	}
	if f.Location != nil {
		q = eq(q, c.location, uint(*f.Location))
	}
	if f.At != nil {
		if c.square {
			q = q.Where("x = ? AND y = ?", f.At.X, f.At.Y)
		} else {
			q = q.Where(matchNothing)
		}
	}
	if f.Type != nil {
		q = eq(q, c.typeID, uint(*f.Type))
	}
	if f.Owner != nil {
		q = eq(q, c.owner, uint(*f.Owner))
	}
	if f.NotOwner != nil && c.owner != "" {
		q = q.Where("("+c.owner+" IS NULL OR "+c.owner+" <> ?)", uint(*f.NotOwner))
	}
	if f.Owned {
		q = notNull(q, c.owner)
	}
	if f.Damaged {
		q = notNull(q, c.health)
	}
	if f.Busy {
		if c.action == "" {
			q = q.Where(matchNothing)
		} else {
			q = q.Where(c.action+" <> ?", "idle")
		}
	}
	if f.Home != nil {
		q = eq(q, c.home, uint(*f.Home))
	}
	if f.Onboard != nil {
		q = eq(q, c.onboard, uint(*f.Onboard))
	}
	if f.Carrier != nil {
		q = eq(q, c.carrier, uint(*f.Carrier))
	}
	if f.Destination != nil {
		q = eq(q, c.destination, uint(*f.Destination))
	}
	if f.Building != nil {
		q = eq(q, c.building, uint(*f.Building))
	}
	if f.Airborne {
		q = notNull(q, c.landAt)
	}
	return q
}
