// pkg/core/building.go
package core

import "time"

// Building is a static structure that stores resources and recruits units.
type Building struct {
	ID         ID
	TypeID     ID
	LocationID ID
	Pos        Point
	OwnerID    *ID
	Health     Health
	Stored     Resources
}

func (b *Building) Ref() Target     { return BuildingTarget(b.ID) }
func (b *Building) Type() ID        { return b.TypeID }
func (b *Building) OwnedBy() *ID    { return b.OwnerID }
func (b *Building) Vitals() *Health { return &b.Health }

func (b *Building) Where() (*ID, Point) {
	loc := b.LocationID
	return &loc, b.Pos
}

func (b *Building) Stock() Resources {
	if b.Stored == nil {
		b.Stored = Resources{}
	}
	return b.Stored
}

// Skill is a purchased skill attached to a building. It only counts for the
// building's owner once ActivatedAt has passed.
type Skill struct {
	ID          ID
	Kind        SkillKind
	BuildingID  ID
	ActivatedAt time.Time
}

// Active reports whether the skill has popped at now.
func (s *Skill) Active(now time.Time) bool {
	return !s.ActivatedAt.After(now)
}
