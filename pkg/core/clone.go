// pkg/core/clone.go
package core

import (
	"slices"
	"time"
)

func cloneID(id *ID) *ID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// Clone returns a deep copy.
func (u *Unit) Clone() *Unit {
	c := *u
	c.LocationID = cloneID(u.LocationID)
	c.OwnerID = cloneID(u.OwnerID)
	c.HomeID = cloneID(u.HomeID)
	c.OnboardID = cloneID(u.OnboardID)
	c.Carried = u.Carried.Clone()
	c.Health = HealthFrom(u.Health.Raw())
	return &c
}

// Clone returns a deep copy.
func (b *Building) Clone() *Building {
	c := *b
	c.OwnerID = cloneID(b.OwnerID)
	c.Stored = b.Stored.Clone()
	c.Health = HealthFrom(b.Health.Raw())
	return &c
}

// Clone returns a deep copy.
func (f *Feature) Clone() *Feature {
	c := *f
	c.Remaining = f.Remaining.Clone()
	c.Health = HealthFrom(f.Health.Raw())
	return &c
}

// Clone returns a deep copy.
func (t *Transport) Clone() *Transport {
	c := *t
	if t.LandAt != nil {
		at := *t.LandAt
		c.LandAt = &at
	}
	c.Route = slices.Clone(t.Route)
	return &c
}

// Clone returns a copy.
func (s *Skill) Clone() *Skill {
	c := *s
	return &c
}

// Clone returns a deep copy.
func (p *Player) Clone() *Player {
	c := *p
	c.LocationID = cloneID(p.LocationID)
	return &c
}

// Clone returns a copy.
func (l *Location) Clone() *Location {
	c := *l
	return &c
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
