// pkg/core/feature.go
package core

// Feature is an unowned resource source such as a mine or a forest.
type Feature struct {
	ID         ID
	TypeID     ID
	LocationID ID
	Pos        Point
	Health     Health
	Remaining  Resources
}

func (f *Feature) Ref() Target     { return FeatureTarget(f.ID) }
func (f *Feature) Type() ID        { return f.TypeID }
func (f *Feature) OwnedBy() *ID    { return nil }
func (f *Feature) Vitals() *Health { return &f.Health }

func (f *Feature) Where() (*ID, Point) {
	loc := f.LocationID
	return &loc, f.Pos
}

func (f *Feature) Stock() Resources {
	if f.Remaining == nil {
		f.Remaining = Resources{}
	}
	return f.Remaining
}

// Exhausted reports whether nothing is left to extract.
func (f *Feature) Exhausted() bool {
	return f.Remaining.Empty()
}
