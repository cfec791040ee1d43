// pkg/core/target.go
package core

import "fmt"

// Kind tags the concrete entity a Target points at.
type Kind uint8

const (
	NoKind Kind = iota
	FeatureKind
	BuildingKind
	UnitKind
)

func (k Kind) String() string {
	switch k {
	case FeatureKind:
		return "feature"
	case BuildingKind:
		return "building"
	case UnitKind:
		return "unit"
	}
	return "none"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{FeatureKind, BuildingKind, UnitKind} {
		if k.String() == s {
			return k, nil
		}
	}
	return NoKind, fmt.Errorf("unknown entity kind %q", s)
}

// Target references a feature, building or unit. The zero value points at
// nothing.
type Target struct {
	Kind Kind `json:"kind"`
	ID   ID   `json:"id"`
}

func FeatureTarget(id ID) Target  { return Target{Kind: FeatureKind, ID: id} }
func BuildingTarget(id ID) Target { return Target{Kind: BuildingKind, ID: id} }
func UnitTarget(id ID) Target     { return Target{Kind: UnitKind, ID: id} }

// IsZero reports whether the target points at nothing.
func (t Target) IsZero() bool {
	return t.Kind == NoKind
}

func (t Target) String() string {
	if t.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%s#%d", t.Kind, t.ID)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	if s := string(b); s == "" || s == "none" {
		*k = NoKind
		return nil
	}
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
