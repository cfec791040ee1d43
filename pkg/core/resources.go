// pkg/core/resources.go
package core

import (
	"fmt"
	"sort"
	"strings"
)

// Material is a kind of gatherable resource.
type Material string

const (
	Food  Material = "food"
	Water Material = "water"
	Gold  Material = "gold"
	Wood  Material = "wood"
	Stone Material = "stone"
)

// Materials lists every material in display order.
var Materials = []Material{Food, Water, Gold, Wood, Stone}

// ParseMaterial validates a material name.
func ParseMaterial(s string) (Material, error) {
	for _, m := range Materials {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown material %q", s)
}

// Resources maps materials to quantities. A missing key means the material
// does not apply, which is different from a present key holding zero.
type Resources map[Material]int

// Applies reports whether m is present.
func (r Resources) Applies(m Material) bool {
	_, ok := r[m]
	return ok
}

// Add adds n of m. The receiver must not be nil.
func (r Resources) Add(m Material, n int) {
	r[m] += n
}

// AddAll adds every quantity in other.
func (r Resources) AddAll(other Resources) {
	for m, n := range other {
		r[m] += n
	}
}

// Covers reports whether r holds at least cost of every material.
func (r Resources) Covers(cost Resources) bool {
	for m, n := range cost {
		if r[m] < n {
			return false
		}
	}
	return true
}

// Take subtracts cost. It returns false and leaves r untouched when r does
// not cover cost.
func (r Resources) Take(cost Resources) bool {
	if !r.Covers(cost) {
		return false
	}
	for m, n := range cost {
		r[m] -= n
	}
	return true
}

// Total sums every quantity.
func (r Resources) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Empty reports whether every quantity is zero.
func (r Resources) Empty() bool {
	return r.Total() == 0
}

// Clear zeroes every present material, keeping the keys.
func (r Resources) Clear() {
	for m := range r {
		r[m] = 0
	}
}

// Clone returns an independent copy.
func (r Resources) Clone() Resources {
	if r == nil {
		return nil
	}
	out := make(Resources, len(r))
	for m, n := range r {
		out[m] = n
	}
	return out
}

func (r Resources) String() string {
	parts := make([]string, 0, len(r))
	for m, n := range r {
		parts = append(parts, fmt.Sprintf("%d %s", n, m))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
