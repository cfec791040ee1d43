// pkg/core/health.go
package core

import "encoding/json"

// Health holds hit points where a nil value means "exactly at maximum".
// The maximum lives on the type template, so every mutator takes it.
type Health struct {
	value *int
}

// HealthFrom wraps a stored value. nil means full.
func HealthFrom(v *int) Health {
	if v == nil {
		return Health{}
	}
	n := *v
	return Health{value: &n}
}

// Raw returns the stored value, nil when full.
func (h Health) Raw() *int {
	if h.value == nil {
		return nil
	}
	n := *h.value
	return &n
}

// Full reports whether the value is at maximum.
func (h Health) Full() bool {
	return h.value == nil
}

// HP returns the current hit points.
func (h Health) HP(maxHP int) int {
	if h.value == nil {
		return maxHP
	}
	return *h.value
}

// Set stores hp, collapsing the maximum back to nil.
func (h *Health) Set(hp, maxHP int) {
	if hp == maxHP {
		h.value = nil
		return
	}
	h.value = &hp
}

// Damage removes n hit points.
func (h *Health) Damage(n, maxHP int) {
	h.Set(h.HP(maxHP)-n, maxHP)
}

// Heal adds n hit points without passing the maximum.
func (h *Health) Heal(n, maxHP int) {
	h.Set(min(maxHP, h.HP(maxHP)+n), maxHP)
}

// Dead reports whether hit points fell below zero. Zero is still alive.
func (h Health) Dead(maxHP int) bool {
	return h.HP(maxHP) < 0
}

// MarshalJSON encodes full health as null.
func (h Health) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.value)
}

func (h *Health) UnmarshalJSON(b []byte) error {
	var v *int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	h.value = v
	return nil
}
