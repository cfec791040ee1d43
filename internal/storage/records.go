package storage

import "github.com/gridwars/engine/pkg/core"

// RecordID returns the ID of any stored record.
func RecordID(v any) core.ID {
	switch r := v.(type) {
	case *core.Unit:
		return r.ID
	case *core.Building:
		return r.ID
	case *core.Feature:
		return r.ID
	case *core.Transport:
		return r.ID
	case *core.Skill:
		return r.ID
	case *core.Player:
		return r.ID
	case *core.Location:
		return r.ID
	}
	panic("storage: unsupported record")
}

// SetRecordID assigns the ID of any stored record.
func SetRecordID(v any, id core.ID) {
	switch r := v.(type) {
	case *core.Unit:
		r.ID = id
	case *core.Building:
		r.ID = id
	case *core.Feature:
		r.ID = id
	case *core.Transport:
		r.ID = id
	case *core.Skill:
		r.ID = id
	case *core.Player:
		r.ID = id
	case *core.Location:
		r.ID = id
	default:
		panic("storage: unsupported record")
	}
}

// Clone deep-copies any stored record so callers never share memory with a
// backend.
func Clone[T any](v *T) *T {
	var out any
	switch r := any(v).(type) {
	case *core.Unit:
		out = r.Clone()
	case *core.Building:
		out = r.Clone()
	case *core.Feature:
		out = r.Clone()
	case *core.Transport:
		out = r.Clone()
	case *core.Skill:
		out = r.Clone()
	case *core.Player:
		out = r.Clone()
	case *core.Location:
		out = r.Clone()
	default:
		panic("storage: unsupported record")
	}
	return out.(*T)
}
