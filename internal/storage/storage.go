// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/gridwars/engine/pkg/core"
)

// ErrNotFound is returned by Get when no record has the id.
var ErrNotFound = errors.New("record not found")

// Repo persists one kind of record. Save assigns an ID to records that do
// not have one yet. Find returns matches ordered by ID.
type Repo[T any] interface {
	Save(v *T) error
	Get(id core.ID) (*T, error)
	Delete(id core.ID) error
	Find(f Filter) ([]*T, error)
}

// Store is the interface all storage implementations must satisfy. Every
// error other than ErrNotFound is a persistence failure and must reach the
// caller.
type Store interface {
	// Lifecycle
	Init() error
	Close() error

	Units() Repo[core.Unit]
	Buildings() Repo[core.Building]
	Features() Repo[core.Feature]
	Transports() Repo[core.Transport]
	Skills() Repo[core.Skill]
	Players() Repo[core.Player]
	Locations() Repo[core.Location]

	// Atomic runs fn against a Store whose writes are all applied or, when
	// fn returns an error, none are.
	Atomic(fn func(Store) error) error
}
