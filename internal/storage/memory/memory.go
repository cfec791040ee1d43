// internal/storage/memory/memory.go
package memory

import (
	"cmp"
	"slices"
	"sync"

	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/pkg/core"
)

// Config holds in-memory backend settings. When OutputDir is set, Close
// writes a JSON snapshot of the world there.
type Config struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// table holds one record kind. Records are cloned on the way in and out so
// callers never alias stored state.
type table[T any] struct {
	mu     *sync.RWMutex
	rows   map[core.ID]*T
	nextID core.ID
}

func newTable[T any](mu *sync.RWMutex) *table[T] {
	return &table[T]{mu: mu, rows: make(map[core.ID]*T)}
}

func (t *table[T]) Save(v *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := storage.RecordID(v)
	if id == 0 {
		t.nextID++
		id = t.nextID
		storage.SetRecordID(v, id)
	} else if id > t.nextID {
		t.nextID = id
	}
	t.rows[id] = storage.Clone(v)
	return nil
}

func (t *table[T]) Get(id core.ID) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return storage.Clone(row), nil
}

func (t *table[T]) Delete(id core.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.rows, id)
	return nil
}

func (t *table[T]) Find(f storage.Filter) ([]*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []*T
	for _, row := range t.rows {
		if f.Match(row) {
			out = append(out, storage.Clone(row))
		}
	}
	slices.SortFunc(out, func(a, b *T) int {
		return cmp.Compare(storage.RecordID(a), storage.RecordID(b))
	})
	return out, nil
}

func (t *table[T]) all() []*T {
	out, _ := t.Find(storage.Filter{})
	return out
}

// snapshot copies the table without locking; the caller holds mu.
func (t *table[T]) snapshot() *table[T] {
	c := &table[T]{mu: t.mu, rows: make(map[core.ID]*T, len(t.rows)), nextID: t.nextID}
	for id, row := range t.rows {
		c.rows[id] = storage.Clone(row)
	}
	return c
}

func (t *table[T]) restore(from *table[T]) {
	t.rows = from.rows
	t.nextID = from.nextID
}

// Backend keeps the whole world in maps.
type Backend struct {
	cfg Config

	mu        sync.RWMutex
	atomicMu  sync.Mutex
	units     *table[core.Unit]
	buildings *table[core.Building]
	features  *table[core.Feature]
	transport *table[core.Transport]
	skills    *table[core.Skill]
	players   *table[core.Player]
	locations *table[core.Location]

	lastExportPath string
}

var _ storage.Store = (*Backend)(nil)

// New creates a new memory backend
func New(cfg Config) *Backend {
	b := &Backend{cfg: cfg}
	b.units = newTable[core.Unit](&b.mu)
	b.buildings = newTable[core.Building](&b.mu)
	b.features = newTable[core.Feature](&b.mu)
	b.transport = newTable[core.Transport](&b.mu)
	b.skills = newTable[core.Skill](&b.mu)
	b.players = newTable[core.Player](&b.mu)
	b.locations = newTable[core.Location](&b.mu)
	return b
}

// Init is a no-op for the memory backend.
func (b *Backend) Init() error { return nil }

// Close exports a snapshot when an output directory is configured.
func (b *Backend) Close() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON()
}

func (b *Backend) Units() storage.Repo[core.Unit]           { return b.units }
func (b *Backend) Buildings() storage.Repo[core.Building]   { return b.buildings }
func (b *Backend) Features() storage.Repo[core.Feature]     { return b.features }
func (b *Backend) Transports() storage.Repo[core.Transport] { return b.transport }
func (b *Backend) Skills() storage.Repo[core.Skill]         { return b.skills }
func (b *Backend) Players() storage.Repo[core.Player]       { return b.players }
func (b *Backend) Locations() storage.Repo[core.Location]   { return b.locations }

// Atomic snapshots every table, runs fn and restores the snapshot when fn
// fails. Atomic groups are serialized against each other.
func (b *Backend) Atomic(fn func(storage.Store) error) error {
	b.atomicMu.Lock()
	defer b.atomicMu.Unlock()

	b.mu.Lock()
	units, buildings, features := b.units.snapshot(), b.buildings.snapshot(), b.features.snapshot()
	transports, skills := b.transport.snapshot(), b.skills.snapshot()
	players, locations := b.players.snapshot(), b.locations.snapshot()
	b.mu.Unlock()

	if err := fn(b); err != nil {
		b.mu.Lock()
		b.units.restore(units)
		b.buildings.restore(buildings)
		b.features.restore(features)
		b.transport.restore(transports)
		b.skills.restore(skills)
		b.players.restore(players)
		b.locations.restore(locations)
		b.mu.Unlock()
		return err
	}
	return nil
}

// GetExportedFilePath returns the path of the last exported snapshot.
func (b *Backend) GetExportedFilePath() string {
	return b.lastExportPath
}
