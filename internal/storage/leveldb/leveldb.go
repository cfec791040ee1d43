// Package leveldb implements storage.Store on goleveldb. Records are JSON
// documents keyed "<kind>/<zero-padded id>" so a prefix scan walks them in
// ID order.
package leveldb

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/pkg/core"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	ldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Config holds leveldb backend settings. An empty Path keeps the database in
// memory.
type Config struct {
	Path string `json:"path" mapstructure:"path"`
}

// kv is the part of *leveldb.DB and *leveldb.Transaction the repos use.
type kv interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	Put(key, value []byte, wo *opt.WriteOptions) error
	Delete(key []byte, wo *opt.WriteOptions) error
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

// Backend stores the world in a leveldb database.
type Backend struct {
	cfg Config
	db  *leveldb.DB
	mu  *sync.Mutex // serializes ID allocation

	units      *repo[core.Unit]
	buildings  *repo[core.Building]
	features   *repo[core.Feature]
	transports *repo[core.Transport]
	skills     *repo[core.Skill]
	players    *repo[core.Player]
	locations  *repo[core.Location]
}

var _ storage.Store = (*Backend)(nil)

// New creates a backend. The database is opened by Init.
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg, mu: &sync.Mutex{}}
}

// Init opens the database.
func (b *Backend) Init() error {
	var (
		db  *leveldb.DB
		err error
	)
	if b.cfg.Path == "" {
		db, err = leveldb.Open(ldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(b.cfg.Path, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to open leveldb: %w", err)
	}
	b.db = db
	b.bind(db)
	return nil
}

func (b *Backend) bind(s kv) {
	b.units = &repo[core.Unit]{kv: s, mu: b.mu, kind: "unit"}
	b.buildings = &repo[core.Building]{kv: s, mu: b.mu, kind: "building"}
	b.features = &repo[core.Feature]{kv: s, mu: b.mu, kind: "feature"}
	b.transports = &repo[core.Transport]{kv: s, mu: b.mu, kind: "transport"}
	b.skills = &repo[core.Skill]{kv: s, mu: b.mu, kind: "skill"}
	b.players = &repo[core.Player]{kv: s, mu: b.mu, kind: "player"}
	b.locations = &repo[core.Location]{kv: s, mu: b.mu, kind: "location"}
}

// Close closes the database.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Backend) Units() storage.Repo[core.Unit]           { return b.units }
func (b *Backend) Buildings() storage.Repo[core.Building]   { return b.buildings }
func (b *Backend) Features() storage.Repo[core.Feature]     { return b.features }
func (b *Backend) Transports() storage.Repo[core.Transport] { return b.transports }
func (b *Backend) Skills() storage.Repo[core.Skill]         { return b.skills }
func (b *Backend) Players() storage.Repo[core.Player]       { return b.players }
func (b *Backend) Locations() storage.Repo[core.Location]   { return b.locations }

// Atomic runs fn inside a leveldb transaction. Other writers block until it
// commits or is discarded.
func (b *Backend) Atomic(fn func(storage.Store) error) error {
	tx, err := b.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("failed to open transaction: %w", err)
	}

	scoped := &Backend{cfg: b.cfg, db: b.db, mu: b.mu}
	scoped.bind(tx)
	if err := fn(scoped); err != nil {
		tx.Discard()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type repo[T any] struct {
	kv   kv
	mu   *sync.Mutex
	kind string
}

func (r *repo[T]) key(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s/%020d", r.kind, id))
}

func (r *repo[T]) seqKey() []byte {
	return []byte("seq/" + r.kind)
}

// nextID bumps the kind's sequence, or raises it to at least id.
func (r *repo[T]) nextID(id core.ID) (core.ID, error) {
	var last core.ID
	v, err := r.kv.Get(r.seqKey(), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
	case err != nil:
		return 0, err
	default:
		n, err := strconv.ParseUint(string(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt sequence for %s: %w", r.kind, err)
		}
		last = core.ID(n)
	}

	if id == 0 {
		id = last + 1
	}
	if id > last {
		if err := r.kv.Put(r.seqKey(), []byte(strconv.FormatUint(uint64(id), 10)), nil); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *repo[T]) Save(v *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.nextID(storage.RecordID(v))
	if err != nil {
		return fmt.Errorf("save %s: %w", r.kind, err)
	}
	storage.SetRecordID(v, id)

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %d: %w", r.kind, id, err)
	}
	if err := r.kv.Put(r.key(id), b, nil); err != nil {
		return fmt.Errorf("save %s %d: %w", r.kind, id, err)
	}
	return nil
}

func (r *repo[T]) Get(id core.ID) (*T, error) {
	b, err := r.kv.Get(r.key(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", r.kind, id, err)
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode %s %d: %w", r.kind, id, err)
	}
	return &v, nil
}

func (r *repo[T]) Delete(id core.ID) error {
	if err := r.kv.Delete(r.key(id), nil); err != nil {
		return fmt.Errorf("delete %s %d: %w", r.kind, id, err)
	}
	return nil
}

func (r *repo[T]) Find(f storage.Filter) ([]*T, error) {
	iter := r.kv.NewIterator(util.BytesPrefix([]byte(r.kind+"/")), nil)
	defer iter.Release()

	var out []*T
	for iter.Next() {
		v := new(T)
		if err := json.Unmarshal(iter.Value(), v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", iter.Key(), err)
		}
		if f.Match(v) {
			out = append(out, v)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.kind, err)
	}
	return out, nil
}
