// Package world holds the services every resolver shares: entity lookup by
// target, persistence of any entity, notifications, naming, homes, delete
// cascades and victory checks.
package world

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gridwars/engine/internal/catalog"
	"github.com/gridwars/engine/internal/notify"
	"github.com/gridwars/engine/internal/scheduler"
	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/pkg/core"
)

// Dependencies holds everything a World is built from.
type Dependencies struct {
	Store     storage.Store
	Catalog   *catalog.Catalog
	Scheduler *scheduler.Scheduler
	Notifier  notify.Notifier
	Logger    *slog.Logger
}

// World is the shared view of the game state. Its methods must be called
// from the event loop.
type World struct {
	store    storage.Store
	catalog  *catalog.Catalog
	sched    *scheduler.Scheduler
	notifier notify.Notifier
	log      *slog.Logger
}

func New(deps Dependencies) *World {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	n := deps.Notifier
	if n == nil {
		n = notify.Log{Logger: log}
	}
	return &World{
		store:    deps.Store,
		catalog:  deps.Catalog,
		sched:    deps.Scheduler,
		notifier: n,
		log:      log,
	}
}

func (w *World) Store() storage.Store            { return w.store }
func (w *World) Catalog() *catalog.Catalog       { return w.catalog }
func (w *World) Scheduler() *scheduler.Scheduler { return w.sched }
func (w *World) Logger() *slog.Logger            { return w.log }

// Now is the scheduler clock's current time.
func (w *World) Now() time.Time {
	return w.sched.Clock().Now()
}

// TickUnit is the duration one speed point stands for.
func (w *World) TickUnit() time.Duration {
	return w.sched.TickUnit()
}

type resolver func(s storage.Store, id core.ID) (core.Entity, error)

func getter[T any, P interface {
	*T
	core.Entity
}](repo func(storage.Store) storage.Repo[T]) resolver {
	return func(s storage.Store, id core.ID) (core.Entity, error) {
		v, err := repo(s).Get(id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return P(v), nil
	}
}

var resolvers = map[core.Kind]resolver{
	core.FeatureKind:  getter[core.Feature, *core.Feature](storage.Store.Features),
	core.BuildingKind: getter[core.Building, *core.Building](storage.Store.Buildings),
	core.UnitKind:     getter[core.Unit, *core.Unit](storage.Store.Units),
}

// Resolve fetches the entity t points at. A zero target or a missing row
// resolves to nil with no error.
func (w *World) Resolve(t core.Target) (core.Entity, error) {
	r, ok := resolvers[t.Kind]
	if !ok {
		return nil, nil
	}
	e, err := r(w.store, t.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", t, err)
	}
	return e, nil
}

// Save persists e.
func (w *World) Save(e core.Entity) error {
	return SaveIn(w.store, e)
}

// SaveIn persists e through s, which may be a transaction scoped store.
func SaveIn(s storage.Store, e core.Entity) error {
	var err error
	switch v := e.(type) {
	case *core.Unit:
		err = s.Units().Save(v)
	case *core.Building:
		err = s.Buildings().Save(v)
	case *core.Feature:
		err = s.Features().Save(v)
	default:
		return fmt.Errorf("saving %T: unsupported entity", e)
	}
	if err != nil {
		return fmt.Errorf("saving %s: %w", e.Ref(), err)
	}
	return nil
}

// MaxHealth is the maximum health of e's type. Unknown types count as 0.
func (w *World) MaxHealth(e core.Entity) int {
	switch v := e.(type) {
	case *core.Unit:
		if t, ok := w.catalog.UnitType(v.TypeID); ok {
			return t.MaxHealth
		}
	case *core.Building:
		if t, ok := w.catalog.BuildingType(v.TypeID); ok {
			return t.MaxHealth
		}
	case *core.Feature:
		if t, ok := w.catalog.FeatureType(v.TypeID); ok {
			return t.MaxHealth
		}
	}
	return 0
}

// Resistance is the resistance of e's type. Features have none.
func (w *World) Resistance(e core.Entity) int {
	switch v := e.(type) {
	case *core.Unit:
		if t, ok := w.catalog.UnitType(v.TypeID); ok {
			return t.Resistance
		}
	case *core.Building:
		if t, ok := w.catalog.BuildingType(v.TypeID); ok {
			return t.Resistance
		}
	}
	return 0
}

// TypeName is the catalog name of e's type.
func (w *World) TypeName(e core.Entity) string {
	switch v := e.(type) {
	case *core.Unit:
		if t, ok := w.catalog.UnitType(v.TypeID); ok {
			return t.Name
		}
	case *core.Building:
		if t, ok := w.catalog.BuildingType(v.TypeID); ok {
			return t.Name
		}
	case *core.Feature:
		if t, ok := w.catalog.FeatureType(v.TypeID); ok {
			return t.Name
		}
	}
	return e.Ref().Kind.String()
}

// Rehome gives u the closest homely building its owner has on u's map,
// ties going to the lowest id, and saves u. It reports whether a home was
// found; when none is, u is saved homeless.
func (w *World) Rehome(u *core.Unit) (bool, error) {
	var best *core.Building
	if u.OwnerID != nil && u.LocationID != nil {
		buildings, err := w.store.Buildings().Find(storage.Filter{Location: u.LocationID, Owner: u.OwnerID})
		if err != nil {
			return false, fmt.Errorf("finding homes for unit %d: %w", u.ID, err)
		}
		for _, b := range buildings {
			bt, ok := w.catalog.BuildingType(b.TypeID)
			if !ok || !bt.Homely {
				continue
			}
			if best == nil || b.Pos.Distance(u.Pos) < best.Pos.Distance(u.Pos) {
				best = b
			}
		}
	}
	if best == nil {
		u.HomeID = nil
	} else {
		u.HomeID = core.Ptr(best.ID)
	}
	if err := w.Save(u); err != nil {
		return false, err
	}
	return best != nil, nil
}

// HasSkill reports whether a building player owns carries an active skill
// of the given kind.
func (w *World) HasSkill(player core.ID, kind core.SkillKind) (bool, error) {
	buildings, err := w.store.Buildings().Find(storage.Filter{Owner: &player})
	if err != nil {
		return false, fmt.Errorf("finding buildings of player %d: %w", player, err)
	}
	now := w.Now()
	for _, b := range buildings {
		skills, err := w.store.Skills().Find(storage.Filter{Building: &b.ID})
		if err != nil {
			return false, fmt.Errorf("finding skills of building %d: %w", b.ID, err)
		}
		for _, s := range skills {
			if s.Kind == kind && s.Active(now) {
				return true, nil
			}
		}
	}
	return false, nil
}
