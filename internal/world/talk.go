package world

import (
	"fmt"

	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/pkg/core"
)

// Sound plays path to every player standing on the square. Entities off
// the map make no sound.
func (w *World) Sound(location *core.ID, at core.Point, path string) error {
	if location == nil {
		return nil
	}
	players, err := w.store.Players().Find(storage.Square(*location, at))
	if err != nil {
		return fmt.Errorf("finding listeners at %s: %w", at, err)
	}
	for _, p := range players {
		w.notifier.Sound(p.ID, path)
	}
	return nil
}

// SoundAt plays path on e's square.
func (w *World) SoundAt(e core.Entity, path string) error {
	loc, at := e.Where()
	return w.Sound(loc, at, path)
}

// Speak plays speech/<word>.wav on u's square, and to u's owner when the
// owner stands somewhere else.
func (w *World) Speak(u *core.Unit, word string) error {
	path := "speech/" + word + ".wav"
	if u.OwnerID != nil {
		owner, err := w.store.Players().Get(*u.OwnerID)
		switch {
		case err == nil:
			if owner.LocationID == nil || u.LocationID == nil ||
				*owner.LocationID != *u.LocationID || owner.Pos != u.Pos {
				w.notifier.Sound(owner.ID, path)
			}
		case !isNotFound(err):
			return fmt.Errorf("finding owner of unit %d: %w", u.ID, err)
		}
	}
	return w.Sound(u.LocationID, u.Pos, path)
}

// Message sends text to one player.
func (w *World) Message(player core.ID, text string) {
	w.notifier.Message(player, text)
}

// PlayerSound sends a sound to one player wherever they are.
func (w *World) PlayerSound(player core.ID, path string) {
	w.notifier.Sound(player, path)
}

// Name returns "<Type> <n>", n counting from 1 among entities of the same
// type and owner in id order. It stays stable for an entity that has just
// been deleted.
func (w *World) Name(e core.Entity) (string, error) {
	f := storage.Filter{Type: core.Ptr(e.Type())}
	id := e.Ref().ID
	owner := e.OwnedBy()

	var ids []core.ID
	var owners []*core.ID
	switch e.(type) {
	case *core.Unit:
		rows, err := w.store.Units().Find(f)
		if err != nil {
			return "", fmt.Errorf("naming %s: %w", e.Ref(), err)
		}
		for _, r := range rows {
			ids, owners = append(ids, r.ID), append(owners, r.OwnerID)
		}
	case *core.Building:
		rows, err := w.store.Buildings().Find(f)
		if err != nil {
			return "", fmt.Errorf("naming %s: %w", e.Ref(), err)
		}
		for _, r := range rows {
			ids, owners = append(ids, r.ID), append(owners, r.OwnerID)
		}
	case *core.Feature:
		rows, err := w.store.Features().Find(f)
		if err != nil {
			return "", fmt.Errorf("naming %s: %w", e.Ref(), err)
		}
		for _, r := range rows {
			ids, owners = append(ids, r.ID), append(owners, nil)
		}
	}

	n := 1
	for i, other := range ids {
		if other < id && sameOwnerOrNone(owner, owners[i]) {
			n++
		}
	}
	return fmt.Sprintf("%s %d", w.TypeName(e), n), nil
}

// NameOf is Name for a target, falling back to fallback when the target is
// gone.
func (w *World) NameOf(t core.Target, fallback string) (string, error) {
	e, err := w.Resolve(t)
	if err != nil || e == nil {
		return fallback, err
	}
	return w.Name(e)
}

func sameOwnerOrNone(a, b *core.ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
