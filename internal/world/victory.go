package world

import (
	"fmt"

	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/pkg/core"
)

// HasLost reports whether player owns no units and no buildings anywhere.
func (w *World) HasLost(player core.ID) (bool, error) {
	f := storage.Filter{Owner: &player}
	units, err := w.store.Units().Find(f)
	if err != nil {
		return false, fmt.Errorf("counting units of player %d: %w", player, err)
	}
	if len(units) > 0 {
		return false, nil
	}
	buildings, err := w.store.Buildings().Find(f)
	if err != nil {
		return false, fmt.Errorf("counting buildings of player %d: %w", player, err)
	}
	return len(buildings) == 0, nil
}

// HasWon reports whether nobody but player owns anything on location.
func (w *World) HasWon(player, location core.ID) (bool, error) {
	f := storage.Filter{Location: &location, Owned: true, NotOwner: &player}
	units, err := w.store.Units().Find(f)
	if err != nil {
		return false, fmt.Errorf("finding opponent units on location %d: %w", location, err)
	}
	if len(units) > 0 {
		return false, nil
	}
	buildings, err := w.store.Buildings().Find(f)
	if err != nil {
		return false, fmt.Errorf("finding opponent buildings on location %d: %w", location, err)
	}
	return len(buildings) == 0, nil
}

// LeaveMap takes player off location. Everything they own there is
// disowned.
func (w *World) LeaveMap(player *core.Player, location core.ID) error {
	return w.store.Atomic(func(s storage.Store) error {
		f := storage.Filter{Location: &location, Owner: &player.ID}
		units, err := s.Units().Find(f)
		if err != nil {
			return fmt.Errorf("finding units of player %d: %w", player.ID, err)
		}
		for _, u := range units {
			u.OwnerID = nil
			if err := s.Units().Save(u); err != nil {
				return fmt.Errorf("disowning unit %d: %w", u.ID, err)
			}
		}
		buildings, err := s.Buildings().Find(f)
		if err != nil {
			return fmt.Errorf("finding buildings of player %d: %w", player.ID, err)
		}
		for _, b := range buildings {
			b.OwnerID = nil
			if err := s.Buildings().Save(b); err != nil {
				return fmt.Errorf("disowning building %d: %w", b.ID, err)
			}
		}
		player.LocationID = nil
		if err := s.Players().Save(player); err != nil {
			return fmt.Errorf("saving player %d: %w", player.ID, err)
		}
		w.log.Info("Player left map", "player", player.ID, "location", location,
			"units", len(units), "buildings", len(buildings))
		return nil
	})
}

// PlayersAt lists the players on location.
func (w *World) PlayersAt(location core.ID) ([]*core.Player, error) {
	players, err := w.store.Players().Find(storage.Filter{Location: &location})
	if err != nil {
		return nil, fmt.Errorf("finding players on location %d: %w", location, err)
	}
	return players, nil
}
