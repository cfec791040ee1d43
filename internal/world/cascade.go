package world

import (
	"errors"
	"fmt"

	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/pkg/core"
)

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

// Delete removes any entity with its cascades.
func (w *World) Delete(e core.Entity) error {
	switch v := e.(type) {
	case *core.Unit:
		return w.DeleteUnit(v)
	case *core.Building:
		return w.DeleteBuilding(v)
	case *core.Feature:
		return w.DeleteFeature(v)
	}
	return fmt.Errorf("deleting %T: unsupported entity", e)
}

// DeleteUnit cancels u's task and removes it. A transport u carries goes
// with it: passengers of a grounded carrier step off on its square,
// passengers of an airborne one are lost.
func (w *World) DeleteUnit(u *core.Unit) error {
	return w.store.Atomic(func(s storage.Store) error {
		return w.deleteUnit(s, u)
	})
}

func (w *World) deleteUnit(s storage.Store, u *core.Unit) error {
	w.sched.KillTask(u.ID)

	transports, err := s.Transports().Find(storage.Filter{Carrier: &u.ID})
	if err != nil {
		return fmt.Errorf("finding transports of unit %d: %w", u.ID, err)
	}
	for _, t := range transports {
		passengers, err := s.Units().Find(storage.Filter{Onboard: &t.ID})
		if err != nil {
			return fmt.Errorf("finding passengers of transport %d: %w", t.ID, err)
		}
		for _, p := range passengers {
			if t.Airborne() {
				if err := w.deleteUnit(s, p); err != nil {
					return err
				}
				continue
			}
			if err := w.release(s, p, u); err != nil {
				return err
			}
		}
		if err := s.Transports().Delete(t.ID); err != nil {
			return fmt.Errorf("deleting transport %d: %w", t.ID, err)
		}
	}

	if err := s.Units().Delete(u.ID); err != nil {
		return fmt.Errorf("deleting unit %d: %w", u.ID, err)
	}
	w.log.Debug("Unit deleted", "unit", u.ID, "transports", len(transports))
	return nil
}

// release puts passenger p back on the map on carrier's square.
func (w *World) release(s storage.Store, p, carrier *core.Unit) error {
	p.LocationID = carrier.LocationID
	p.Pos = carrier.Pos
	p.OnboardID = nil
	p.Reset()
	if err := s.Units().Save(p); err != nil {
		return fmt.Errorf("releasing passenger %d: %w", p.ID, err)
	}
	return nil
}

// DeleteBuilding removes b with its skills. Units living there become
// homeless, and transports bound for it are cancelled: an airborne carrier
// returns to where it took off, then its passengers step off.
func (w *World) DeleteBuilding(b *core.Building) error {
	return w.store.Atomic(func(s storage.Store) error {
		skills, err := s.Skills().Find(storage.Filter{Building: &b.ID})
		if err != nil {
			return fmt.Errorf("finding skills of building %d: %w", b.ID, err)
		}
		for _, sk := range skills {
			if err := s.Skills().Delete(sk.ID); err != nil {
				return fmt.Errorf("deleting skill %d: %w", sk.ID, err)
			}
		}

		residents, err := s.Units().Find(storage.Filter{Home: &b.ID})
		if err != nil {
			return fmt.Errorf("finding residents of building %d: %w", b.ID, err)
		}
		for _, u := range residents {
			u.HomeID = nil
			if err := s.Units().Save(u); err != nil {
				return fmt.Errorf("clearing home of unit %d: %w", u.ID, err)
			}
		}

		transports, err := s.Transports().Find(storage.Filter{Destination: &b.ID})
		if err != nil {
			return fmt.Errorf("finding transports to building %d: %w", b.ID, err)
		}
		for _, t := range transports {
			if err := w.cancelTransport(s, t); err != nil {
				return err
			}
		}

		if err := s.Buildings().Delete(b.ID); err != nil {
			return fmt.Errorf("deleting building %d: %w", b.ID, err)
		}
		w.log.Debug("Building deleted", "building", b.ID, "skills", len(skills),
			"residents", len(residents), "transports", len(transports))
		return nil
	})
}

func (w *World) cancelTransport(s storage.Store, t *core.Transport) error {
	carrier, err := s.Units().Get(t.CarrierID)
	if isNotFound(err) {
		return s.Transports().Delete(t.ID)
	}
	if err != nil {
		return fmt.Errorf("finding carrier of transport %d: %w", t.ID, err)
	}
	if t.Airborne() {
		carrier.LocationID = core.Ptr(t.OriginID)
		if err := s.Units().Save(carrier); err != nil {
			return fmt.Errorf("returning carrier %d: %w", carrier.ID, err)
		}
	}
	passengers, err := s.Units().Find(storage.Filter{Onboard: &t.ID})
	if err != nil {
		return fmt.Errorf("finding passengers of transport %d: %w", t.ID, err)
	}
	for _, p := range passengers {
		if err := w.release(s, p, carrier); err != nil {
			return err
		}
	}
	if err := s.Transports().Delete(t.ID); err != nil {
		return fmt.Errorf("deleting transport %d: %w", t.ID, err)
	}
	return nil
}

// DeleteFeature removes f.
func (w *World) DeleteFeature(f *core.Feature) error {
	if err := w.store.Features().Delete(f.ID); err != nil {
		return fmt.Errorf("deleting feature %d: %w", f.ID, err)
	}
	return nil
}
