// Package transport flies carrier units, with any passengers aboard, to a
// destination building.
package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/gridwars/engine/internal/clock"
	"github.com/gridwars/engine/internal/geo"
	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/internal/world"
	"github.com/gridwars/engine/pkg/core"
)

var (
	ErrNotCarrier   = errors.New("unit cannot carry passengers")
	ErrHasTransport = errors.New("unit already has a transport")
	ErrFull         = errors.New("transport is full")
	ErrNotHere      = errors.New("not at the carrier")
	ErrAirborne     = errors.New("transport is airborne")
	ErrSelf         = errors.New("carrier cannot board itself")
	ErrNotAboard    = errors.New("unit is not aboard")
	ErrOffMap       = errors.New("unit is not on a map")
)

// Manager owns the landing timers of airborne transports. It must be used
// from the event loop.
type Manager struct {
	world    *world.World
	landings map[core.ID]clock.Timer
}

func New(w *world.World) *Manager {
	return &Manager{world: w, landings: make(map[core.ID]clock.Timer)}
}

// Get fetches transport id.
func (m *Manager) Get(id core.ID) (*core.Transport, error) {
	t, err := m.world.Store().Transports().Get(id)
	if err != nil {
		return nil, fmt.Errorf("finding transport %d: %w", id, err)
	}
	return t, nil
}

func (m *Manager) carrier(t *core.Transport) (*core.Unit, error) {
	u, err := m.world.Store().Units().Get(t.CarrierID)
	if err != nil {
		return nil, fmt.Errorf("finding carrier of transport %d: %w", t.ID, err)
	}
	return u, nil
}

// Passengers lists the units aboard t.
func (m *Manager) Passengers(t *core.Transport) ([]*core.Unit, error) {
	units, err := m.world.Store().Units().Find(storage.Filter{Onboard: &t.ID})
	if err != nil {
		return nil, fmt.Errorf("finding passengers of transport %d: %w", t.ID, err)
	}
	return units, nil
}

// Create binds carrier to dest.
func (m *Manager) Create(carrier *core.Unit, dest *core.Building) (*core.Transport, error) {
	ut, ok := m.world.Catalog().UnitType(carrier.TypeID)
	if !ok || ut.TransportCapacity <= 0 {
		return nil, ErrNotCarrier
	}
	if carrier.LocationID == nil {
		return nil, ErrOffMap
	}
	existing, err := m.world.Store().Transports().Find(storage.Filter{Carrier: &carrier.ID})
	if err != nil {
		return nil, fmt.Errorf("finding transports of unit %d: %w", carrier.ID, err)
	}
	if len(existing) > 0 {
		return nil, ErrHasTransport
	}

	t := &core.Transport{CarrierID: carrier.ID, DestinationID: dest.ID, OriginID: *carrier.LocationID}
	if err := m.world.Store().Transports().Save(t); err != nil {
		return nil, fmt.Errorf("saving transport: %w", err)
	}
	return t, nil
}

// Embark puts passenger aboard the grounded carrier it stands next to.
func (m *Manager) Embark(t *core.Transport, passenger *core.Unit) error {
	if t.Airborne() {
		return ErrAirborne
	}
	if passenger.ID == t.CarrierID {
		return ErrSelf
	}
	if passenger.OnboardID != nil {
		return fmt.Errorf("unit %d: %w", passenger.ID, ErrHasTransport)
	}
	carrier, err := m.carrier(t)
	if err != nil {
		return err
	}
	if !core.SameSquare(carrier, passenger) {
		return ErrNotHere
	}
	ut, _ := m.world.Catalog().UnitType(carrier.TypeID)
	aboard, err := m.Passengers(t)
	if err != nil {
		return err
	}
	if ut == nil || len(aboard) >= ut.TransportCapacity {
		return ErrFull
	}

	m.world.Scheduler().KillTask(passenger.ID)
	passenger.Reset()
	if err := m.world.SoundAt(passenger, "board.wav"); err != nil {
		return err
	}
	passenger.LocationID = nil
	passenger.OnboardID = core.Ptr(t.ID)
	return m.world.Save(passenger)
}

// Disembark puts passenger back on the map on the grounded carrier's
// square.
func (m *Manager) Disembark(t *core.Transport, passenger *core.Unit) error {
	if passenger.OnboardID == nil || *passenger.OnboardID != t.ID {
		return ErrNotAboard
	}
	if t.Airborne() {
		return ErrAirborne
	}
	carrier, err := m.carrier(t)
	if err != nil {
		return err
	}
	if carrier.LocationID == nil {
		return ErrAirborne
	}
	passenger.LocationID = core.Ptr(*carrier.LocationID)
	passenger.Pos = carrier.Pos
	passenger.Target = carrier.Pos
	passenger.OnboardID = nil
	if err := m.world.Save(passenger); err != nil {
		return err
	}
	return m.world.SoundAt(passenger, "disembark.wav")
}

// FlightTime is how long carrier takes to reach dest.
func (m *Manager) FlightTime(carrier *core.Unit, dest *core.Building) time.Duration {
	speed := 0
	if ut, ok := m.world.Catalog().UnitType(carrier.TypeID); ok {
		speed = ut.Speed
	}
	return time.Duration(speed*carrier.Pos.Distance(dest.Pos)) * m.world.TickUnit()
}

// Launch takes the carrier off the map and schedules its landing.
func (m *Manager) Launch(t *core.Transport) error {
	if t.Airborne() {
		return ErrAirborne
	}
	carrier, err := m.carrier(t)
	if err != nil {
		return err
	}
	if carrier.LocationID == nil {
		return ErrOffMap
	}
	dest, err := m.world.Store().Buildings().Get(t.DestinationID)
	if err != nil {
		return fmt.Errorf("finding destination of transport %d: %w", t.ID, err)
	}

	m.world.Scheduler().KillTask(carrier.ID)
	carrier.Reset()
	if err := m.world.SoundAt(carrier, "launch.wav"); err != nil {
		return err
	}

	flight := m.FlightTime(carrier, dest)
	t.OriginID = *carrier.LocationID
	t.LandAt = core.TimePtr(m.world.Now().Add(flight))
	t.Route = geo.FlightPath(carrier.Pos, dest.Pos)
	carrier.LocationID = nil

	if err := m.world.Store().Atomic(func(s storage.Store) error {
		if err := s.Units().Save(carrier); err != nil {
			return fmt.Errorf("saving carrier %d: %w", carrier.ID, err)
		}
		if err := s.Transports().Save(t); err != nil {
			return fmt.Errorf("saving transport %d: %w", t.ID, err)
		}
		return nil
	}); err != nil {
		return err
	}

	m.scheduleLanding(t.ID, flight)
	m.world.Logger().Debug("Transport launched", "transport", t.ID, "carrier", carrier.ID,
		"destination", dest.ID, "flight", flight)
	return nil
}

func (m *Manager) scheduleLanding(id core.ID, after time.Duration) {
	if old, ok := m.landings[id]; ok {
		old.Stop()
	}
	var timer clock.Timer
	timer = m.world.Scheduler().Clock().AfterFunc(after, func() error {
		if m.landings[id] == timer {
			delete(m.landings, id)
		}
		return m.Land(id)
	})
	m.landings[id] = timer
}

// Land brings an airborne transport down at its destination, or back
// where it took off when the destination is gone. Missing or grounded
// transports are left alone.
func (m *Manager) Land(id core.ID) error {
	t, err := m.world.Store().Transports().Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding transport %d: %w", id, err)
	}
	if !t.Airborne() {
		return nil
	}
	carrier, err := m.carrier(t)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	dest, err := m.world.Store().Buildings().Get(t.DestinationID)
	switch {
	case err == nil:
		carrier.LocationID = core.Ptr(dest.LocationID)
		carrier.Pos = dest.Pos
	case errors.Is(err, storage.ErrNotFound):
		carrier.LocationID = core.Ptr(t.OriginID)
	default:
		return fmt.Errorf("finding destination of transport %d: %w", t.ID, err)
	}
	carrier.Target = carrier.Pos
	t.LandAt = nil

	if err := m.world.Store().Atomic(func(s storage.Store) error {
		if err := s.Units().Save(carrier); err != nil {
			return fmt.Errorf("saving carrier %d: %w", carrier.ID, err)
		}
		if err := s.Transports().Save(t); err != nil {
			return fmt.Errorf("saving transport %d: %w", t.ID, err)
		}
		return nil
	}); err != nil {
		return err
	}
	m.world.Logger().Debug("Transport landed", "transport", t.ID, "carrier", carrier.ID, "at", carrier.Pos)
	return m.world.SoundAt(carrier, "land.wav")
}

// Resume reschedules the landing of every airborne transport, landing
// those whose time has already passed.
func (m *Manager) Resume() (int, error) {
	airborne, err := m.world.Store().Transports().Find(storage.Filter{Airborne: true})
	if err != nil {
		return 0, fmt.Errorf("finding airborne transports: %w", err)
	}
	now := m.world.Now()
	for _, t := range airborne {
		left := t.LandAt.Sub(now)
		if left <= 0 {
			if err := m.Land(t.ID); err != nil {
				return 0, err
			}
			continue
		}
		m.scheduleLanding(t.ID, left)
	}
	return len(airborne), nil
}

// Pending reports whether a landing is scheduled for transport id.
func (m *Manager) Pending(id core.ID) bool {
	_, ok := m.landings[id]
	return ok
}
