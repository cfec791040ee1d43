package handlers

import (
	"fmt"
	"strconv"

	"github.com/gridwars/engine/internal/dispatcher"
	"github.com/gridwars/engine/internal/parser"
	"github.com/gridwars/engine/pkg/core"
)

// Seeding commands put maps, players and starting assets in place. Map
// generation is not the engine's job; these take explicit coordinates.

func (s *Service) location(id core.ID) (*core.Location, error) {
	loc, err := s.deps.World.Store().Locations().Get(id)
	if err != nil {
		return nil, fmt.Errorf("location %d: %w", id, err)
	}
	return loc, nil
}

// placed resolves the player in args[0] and the square in args[2] on that
// player's map.
func (s *Service) placed(e dispatcher.Event, usage string) (*core.Player, core.ID, core.Point, error) {
	if err := parser.Args(e.Args, 3, usage); err != nil {
		return nil, 0, core.Point{}, err
	}
	pid, err := parser.ParseID(e.Args[0])
	if err != nil {
		return nil, 0, core.Point{}, err
	}
	typeID, err := parser.ParseID(e.Args[1])
	if err != nil {
		return nil, 0, core.Point{}, err
	}
	pos, err := parser.ParsePoint(e.Args[2])
	if err != nil {
		return nil, 0, core.Point{}, err
	}
	p, err := s.deps.World.Store().Players().Get(pid)
	if err != nil {
		return nil, 0, core.Point{}, fmt.Errorf("player %d: %w", pid, err)
	}
	if p.LocationID == nil {
		return nil, 0, core.Point{}, fmt.Errorf("player %d is not on a map", pid)
	}
	loc, err := s.location(*p.LocationID)
	if err != nil {
		return nil, 0, core.Point{}, err
	}
	if !loc.Contains(pos) {
		return nil, 0, core.Point{}, fmt.Errorf("%s is off %s", pos, loc.Name)
	}
	return p, typeID, pos, nil
}

// Location handles "location <name> <width> <height>".
func (s *Service) Location(e dispatcher.Event) (any, error) {
	if err := parser.Args(e.Args, 3, "location <name> <width> <height>"); err != nil {
		return nil, err
	}
	w, err := strconv.Atoi(e.Args[1])
	if err != nil || w <= 0 {
		return nil, fmt.Errorf("invalid width %q", e.Args[1])
	}
	h, err := strconv.Atoi(e.Args[2])
	if err != nil || h <= 0 {
		return nil, fmt.Errorf("invalid height %q", e.Args[2])
	}
	loc := &core.Location{Name: e.Args[0], Width: w, Height: h}
	if err := s.deps.World.Store().Locations().Save(loc); err != nil {
		return nil, fmt.Errorf("saving location: %w", err)
	}
	return fmt.Sprintf("location %d: %s %dx%d", loc.ID, loc.Name, w, h), nil
}

// Join handles "join <name> <location> <x,y>".
func (s *Service) Join(e dispatcher.Event) (any, error) {
	if err := parser.Args(e.Args, 3, "join <name> <location> <x,y>"); err != nil {
		return nil, err
	}
	lid, err := parser.ParseID(e.Args[1])
	if err != nil {
		return nil, err
	}
	pos, err := parser.ParsePoint(e.Args[2])
	if err != nil {
		return nil, err
	}
	loc, err := s.location(lid)
	if err != nil {
		return nil, err
	}
	p := &core.Player{Name: e.Args[0], LocationID: core.Ptr(loc.ID), Pos: loc.Clamp(pos)}
	if err := s.deps.World.Store().Players().Save(p); err != nil {
		return nil, fmt.Errorf("saving player: %w", err)
	}
	return fmt.Sprintf("player %d: %s at %s on %s", p.ID, p.Name, p.Pos, loc.Name), nil
}

// Spawn handles "spawn <player> <unit type id> <x,y>". The unit is homed
// at the player's nearest homely building.
func (s *Service) Spawn(e dispatcher.Event) (any, error) {
	p, ut, pos, err := s.placed(e, "spawn <player> <unit type id> <x,y>")
	if err != nil {
		return nil, err
	}
	if _, ok := s.deps.World.Catalog().UnitType(ut); !ok {
		return nil, fmt.Errorf("unknown unit type %d", ut)
	}
	u := &core.Unit{
		TypeID:     ut,
		LocationID: core.Ptr(*p.LocationID),
		Pos:        pos,
		Target:     pos,
		OwnerID:    core.Ptr(p.ID),
	}
	if _, err := s.deps.World.Rehome(u); err != nil {
		return nil, err
	}
	name, err := s.deps.World.Name(u)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("unit %d: %s", u.ID, name), nil
}

// Found handles "found <player> <building type id> <x,y>". Unlike a built
// building it starts at full health.
func (s *Service) Found(e dispatcher.Event) (any, error) {
	p, bt, pos, err := s.placed(e, "found <player> <building type id> <x,y>")
	if err != nil {
		return nil, err
	}
	if _, ok := s.deps.World.Catalog().BuildingType(bt); !ok {
		return nil, fmt.Errorf("unknown building type %d", bt)
	}
	b := &core.Building{
		TypeID:     bt,
		LocationID: *p.LocationID,
		Pos:        pos,
		OwnerID:    core.Ptr(p.ID),
		Stored:     core.Resources{},
	}
	if err := s.deps.World.Save(b); err != nil {
		return nil, err
	}
	name, err := s.deps.World.Name(b)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("building %d: %s", b.ID, name), nil
}

// Feature handles "feature <location> <feature type id> <x,y>". The
// feature holds its type's full resources.
func (s *Service) Feature(e dispatcher.Event) (any, error) {
	if err := parser.Args(e.Args, 3, "feature <location> <feature type id> <x,y>"); err != nil {
		return nil, err
	}
	lid, err := parser.ParseID(e.Args[0])
	if err != nil {
		return nil, err
	}
	ft, err := parser.ParseID(e.Args[1])
	if err != nil {
		return nil, err
	}
	pos, err := parser.ParsePoint(e.Args[2])
	if err != nil {
		return nil, err
	}
	loc, err := s.location(lid)
	if err != nil {
		return nil, err
	}
	if !loc.Contains(pos) {
		return nil, fmt.Errorf("%s is off %s", pos, loc.Name)
	}
	ftype, ok := s.deps.World.Catalog().FeatureType(ft)
	if !ok {
		return nil, fmt.Errorf("unknown feature type %d", ft)
	}
	f := &core.Feature{TypeID: ft, LocationID: loc.ID, Pos: pos, Remaining: ftype.Resources.Clone()}
	if err := s.deps.World.Save(f); err != nil {
		return nil, err
	}
	name, err := s.deps.World.Name(f)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("feature %d: %s", f.ID, name), nil
}
