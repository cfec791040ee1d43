// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/gridwars/engine/internal/geo"
	"github.com/gridwars/engine/internal/model"
	"github.com/gridwars/engine/pkg/core"
	"gorm.io/datatypes"
)

func corePtr(id *uint) *core.ID {
	if id == nil {
		return nil
	}
	v := core.ID(*id)
	return &v
}

// jsonToResources decodes a resources column. An empty column is an empty
// map.
func jsonToResources(data datatypes.JSON) (core.Resources, error) {
	r := core.Resources{}
	if len(data) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding resources: %w", err)
	}
	return r, nil
}

// UnitToCore converts a GORM Unit to a core.Unit. An empty action column is
// idle and an empty kind is no target; anything else unknown is an error.
func UnitToCore(u model.Unit) (*core.Unit, error) {
	action := core.Idle
	if u.Action != "" {
		var err error
		if action, err = core.ParseAction(u.Action); err != nil {
			return nil, fmt.Errorf("unit %d: %w", u.ID, err)
		}
	}
	var exploiting core.Target
	if u.ExploitingKind != "" {
		kind, err := core.ParseKind(u.ExploitingKind)
		if err != nil {
			return nil, fmt.Errorf("unit %d: %w", u.ID, err)
		}
		exploiting = core.Target{Kind: kind, ID: core.ID(u.ExploitingID)}
	}
	carried, err := jsonToResources(u.Carried)
	if err != nil {
		return nil, fmt.Errorf("unit %d carried: %w", u.ID, err)
	}
	return &core.Unit{
		ID:         core.ID(u.ID),
		TypeID:     core.ID(u.TypeID),
		LocationID: corePtr(u.LocationID),
		Pos:        core.Pt(u.X, u.Y),
		Target:     core.Pt(u.TargetX, u.TargetY),
		OwnerID:    corePtr(u.OwnerID),
		HomeID:     corePtr(u.HomeID),
		Action:     action,
		Exploiting: exploiting,
		Material:   core.Material(u.Material),
		Carried:    carried,
		Health:     core.HealthFrom(u.Health),
		Selected:   u.Selected,
		OnboardID:  corePtr(u.OnboardID),
	}, nil
}

// BuildingToCore converts a GORM Building to a core.Building.
func BuildingToCore(b model.Building) (*core.Building, error) {
	stored, err := jsonToResources(b.Stored)
	if err != nil {
		return nil, fmt.Errorf("building %d stored: %w", b.ID, err)
	}
	return &core.Building{
		ID:         core.ID(b.ID),
		TypeID:     core.ID(b.TypeID),
		LocationID: core.ID(b.LocationID),
		Pos:        core.Pt(b.X, b.Y),
		OwnerID:    corePtr(b.OwnerID),
		Health:     core.HealthFrom(b.Health),
		Stored:     stored,
	}, nil
}

// FeatureToCore converts a GORM Feature to a core.Feature.
func FeatureToCore(f model.Feature) (*core.Feature, error) {
	remaining, err := jsonToResources(f.Remaining)
	if err != nil {
		return nil, fmt.Errorf("feature %d remaining: %w", f.ID, err)
	}
	return &core.Feature{
		ID:         core.ID(f.ID),
		TypeID:     core.ID(f.TypeID),
		LocationID: core.ID(f.LocationID),
		Pos:        core.Pt(f.X, f.Y),
		Health:     core.HealthFrom(f.Health),
		Remaining:  remaining,
	}, nil
}

// TransportToCore converts a GORM Transport to a core.Transport.
func TransportToCore(t model.Transport) (*core.Transport, error) {
	return &core.Transport{
		ID:            core.ID(t.ID),
		CarrierID:     core.ID(t.CarrierID),
		DestinationID: core.ID(t.DestinationID),
		OriginID:      core.ID(t.OriginID),
		LandAt:        t.LandAt,
		Route:         geo.FromLineString(t.Route),
	}, nil
}

// SkillToCore converts a GORM Skill to a core.Skill.
func SkillToCore(s model.Skill) (*core.Skill, error) {
	kind, err := core.ParseSkillKind(s.Kind)
	if err != nil {
		return nil, fmt.Errorf("skill %d: %w", s.ID, err)
	}
	return &core.Skill{
		ID:          core.ID(s.ID),
		Kind:        kind,
		BuildingID:  core.ID(s.BuildingID),
		ActivatedAt: s.ActivatedAt,
	}, nil
}

// PlayerToCore converts a GORM Player to a core.Player.
func PlayerToCore(p model.Player) (*core.Player, error) {
	return &core.Player{
		ID:         core.ID(p.ID),
		Name:       p.Name,
		LocationID: corePtr(p.LocationID),
		Pos:        core.Pt(p.X, p.Y),
		Wins:       p.Wins,
		Losses:     p.Losses,
	}, nil
}

// LocationToCore converts a GORM Location to a core.Location.
func LocationToCore(l model.Location) (*core.Location, error) {
	return &core.Location{
		ID:     core.ID(l.ID),
		Name:   l.Name,
		Width:  l.Width,
		Height: l.Height,
	}, nil
}
