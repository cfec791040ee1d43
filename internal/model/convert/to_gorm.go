package convert

import (
	"encoding/json"

	"github.com/gridwars/engine/internal/geo"
	"github.com/gridwars/engine/internal/model"
	"github.com/gridwars/engine/pkg/core"
	"gorm.io/datatypes"
)

func idPtr(id *core.ID) *uint {
	if id == nil {
		return nil
	}
	v := uint(*id)
	return &v
}

// resourcesToJSON converts core.Resources to datatypes.JSON for DB storage.
func resourcesToJSON(r core.Resources) datatypes.JSON {
	if len(r) == 0 {
		return datatypes.JSON("{}")
	}
	data, _ := json.Marshal(r)
	return datatypes.JSON(data)
}

// CoreToUnit converts a core.Unit to a GORM model.Unit.
func CoreToUnit(u *core.Unit) model.Unit {
	kind := ""
	if !u.Exploiting.IsZero() {
		kind = u.Exploiting.Kind.String()
	}
	return model.Unit{
		ID:             uint(u.ID),
		TypeID:         uint(u.TypeID),
		LocationID:     idPtr(u.LocationID),
		X:              u.Pos.X,
		Y:              u.Pos.Y,
		TargetX:        u.Target.X,
		TargetY:        u.Target.Y,
		OwnerID:        idPtr(u.OwnerID),
		HomeID:         idPtr(u.HomeID),
		Action:         u.Action.String(),
		ExploitingKind: kind,
		ExploitingID:   uint(u.Exploiting.ID),
		Material:       string(u.Material),
		Carried:        resourcesToJSON(u.Carried),
		Health:         u.Health.Raw(),
		Selected:       u.Selected,
		OnboardID:      idPtr(u.OnboardID),
	}
}

// CoreToBuilding converts a core.Building to a GORM model.Building.
func CoreToBuilding(b *core.Building) model.Building {
	return model.Building{
		ID:         uint(b.ID),
		TypeID:     uint(b.TypeID),
		LocationID: uint(b.LocationID),
		X:          b.Pos.X,
		Y:          b.Pos.Y,
		OwnerID:    idPtr(b.OwnerID),
		Health:     b.Health.Raw(),
		Stored:     resourcesToJSON(b.Stored),
	}
}

// CoreToFeature converts a core.Feature to a GORM model.Feature.
func CoreToFeature(f *core.Feature) model.Feature {
	return model.Feature{
		ID:         uint(f.ID),
		TypeID:     uint(f.TypeID),
		LocationID: uint(f.LocationID),
		X:          f.Pos.X,
		Y:          f.Pos.Y,
		Health:     f.Health.Raw(),
		Remaining:  resourcesToJSON(f.Remaining),
	}
}

// CoreToTransport converts a core.Transport to a GORM model.Transport. The
// route is stored as a LineString.
func CoreToTransport(t *core.Transport) model.Transport {
	return model.Transport{
		ID:            uint(t.ID),
		CarrierID:     uint(t.CarrierID),
		DestinationID: uint(t.DestinationID),
		OriginID:      uint(t.OriginID),
		LandAt:        t.LandAt,
		Route:         geo.ToLineString(t.Route),
	}
}

// CoreToSkill converts a core.Skill to a GORM model.Skill.
func CoreToSkill(s *core.Skill) model.Skill {
	return model.Skill{
		ID:          uint(s.ID),
		Kind:        string(s.Kind),
		BuildingID:  uint(s.BuildingID),
		ActivatedAt: s.ActivatedAt,
	}
}

// CoreToPlayer converts a core.Player to a GORM model.Player.
func CoreToPlayer(p *core.Player) model.Player {
	return model.Player{
		ID:         uint(p.ID),
		Name:       p.Name,
		LocationID: idPtr(p.LocationID),
		X:          p.Pos.X,
		Y:          p.Pos.Y,
		Wins:       p.Wins,
		Losses:     p.Losses,
	}
}

// CoreToLocation converts a core.Location to a GORM model.Location.
func CoreToLocation(l *core.Location) model.Location {
	return model.Location{
		ID:     uint(l.ID),
		Name:   l.Name,
		Width:  l.Width,
		Height: l.Height,
	}
}
