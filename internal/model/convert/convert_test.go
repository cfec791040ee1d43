package convert

import (
	"testing"
	"time"

	"github.com/gridwars/engine/internal/model"
	"github.com/gridwars/engine/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCoreToUnit(t *testing.T) {
	hp := 4
	u := &core.Unit{
		ID:         3,
		TypeID:     2,
		LocationID: core.Ptr(1),
		Pos:        core.Pt(1, 2),
		Target:     core.Pt(6, 7),
		OwnerID:    core.Ptr(9),
		Action:     core.Drop,
		Exploiting: core.FeatureTarget(5),
		Material:   core.Wood,
		Carried:    core.Resources{core.Wood: 3},
		Health:     core.HealthFrom(&hp),
	}

	m := CoreToUnit(u)

	assert.Equal(t, uint(3), m.ID)
	require.NotNil(t, m.LocationID)
	assert.Equal(t, uint(1), *m.LocationID)
	assert.Equal(t, 6, m.TargetX)
	assert.Nil(t, m.HomeID)
	assert.Equal(t, "drop", m.Action)
	assert.Equal(t, "feature", m.ExploitingKind)
	assert.Equal(t, uint(5), m.ExploitingID)
	assert.JSONEq(t, `{"wood":3}`, string(m.Carried))
	require.NotNil(t, m.Health)
	assert.Equal(t, 4, *m.Health)

	// Mutating the row does not reach the domain record.
	*m.Health = 1
	assert.Equal(t, 4, u.Health.HP(10))
}

func TestCoreToUnitNoTarget(t *testing.T) {
	m := CoreToUnit(&core.Unit{ID: 1})

	assert.Empty(t, m.ExploitingKind)
	assert.Equal(t, "idle", m.Action)
	assert.Nil(t, m.Health)
	assert.JSONEq(t, `{}`, string(m.Carried))
}

func TestUnitToCoreEmptyColumns(t *testing.T) {
	u, err := UnitToCore(model.Unit{ID: 1})
	require.NoError(t, err)

	assert.Equal(t, core.Idle, u.Action)
	assert.True(t, u.Exploiting.IsZero())
	assert.NotNil(t, u.Carried)
	assert.Empty(t, u.Carried)
	assert.True(t, u.Health.Full())
}

func TestToCoreRejectsCorruptColumns(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"unit action", func() error {
			_, err := UnitToCore(model.Unit{ID: 1, Action: "dancing"})
			return err
		}},
		{"unit target kind", func() error {
			_, err := UnitToCore(model.Unit{ID: 1, Action: "exploit", ExploitingKind: "spaceship", ExploitingID: 4})
			return err
		}},
		{"unit carried", func() error {
			_, err := UnitToCore(model.Unit{ID: 1, Carried: datatypes.JSON("not json")})
			return err
		}},
		{"building stored", func() error {
			_, err := BuildingToCore(model.Building{ID: 2, Stored: datatypes.JSON(`{"gold":`)})
			return err
		}},
		{"feature remaining", func() error {
			_, err := FeatureToCore(model.Feature{ID: 3, Remaining: datatypes.JSON(`["gold"]`)})
			return err
		}},
		{"skill kind", func() error {
			_, err := SkillToCore(model.Skill{ID: 4, Kind: "flying"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.fn())
		})
	}
}

func TestUnitToCore(t *testing.T) {
	loc := uint(2)
	u, err := UnitToCore(model.Unit{
		ID:             8,
		LocationID:     &loc,
		X:              3,
		Y:              4,
		Action:         "attack",
		ExploitingKind: "unit",
		ExploitingID:   11,
		Carried:        datatypes.JSON(`{"gold":2}`),
	})
	require.NoError(t, err)

	require.NotNil(t, u.LocationID)
	assert.Equal(t, core.ID(2), *u.LocationID)
	assert.Equal(t, core.Pt(3, 4), u.Pos)
	assert.Equal(t, core.Attack, u.Action)
	assert.Equal(t, core.UnitTarget(11), u.Exploiting)
	assert.Equal(t, 2, u.Carried[core.Gold])
}

func TestTransportRoute(t *testing.T) {
	landAt := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)
	tr := &core.Transport{
		ID:            1,
		CarrierID:     2,
		DestinationID: 3,
		OriginID:      4,
		LandAt:        &landAt,
		Route:         []core.Point{core.Pt(0, 0), core.Pt(1, 1), core.Pt(2, 1)},
	}

	m := CoreToTransport(tr)
	assert.Equal(t, 3, m.Route.Coordinates().Length())

	back, err := TransportToCore(m)
	require.NoError(t, err)
	assert.Equal(t, tr.Route, back.Route)
	assert.Equal(t, tr.LandAt, back.LandAt)
}

func TestSkillAndBuilding(t *testing.T) {
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := SkillToCore(CoreToSkill(&core.Skill{ID: 1, Kind: core.TripleExploit, BuildingID: 4, ActivatedAt: at}))
	require.NoError(t, err)
	assert.Equal(t, core.TripleExploit, s.Kind)
	assert.Equal(t, core.ID(4), s.BuildingID)

	b, err := BuildingToCore(CoreToBuilding(&core.Building{ID: 2, OwnerID: core.Ptr(1), Stored: core.Resources{core.Food: 0}}))
	require.NoError(t, err)
	assert.True(t, b.Stored.Applies(core.Food))
	assert.Equal(t, core.ID(1), *b.OwnerID)
}
