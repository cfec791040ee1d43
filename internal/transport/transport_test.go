package transport

import (
	"testing"

	"github.com/gridwars/engine/internal/catalog"
	"github.com/gridwars/engine/internal/world/worldtest"
	"github.com/gridwars/engine/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func airCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.Data{
		BuildingTypes: []core.BuildingType{{ID: 1, Name: "Hall", Homely: true, MaxHealth: 50}},
		UnitTypes: []core.UnitType{
			{ID: 1, Name: "Balloon", Speed: 8, MaxHealth: 5, TransportCapacity: 2},
			{ID: 2, Name: "Walker", Speed: 4, MaxHealth: 5},
		},
	})
	require.NoError(t, err)
	return c
}

func setup(t *testing.T) (*worldtest.Fixture, *Manager) {
	t.Helper()
	f := worldtest.New(t, worldtest.WithCatalog(airCatalog(t)))
	return f, New(f.World)
}

func TestFlight(t *testing.T) {
	f, m := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	dest := f.Building("Hall", p, core.Pt(3, 1))
	carrier := f.Unit("Balloon", p, core.Pt(0, 0))
	passenger := f.Unit("Walker", p, core.Pt(0, 0))

	tr, err := m.Create(carrier, dest)
	require.NoError(t, err)
	require.NoError(t, m.Embark(tr, passenger))

	got := f.Reload(passenger)
	assert.False(t, got.OnMap())
	require.NotNil(t, got.OnboardID)
	assert.Equal(t, tr.ID, *got.OnboardID)

	require.NoError(t, m.Launch(tr))
	require.NotNil(t, tr.LandAt)
	assert.Equal(t, worldtest.Epoch.Add(worldtest.Ticks(24)), *tr.LandAt, "speed 8 over distance 3")
	assert.Equal(t, []core.Point{core.Pt(0, 0), core.Pt(1, 1), core.Pt(2, 1), core.Pt(3, 1)}, tr.Route)
	assert.False(t, f.Reload(carrier).OnMap())
	assert.True(t, m.Pending(tr.ID))

	require.NoError(t, f.Clock.Advance(worldtest.Ticks(23)))
	assert.False(t, f.Reload(carrier).OnMap(), "still in the air")

	require.NoError(t, f.Clock.Advance(worldtest.Ticks(1)))
	landed := f.Reload(carrier)
	require.True(t, landed.OnMap())
	assert.Equal(t, core.Pt(3, 1), landed.Pos)
	assert.False(t, m.Pending(tr.ID))

	stored, err := m.Get(tr.ID)
	require.NoError(t, err)
	assert.False(t, stored.Airborne())

	p2 := f.Reload(passenger)
	require.NoError(t, m.Disembark(stored, p2))
	p2 = f.Reload(passenger)
	assert.True(t, p2.OnMap())
	assert.Nil(t, p2.OnboardID)
	assert.Equal(t, core.Pt(3, 1), p2.Pos)
}

func TestCreate_Errors(t *testing.T) {
	f, m := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	dest := f.Building("Hall", p, core.Pt(3, 1))
	walker := f.Unit("Walker", p, core.Pt(0, 0))
	carrier := f.Unit("Balloon", p, core.Pt(0, 0))

	_, err := m.Create(walker, dest)
	assert.ErrorIs(t, err, ErrNotCarrier)

	_, err = m.Create(carrier, dest)
	require.NoError(t, err)
	_, err = m.Create(carrier, dest)
	assert.ErrorIs(t, err, ErrHasTransport)
}

func TestEmbark_Errors(t *testing.T) {
	f, m := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	dest := f.Building("Hall", p, core.Pt(3, 1))
	carrier := f.Unit("Balloon", p, core.Pt(0, 0))
	tr, err := m.Create(carrier, dest)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Embark(tr, carrier), ErrSelf)
	assert.ErrorIs(t, m.Embark(tr, f.Unit("Walker", p, core.Pt(5, 5))), ErrNotHere)

	require.NoError(t, m.Embark(tr, f.Unit("Walker", p, core.Pt(0, 0))))
	require.NoError(t, m.Embark(tr, f.Unit("Walker", p, core.Pt(0, 0))))
	assert.ErrorIs(t, m.Embark(tr, f.Unit("Walker", p, core.Pt(0, 0))), ErrFull)

	require.NoError(t, m.Launch(tr))
	assert.ErrorIs(t, m.Launch(tr), ErrAirborne)
	assert.ErrorIs(t, m.Embark(tr, f.Unit("Walker", p, core.Pt(0, 0))), ErrAirborne)
}

func TestEmbark_CancelsTask(t *testing.T) {
	f, m := setup(t)
	p := f.Player("alice", core.Pt(0, 0))
	dest := f.Building("Hall", p, core.Pt(3, 1))
	carrier := f.Unit("Balloon", p, core.Pt(0, 0))
	walker := f.Unit("Walker", p, core.Pt(0, 0))
	walker.Action = core.Travel
	walker.Target = core.Pt(5, 5)
	f.Sched.StartTask(walker.ID, 4)

	tr, err := m.Create(carrier, dest)
	require.NoError(t, err)
	require.NoError(t, m.Embark(tr, walker))

	assert.False(t, f.Sched.Pending(walker.ID))
	assert.Equal(t, core.Idle, f.Reload(walker).Action)
	assert.Contains(t, f.Notes.Sounds(p.ID), "board.wav")
}

func TestLand_DestinationGone(t *testing.T) {
	f, m := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	dest := f.Building("Hall", p, core.Pt(3, 1))
	carrier := f.Unit("Balloon", p, core.Pt(2, 2))
	tr, err := m.Create(carrier, dest)
	require.NoError(t, err)
	require.NoError(t, m.Launch(tr))

	// bypass the cascade so the landing finds no destination
	require.NoError(t, f.Store.Buildings().Delete(dest.ID))
	require.NoError(t, f.Clock.Advance(worldtest.Ticks(8)))

	got := f.Reload(carrier)
	require.True(t, got.OnMap())
	assert.Equal(t, f.Location.ID, *got.LocationID)
	assert.Equal(t, core.Pt(2, 2), got.Pos)
}

func TestLand_MissingTransportIsNoop(t *testing.T) {
	_, m := setup(t)
	assert.NoError(t, m.Land(42))
}

func TestResume(t *testing.T) {
	f, m := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	dest := f.Building("Hall", p, core.Pt(3, 1))
	late := f.Unit("Balloon", p, core.Pt(0, 0))
	early := f.Unit("Balloon", p, core.Pt(0, 0))
	for _, c := range []*core.Unit{late, early} {
		c.LocationID = nil
		require.NoError(t, f.Store.Units().Save(c))
	}

	pending := &core.Transport{CarrierID: late.ID, DestinationID: dest.ID, OriginID: f.Location.ID,
		LandAt: core.TimePtr(worldtest.Epoch.Add(worldtest.Ticks(10)))}
	overdue := &core.Transport{CarrierID: early.ID, DestinationID: dest.ID, OriginID: f.Location.ID,
		LandAt: core.TimePtr(worldtest.Epoch.Add(-worldtest.Ticks(1)))}
	require.NoError(t, f.Store.Transports().Save(pending))
	require.NoError(t, f.Store.Transports().Save(overdue))

	n, err := m.Resume()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.True(t, f.Reload(early).OnMap(), "overdue transports land at once")
	assert.False(t, f.Reload(late).OnMap())
	assert.True(t, m.Pending(pending.ID))

	require.NoError(t, f.Clock.Advance(worldtest.Ticks(10)))
	assert.Equal(t, core.Pt(3, 1), f.Reload(late).Pos)
}
