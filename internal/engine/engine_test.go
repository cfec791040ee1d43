package engine

import (
	"testing"

	"github.com/gridwars/engine/internal/catalog"
	"github.com/gridwars/engine/internal/combat"
	"github.com/gridwars/engine/internal/economy"
	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/internal/world/worldtest"
	"github.com/gridwars/engine/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.Data{
		AttackTypes:   []core.AttackType{{ID: 1, Name: "Lance", Strength: 2, Sound: "attacks/lance.wav"}},
		FeatureTypes:  []core.FeatureType{{ID: 1, Name: "Mine", Resources: core.Resources{core.Gold: 50}, MaxHealth: 10}},
		BuildingTypes: []core.BuildingType{{ID: 1, Name: "Hall", Homely: true, MaxHealth: 50}},
		UnitTypes: []core.UnitType{
			{ID: 1, Name: "Miner", Speed: 1, MaxHealth: 10, Exploits: core.Resources{core.Gold: 1}},
			{ID: 2, Name: "Knight", Speed: 2, MaxHealth: 20, Strength: 5, AttackTypeID: core.Ptr(1)},
			{ID: 3, Name: "Serf", Speed: 3, MaxHealth: 6, Resistance: 3, Exploits: core.Resources{core.Gold: 1}},
			{ID: 4, Name: "Medic", Speed: 1, MaxHealth: 10, HealAmount: 3, RepairAmount: 2, AutoHeal: true, AutoRepair: true},
		},
	})
	require.NoError(t, err)
	return c
}

func setup(t *testing.T) (*worldtest.Fixture, *Engine) {
	t.Helper()
	f := worldtest.New(t, worldtest.WithCatalog(testCatalog(t)))
	e := New(Dependencies{
		World:   f.World,
		Bus:     f.Bus,
		Combat:  combat.New(f.World, f.Bus, f.Rand),
		Economy: economy.New(f.World, f.Bus),
		Rand:    f.Rand,
	})
	return f, e
}

// tick runs the next pending job, which is one unit's tick when only one
// unit is busy.
func tick(t *testing.T, f *worldtest.Fixture) {
	t.Helper()
	ran, err := f.Clock.RunNext()
	require.NoError(t, err)
	require.True(t, ran, "nothing scheduled")
}

func TestProgress_MissingUnit(t *testing.T) {
	f, e := setup(t)
	require.NoError(t, e.Progress(999))

	units, err := f.Store.Units().Find(storage.Filter{})
	require.NoError(t, err)
	assert.Empty(t, units)
	assert.Equal(t, 0, f.Clock.Pending())
}

func TestProgress_UnemployedUnitResets(t *testing.T) {
	f, e := setup(t)
	u := f.Unit("Miner", nil, core.Pt(1, 1))
	u.Action = core.Travel
	u.Target = core.Pt(5, 5)
	require.NoError(t, f.Store.Units().Save(u))

	require.NoError(t, e.Progress(u.ID))
	got := f.Reload(u)
	assert.Equal(t, core.Idle, got.Action)
	assert.Equal(t, core.Pt(1, 1), got.Target)
	assert.False(t, f.Sched.Pending(u.ID))
}

func TestTravel_ExactTicks(t *testing.T) {
	for _, target := range []core.Point{core.Pt(0, 0), core.Pt(9, 2), core.Pt(4, 7), core.Pt(5, 5), core.Pt(9, 9)} {
		t.Run(target.String(), func(t *testing.T) {
			f, e := setup(t)
			p := f.Player("alice", target)
			start := core.Pt(4, 4)
			u := f.Unit("Miner", p, start)

			require.NoError(t, e.Travel(u.ID, target))
			ticks := 0
			prev := start
			for f.Reload(u).Action != core.Idle {
				tick(t, f)
				ticks++
				cur := f.Reload(u).Pos
				assert.LessOrEqual(t, abs(cur.X-prev.X), 1)
				assert.LessOrEqual(t, abs(cur.Y-prev.Y), 1)
				assert.Less(t, cur.Distance(target), prev.Distance(target)+1)
				prev = cur
				require.LessOrEqual(t, ticks, 20)
			}
			assert.Equal(t, start.Distance(target), ticks)
			assert.Equal(t, target, f.Reload(u).Pos)
			assert.Contains(t, f.Notes.Sounds(p.ID), "speech/here.wav")
			assert.False(t, f.Sched.Pending(u.ID))
		})
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func TestCommands_Validation(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(0, 0))
	u := f.Unit("Miner", p, core.Pt(1, 1))
	free := f.Unit("Miner", nil, core.Pt(1, 1))
	aboard := f.Unit("Miner", p, core.Pt(1, 1))
	aboard.LocationID = nil
	require.NoError(t, f.Store.Units().Save(aboard))
	mine := f.Feature("Mine", core.Pt(2, 2), core.Resources{core.Gold: 3})
	hall := f.Building("Hall", p, core.Pt(3, 3))

	assert.ErrorIs(t, e.Travel(u.ID, core.Pt(10, 0)), ErrOutOfBounds)
	assert.ErrorIs(t, e.Patrol(u.ID, core.Pt(-1, 0)), ErrOutOfBounds)
	assert.ErrorIs(t, e.Travel(free.ID, core.Pt(2, 2)), ErrUnemployed)
	assert.ErrorIs(t, e.Guard(aboard.ID), ErrOffMap)
	assert.ErrorIs(t, e.Guard(12345), storage.ErrNotFound)

	assert.ErrorIs(t, e.Exploit(u.ID, mine.Ref(), core.Wood), ErrInvalidTarget, "mine holds no wood")
	assert.ErrorIs(t, e.Exploit(u.ID, core.UnitTarget(free.ID), core.Gold), ErrInvalidTarget)
	assert.ErrorIs(t, e.Exploit(u.ID, hall.Ref(), core.Wood), ErrIncapable, "miners only gather gold")
	assert.ErrorIs(t, e.Repair(u.ID, hall.ID), ErrIncapable)
	assert.ErrorIs(t, e.HealUnit(u.ID, free.ID), ErrIncapable)
	assert.ErrorIs(t, e.Attack(u.ID, free.Ref()), ErrIncapable)

	knight := f.Unit("Knight", p, core.Pt(1, 1))
	assert.ErrorIs(t, e.Attack(knight.ID, knight.Ref()), ErrInvalidTarget)
	assert.ErrorIs(t, e.Attack(knight.ID, mine.Ref()), ErrInvalidTarget)
	assert.ErrorIs(t, e.Attack(knight.ID, core.UnitTarget(999)), storage.ErrNotFound)
	assert.ErrorIs(t, e.Attack(knight.ID, aboard.Ref()), ErrInvalidTarget, "not on this map")

	assert.True(t, IsValidation(e.Guard(aboard.ID)))
	assert.Equal(t, 0, f.Clock.Pending(), "rejected commands schedule nothing")
}

func TestCommand_ReplacesPendingTask(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(0, 0))
	u := f.Unit("Miner", p, core.Pt(1, 1))

	require.NoError(t, e.Travel(u.ID, core.Pt(5, 5)))
	require.NoError(t, e.Guard(u.ID))
	require.NoError(t, e.Travel(u.ID, core.Pt(0, 0)))

	assert.Equal(t, 1, f.Clock.Pending())
	assert.Equal(t, 1, f.Sched.Len())
	got := f.Reload(u)
	assert.Equal(t, core.Travel, got.Action)
	assert.Equal(t, core.Pt(0, 0), got.Target)
}

func TestExploitDropCycle(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	home := f.Building("Hall", p, core.Pt(0, 0))
	mine := f.Feature("Mine", core.Pt(2, 1), core.Resources{core.Gold: 5})
	u := f.Unit("Miner", p, core.Pt(0, 0))
	u.HomeID = core.Ptr(home.ID)
	require.NoError(t, f.Store.Units().Save(u))

	require.NoError(t, e.Exploit(u.ID, mine.Ref(), core.Gold))

	tick(t, f)
	tick(t, f)
	got := f.Reload(u)
	assert.Equal(t, core.Pt(2, 1), got.Pos)
	assert.Equal(t, core.Exploit, got.Action)

	tick(t, f)
	got = f.Reload(u)
	assert.Equal(t, 1, got.Carried[core.Gold])
	assert.Equal(t, core.Drop, got.Action)
	m, err := f.Store.Features().Get(mine.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Remaining[core.Gold])

	tick(t, f)
	tick(t, f)
	assert.Equal(t, core.Pt(0, 0), f.Reload(u).Pos)

	tick(t, f)
	got = f.Reload(u)
	assert.Equal(t, 0, got.Carried[core.Gold])
	assert.Equal(t, core.Exploit, got.Action)
	h, err := f.Store.Buildings().Get(home.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Stored[core.Gold])
	assert.True(t, f.Sched.Pending(u.ID))
}

func TestExploit_SourceGone(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	mine := f.Feature("Mine", core.Pt(1, 1), core.Resources{core.Gold: 5})
	u := f.Unit("Miner", p, core.Pt(1, 1))

	require.NoError(t, e.Exploit(u.ID, mine.Ref(), core.Gold))
	require.NoError(t, f.World.DeleteFeature(mine))
	tick(t, f)

	assert.Equal(t, core.Idle, f.Reload(u).Action)
	assert.Equal(t, []string{"speech/nothing.wav"}, f.Notes.Sounds(p.ID))
}

func TestExploit_Finished(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	mine := f.Feature("Mine", core.Pt(1, 1), core.Resources{core.Gold: 0})
	u := f.Unit("Miner", p, core.Pt(1, 1))

	require.NoError(t, e.Exploit(u.ID, mine.Ref(), core.Gold))
	tick(t, f)

	assert.Equal(t, core.Idle, f.Reload(u).Action)
	assert.Equal(t, []string{"speech/finished.wav"}, f.Notes.Sounds(p.ID))
}

func TestExploit_LastLoadDeletesFeature(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	home := f.Building("Hall", p, core.Pt(1, 1))
	mine := f.Feature("Mine", core.Pt(1, 1), core.Resources{core.Gold: 1})
	u := f.Unit("Miner", p, core.Pt(1, 1))
	u.HomeID = core.Ptr(home.ID)
	require.NoError(t, f.Store.Units().Save(u))

	require.NoError(t, e.Exploit(u.ID, mine.Ref(), core.Gold))
	tick(t, f) // exploit
	_, err := f.Store.Features().Get(mine.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	tick(t, f) // drop
	tick(t, f) // nothing left
	assert.Equal(t, core.Idle, f.Reload(u).Action)
	assert.Contains(t, f.Notes.Sounds(p.ID), "speech/nothing.wav")
}

func TestDrop_Homeless(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	mine := f.Feature("Mine", core.Pt(1, 1), core.Resources{core.Gold: 5})
	u := f.Unit("Miner", p, core.Pt(1, 1))

	require.NoError(t, e.Exploit(u.ID, mine.Ref(), core.Gold))
	tick(t, f)
	require.Equal(t, core.Drop, f.Reload(u).Action)

	tick(t, f)
	got := f.Reload(u)
	assert.Equal(t, core.Idle, got.Action)
	assert.Equal(t, 1, got.Carried[core.Gold], "nothing was delivered")
	assert.Contains(t, f.Notes.Sounds(p.ID), "speech/homeless.wav")
}

func TestDrop_RehomesWhenHomeIsGone(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	old := f.Building("Hall", p, core.Pt(1, 1))
	other := f.Building("Hall", p, core.Pt(3, 1))
	mine := f.Feature("Mine", core.Pt(1, 1), core.Resources{core.Gold: 5})
	u := f.Unit("Miner", p, core.Pt(1, 1))
	u.HomeID = core.Ptr(old.ID)
	require.NoError(t, f.Store.Units().Save(u))

	require.NoError(t, e.Exploit(u.ID, mine.Ref(), core.Gold))
	tick(t, f)
	require.NoError(t, f.World.DeleteBuilding(old))

	tick(t, f) // rehome
	got := f.Reload(u)
	require.NotNil(t, got.HomeID)
	assert.Equal(t, other.ID, *got.HomeID)
	assert.Equal(t, core.Pt(1, 1), got.Pos)
	assert.Equal(t, core.Drop, got.Action)

	tick(t, f)
	tick(t, f)
	tick(t, f)
	h, err := f.Store.Buildings().Get(other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Stored[core.Gold])
}

// elsewhere adds a second map and moves u onto it.
func elsewhere(t *testing.T, f *worldtest.Fixture, u *core.Unit) *core.Location {
	t.Helper()
	loc := &core.Location{Name: "Elsewhere", Width: 10, Height: 10}
	require.NoError(t, f.Store.Locations().Save(loc))
	u.LocationID = core.Ptr(loc.ID)
	require.NoError(t, f.Store.Units().Save(u))
	return loc
}

func TestDrop_HomeOnAnotherMap(t *testing.T) {
	t.Run("homeless", func(t *testing.T) {
		f, e := setup(t)
		p := f.Player("alice", core.Pt(9, 9))
		hall := f.Building("Hall", p, core.Pt(0, 0))
		u := f.Unit("Miner", p, core.Pt(0, 0))
		u.HomeID = core.Ptr(hall.ID)
		loc := elsewhere(t, f, u)
		mine := f.Feature("Mine", core.Pt(0, 0), core.Resources{core.Gold: 5})
		mine.LocationID = loc.ID
		require.NoError(t, f.Store.Features().Save(mine))

		require.NoError(t, e.Exploit(u.ID, mine.Ref(), core.Gold))
		tick(t, f)
		require.Equal(t, core.Drop, f.Reload(u).Action)

		tick(t, f)
		got := f.Reload(u)
		assert.Equal(t, core.Idle, got.Action)
		assert.Nil(t, got.HomeID)
		assert.Equal(t, 1, got.Carried[core.Gold])
		assert.False(t, f.Sched.Pending(u.ID))
		assert.Contains(t, f.Notes.Sounds(p.ID), "speech/homeless.wav")
	})

	t.Run("rehomed on the new map", func(t *testing.T) {
		f, e := setup(t)
		p := f.Player("alice", core.Pt(9, 9))
		hall := f.Building("Hall", p, core.Pt(0, 0))
		u := f.Unit("Miner", p, core.Pt(0, 0))
		u.HomeID = core.Ptr(hall.ID)
		loc := elsewhere(t, f, u)
		mine := f.Feature("Mine", core.Pt(0, 0), core.Resources{core.Gold: 5})
		mine.LocationID = loc.ID
		require.NoError(t, f.Store.Features().Save(mine))
		local := f.Building("Hall", p, core.Pt(2, 0))
		local.LocationID = loc.ID
		require.NoError(t, f.Store.Buildings().Save(local))

		require.NoError(t, e.Exploit(u.ID, mine.Ref(), core.Gold))
		tick(t, f)
		tick(t, f) // rehome
		got := f.Reload(u)
		require.NotNil(t, got.HomeID)
		assert.Equal(t, local.ID, *got.HomeID)
		assert.Equal(t, core.Drop, got.Action)

		for i := 0; i < 10; i++ {
			tick(t, f)
		}
		b, err := f.Store.Buildings().Get(local.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b.Stored[core.Gold], 1)
		b, err = f.Store.Buildings().Get(hall.ID)
		require.NoError(t, err)
		assert.Zero(t, b.Stored[core.Gold])
	})
}

func TestPatrol(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	home := f.Building("Hall", p, core.Pt(0, 0))
	u := f.Unit("Miner", p, core.Pt(0, 0))
	u.HomeID = core.Ptr(home.ID)
	require.NoError(t, f.Store.Units().Save(u))

	require.NoError(t, e.Patrol(u.ID, core.Pt(2, 0)))
	want := []struct {
		pos    core.Point
		action core.Action
	}{
		{core.Pt(1, 0), core.PatrolOut},
		{core.Pt(2, 0), core.PatrolOut},
		{core.Pt(2, 0), core.PatrolBack},
		{core.Pt(1, 0), core.PatrolBack},
		{core.Pt(0, 0), core.PatrolBack},
		{core.Pt(0, 0), core.PatrolOut},
	}
	for i, w := range want {
		tick(t, f)
		got := f.Reload(u)
		assert.Equal(t, w.pos, got.Pos, "tick %d", i+1)
		assert.Equal(t, w.action, got.Action, "tick %d", i+1)
	}
}

func TestPatrol_HomeOnAnotherMap(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	hall := f.Building("Hall", p, core.Pt(0, 0))
	u := f.Unit("Miner", p, core.Pt(0, 0))
	u.HomeID = core.Ptr(hall.ID)
	elsewhere(t, f, u)

	require.NoError(t, e.Patrol(u.ID, core.Pt(0, 0)))
	for i := 0; i < 5 && f.Sched.Pending(u.ID); i++ {
		tick(t, f)
	}
	got := f.Reload(u)
	assert.Equal(t, core.Idle, got.Action)
	assert.Nil(t, got.HomeID)
	assert.False(t, f.Sched.Pending(u.ID))
}

func TestPatrol_HomelessStops(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	u := f.Unit("Miner", p, core.Pt(0, 0))

	require.NoError(t, e.Patrol(u.ID, core.Pt(1, 0)))
	tick(t, f)
	tick(t, f)
	tick(t, f)
	assert.Equal(t, core.Idle, f.Reload(u).Action)
	assert.Contains(t, f.Notes.Sounds(p.ID), "speech/homeless.wav")
}

func TestHeal_UntilFull(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	medic := f.Unit("Medic", p, core.Pt(0, 0))
	patient := f.Unit("Miner", p, core.Pt(2, 2))
	patient.Health.Set(2, 10)
	require.NoError(t, f.Store.Units().Save(patient))

	var amounts []int
	_, err := f.Bus.Listen(events.OnHeal, func(payload any) (events.Outcome, error) {
		amounts = append(amounts, payload.(*events.Mend).Amount)
		return events.Continue, nil
	})
	require.NoError(t, err)

	require.NoError(t, e.HealUnit(medic.ID, patient.ID))
	for i := 0; i < 30 && f.Reload(medic).Action != core.Idle; i++ {
		tick(t, f)
	}

	assert.Equal(t, core.Idle, f.Reload(medic).Action)
	assert.Equal(t, core.Pt(2, 2), f.Reload(medic).Pos)
	assert.True(t, f.Reload(patient).Health.Full())
	require.NotEmpty(t, amounts)
	for _, a := range amounts {
		assert.GreaterOrEqual(t, a, 1)
		assert.LessOrEqual(t, a, 3)
	}
}

func TestRepair_FullTargetResets(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	medic := f.Unit("Medic", p, core.Pt(0, 0))
	hall := f.Building("Hall", p, core.Pt(0, 0))

	require.NoError(t, e.Repair(medic.ID, hall.ID))
	tick(t, f)
	assert.Equal(t, core.Idle, f.Reload(medic).Action)
}

func TestRepair(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	medic := f.Unit("Medic", p, core.Pt(0, 0))
	hall := f.Building("Hall", p, core.Pt(0, 0))
	hall.Health.Set(45, 50)
	require.NoError(t, f.Store.Buildings().Save(hall))

	require.NoError(t, e.Repair(medic.ID, hall.ID))
	tick(t, f)
	got, err := f.Store.Buildings().Get(hall.ID)
	require.NoError(t, err)
	hp := got.Health.HP(50)
	assert.Greater(t, hp, 45)
	assert.LessOrEqual(t, hp, 47)
}

func TestGuard_Priorities(t *testing.T) {
	t.Run("attack", func(t *testing.T) {
		f, e := setup(t)
		alice := f.Player("alice", core.Pt(9, 9))
		bob := f.Player("bob", core.Pt(9, 9))
		knight := f.Unit("Knight", alice, core.Pt(1, 1))
		enemy := f.Unit("Serf", bob, core.Pt(1, 1))
		f.Unit("Serf", nil, core.Pt(1, 1))

		require.NoError(t, e.Guard(knight.ID))
		tick(t, f)
		assert.False(t, f.Reload(enemy).Health.Full())
		assert.Equal(t, core.Guard, f.Reload(knight).Action)
		assert.True(t, f.Sched.Pending(knight.ID))
	})

	t.Run("unowned units are enemies", func(t *testing.T) {
		f, e := setup(t)
		alice := f.Player("alice", core.Pt(9, 9))
		knight := f.Unit("Knight", alice, core.Pt(1, 1))
		f.Unit("Knight", alice, core.Pt(1, 1))
		stray := f.Unit("Serf", nil, core.Pt(1, 1))

		require.NoError(t, e.Guard(knight.ID))
		tick(t, f)
		assert.False(t, f.Reload(stray).Health.Full())
	})

	t.Run("heal before repair", func(t *testing.T) {
		f, e := setup(t)
		p := f.Player("alice", core.Pt(9, 9))
		medic := f.Unit("Medic", p, core.Pt(1, 1))
		hurt := f.Unit("Miner", p, core.Pt(1, 1))
		hurt.Health.Set(5, 10)
		require.NoError(t, f.Store.Units().Save(hurt))
		hall := f.Building("Hall", p, core.Pt(1, 1))
		hall.Health.Set(10, 50)
		require.NoError(t, f.Store.Buildings().Save(hall))

		require.NoError(t, e.Guard(medic.ID))
		tick(t, f)
		assert.Greater(t, f.Reload(hurt).Health.HP(10), 5)
		got, err := f.Store.Buildings().Get(hall.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Health.HP(50))
	})

	t.Run("repair", func(t *testing.T) {
		f, e := setup(t)
		p := f.Player("alice", core.Pt(9, 9))
		medic := f.Unit("Medic", p, core.Pt(1, 1))
		hall := f.Building("Hall", p, core.Pt(1, 1))
		hall.Health.Set(10, 50)
		require.NoError(t, f.Store.Buildings().Save(hall))

		require.NoError(t, e.Guard(medic.ID))
		tick(t, f)
		got, err := f.Store.Buildings().Get(hall.ID)
		require.NoError(t, err)
		assert.Greater(t, got.Health.HP(50), 10)
	})
}

func TestAttack_DeathPayout(t *testing.T) {
	f, e := setup(t)
	alice := f.Player("alice", core.Pt(9, 9))
	bob := f.Player("bob", core.Pt(9, 9))
	f.Building("Hall", bob, core.Pt(8, 8))
	knight := f.Unit("Knight", alice, core.Pt(1, 1))
	knight.Carried = core.Resources{core.Gold: 2}
	require.NoError(t, f.Store.Units().Save(knight))
	serf := f.Unit("Serf", bob, core.Pt(1, 1))
	serf.Carried = core.Resources{core.Gold: 3, core.Stone: 1}
	require.NoError(t, f.Store.Units().Save(serf))

	var damage []int
	_, err := f.Bus.Listen(events.OnAttack, func(payload any) (events.Outcome, error) {
		damage = append(damage, payload.(*events.Attack).Damage)
		return events.Continue, nil
	})
	require.NoError(t, err)

	require.NoError(t, e.Attack(knight.ID, serf.Ref()))
	for i := 0; i < 30 && f.Reload(knight).Action != core.Idle; i++ {
		tick(t, f)
	}

	_, err = f.Store.Units().Get(serf.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	got := f.Reload(knight)
	assert.Equal(t, core.Idle, got.Action)
	assert.Equal(t, 5, got.Carried[core.Gold])
	assert.Equal(t, 1, got.Carried[core.Stone])

	require.NotEmpty(t, damage)
	for _, d := range damage {
		assert.GreaterOrEqual(t, d, 1)
		assert.LessOrEqual(t, d, 4)
	}
}

func TestAttack_OwnHomeDestroyed(t *testing.T) {
	f, e := setup(t)
	alice := f.Player("alice", core.Pt(9, 9))
	hall := f.Building("Hall", alice, core.Pt(1, 1))
	hall.Health.Set(1, 50)
	require.NoError(t, f.Store.Buildings().Save(hall))
	knight := f.Unit("Knight", alice, core.Pt(1, 1))
	knight.HomeID = core.Ptr(hall.ID)
	require.NoError(t, f.Store.Units().Save(knight))

	require.NoError(t, e.Attack(knight.ID, hall.Ref()))
	tick(t, f)

	_, err := f.Store.Buildings().Get(hall.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	got := f.Reload(knight)
	assert.Equal(t, core.Idle, got.Action)
	assert.Nil(t, got.HomeID)
}

func TestAttack_TargetLeftSquare(t *testing.T) {
	f, e := setup(t)
	alice := f.Player("alice", core.Pt(9, 9))
	knight := f.Unit("Knight", alice, core.Pt(1, 1))
	serf := f.Unit("Serf", nil, core.Pt(1, 1))

	require.NoError(t, e.Attack(knight.ID, serf.Ref()))
	serf.Pos = core.Pt(2, 2)
	require.NoError(t, f.Store.Units().Save(serf))
	tick(t, f)

	assert.Equal(t, core.Idle, f.Reload(knight).Action)
	assert.True(t, f.Reload(serf).Health.Full())
}

func TestRelease(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	u := f.Unit("Miner", p, core.Pt(1, 1))
	require.NoError(t, e.Travel(u.ID, core.Pt(5, 5)))

	require.NoError(t, e.Release(u.ID))
	assert.False(t, f.Sched.Pending(u.ID))
	_, err := f.Store.Units().Get(u.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// the cancelled timer is gone from the clock too
	assert.Equal(t, 0, f.Clock.Pending())
}

func TestResume(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	busy := f.Unit("Miner", p, core.Pt(1, 1))
	busy.Action = core.Guard
	require.NoError(t, f.Store.Units().Save(busy))
	idle := f.Unit("Miner", p, core.Pt(1, 1))

	n, err := e.Resume()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, f.Sched.Pending(busy.ID))
	assert.False(t, f.Sched.Pending(idle.ID))
}

func TestActionDescription(t *testing.T) {
	f, e := setup(t)
	p := f.Player("alice", core.Pt(9, 9))
	home := f.Building("Hall", p, core.Pt(0, 0))
	mine := f.Feature("Mine", core.Pt(2, 2), core.Resources{core.Gold: 1})
	serf := f.Unit("Serf", nil, core.Pt(1, 1))

	homed := func(u core.Unit) core.Unit {
		u.HomeID = core.Ptr(home.ID)
		return u
	}
	tests := []struct {
		unit core.Unit
		want string
	}{
		{core.Unit{}, "doing nothing"},
		{core.Unit{Action: core.Guard, Pos: core.Pt(1, 2)}, "guarding (1, 2)"},
		{core.Unit{Action: core.Exploit, Exploiting: mine.Ref()}, "exploiting Mine 1"},
		{core.Unit{Action: core.Exploit, Exploiting: core.FeatureTarget(99)}, "exploiting a non-existant resource"},
		{core.Unit{Action: core.Drop}, "attempting to deliver resources"},
		{homed(core.Unit{Action: core.Drop}), "delivering resources to Hall 1"},
		{core.Unit{Action: core.Travel, Target: core.Pt(3, 4)}, "travelling to (3, 4)"},
		{core.Unit{Action: core.PatrolOut, Target: core.Pt(3, 4)}, "patrolling between nowhere and (3, 4)"},
		{homed(core.Unit{Action: core.PatrolBack, Target: core.Pt(3, 4)}), "patrolling between (0, 0) and (3, 4)"},
		{core.Unit{Action: core.Repair, Exploiting: core.BuildingTarget(99)}, "repairing nothing"},
		{core.Unit{Action: core.Repair, Exploiting: home.Ref()}, "repairing Hall 1"},
		{core.Unit{Action: core.Heal, Exploiting: core.UnitTarget(99)}, "healing nobody"},
		{core.Unit{Action: core.Attack, Exploiting: core.UnitTarget(99)}, "attacking a memory"},
		{core.Unit{Action: core.Attack, Exploiting: serf.Ref()}, "attacking Serf 1"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			u := tt.unit
			got, err := e.ActionDescription(&u)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := e.Describe(serf.ID)
	require.NoError(t, err)
	assert.Equal(t, "doing nothing", got)
}
