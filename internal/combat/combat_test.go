package combat

import (
	"testing"

	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/internal/world/worldtest"
	"github.com/gridwars/engine/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(f *worldtest.Fixture) *Resolver {
	return New(f.World, f.Bus, f.Rand)
}

func TestCeiling(t *testing.T) {
	f := worldtest.New(t)
	r := newResolver(f)

	scout := f.Unit("Scout", nil, core.Pt(0, 0))
	peasant := f.Unit("Peasant", nil, core.Pt(0, 0))
	hall := f.Building("Town Hall", nil, core.Pt(0, 0))
	farmer := f.Unit("Farmer", nil, core.Pt(0, 0))

	c, err := r.Ceiling(scout, peasant)
	require.NoError(t, err)
	assert.Equal(t, 3, c)

	c, err = r.Ceiling(peasant, scout)
	require.NoError(t, err)
	assert.Equal(t, 2, c)

	c, err = r.Ceiling(peasant, hall)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	_, err = r.Ceiling(farmer, peasant)
	assert.ErrorIs(t, err, ErrUnarmed)
}

func TestStrike_DamageWithinCeiling(t *testing.T) {
	f := worldtest.New(t)
	r := newResolver(f)
	alice := f.Player("alice", core.Pt(9, 9))
	bob := f.Player("bob", core.Pt(9, 9))
	attacker := f.Unit("Scout", alice, core.Pt(1, 1))
	defender := f.Unit("Farmer", bob, core.Pt(1, 1))

	for i := 0; i < 200; i++ {
		defender.Health = core.Health{}
		res, err := r.Strike(attacker, defender)
		require.NoError(t, err)
		require.False(t, res.Killed)
		assert.GreaterOrEqual(t, res.Damage, 1)
		assert.LessOrEqual(t, res.Damage, 3)
		assert.Equal(t, 10-res.Damage, defender.Health.HP(10))
	}
}

func TestStrike_DeathPaysOut(t *testing.T) {
	f := worldtest.New(t)
	r := newResolver(f)
	alice := f.Player("alice", core.Pt(9, 9))
	bob := f.Player("bob", core.Pt(9, 9))
	watcher := f.Player("watcher", core.Pt(1, 1))
	f.Building("Town Hall", bob, core.Pt(5, 5)) // bob survives the loss

	attacker := f.Unit("Scout", alice, core.Pt(1, 1))
	attacker.Carried = core.Resources{core.Gold: 1}
	defender := f.Unit("Peasant", bob, core.Pt(1, 1))
	defender.Carried = core.Resources{core.Gold: 4, core.Wood: 2}
	defender.Health.Set(0, 10)

	res, err := r.Strike(attacker, defender)
	require.NoError(t, err)
	assert.True(t, res.Killed)

	_, err = f.Store.Units().Get(defender.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got := f.Reload(attacker)
	assert.Equal(t, 5, got.Carried[core.Gold])
	assert.Equal(t, 2, got.Carried[core.Wood])

	assert.Equal(t, []string{"Peasant 1 has been killed."}, f.Notes.Messages(bob.ID))
	assert.Contains(t, f.Notes.Sounds(watcher.ID), "die.wav")
	assert.Contains(t, f.Notes.Sounds(watcher.ID), "attacks/bow.wav")
	assert.Empty(t, f.Notes.Messages(alice.ID), "bob still has a building")
}

func TestStrike_BuildingDestroyed(t *testing.T) {
	f := worldtest.New(t)
	r := newResolver(f)
	alice := f.Player("alice", core.Pt(9, 9))
	bob := f.Player("bob", core.Pt(9, 9))
	f.Unit("Peasant", bob, core.Pt(7, 7))

	attacker := f.Unit("Peasant", alice, core.Pt(2, 2))
	hall := f.Building("Town Hall", bob, core.Pt(2, 2))
	hall.Stored = core.Resources{core.Stone: 7}
	hall.Health.Set(0, 200)

	res, err := r.Strike(attacker, hall)
	require.NoError(t, err)
	assert.True(t, res.Killed)
	assert.Equal(t, []string{"Town Hall 1 has been destroyed."}, f.Notes.Messages(bob.ID))
	assert.Equal(t, 7, f.Reload(attacker).Carried[core.Stone])

	_, err = f.Store.Buildings().Get(hall.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStrike_AttackerLosesDestroyedHome(t *testing.T) {
	f := worldtest.New(t)
	r := newResolver(f)
	alice := f.Player("alice", core.Pt(9, 9))
	hall := f.Building("Town Hall", alice, core.Pt(2, 2))
	hall.Health.Set(0, 200)
	attacker := f.Unit("Peasant", alice, core.Pt(2, 2))
	attacker.HomeID = core.Ptr(hall.ID)
	require.NoError(t, f.Store.Units().Save(attacker))

	res, err := r.Strike(attacker, hall)
	require.NoError(t, err)
	require.True(t, res.Killed)
	assert.Nil(t, attacker.HomeID)
	assert.Nil(t, f.Reload(attacker).HomeID)
}

func TestStrike_LossAndWin(t *testing.T) {
	f := worldtest.New(t)
	r := newResolver(f)
	alice := f.Player("alice", core.Pt(9, 9))
	bob := f.Player("bob", core.Pt(8, 8))
	carol := f.Player("carol", core.Pt(0, 0))

	attacker := f.Unit("Scout", alice, core.Pt(1, 1))
	defender := f.Unit("Peasant", bob, core.Pt(1, 1))
	defender.Health.Set(0, 10)

	_, err := r.Strike(attacker, defender)
	require.NoError(t, err)

	assert.Contains(t, f.Notes.Messages(alice.ID), "You beat bob.")
	assert.Contains(t, f.Notes.Messages(alice.ID), "You have won!")
	assert.Contains(t, f.Notes.Sounds(alice.ID), "beat.wav")
	assert.Contains(t, f.Notes.Sounds(alice.ID), "win.wav")
	assert.Contains(t, f.Notes.Messages(bob.ID), "You are beaten by alice.")
	assert.Contains(t, f.Notes.Sounds(bob.ID), "lose.wav")
	assert.Equal(t, []string{"alice beats bob."}, f.Notes.Messages(carol.ID))

	gotBob, err := f.Store.Players().Get(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotBob.Losses)
	assert.Nil(t, gotBob.LocationID)

	gotAlice, err := f.Store.Players().Get(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotAlice.Wins)
}

func TestStrike_Retaliation(t *testing.T) {
	f := worldtest.New(t)
	r := newResolver(f)
	alice := f.Player("alice", core.Pt(9, 9))
	bob := f.Player("bob", core.Pt(9, 9))
	attacker := f.Unit("Peasant", alice, core.Pt(1, 1))
	defender := f.Unit("Scout", bob, core.Pt(1, 1))

	res, err := r.Strike(attacker, defender)
	require.NoError(t, err)
	require.False(t, res.Killed)

	got := f.Reload(defender)
	assert.Equal(t, core.Attack, got.Action)
	assert.Equal(t, attacker.Ref(), got.Exploiting)
	assert.True(t, f.Sched.Pending(defender.ID))

	// unarmed defenders just take it
	farmer := f.Unit("Farmer", bob, core.Pt(1, 1))
	_, err = r.Strike(attacker, farmer)
	require.NoError(t, err)
	assert.Equal(t, core.Idle, f.Reload(farmer).Action)
	assert.False(t, f.Sched.Pending(farmer.ID))
}

func TestStrike_CancelledByHook(t *testing.T) {
	f := worldtest.New(t)
	r := newResolver(f)
	_, err := f.Bus.Listen(events.OnAttack, func(payload any) (events.Outcome, error) {
		payload.(*events.Attack).Cancelled = true
		return events.Stop, nil
	})
	require.NoError(t, err)

	attacker := f.Unit("Scout", nil, core.Pt(1, 1))
	defender := f.Unit("Peasant", nil, core.Pt(1, 1))

	res, err := r.Strike(attacker, defender)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.True(t, f.Reload(defender).Health.Full())
}
