// Package storagetest holds the behaviour every storage.Store must share.
// Backend packages run it from their own tests.
package storagetest

import (
	"errors"
	"testing"
	"time"

	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, initialized store. The store is closed by the
// suite.
type Factory func(t *testing.T) storage.Store

// Run exercises s against the shared contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("SaveAssignsIDs", func(t *testing.T) { testSaveAssignsIDs(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("UnitRoundTrip", func(t *testing.T) { testUnitFields(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("FindSquare", func(t *testing.T) { testFindSquare(t, newStore(t)) })
	t.Run("FindOwnership", func(t *testing.T) { testFindOwnership(t, newStore(t)) })
	t.Run("FindDamagedBusy", func(t *testing.T) { testFindDamagedBusy(t, newStore(t)) })
	t.Run("FindTransport", func(t *testing.T) { testFindTransport(t, newStore(t)) })
	t.Run("AtomicCommit", func(t *testing.T) { testAtomicCommit(t, newStore(t)) })
	t.Run("AtomicRollback", func(t *testing.T) { testAtomicRollback(t, newStore(t)) })
}

func closeStore(t *testing.T, s storage.Store) {
	t.Cleanup(func() { _ = s.Close() })
}

func testSaveAssignsIDs(t *testing.T, s storage.Store) {
	closeStore(t, s)

	loc := &core.Location{Name: "Earth", Width: 10, Height: 10}
	require.NoError(t, s.Locations().Save(loc))
	assert.NotZero(t, loc.ID)

	a := &core.Unit{TypeID: 1, LocationID: core.Ptr(loc.ID)}
	b := &core.Unit{TypeID: 1, LocationID: core.Ptr(loc.ID)}
	require.NoError(t, s.Units().Save(a))
	require.NoError(t, s.Units().Save(b))
	assert.NotZero(t, a.ID)
	assert.Greater(t, b.ID, a.ID)

	// Saving again updates in place.
	a.Pos = core.Pt(3, 4)
	require.NoError(t, s.Units().Save(a))
	got, err := s.Units().Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Pt(3, 4), got.Pos)

	all, err := s.Units().Find(storage.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testGetMissing(t *testing.T, s storage.Store) {
	closeStore(t, s)

	_, err := s.Units().Get(999)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	_, err = s.Buildings().Get(999)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	_, err = s.Transports().Get(999)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func testUnitFields(t *testing.T, s storage.Store) {
	closeStore(t, s)

	hp := 7
	u := &core.Unit{
		TypeID:     2,
		LocationID: core.Ptr(1),
		Pos:        core.Pt(1, 2),
		Target:     core.Pt(5, 6),
		OwnerID:    core.Ptr(3),
		HomeID:     core.Ptr(4),
		Action:     core.Exploit,
		Exploiting: core.FeatureTarget(9),
		Material:   core.Gold,
		Carried:    core.Resources{core.Gold: 2},
		Health:     core.HealthFrom(&hp),
	}
	require.NoError(t, s.Units().Save(u))

	got, err := s.Units().Get(u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Pos, got.Pos)
	assert.Equal(t, u.Target, got.Target)
	assert.Equal(t, core.ID(3), *got.OwnerID)
	assert.Equal(t, core.ID(4), *got.HomeID)
	assert.Nil(t, got.OnboardID)
	assert.Equal(t, core.Exploit, got.Action)
	assert.Equal(t, core.FeatureTarget(9), got.Exploiting)
	assert.Equal(t, core.Gold, got.Material)
	assert.Equal(t, 2, got.Carried[core.Gold])
	assert.Equal(t, 7, got.Health.HP(10))
	assert.False(t, got.Health.Full())

	// The stored copy does not alias the caller's record.
	u.Carried[core.Gold] = 50
	again, err := s.Units().Get(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Carried[core.Gold])

	b := &core.Building{TypeID: 1, LocationID: 1, Stored: core.Resources{core.Wood: 4}}
	require.NoError(t, s.Buildings().Save(b))
	gotB, err := s.Buildings().Get(b.ID)
	require.NoError(t, err)
	assert.True(t, gotB.Health.Full())
	assert.Nil(t, gotB.OwnerID)
	assert.Equal(t, 4, gotB.Stored[core.Wood])

	f := &core.Feature{TypeID: 1, LocationID: 1, Remaining: core.Resources{core.Stone: 0}}
	require.NoError(t, s.Features().Save(f))
	gotF, err := s.Features().Get(f.ID)
	require.NoError(t, err)
	assert.True(t, gotF.Remaining.Applies(core.Stone))
	assert.True(t, gotF.Exhausted())
}

func testDelete(t *testing.T, s storage.Store) {
	closeStore(t, s)

	f := &core.Feature{TypeID: 1, LocationID: 1}
	require.NoError(t, s.Features().Save(f))
	require.NoError(t, s.Features().Delete(f.ID))

	_, err := s.Features().Get(f.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	// Deleting twice is harmless.
	assert.NoError(t, s.Features().Delete(f.ID))
}

func testFindSquare(t *testing.T, s storage.Store) {
	closeStore(t, s)

	for _, u := range []*core.Unit{
		{TypeID: 1, LocationID: core.Ptr(1), Pos: core.Pt(2, 2)},
		{TypeID: 2, LocationID: core.Ptr(1), Pos: core.Pt(2, 2)},
		{TypeID: 1, LocationID: core.Ptr(1), Pos: core.Pt(2, 3)},
		{TypeID: 1, LocationID: core.Ptr(2), Pos: core.Pt(2, 2)},
		{TypeID: 1, Pos: core.Pt(2, 2)}, // aboard, no location
	} {
		require.NoError(t, s.Units().Save(u))
	}

	here, err := s.Units().Find(storage.Square(1, core.Pt(2, 2)))
	require.NoError(t, err)
	require.Len(t, here, 2)
	assert.Less(t, here[0].ID, here[1].ID)

	f := storage.Square(1, core.Pt(2, 2))
	f.Type = core.Ptr(2)
	typed, err := s.Units().Find(f)
	require.NoError(t, err)
	require.Len(t, typed, 1)
	assert.Equal(t, core.ID(2), typed[0].TypeID)

	f = storage.Square(1, core.Pt(2, 2))
	f.Exclude = core.Ptr(here[0].ID)
	others, err := s.Units().Find(f)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, here[1].ID, others[0].ID)

	loc1, err := s.Units().Find(storage.Filter{Location: core.Ptr(1)})
	require.NoError(t, err)
	assert.Len(t, loc1, 3)
}

func testFindOwnership(t *testing.T, s storage.Store) {
	closeStore(t, s)

	mine := &core.Building{TypeID: 1, LocationID: 1, OwnerID: core.Ptr(1)}
	theirs := &core.Building{TypeID: 1, LocationID: 1, OwnerID: core.Ptr(2)}
	nobody := &core.Building{TypeID: 1, LocationID: 1}
	for _, b := range []*core.Building{mine, theirs, nobody} {
		require.NoError(t, s.Buildings().Save(b))
	}

	got, err := s.Buildings().Find(storage.Filter{Owner: core.Ptr(1)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	got, err = s.Buildings().Find(storage.Filter{NotOwner: core.Ptr(1)})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Buildings().Find(storage.Filter{NotOwner: core.Ptr(1), Owned: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, theirs.ID, got[0].ID)

	u := &core.Unit{TypeID: 1, LocationID: core.Ptr(1), OwnerID: core.Ptr(1), HomeID: core.Ptr(mine.ID)}
	require.NoError(t, s.Units().Save(u))
	homed, err := s.Units().Find(storage.Filter{Home: core.Ptr(mine.ID)})
	require.NoError(t, err)
	require.Len(t, homed, 1)
	assert.Equal(t, u.ID, homed[0].ID)

	// Features have no home column.
	require.NoError(t, s.Features().Save(&core.Feature{TypeID: 1, LocationID: 1}))
	none, err := s.Features().Find(storage.Filter{Home: core.Ptr(mine.ID)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testFindDamagedBusy(t *testing.T, s storage.Store) {
	closeStore(t, s)

	hp := 3
	hurt := &core.Unit{TypeID: 1, LocationID: core.Ptr(1), Health: core.HealthFrom(&hp)}
	busy := &core.Unit{TypeID: 1, LocationID: core.Ptr(1), Action: core.Guard}
	require.NoError(t, s.Units().Save(hurt))
	require.NoError(t, s.Units().Save(busy))

	got, err := s.Units().Find(storage.Filter{Damaged: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, hurt.ID, got[0].ID)

	got, err = s.Units().Find(storage.Filter{Busy: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, busy.ID, got[0].ID)
}

func testFindTransport(t *testing.T, s storage.Store) {
	closeStore(t, s)

	landAt := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	grounded := &core.Transport{CarrierID: 1, DestinationID: 5, OriginID: 1}
	flying := &core.Transport{CarrierID: 2, DestinationID: 5, OriginID: 1, LandAt: &landAt}
	require.NoError(t, s.Transports().Save(grounded))
	require.NoError(t, s.Transports().Save(flying))

	got, err := s.Transports().Find(storage.Filter{Carrier: core.Ptr(2)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].LandAt)
	assert.True(t, landAt.Equal(*got[0].LandAt))

	got, err = s.Transports().Find(storage.Filter{Destination: core.Ptr(5), Airborne: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, flying.ID, got[0].ID)

	got, err = s.Transports().Find(storage.Filter{Destination: core.Ptr(5)})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	u := &core.Unit{TypeID: 1, OnboardID: core.Ptr(grounded.ID)}
	require.NoError(t, s.Units().Save(u))
	aboard, err := s.Units().Find(storage.Filter{Onboard: core.Ptr(grounded.ID)})
	require.NoError(t, err)
	assert.Len(t, aboard, 1)

	sk := &core.Skill{Kind: core.DoubleExploit, BuildingID: 8, ActivatedAt: landAt}
	require.NoError(t, s.Skills().Save(sk))
	skills, err := s.Skills().Find(storage.Filter{Building: core.Ptr(8)})
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, core.DoubleExploit, skills[0].Kind)
	assert.True(t, landAt.Equal(skills[0].ActivatedAt))
}

func testAtomicCommit(t *testing.T, s storage.Store) {
	closeStore(t, s)

	err := s.Atomic(func(tx storage.Store) error {
		if err := tx.Players().Save(&core.Player{Name: "ann"}); err != nil {
			return err
		}
		return tx.Players().Save(&core.Player{Name: "bob"})
	})
	require.NoError(t, err)

	all, err := s.Players().Find(storage.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testAtomicRollback(t *testing.T, s storage.Store) {
	closeStore(t, s)

	kept := &core.Player{Name: "kept"}
	require.NoError(t, s.Players().Save(kept))

	boom := errors.New("boom")
	err := s.Atomic(func(tx storage.Store) error {
		if err := tx.Players().Save(&core.Player{Name: "lost"}); err != nil {
			return err
		}
		if err := tx.Players().Delete(kept.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := s.Players().Find(storage.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "kept", all[0].Name)
}
