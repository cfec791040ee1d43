package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwars/engine/pkg/core"
)

func TestSeedCommands(t *testing.T) {
	h := setup(t)

	out, err := h.run(t, "location", "Meadow", "8", "6")
	require.NoError(t, err)
	assert.Equal(t, "location 2: Meadow 8x6", out, "the fixture map is location 1")

	out, err = h.run(t, "join", "bob", "2", "20,20")
	require.NoError(t, err)
	assert.Equal(t, "player 1: bob at (7, 5) on Meadow", out)

	out, err = h.run(t, "found", "1", "1", "3,3")
	require.NoError(t, err)
	assert.Equal(t, "building 1: Town Hall 1", out)

	out, err = h.run(t, "spawn", "1", "1", "2,2")
	require.NoError(t, err)
	assert.Equal(t, "unit 1: Peasant 1", out)

	u, err := h.f.Store.Units().Get(1)
	require.NoError(t, err)
	require.NotNil(t, u.HomeID)
	assert.Equal(t, core.ID(1), *u.HomeID)

	out, err = h.run(t, "feature", "2", "1", "5,1")
	require.NoError(t, err)
	assert.Equal(t, "feature 1: Mine 1", out)
	f, err := h.f.Store.Features().Get(1)
	require.NoError(t, err)
	assert.Equal(t, 50, f.Remaining[core.Gold])
}

func TestSeedCommands_Errors(t *testing.T) {
	h := setup(t)

	_, err := h.run(t, "location", "Meadow", "0", "6")
	assert.Error(t, err)

	_, err = h.run(t, "join", "bob", "9", "1,1")
	assert.Error(t, err, "no such location")

	h.f.Player("alice", core.Pt(1, 1))
	_, err = h.run(t, "spawn", "1", "1", "10,10")
	assert.Error(t, err, "off the map")

	_, err = h.run(t, "spawn", "1", "99", "1,1")
	assert.Error(t, err, "unknown unit type")

	_, err = h.run(t, "feature", "1", "1", "-1,0")
	assert.Error(t, err)
}
