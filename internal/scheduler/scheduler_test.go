package scheduler

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/gridwars/engine/internal/clock"
	"github.com/gridwars/engine/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) (*Scheduler, *clock.Manual, *[]core.ID) {
	t.Helper()
	c := clock.NewManual(epoch)
	s, err := New(c, rand.New(rand.NewPCG(1, 2)), time.Second)
	require.NoError(t, err)
	var calls []core.ID
	s.SetProgress(func(id core.ID) error {
		calls = append(calls, id)
		return nil
	})
	return s, c, &calls
}

func TestScheduler_DelayWithinSpeed(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	for i := 0; i < 1000; i++ {
		d := s.Delay(8)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 8*time.Second)
	}
	assert.Equal(t, time.Duration(0), s.Delay(0))
}

func TestScheduler_StartTaskFiresOnce(t *testing.T) {
	s, c, calls := newTestScheduler(t)

	s.StartTask(7, 4)
	assert.True(t, s.Pending(7))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, c.Advance(4*time.Second))
	assert.Equal(t, []core.ID{7}, *calls)
	assert.False(t, s.Pending(7))
	assert.Equal(t, 0, c.Pending())
}

func TestScheduler_RestartReplacesTimer(t *testing.T) {
	s, c, calls := newTestScheduler(t)

	s.StartTask(1, 4)
	s.StartTask(1, 4)
	s.StartTask(1, 4)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, c.Pending(), "cancel-then-reschedule leaves one timer")

	require.NoError(t, c.Advance(4*time.Second))
	assert.Equal(t, []core.ID{1}, *calls)
}

func TestScheduler_KillTaskIsIdempotent(t *testing.T) {
	s, c, calls := newTestScheduler(t)

	s.KillTask(99)

	s.StartTask(3, 2)
	s.KillTask(3)
	s.KillTask(3)
	assert.False(t, s.Pending(3))

	require.NoError(t, c.Advance(time.Minute))
	assert.Empty(t, *calls)
}

func TestScheduler_ProgressMayReschedule(t *testing.T) {
	c := clock.NewManual(epoch)
	s, err := New(c, rand.New(rand.NewPCG(3, 4)), time.Second)
	require.NoError(t, err)

	ticks := 0
	s.SetProgress(func(id core.ID) error {
		ticks++
		if ticks < 5 {
			s.StartTask(id, 1)
		}
		return nil
	})

	s.StartTask(1, 1)
	require.NoError(t, c.Advance(time.Minute))
	assert.Equal(t, 5, ticks)
	assert.False(t, s.Pending(1))
}
