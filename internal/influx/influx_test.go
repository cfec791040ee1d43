package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwars/engine/internal/config"
	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/pkg/core"
)

var stamp = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeWriter struct {
	points []*influxdb2_write.Point
	err    error
}

func (f *fakeWriter) WritePoint(p *influxdb2_write.Point) error {
	f.points = append(f.points, p)
	return f.err
}

func (f *fakeWriter) lines() []string {
	out := make([]string, len(f.points))
	for i, p := range f.points {
		out[i] = influxdb2_write.PointToLineProtocol(p, time.Second)
	}
	return out
}

func newBus(t *testing.T, w PointWriter) *events.Bus {
	t.Helper()
	bus, err := events.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, events.RegisterEngine(bus))
	require.NoError(t, NewRecorder(w, func() time.Time { return stamp }, zerolog.Nop()).Register(bus))
	return bus
}

func TestRecorder_Drop(t *testing.T) {
	w := &fakeWriter{}
	bus := newBus(t, w)

	u := &core.Unit{ID: 4, TypeID: 1, OwnerID: core.Ptr(2)}
	_, err := bus.Fire(events.OnDrop, &events.Drop{
		Unit:      u,
		Home:      &core.Building{ID: 9},
		Delivered: core.Resources{core.Gold: 3},
	})
	require.NoError(t, err)

	require.Len(t, w.points, 1)
	line := w.lines()[0]
	assert.Contains(t, line, "drop,")
	assert.Contains(t, line, "building=9")
	assert.Contains(t, line, "player=2")
	assert.Contains(t, line, "gold=3i")
	assert.Contains(t, line, "total=3i")
	assert.Contains(t, line, " 1704110400\n")
}

func TestRecorder_KillAndMend(t *testing.T) {
	w := &fakeWriter{}
	bus := newBus(t, w)

	attacker := &core.Unit{ID: 1, TypeID: 3, OwnerID: core.Ptr(1)}
	_, err := bus.Fire(events.OnKill, &events.Kill{
		Attacker: attacker,
		Victim:   &core.Building{ID: 5, TypeID: 2},
		OwnerID:  core.Ptr(7),
	})
	require.NoError(t, err)
	_, err = bus.Fire(events.OnRepair, &events.Mend{Unit: attacker, Target: &core.Building{ID: 6}, Amount: 2})
	require.NoError(t, err)

	lines := w.lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "kill,")
	assert.Contains(t, lines[0], "victim=building")
	assert.Contains(t, lines[0], "victimPlayer=7")
	assert.Contains(t, lines[1], "repair,")
	assert.Contains(t, lines[1], "amount=2i")
}

func TestRecorder_WriteErrorDoesNotStopEvent(t *testing.T) {
	w := &fakeWriter{err: errors.New("down")}
	bus := newBus(t, w)

	var after bool
	_, err := bus.Listen(events.OnHeal, func(any) (events.Outcome, error) {
		after = true
		return events.Continue, nil
	})
	require.NoError(t, err)

	_, err = bus.Fire(events.OnHeal, &events.Mend{Unit: &core.Unit{}, Amount: 1})
	require.NoError(t, err)
	assert.True(t, after)
}

func TestManager_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), filepath.Join(t.TempDir(), "backup.gz"))
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.Error(t, m.WritePoint(influxdb2_write.NewPointWithMeasurement("x")))
	assert.NoError(t, m.Close())
}

func TestManager_BackupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.gz")
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), path)
	require.NoError(t, m.openBackup())

	p := influxdb2_write.NewPointWithMeasurement("drop").AddField("gold", 3).SetTime(stamp)
	require.NoError(t, m.WritePoint(p))
	require.NoError(t, m.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "drop gold=3i 1704110400000000000\n", string(body))
}
