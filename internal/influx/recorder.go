package influx

import (
	"strconv"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/pkg/core"
)

// PointWriter is where a Recorder sends its points. *Manager is one.
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point) error
}

// Recorder listens on the event bus and turns game events into points.
// It never stops an event and never fails one; write errors are logged.
type Recorder struct {
	w   PointWriter
	now func() time.Time
	log zerolog.Logger
}

// NewRecorder creates a Recorder stamping points with now.
func NewRecorder(w PointWriter, now func() time.Time, log zerolog.Logger) *Recorder {
	return &Recorder{w: w, now: now, log: log}
}

// Register listens on every event the Recorder measures.
func (r *Recorder) Register(bus *events.Bus) error {
	listeners := map[string]events.Listener{
		events.OnExploit: r.exploit,
		events.OnDrop:    r.drop,
		events.OnKill:    r.kill,
		events.OnHeal:    r.mend("heal"),
		events.OnRepair:  r.mend("repair"),
		events.OnExhaust: r.exhaust,
	}
	for _, name := range events.Engine {
		fn, ok := listeners[name]
		if !ok {
			continue
		}
		if _, err := bus.Listen(name, fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) write(p *influxdb2_write.Point) (events.Outcome, error) {
	if err := r.w.WritePoint(p); err != nil {
		r.log.Error().Err(err).Str("measurement", p.Name()).Msg("Failed to record point")
	}
	return events.Continue, nil
}

func (r *Recorder) point(measurement string, u *core.Unit) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(measurement).SetTime(r.now())
	if u == nil {
		return p
	}
	p.AddTag("unitType", idTag(u.TypeID))
	if u.OwnerID != nil {
		p.AddTag("player", idTag(*u.OwnerID))
	}
	return p
}

func (r *Recorder) exploit(payload any) (events.Outcome, error) {
	e, ok := payload.(*events.Exploit)
	if !ok {
		return events.Continue, nil
	}
	p := r.point("exploit", e.Unit).
		AddTag("material", string(e.Material)).
		AddTag("source", e.Source.Ref().Kind.String()).
		AddField("amount", e.Amount)
	return r.write(p)
}

func (r *Recorder) drop(payload any) (events.Outcome, error) {
	d, ok := payload.(*events.Drop)
	if !ok {
		return events.Continue, nil
	}
	p := r.point("drop", d.Unit).AddTag("building", idTag(d.Home.ID))
	for m, n := range d.Delivered {
		p.AddField(string(m), n)
	}
	p.AddField("total", d.Delivered.Total())
	return r.write(p)
}

func (r *Recorder) kill(payload any) (events.Outcome, error) {
	k, ok := payload.(*events.Kill)
	if !ok {
		return events.Continue, nil
	}
	p := r.point("kill", k.Attacker).
		AddTag("victim", k.Victim.Ref().Kind.String()).
		AddField("victimType", int64(k.Victim.Type()))
	if k.OwnerID != nil {
		p.AddTag("victimPlayer", idTag(*k.OwnerID))
	}
	return r.write(p)
}

func (r *Recorder) mend(measurement string) events.Listener {
	return func(payload any) (events.Outcome, error) {
		m, ok := payload.(*events.Mend)
		if !ok {
			return events.Continue, nil
		}
		return r.write(r.point(measurement, m.Unit).AddField("amount", m.Amount))
	}
}

func (r *Recorder) exhaust(payload any) (events.Outcome, error) {
	e, ok := payload.(*events.Exhaust)
	if !ok {
		return events.Continue, nil
	}
	p := r.point("exhaust", e.Unit).AddField("featureType", int64(e.Feature.TypeID))
	return r.write(p)
}

func idTag(id core.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}
