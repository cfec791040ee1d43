package geo

import (
	"math"

	"github.com/gridwars/engine/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// FlightPath lists the squares a carrier crosses from one point to another,
// both ends included. It has Distance(from, to)+1 entries.
func FlightPath(from, to core.Point) []core.Point {
	path := []core.Point{from}
	for p := from; p != to; {
		p = p.StepTowards(to)
		path = append(path, p)
	}
	return path
}

// ToLineString converts a path to a geom.LineString. Paths shorter than two
// points produce an empty LineString.
func ToLineString(path []core.Point) geom.LineString {
	if len(path) < 2 {
		return geom.LineString{}
	}
	coords := make([]float64, 0, len(path)*2)
	for _, p := range path {
		coords = append(coords, float64(p.X), float64(p.Y))
	}
	seq := geom.NewSequence(coords, geom.DimXY)
	return geom.NewLineString(seq)
}

// FromLineString converts a geom.LineString back to grid points.
func FromLineString(ls geom.LineString) []core.Point {
	seq := ls.Coordinates()
	if seq.Length() == 0 {
		return nil
	}
	path := make([]core.Point, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		path[i] = core.Pt(int(math.Round(xy.X)), int(math.Round(xy.Y)))
	}
	return path
}
