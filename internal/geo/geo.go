package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gridwars/engine/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Grid squares are stored as plain XY geometry. There is no projection:
// one unit of X or Y is one square.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ParsePoint parses a string in the format "x,y" into a grid point.
func ParsePoint(coords string) (core.Point, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Point{}, ErrInvalidCoordinates
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return core.Point{}, ErrInvalidCoordinates
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return core.Point{}, ErrInvalidCoordinates
	}
	return core.Pt(x, y), nil
}

// ToPoint converts a grid point to a geom.Point.
func ToPoint(p core.Point) geom.Point {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: float64(p.X), Y: float64(p.Y)}})
}

// FromPoint converts a geom.Point back to the grid, rounding to the nearest
// square. An empty point yields the origin.
func FromPoint(p geom.Point) core.Point {
	c, ok := p.Coordinates()
	if !ok {
		return core.Point{}
	}
	return core.Pt(int(math.Round(c.XY.X)), int(math.Round(c.XY.Y)))
}
