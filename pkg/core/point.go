// pkg/core/point.go
package core

import "fmt"

// ID identifies a stored record. Zero means "not yet saved".
type ID uint

// Point is a square on a grid map.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Chebyshev distance between two points, which is the
// number of moves needed when diagonal steps are allowed.
func (p Point) Distance(q Point) int {
	return max(abs(p.X-q.X), abs(p.Y-q.Y))
}

// StepTowards returns the point one move closer to t. Each axis changes by
// at most one.
func (p Point) StepTowards(t Point) Point {
	return Point{X: p.X + sign(t.X-p.X), Y: p.Y + sign(t.Y-p.Y)}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
