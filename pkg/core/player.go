// pkg/core/player.go
package core

// Player is a participant. Players stand on a map square like units do and
// hear sounds emitted there.
type Player struct {
	ID         ID
	Name       string
	LocationID *ID
	Pos        Point
	Wins       int
	Losses     int
}

// Location is a grid map.
type Location struct {
	ID     ID
	Name   string
	Width  int
	Height int
}

// Contains reports whether p lies on the map.
func (l *Location) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < l.Width && p.Y < l.Height
}

// Clamp moves p onto the map.
func (l *Location) Clamp(p Point) Point {
	return Point{
		X: min(max(p.X, 0), max(l.Width-1, 0)),
		Y: min(max(p.Y, 0), max(l.Height-1, 0)),
	}
}
