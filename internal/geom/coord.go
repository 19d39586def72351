// Package geom holds the planar vector type shared by the truss model.
package geom

import "math"

// Coord is a point or a vector in the plane.
type Coord struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (c Coord) Add(o Coord) Coord        { return Coord{c.X + o.X, c.Y + o.Y} }
func (c Coord) Sub(o Coord) Coord        { return Coord{c.X - o.X, c.Y - o.Y} }
func (c Coord) Scale(f float64) Coord    { return Coord{c.X * f, c.Y * f} }
func (c Coord) Norm() float64            { return math.Hypot(c.X, c.Y) }
func (c Coord) Distance(o Coord) float64 { return o.Sub(c).Norm() }

// IsValid reports whether both components are finite.
func (c Coord) IsValid() bool {
	return !math.IsNaN(c.X) && !math.IsNaN(c.Y) && !math.IsInf(c.X, 0) && !math.IsInf(c.Y, 0)
}
