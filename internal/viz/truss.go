package viz

import (
	"math"

	"github.com/san-kum/trussim/internal/geom"
	"github.com/san-kum/trussim/internal/storage"
)

// Viewport maps construction coordinates onto a canvas, y pointing up.
type Viewport struct {
	Min, Max geom.Coord
	W, H     int
}

// Fit returns a viewport covering every rest and solved node position with a
// margin. Both axes share one scale so shapes are not distorted.
func Fit(res *storage.Result, w, h int) Viewport {
	if len(res.Nodes) == 0 {
		return Viewport{Min: geom.Coord{X: -1, Y: -1}, Max: geom.Coord{X: 1, Y: 1}, W: w, H: h}
	}
	lo := res.Nodes[0].Rest
	hi := lo
	grow := func(p geom.Coord) {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	for _, n := range res.Nodes {
		grow(n.Rest)
		grow(n.Solved)
	}

	span := math.Max(hi.X-lo.X, hi.Y-lo.Y)
	if span == 0 {
		span = 1
	}
	pad := span * 0.1
	center := lo.Add(hi).Scale(0.5)

	// Terminal dots are roughly square, so keep the canvas aspect ratio.
	aspect := float64(w) / float64(h)
	halfX, halfY := span/2+pad, span/2+pad
	if aspect > 1 {
		halfX *= aspect
	} else {
		halfY /= aspect
	}
	return Viewport{
		Min: geom.Coord{X: center.X - halfX, Y: center.Y - halfY},
		Max: geom.Coord{X: center.X + halfX, Y: center.Y + halfY},
		W:   w,
		H:   h,
	}
}

// Project returns the sub-pixel position of p.
func (v Viewport) Project(p geom.Coord) (int, int) {
	x := (p.X - v.Min.X) / (v.Max.X - v.Min.X) * float64(v.W-1)
	y := (v.Max.Y - p.Y) / (v.Max.Y - v.Min.Y) * float64(v.H-1)
	return int(math.Round(x)), int(math.Round(y))
}

// Layer selects which geometry Render draws.
type Layer int

const (
	LayerSolved Layer = 1 << iota
	LayerRest
)

// Render draws the result on a new canvas of w by h cells. Fixed nodes are
// marked with a cross.
func Render(res *storage.Result, w, h int, layers Layer) *Canvas {
	c := NewCanvas(w, h)
	dw, dh := c.Dots()
	v := Fit(res, dw, dh)
	Draw(c, v, res, layers)
	return c
}

func Draw(c *Canvas, v Viewport, res *storage.Result, layers Layer) {
	pos := func(n storage.NodeResult, l Layer) geom.Coord {
		if l == LayerRest {
			return n.Rest
		}
		return n.Solved
	}

	for _, l := range []Layer{LayerRest, LayerSolved} {
		if layers&l == 0 {
			continue
		}
		for _, s := range res.Sticks {
			if s.Nodes[0] >= len(res.Nodes) || s.Nodes[1] >= len(res.Nodes) {
				continue
			}
			x0, y0 := v.Project(pos(res.Nodes[s.Nodes[0]], l))
			x1, y1 := v.Project(pos(res.Nodes[s.Nodes[1]], l))
			c.DrawLine(x0, y0, x1, y1)
		}
	}

	for _, n := range res.Nodes {
		if !n.Free {
			x, y := v.Project(n.Rest)
			c.DrawCross(x, y, 1)
		}
	}
}
