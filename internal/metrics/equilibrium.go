package metrics

import (
	"math"

	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/geom"
)

// Residual is the largest net force left on a free node of the solved
// geometry. It is zero at exact equilibrium.
type Residual struct{ peak }

func NewResidual() *Residual {
	return &Residual{peak{name: "residual"}}
}

func (r *Residual) Observe(c *construction.Construction) error {
	net := make([]geom.Coord, c.NodeCount())

	for i := 0; i < c.ForceCount(); i++ {
		n, _ := c.ForceNode(i)
		d, _ := c.ForceDirection(i)
		net[n] = net[n].Add(d)
	}

	for i := 0; i < c.StickCount(); i++ {
		f, err := c.StickForce(i)
		if err != nil {
			return err
		}
		nodes, _ := c.StickNodes(i)
		a, _ := c.NodeCoord(nodes[0])
		b, _ := c.NodeCoord(nodes[1])
		d := b.Sub(a)
		u := d.Scale(1 / d.Norm())
		net[nodes[0]] = net[nodes[0]].Add(u.Scale(f))
		net[nodes[1]] = net[nodes[1]].Sub(u.Scale(f))
	}

	worst := 0.0
	for i, v := range net {
		if free, _ := c.NodeFree(i); free {
			worst = math.Max(worst, v.Norm())
		}
	}
	r.record(worst)
	return nil
}

// Volume is the material volume of the rest geometry, the sum of area times
// rest length. It does not need a solved construction.
type Volume struct{ peak }

func NewVolume() *Volume {
	return &Volume{peak{name: "volume"}}
}

func (v *Volume) Observe(c *construction.Construction) error {
	total := 0.0
	for i := 0; i < c.StickCount(); i++ {
		area, err := c.StickArea(i)
		if err != nil {
			return err
		}
		total += area * restLength(c, i)
	}
	v.record(total)
	return nil
}
