package metrics

import (
	"math"

	"github.com/san-kum/trussim/internal/construction"
)

// MaxStrain is the largest absolute stick strain.
type MaxStrain struct{ peak }

func NewMaxStrain() *MaxStrain {
	return &MaxStrain{peak{name: "max_strain"}}
}

func (m *MaxStrain) Observe(c *construction.Construction) error {
	worst := 0.0
	for i := 0; i < c.StickCount(); i++ {
		strain, err := c.StickStrain(i)
		if err != nil {
			return err
		}
		worst = math.Max(worst, math.Abs(strain))
	}
	m.record(worst)
	return nil
}

// simpsonSteps is the number of intervals used to integrate stress over strain.
const simpsonSteps = 64

// StrainEnergy is the elastic energy stored in the sticks: for each stick,
// area times rest length times the integral of stress from zero to its strain.
type StrainEnergy struct{ peak }

func NewStrainEnergy() *StrainEnergy {
	return &StrainEnergy{peak{name: "strain_energy"}}
}

func (e *StrainEnergy) Observe(c *construction.Construction) error {
	total := 0.0
	for i := 0; i < c.StickCount(); i++ {
		mi, err := c.StickMaterial(i)
		if err != nil {
			return err
		}
		if mi == construction.NoMaterial {
			continue
		}
		m, err := c.Material(mi)
		if err != nil {
			return err
		}
		strain, err := c.StickStrain(i)
		if err != nil {
			return err
		}
		area, _ := c.StickArea(i)
		total += area * restLength(c, i) * integrate(m.Stress, strain)
	}
	e.record(total)
	return nil
}

// integrate applies Simpson's rule to f over [0, b].
func integrate(f func(float64) float64, b float64) float64 {
	if b == 0 {
		return 0
	}
	h := b / simpsonSteps
	sum := f(0) + f(b)
	for k := 1; k < simpsonSteps; k++ {
		w := 2.0
		if k%2 == 1 {
			w = 4
		}
		sum += w * f(float64(k)*h)
	}
	return sum * h / 3
}

func restLength(c *construction.Construction, i int) float64 {
	nodes, _ := c.StickNodes(i)
	a, _ := c.NodeRestCoord(nodes[0])
	b, _ := c.NodeRestCoord(nodes[1])
	return a.Distance(b)
}
