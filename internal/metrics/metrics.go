// Package metrics measures solved constructions. A Metric observes one or
// more solved states and reports the peak value it has seen, so the same
// metric can follow a construction through a load sweep.
package metrics

import (
	"math"
	"sort"

	"github.com/san-kum/trussim/internal/construction"
)

type Metric interface {
	Name() string
	Observe(c *construction.Construction) error
	Value() float64
	Reset()
}

// Standard returns fresh instances of every metric in this package.
func Standard() []Metric {
	return []Metric{
		NewMaxStrain(),
		NewStrainEnergy(),
		NewResidual(),
		NewVolume(),
	}
}

// Evaluate resets ms, observes c once and returns the values by name.
func Evaluate(c *construction.Construction, ms ...Metric) (map[string]float64, error) {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		if err := m.Observe(c); err != nil {
			return nil, err
		}
		out[m.Name()] = m.Value()
	}
	return out, nil
}

// Names lists metric names in sorted order.
func Names(ms []Metric) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name()
	}
	sort.Strings(names)
	return names
}

// peak keeps the largest finite observation.
type peak struct {
	name    string
	value   float64
	samples int
}

func (p *peak) Name() string { return p.name }

func (p *peak) record(v float64) {
	if math.IsNaN(v) {
		return
	}
	if p.samples == 0 || v > p.value {
		p.value = v
	}
	p.samples++
}

func (p *peak) Value() float64 { return p.value }

func (p *peak) Reset() {
	p.value = 0
	p.samples = 0
}
