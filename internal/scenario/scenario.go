// Package scenario reads and writes constructions as YAML text, so exact
// coordinates, areas and loads can be edited by hand.
package scenario

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/geom"
	"github.com/san-kum/trussim/internal/material"
)

// Scenario is the text form of a construction.
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Materials   []Material `yaml:"materials"`
	Nodes       []Node     `yaml:"nodes"`
	Sticks      []Stick    `yaml:"sticks"`
	Forces      []Force    `yaml:"forces"`
}

// Material sets exactly one of Modulus or Formula.
type Material struct {
	Name    string   `yaml:"name"`
	Modulus *float64 `yaml:"modulus,omitempty"`
	Formula string   `yaml:"formula,omitempty"`
}

type Node struct {
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Free bool    `yaml:"free"`
}

// Stick names its material; an empty name leaves the stick without one.
type Stick struct {
	Nodes    [2]int  `yaml:"nodes,flow"`
	Material string  `yaml:"material,omitempty"`
	Area     float64 `yaml:"area"`
}

type Force struct {
	Node int     `yaml:"node"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

func SaveScenario(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Build creates a construction from the scenario. Entities keep the order in
// which they are listed, so indices in the file are construction indices.
func Build(s *Scenario, cfg construction.Config) (*construction.Construction, error) {
	c := construction.New(cfg)

	for i, m := range s.Materials {
		var err error
		switch {
		case m.Modulus != nil && m.Formula != "":
			err = fmt.Errorf("both modulus and formula set")
		case m.Modulus != nil:
			_, err = c.CreateLinearMaterial(m.Name, *m.Modulus)
		case m.Formula != "":
			_, err = c.CreateNonlinearMaterial(m.Name, m.Formula)
		default:
			err = fmt.Errorf("neither modulus nor formula set")
		}
		if err != nil {
			return nil, fmt.Errorf("material %d (%s): %w", i, m.Name, err)
		}
	}

	for i, n := range s.Nodes {
		if _, err := c.CreateNode(geom.Coord{X: n.X, Y: n.Y}, n.Free); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
	}

	for i, st := range s.Sticks {
		mat := construction.NoMaterial
		if st.Material != "" {
			if mat = c.FindMaterial(st.Material); mat == construction.NoMaterial {
				return nil, fmt.Errorf("stick %d: unknown material %q", i, st.Material)
			}
		}
		if _, err := c.CreateStick(st.Nodes, mat, st.Area); err != nil {
			return nil, fmt.Errorf("stick %d: %w", i, err)
		}
	}

	for i, f := range s.Forces {
		if _, err := c.CreateForce(f.Node, geom.Coord{X: f.X, Y: f.Y}); err != nil {
			return nil, fmt.Errorf("force %d: %w", i, err)
		}
	}

	return c, nil
}

// Dump describes the rest geometry of c.
func Dump(c *construction.Construction, name string) (*Scenario, error) {
	s := &Scenario{Name: name}

	for i := 0; i < c.MaterialCount(); i++ {
		m := Material{}
		m.Name, _ = c.MaterialName(i)
		typ, err := c.MaterialType(i)
		if err != nil {
			return nil, err
		}
		if typ == material.Linear {
			modulus, _ := c.MaterialModulus(i)
			m.Modulus = &modulus
		} else {
			m.Formula, _ = c.MaterialFormula(i)
		}
		s.Materials = append(s.Materials, m)
	}

	for i := 0; i < c.NodeCount(); i++ {
		p, err := c.NodeRestCoord(i)
		if err != nil {
			return nil, err
		}
		free, _ := c.NodeFree(i)
		s.Nodes = append(s.Nodes, Node{X: p.X, Y: p.Y, Free: free})
	}

	for i := 0; i < c.StickCount(); i++ {
		nodes, err := c.StickNodes(i)
		if err != nil {
			return nil, err
		}
		st := Stick{Nodes: nodes}
		st.Area, _ = c.StickArea(i)
		if m, _ := c.StickMaterial(i); m != construction.NoMaterial {
			st.Material, _ = c.MaterialName(m)
		}
		s.Sticks = append(s.Sticks, st)
	}

	for i := 0; i < c.ForceCount(); i++ {
		n, err := c.ForceNode(i)
		if err != nil {
			return nil, err
		}
		d, _ := c.ForceDirection(i)
		s.Forces = append(s.Forces, Force{Node: n, X: d.X, Y: d.Y})
	}

	return s, nil
}

// ScaleLoads returns a copy of s with every force multiplied by factor.
func ScaleLoads(s *Scenario, factor float64) *Scenario {
	scaled := *s
	scaled.Forces = make([]Force, len(s.Forces))
	for i, f := range s.Forces {
		scaled.Forces[i] = Force{Node: f.Node, X: f.X * factor, Y: f.Y * factor}
	}
	return &scaled
}

// ScaleAreas returns a copy of s with every stick area multiplied by factor.
func ScaleAreas(s *Scenario, factor float64) *Scenario {
	scaled := *s
	scaled.Sticks = make([]Stick, len(s.Sticks))
	for i, st := range s.Sticks {
		st.Area *= factor
		scaled.Sticks[i] = st
	}
	return &scaled
}

// LoadSweep scales every force of a scenario between MinFactor and MaxFactor.
type LoadSweep struct {
	MinFactor float64
	MaxFactor float64
	NumSteps  int
}

// SweepResult holds the outcome of one load factor.
type SweepResult struct {
	Factor    float64
	Converged bool
	Report    construction.Report
	MaxStrain float64
	MaxForce  float64
}

// RunSweep builds and solves the scenario once per load factor.
func RunSweep(ctx context.Context, s *Scenario, sweep LoadSweep, cfg construction.Config) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	step := 0.0
	if sweep.NumSteps > 1 {
		step = (sweep.MaxFactor - sweep.MinFactor) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		factor := sweep.MinFactor + float64(i)*step

		c, err := Build(ScaleLoads(s, factor), cfg)
		if err != nil {
			return results, fmt.Errorf("factor %g: %w", factor, err)
		}
		if err := c.Simulate(true); err != nil {
			return results, fmt.Errorf("factor %g: %w", factor, err)
		}

		r := SweepResult{Factor: factor, Report: c.Report(), Converged: c.Report().Converged}
		for j := 0; j < c.StickCount(); j++ {
			strain, _ := c.StickStrain(j)
			force, _ := c.StickForce(j)
			r.MaxStrain = math.Max(r.MaxStrain, math.Abs(strain))
			r.MaxForce = math.Max(r.MaxForce, math.Abs(force))
		}
		results = append(results, r)
	}

	return results, nil
}
