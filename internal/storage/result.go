package storage

import (
	"fmt"
	"math"

	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/geom"
	"github.com/san-kum/trussim/internal/metrics"
)

type NodeResult struct {
	Index  int        `json:"index"`
	Free   bool       `json:"free"`
	Rest   geom.Coord `json:"rest"`
	Solved geom.Coord `json:"solved"`
}

type StickResult struct {
	Index    int     `json:"index"`
	Nodes    [2]int  `json:"nodes"`
	Material string  `json:"material"`
	Area     float64 `json:"area"`
	Length   float64 `json:"length"`
	Strain   float64 `json:"strain"`
	Force    float64 `json:"force"`
}

// Convergence mirrors construction.Report. Non-finite values are left nil
// since JSON cannot carry them.
type Convergence struct {
	Converged  bool      `json:"converged"`
	Iterations int       `json:"iterations"`
	FlowSteps  int       `json:"flow_steps"`
	Error      *float64  `json:"error,omitempty"`
	Tolerance  *float64  `json:"tolerance,omitempty"`
	History    []float64 `json:"history,omitempty"`
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func convergence(r construction.Report) Convergence {
	c := Convergence{
		Converged:  r.Converged,
		Iterations: r.Iterations,
		FlowSteps:  r.FlowSteps,
		Error:      finitePtr(r.Error),
		Tolerance:  finitePtr(r.Tolerance),
	}
	for _, e := range r.History {
		if finitePtr(e) != nil {
			c.History = append(c.History, e)
		}
	}
	return c
}

// summaryKeys are the Summary entries, which metadata.json also carries.
var summaryKeys = []string{"strain_energy", "residual", "volume"}

// Result is a solved construction flattened for persistence.
type Result struct {
	Nodes       []NodeResult  `json:"nodes"`
	Sticks      []StickResult `json:"sticks"`
	Convergence Convergence   `json:"convergence"`
	// Summary holds construction-level measures taken at capture time.
	Summary map[string]float64 `json:"summary,omitempty"`
}

// Capture snapshots a simulating construction.
func Capture(c *construction.Construction) (*Result, error) {
	if !c.Simulation() {
		return nil, construction.ErrNotSimulated
	}

	res := &Result{Convergence: convergence(c.Report())}
	for i := 0; i < c.NodeCount(); i++ {
		rest, err := c.NodeRestCoord(i)
		if err != nil {
			return nil, err
		}
		solved, _ := c.NodeCoord(i)
		free, _ := c.NodeFree(i)
		res.Nodes = append(res.Nodes, NodeResult{Index: i, Free: free, Rest: rest, Solved: solved})
	}

	for i := 0; i < c.StickCount(); i++ {
		nodes, err := c.StickNodes(i)
		if err != nil {
			return nil, err
		}
		sr := StickResult{Index: i, Nodes: nodes}
		sr.Area, _ = c.StickArea(i)
		sr.Length, _ = c.StickLength(i)
		if sr.Strain, err = c.StickStrain(i); err != nil {
			return nil, fmt.Errorf("stick %d: %w", i, err)
		}
		if sr.Force, err = c.StickForce(i); err != nil {
			return nil, fmt.Errorf("stick %d: %w", i, err)
		}
		m, _ := c.StickMaterial(i)
		sr.Material, _ = c.MaterialName(m)
		res.Sticks = append(res.Sticks, sr)
	}

	summary, err := metrics.Evaluate(c, metrics.NewStrainEnergy(), metrics.NewResidual(), metrics.NewVolume())
	if err != nil {
		return nil, err
	}
	res.Summary = make(map[string]float64, len(summary))
	for k, v := range summary {
		if finitePtr(v) != nil {
			res.Summary[k] = v
		}
	}

	return res, nil
}

// Metrics summarises a result for run metadata. Non-finite values are dropped.
func (r *Result) Metrics() map[string]float64 {
	var maxStrain, maxForce, maxDisp float64
	for _, s := range r.Sticks {
		maxStrain = math.Max(maxStrain, math.Abs(s.Strain))
		maxForce = math.Max(maxForce, math.Abs(s.Force))
	}
	for _, n := range r.Nodes {
		maxDisp = math.Max(maxDisp, n.Solved.Distance(n.Rest))
	}

	metrics := map[string]float64{
		"max_strain":       maxStrain,
		"max_force":        maxForce,
		"max_displacement": maxDisp,
		"iterations":       float64(r.Convergence.Iterations),
	}
	if r.Convergence.Error != nil {
		metrics["final_error"] = *r.Convergence.Error
	}
	for k, v := range r.Summary {
		metrics[k] = v
	}
	for k, v := range metrics {
		if finitePtr(v) == nil {
			delete(metrics, k)
		}
	}
	return metrics
}

// Geometry flattens the rest geometry of c without solving. Solved positions
// equal rest positions and stick strains and forces are zero.
func Geometry(c *construction.Construction) *Result {
	res := &Result{}
	for i := 0; i < c.NodeCount(); i++ {
		rest, _ := c.NodeRestCoord(i)
		free, _ := c.NodeFree(i)
		res.Nodes = append(res.Nodes, NodeResult{Index: i, Free: free, Rest: rest, Solved: rest})
	}
	for i := 0; i < c.StickCount(); i++ {
		nodes, _ := c.StickNodes(i)
		sr := StickResult{Index: i, Nodes: nodes}
		sr.Area, _ = c.StickArea(i)
		sr.Length = res.Nodes[nodes[0]].Rest.Distance(res.Nodes[nodes[1]].Rest)
		if m, _ := c.StickMaterial(i); m != construction.NoMaterial {
			sr.Material, _ = c.MaterialName(m)
		}
		res.Sticks = append(res.Sticks, sr)
	}
	return res
}
