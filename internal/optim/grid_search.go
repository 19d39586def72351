// Package optim searches parameter grids for the construction that minimises
// a metric while keeping other metrics under limits.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/metrics"
)

// ErrNoFeasible is returned when no grid point converged within the limits.
var ErrNoFeasible = errors.New("no feasible parameters")

// BuildFunc returns an unsolved construction for one grid point.
type BuildFunc func(params map[string]float64) (*construction.Construction, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	limits     map[string]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, limits: make(map[string]float64)}
}

// Limit rejects grid points whose metric exceeds limit.
func (g *GridSearch) Limit(metric string, limit float64) *GridSearch {
	g.limits[metric] = limit
	return g
}

// Candidate is one evaluated grid point.
type Candidate struct {
	Params   map[string]float64
	Metrics  map[string]float64
	Feasible bool
	Err      error
}

// Search solves every grid point and returns the feasible one with the
// smallest value of metricName. Points that fail to build, fail to converge
// or break a limit are skipped. All evaluated points are returned in grid
// order.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string, ms ...metrics.Metric) (*Candidate, []Candidate, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, nil, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	if len(ms) == 0 {
		ms = metrics.Standard()
	}
	known := false
	for _, m := range ms {
		known = known || m.Name() == metricName
	}
	if !known {
		return nil, nil, fmt.Errorf("unknown metric %q (available: %v)", metricName, metrics.Names(ms))
	}

	var all []Candidate
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), build, ms, &all); err != nil {
		return nil, all, err
	}

	best := -1
	bestVal := math.Inf(1)
	for i, c := range all {
		if c.Feasible && c.Metrics[metricName] < bestVal {
			best, bestVal = i, c.Metrics[metricName]
		}
	}
	if best < 0 {
		return nil, all, ErrNoFeasible
	}
	return &all[best], all, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build BuildFunc,
	ms []metrics.Metric,
	all *[]Candidate,
) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		*all = append(*all, g.evaluate(current, build, ms))
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, build, ms, all); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(params map[string]float64, build BuildFunc, ms []metrics.Metric) Candidate {
	cand := Candidate{Params: params}

	c, err := build(params)
	if err != nil {
		cand.Err = err
		return cand
	}
	if err := c.Simulate(true); err != nil {
		cand.Err = err
		return cand
	}
	if cand.Metrics, err = metrics.Evaluate(c, ms...); err != nil {
		cand.Err = err
		return cand
	}

	cand.Feasible = c.Report().Converged
	for name, limit := range g.limits {
		if v, ok := cand.Metrics[name]; !ok || v > limit {
			cand.Feasible = false
		}
	}
	return cand
}

// Range returns n evenly spaced values from lo to hi inclusive.
func Range(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
