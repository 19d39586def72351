package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/geom"
)

func barWithArea(params map[string]float64) (*construction.Construction, error) {
	c := construction.New(construction.DefaultConfig())
	c.CreateNode(geom.Coord{}, false)
	c.CreateNode(geom.Coord{X: 1}, true)
	m, _ := c.CreateLinearMaterial("steel", 100)
	if _, err := c.CreateStick([2]int{0, 1}, m, params["area"]); err != nil {
		return nil, err
	}
	c.CreateForce(1, geom.Coord{X: 1})
	return c, nil
}

func TestGridSearchPicksLightestFeasible(t *testing.T) {
	g := NewGridSearch([]string{"area"}, [][]float64{{0.5, 1, 2, 4}}).Limit("max_strain", 0.012)

	best, all, err := g.Search(context.Background(), barWithArea, "volume")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(all))
	}
	if best.Params["area"] != 1 {
		t.Errorf("expected area 1, got %v", best.Params["area"])
	}
	if all[0].Feasible {
		t.Error("area 0.5 strains 0.02 and should break the limit")
	}
	if math.Abs(best.Metrics["volume"]-1) > 1e-12 {
		t.Errorf("expected volume 1, got %v", best.Metrics["volume"])
	}
}

func TestGridSearchSkipsBuildErrors(t *testing.T) {
	g := NewGridSearch([]string{"area"}, [][]float64{{-1, 2}})

	best, all, err := g.Search(context.Background(), barWithArea, "volume")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if all[0].Err == nil || all[0].Feasible {
		t.Errorf("negative area should fail to build, got %+v", all[0])
	}
	if best.Params["area"] != 2 {
		t.Errorf("expected area 2, got %v", best.Params["area"])
	}
}

func TestGridSearchNoFeasible(t *testing.T) {
	g := NewGridSearch([]string{"area"}, [][]float64{{1, 2}}).Limit("max_strain", 1e-4)

	_, all, err := g.Search(context.Background(), barWithArea, "volume")
	if !errors.Is(err, ErrNoFeasible) {
		t.Errorf("expected ErrNoFeasible, got %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(all))
	}
}

func TestGridSearchUnknownMetric(t *testing.T) {
	g := NewGridSearch([]string{"area"}, [][]float64{{1}})
	if _, _, err := g.Search(context.Background(), barWithArea, "mass"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestGridSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{"area"}, [][]float64{{1, 2}})
	if _, _, err := g.Search(ctx, barWithArea, "volume"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGridSearchTwoParameters(t *testing.T) {
	build := func(params map[string]float64) (*construction.Construction, error) {
		return barWithArea(map[string]float64{"area": params["a"] * params["b"]})
	}
	g := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2}, {0.5, 3}}).Limit("max_strain", 0.012)

	best, all, err := g.Search(context.Background(), build, "volume")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(all))
	}
	if best.Params["a"] != 2 || best.Params["b"] != 0.5 {
		t.Errorf("expected a=2 b=0.5, got %v", best.Params)
	}
}

func TestRange(t *testing.T) {
	got := Range(1, 2, 3)
	want := []float64{1, 1.5, 2}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
	if r := Range(3, 5, 1); len(r) != 1 || r[0] != 3 {
		t.Errorf("expected [3], got %v", r)
	}
}
