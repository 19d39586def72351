package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/geom"
)

func solvedBar(t *testing.T, load float64) *construction.Construction {
	t.Helper()
	c := construction.New(construction.DefaultConfig())
	c.CreateNode(geom.Coord{}, false)
	c.CreateNode(geom.Coord{X: 1}, true)
	m, _ := c.CreateLinearMaterial("steel", 100)
	if _, err := c.CreateStick([2]int{0, 1}, m, 2); err != nil {
		t.Fatalf("create stick: %v", err)
	}
	c.CreateForce(1, geom.Coord{X: load})
	if err := c.Simulate(true); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	return c
}

func TestEvaluate(t *testing.T) {
	c := solvedBar(t, 1)
	got, err := Evaluate(c, Standard()...)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// A*E*strain = F with A=2, E=100.
	strain := 1.0 / 200
	tests := []struct {
		name string
		want float64
		tol  float64
	}{
		{"max_strain", strain, 1e-5},
		{"strain_energy", 2 * 100 * strain * strain / 2, 1e-5},
		{"volume", 2, 1e-12},
		{"residual", 0, 1e-3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := got[tt.name]
			if !ok {
				t.Fatalf("metric %s missing", tt.name)
			}
			if math.Abs(v-tt.want) > tt.tol {
				t.Errorf("expected %g, got %g", tt.want, v)
			}
		})
	}
}

func TestPeakAcrossObservations(t *testing.T) {
	m := NewMaxStrain()
	if err := m.Observe(solvedBar(t, 1)); err != nil {
		t.Fatal(err)
	}
	if err := m.Observe(solvedBar(t, 2)); err != nil {
		t.Fatal(err)
	}
	if err := m.Observe(solvedBar(t, 1)); err != nil {
		t.Fatal(err)
	}
	if math.Abs(m.Value()-0.01) > 1e-5 {
		t.Errorf("expected peak strain 0.01, got %g", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %g", m.Value())
	}
}

func TestObserveUnsolved(t *testing.T) {
	c := construction.New(construction.DefaultConfig())
	c.CreateNode(geom.Coord{}, false)
	c.CreateNode(geom.Coord{X: 3, Y: 4}, true)
	m, _ := c.CreateLinearMaterial("steel", 100)
	c.CreateStick([2]int{0, 1}, m, 0.5)

	if err := NewMaxStrain().Observe(c); !errors.Is(err, construction.ErrNotSimulated) {
		t.Errorf("expected ErrNotSimulated, got %v", err)
	}

	v := NewVolume()
	if err := v.Observe(c); err != nil {
		t.Fatalf("volume: %v", err)
	}
	if math.Abs(v.Value()-2.5) > 1e-12 {
		t.Errorf("expected volume 2.5, got %g", v.Value())
	}
}

func TestIntegrate(t *testing.T) {
	cubic := func(s float64) float64 { return s + s*s*s }
	tests := []struct {
		b    float64
		want float64
	}{
		{0, 0},
		{0.5, 0.5*0.5/2 + math.Pow(0.5, 4)/4},
		{-0.2, 0.04/2 + 0.0016/4},
	}
	for _, tt := range tests {
		got := integrate(cubic, tt.b)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("integrate(%g): expected %g, got %g", tt.b, tt.want, got)
		}
	}
}

func TestNames(t *testing.T) {
	got := Names(Standard())
	want := []string{"max_strain", "residual", "strain_energy", "volume"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}
