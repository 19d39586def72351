package export

import (
	"strings"
	"testing"

	"github.com/san-kum/trussim/internal/geom"
	"github.com/san-kum/trussim/internal/storage"
	"github.com/san-kum/trussim/internal/viz"
)

func bar() *storage.Result {
	return &storage.Result{
		Nodes: []storage.NodeResult{
			{Index: 0, Rest: geom.Coord{}, Solved: geom.Coord{}},
			{Index: 1, Free: true, Rest: geom.Coord{X: 1}, Solved: geom.Coord{X: 1.1}},
		},
		Sticks: []storage.StickResult{{Index: 0, Nodes: [2]int{0, 1}, Area: 1, Strain: 0.1, Force: 10}},
	}
}

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 2) != "" {
		t.Error("expected empty output for nil canvas")
	}

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Error("malformed svg document")
	}
}

func TestResultToSVG(t *testing.T) {
	svg := ResultToSVG(bar(), DefaultOptions())

	if got := strings.Count(svg, "<line"); got != 2 {
		t.Errorf("expected rest and solved lines, got %d", got)
	}
	if !strings.Contains(svg, "stroke-dasharray") {
		t.Error("rest geometry should be dashed")
	}
	if !strings.Contains(svg, `stroke="#ff0000"`) {
		t.Error("the most strained stick should be fully red")
	}
	if !strings.Contains(svg, "<path") || !strings.Contains(svg, "<circle") {
		t.Error("expected a support and a free node marker")
	}
}

func TestResultToSVGSolvedOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.Layers = viz.LayerSolved
	opts.StrainColors = false
	svg := ResultToSVG(bar(), opts)

	if strings.Contains(svg, "stroke-dasharray") {
		t.Error("rest layer should be omitted")
	}
	if !strings.Contains(svg, `stroke="#00ccff"`) {
		t.Error("expected the plain stroke color")
	}
}

func TestStrainColor(t *testing.T) {
	tests := []struct {
		strain, max float64
		want        string
	}{
		{0, 1, "#ffffff"},
		{1, 1, "#ff0000"},
		{-1, 1, "#0000ff"},
		{0.5, 0, "#ffffff"},
	}
	for _, tt := range tests {
		if got := strainColor(tt.strain, tt.max); got != tt.want {
			t.Errorf("strainColor(%v, %v) = %s, want %s", tt.strain, tt.max, got, tt.want)
		}
	}
}
