package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/geom"
)

func solvedBar(t *testing.T) *construction.Construction {
	t.Helper()
	c := construction.New(construction.DefaultConfig())
	c.CreateNode(geom.Coord{}, false)
	c.CreateNode(geom.Coord{X: 1}, true)
	m, _ := c.CreateLinearMaterial("steel", 100)
	if _, err := c.CreateStick([2]int{0, 1}, m, 1); err != nil {
		t.Fatalf("create stick: %v", err)
	}
	c.CreateForce(1, geom.Coord{X: 1})
	if err := c.Simulate(true); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	return c
}

func TestCapture(t *testing.T) {
	c := solvedBar(t)
	res, err := Capture(c)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	if len(res.Nodes) != 2 || len(res.Sticks) != 1 {
		t.Fatalf("expected 2 nodes and 1 stick, got %d and %d", len(res.Nodes), len(res.Sticks))
	}
	if math.Abs(res.Sticks[0].Strain-0.01) > 1e-5 {
		t.Errorf("expected strain 0.01, got %f", res.Sticks[0].Strain)
	}
	if res.Sticks[0].Material != "steel" {
		t.Errorf("expected material steel, got %s", res.Sticks[0].Material)
	}
	if !res.Convergence.Converged || res.Convergence.Tolerance == nil {
		t.Errorf("unexpected convergence %+v", res.Convergence)
	}
	if math.Abs(res.Summary["volume"]-1) > 1e-12 {
		t.Errorf("expected volume 1, got %v", res.Summary["volume"])
	}
	if _, ok := res.Metrics()["strain_energy"]; !ok {
		t.Error("expected strain_energy in metrics")
	}

	c.Simulate(false)
	if _, err := Capture(c); !errors.Is(err, construction.ErrNotSimulated) {
		t.Errorf("expected ErrNotSimulated, got %v", err)
	}
}

func TestCaptureWithoutForces(t *testing.T) {
	c := construction.New(construction.DefaultConfig())
	c.CreateNode(geom.Coord{}, true)
	c.Simulate(true)

	res, err := Capture(c)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if res.Convergence.Tolerance != nil {
		t.Errorf("infinite tolerance should be omitted, got %v", *res.Convergence.Tolerance)
	}

	st := New(t.TempDir())
	if _, err := st.Save("empty", "", c.Config(), res); err != nil {
		t.Fatalf("save failed: %v", err)
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	c := solvedBar(t)
	res, err := Capture(c)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	runID, err := st.Save("bar", "bar.p6", c.Config(), res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Name != "bar" || meta.Source != "bar.p6" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Solver.StallLimit != construction.DefaultConfig().StallLimit {
		t.Errorf("expected stall limit %d, got %d", construction.DefaultConfig().StallLimit, meta.Solver.StallLimit)
	}
	if math.Abs(meta.Metrics["max_strain"]-0.01) > 1e-5 {
		t.Errorf("expected max strain 0.01, got %f", meta.Metrics["max_strain"])
	}

	_, loaded, err := st.LoadResult(runID)
	if err != nil {
		t.Fatalf("load result failed: %v", err)
	}
	if len(loaded.Nodes) != 2 || len(loaded.Sticks) != 1 {
		t.Fatalf("expected 2 nodes and 1 stick, got %d and %d", len(loaded.Nodes), len(loaded.Sticks))
	}
	if math.Abs(loaded.Summary["volume"]-1) > 1e-12 {
		t.Errorf("expected volume 1 after reload, got %v", loaded.Summary["volume"])
	}
	if loaded.Nodes[1] != res.Nodes[1] {
		t.Errorf("node round trip: expected %+v, got %+v", res.Nodes[1], loaded.Nodes[1])
	}
	if loaded.Sticks[0] != res.Sticks[0] {
		t.Errorf("stick round trip: expected %+v, got %+v", res.Sticks[0], loaded.Sticks[0])
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	res, _ := Capture(solvedBar(t))
	for _, name := range []string{"first", "second"} {
		if _, err := st.Save(name, "", construction.DefaultConfig(), res); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "stray"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Name != "first" {
		t.Errorf("expected oldest run first, got %s", runs[0].Name)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	res, _ := Capture(solvedBar(t))
	runID, err := st.Save("bar", "", construction.DefaultConfig(), res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "nodes.csv", "sticks.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	res, _ := Capture(solvedBar(t))
	runID, err := st.Save("bar", "", construction.DefaultConfig(), res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	meta, loaded, err := st.LoadResult(runID)
	if err != nil {
		t.Fatalf("load result failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "bar.json")
	if err := ExportJSON(path, meta, loaded); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var decoded ExportData
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Run.ID != runID || len(decoded.Sticks) != 1 {
		t.Errorf("unexpected export %+v", decoded.Run)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, meta, loaded); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Error("file and stream exports differ")
	}
}

func TestGeometry(t *testing.T) {
	c := construction.New(construction.DefaultConfig())
	c.CreateNode(geom.Coord{}, false)
	c.CreateNode(geom.Coord{X: 3, Y: 4}, true)
	c.CreateStick([2]int{0, 1}, construction.NoMaterial, 1)

	res := Geometry(c)
	if len(res.Nodes) != 2 || len(res.Sticks) != 1 {
		t.Fatalf("expected 2 nodes and 1 stick, got %d and %d", len(res.Nodes), len(res.Sticks))
	}
	if res.Sticks[0].Length != 5 {
		t.Errorf("expected length 5, got %f", res.Sticks[0].Length)
	}
	if res.Sticks[0].Material != "" {
		t.Errorf("expected no material, got %q", res.Sticks[0].Material)
	}
	if res.Nodes[1].Solved != res.Nodes[1].Rest {
		t.Error("solved position should equal rest position")
	}
}
