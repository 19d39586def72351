package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DataDir != DefaultDataDir {
		t.Errorf("expected data dir %s, got %s", DefaultDataDir, cfg.DataDir)
	}
	if cfg.Solver.ToleranceRatio <= 0 {
		t.Error("tolerance ratio should be positive")
	}
	if cfg.Solver.StallLimit <= 0 {
		t.Error("stall limit should be positive")
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trussim.yaml")
	data := "data_dir: /tmp/runs\nsolver:\n  fail_on_stall: true\n  stall_limit: 20\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/tmp/runs" {
		t.Errorf("expected /tmp/runs, got %s", cfg.DataDir)
	}
	if !cfg.Solver.FailOnStall || cfg.Solver.StallLimit != 20 {
		t.Errorf("file values not applied: %+v", cfg.Solver)
	}
	if cfg.Solver.FlowRate != DefaultFlowRate || cfg.Solver.MaxIterations != DefaultMaxIterations {
		t.Errorf("defaults lost: %+v", cfg.Solver)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Solver.CascadeForces = true
	cfg.Solver.ToleranceRatio = 1e-5

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, loaded)
	}
}

func TestConstruction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.FailOnStall = true
	cfg.Solver.MaxIterations = 7

	cc := cfg.Construction()
	if !cc.FailOnStall || cc.MaxIterations != 7 {
		t.Errorf("solver settings not carried over: %+v", cc)
	}
	if cc.ToleranceRatio != DefaultToleranceRatio || cc.FlowRate != DefaultFlowRate {
		t.Errorf("unexpected numeric settings: %+v", cc)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("strict")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if !cfg.FailOnStall {
		t.Error("strict preset should fail on stall")
	}

	cfg.StallLimit = 1
	if Presets["strict"].StallLimit == 1 {
		t.Error("GetPreset returned a shared value")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	if presets[0] != "cascade" {
		t.Errorf("expected sorted names, got %v", presets)
	}
}
