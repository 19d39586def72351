package config

import "sort"

var Presets = map[string]SolverConfig{
	"default": DefaultSolver(),
	"strict": {
		ToleranceRatio: 1e-6, StallLimit: 50, MaxIterations: 500, FlowRate: DefaultFlowRate,
		FailOnStall: true,
	},
	"patient": {
		ToleranceRatio: DefaultToleranceRatio, StallLimit: 10000, MaxIterations: 0, FlowRate: 1e-4,
	},
	"cascade": {
		ToleranceRatio: DefaultToleranceRatio, StallLimit: DefaultStallLimit, MaxIterations: DefaultMaxIterations,
		FlowRate: DefaultFlowRate, CascadeForces: true,
	},
}

func GetPreset(name string) *SolverConfig {
	preset, ok := Presets[name]
	if !ok {
		return nil
	}
	return &preset
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
