package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/trussim/internal/construction"
)

const (
	DefaultDataDir        = "./data"
	DefaultToleranceRatio = 1e-3
	DefaultStallLimit     = 1000
	DefaultMaxIterations  = 1000
	DefaultFlowRate       = 1e-3
)

type Config struct {
	DataDir string       `yaml:"data_dir"`
	Solver  SolverConfig `yaml:"solver"`
}

type SolverConfig struct {
	ToleranceRatio float64 `yaml:"tolerance_ratio"`
	StallLimit     int     `yaml:"stall_limit"`
	MaxIterations  int     `yaml:"max_iterations"`
	FlowRate       float64 `yaml:"flow_rate"`
	FailOnStall    bool    `yaml:"fail_on_stall"`
	CascadeForces  bool    `yaml:"cascade_forces"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Solver:  DefaultSolver(),
	}
}

func DefaultSolver() SolverConfig {
	return SolverConfig{
		ToleranceRatio: DefaultToleranceRatio,
		StallLimit:     DefaultStallLimit,
		MaxIterations:  DefaultMaxIterations,
		FlowRate:       DefaultFlowRate,
	}
}

// Load reads a YAML config. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Construction converts the solver section into a construction config.
func (c *Config) Construction() construction.Config {
	return c.Solver.Construction()
}

func (s SolverConfig) Construction() construction.Config {
	cfg := construction.DefaultConfig()
	cfg.ToleranceRatio = s.ToleranceRatio
	cfg.StallLimit = s.StallLimit
	cfg.MaxIterations = s.MaxIterations
	cfg.FlowRate = s.FlowRate
	cfg.FailOnStall = s.FailOnStall
	cfg.CascadeForces = s.CascadeForces
	return cfg
}
