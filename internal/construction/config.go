package construction

import (
	"fmt"
	"log/slog"
)

// Config controls the equilibrium solver and a few structural policies.
type Config struct {
	// ToleranceRatio scales the smallest applied force magnitude into the
	// residual tolerance.
	ToleranceRatio float64
	// StallLimit is the number of consecutive iterations without a smaller
	// residual after which the solver stops.
	StallLimit int
	// MaxIterations caps the total iteration count. Zero means no cap.
	MaxIterations int
	// FlowRate scales the fallback step taken when the Newton step is unusable.
	FlowRate float64
	// FailOnStall makes a stalled solve return ErrDidNotConverge instead of
	// silently accepting the last iterate.
	FailOnStall bool
	// CascadeForces makes DeleteNode also delete forces on that node and
	// renumber the remaining forces.
	CascadeForces bool
	// Logger receives per-iteration solver diagnostics at debug level.
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		ToleranceRatio: 1e-3,
		StallLimit:     1000,
		MaxIterations:  1000,
		FlowRate:       1e-3,
	}
}

func validateConfig(cfg Config) error {
	if cfg.ToleranceRatio <= 0 {
		return fmt.Errorf("tolerance ratio must be positive, got %g", cfg.ToleranceRatio)
	}
	if cfg.StallLimit <= 0 {
		return fmt.Errorf("stall limit must be positive, got %d", cfg.StallLimit)
	}
	if cfg.MaxIterations < 0 {
		return fmt.Errorf("max iterations must not be negative, got %d", cfg.MaxIterations)
	}
	if cfg.FlowRate <= 0 {
		return fmt.Errorf("flow rate must be positive, got %g", cfg.FlowRate)
	}
	return nil
}
