package construction

import (
	"errors"
	"fmt"
)

// Domain errors for construction operations.
var (
	// ErrInvalidState indicates a structural change attempted while simulating.
	ErrInvalidState = errors.New("construction: cannot modify while simulating")

	// ErrInvalidArgument indicates an out-of-range index or an invalid value.
	ErrInvalidArgument = errors.New("construction: invalid argument")

	// ErrNotSimulated indicates a strain or force query without an active simulation.
	ErrNotSimulated = errors.New("construction: simulation is not active")

	// ErrIO indicates a file that cannot be opened in the requested mode.
	ErrIO = errors.New("construction: file cannot be opened")

	// ErrBadFormat indicates a file that is not a valid construction.
	ErrBadFormat = errors.New("construction: invalid file format")

	// ErrDidNotConverge indicates the solver gave up without reaching tolerance.
	ErrDidNotConverge = errors.New("construction: simulation does not converge")
)

// SolveError wraps a solver failure with the iteration it happened at.
type SolveError struct {
	Iteration int
	Residual  float64
	Tolerance float64
	Wrapped   error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%v (iteration %d, error %.6g, tolerance %.6g)", e.Wrapped, e.Iteration, e.Residual, e.Tolerance)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}
