// Package indexer lays out the solver's unknowns and equations.
//
// Every free node owns two state variables (x, y) and two force-balance
// equations (fx, fy). The layout interleaves them by free-node ordinal.
package indexer

// Indexer maps a free-node ordinal to offsets in the state vector and in the
// rows of the Jacobian.
type Indexer struct {
	free   int
	sticks int
}

// New returns the layout for free free nodes. The stick count does not affect
// sizing and is kept for diagnostics only.
func New(free, sticks int) Indexer {
	return Indexer{free: free, sticks: sticks}
}

func (r Indexer) FreeCount() int  { return r.free }
func (r Indexer) StickCount() int { return r.sticks }

func (r Indexer) VariableCount() int { return 2 * r.free }
func (r Indexer) EquationCount() int { return 2 * r.free }

func (r Indexer) VariableX(i int) int  { return 2 * i }
func (r Indexer) VariableY(i int) int  { return 2*i + 1 }
func (r Indexer) EquationFX(i int) int { return 2 * i }
func (r Indexer) EquationFY(i int) int { return 2*i + 1 }
