package construction

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trussim/internal/geom"
	"github.com/san-kum/trussim/internal/indexer"
)

// Report describes the outcome of the last Simulate(true).
type Report struct {
	Iterations int
	Error      float64
	Tolerance  float64
	Converged  bool
	FlowSteps  int
	History    []float64
}

// Report returns the outcome of the last solve. A simulation can be active
// without having converged; check Converged.
func (c *Construction) Report() Report { return c.report }

// Simulate switches between rest geometry and solved geometry. Turning it on
// runs the equilibrium solver; turning it on twice is a no-op.
//
// The solver stops silently when it stalls unless Config.FailOnStall is set, in
// which case a *SolveError wrapping ErrDidNotConverge is returned and the
// simulation stays off.
func (c *Construction) Simulate(on bool) error {
	if on == c.simulation {
		return nil
	}
	if !on {
		c.simulation = false
		return nil
	}

	if err := validateConfig(c.cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := c.validateForSolve(); err != nil {
		return err
	}

	report, err := c.solve()
	c.report = report
	if err != nil {
		return err
	}
	c.simulation = true
	return nil
}

func (c *Construction) validateForSolve() error {
	for i, s := range c.sticks {
		if s.material == NoMaterial {
			return invalidArg("stick %d has no material", i)
		}
		if s.material < 0 || s.material >= len(c.materials) {
			return invalidArg("stick %d references missing material %d", i, s.material)
		}
		if c.restLength(i) == 0 {
			return invalidArg("stick %d has zero rest length", i)
		}
	}
	for i, f := range c.forces {
		if f.node < 0 || f.node >= len(c.nodes) {
			return invalidArg("force %d references missing node %d", i, f.node)
		}
	}
	return nil
}

// tolerance is the smallest applied force magnitude scaled by ToleranceRatio,
// or +Inf without forces.
func (c *Construction) tolerance() float64 {
	minForce := math.Inf(1)
	for _, f := range c.forces {
		minForce = math.Min(minForce, f.direction.Norm())
	}
	return minForce * c.cfg.ToleranceRatio
}

// solver holds the per-solve scratch state.
type solver struct {
	c          *Construction
	r          indexer.Indexer
	rest       []float64
	nodeToFree []int
	s, z, m    *mat.VecDense
	d          *mat.Dense
}

func (c *Construction) solve() (Report, error) {
	rest := make([]float64, len(c.sticks))
	for i := range c.sticks {
		rest[i] = c.restLength(i)
	}

	var freeToNode []int
	nodeToFree := make([]int, len(c.nodes))
	for i, n := range c.nodes {
		nodeToFree[i] = -1
		if n.free {
			nodeToFree[i] = len(freeToNode)
			freeToNode = append(freeToNode, i)
		}
	}
	for i := range c.nodes {
		c.nodes[i].simulated = c.nodes[i].coord
	}

	report := Report{Tolerance: c.tolerance()}
	r := indexer.New(len(freeToNode), len(c.sticks))
	n := r.VariableCount()
	if n == 0 {
		report.Iterations = 1
		report.Converged = true
		return report, nil
	}

	sv := &solver{
		c:          c,
		r:          r,
		rest:       rest,
		nodeToFree: nodeToFree,
		s:          mat.NewVecDense(n, nil),
		z:          mat.NewVecDense(r.EquationCount(), nil),
		m:          mat.NewVecDense(n, nil),
		d:          mat.NewDense(r.EquationCount(), n, nil),
	}
	for i, node := range freeToNode {
		sv.s.SetVec(r.VariableX(i), c.nodes[node].coord.X)
		sv.s.SetVec(r.VariableY(i), c.nodes[node].coord.Y)
	}

	log := c.cfg.Logger
	lastError := math.Inf(1)
	stall := 0
	var qr mat.QR
	for {
		sv.assemble()
		e := maxAbs(sv.z)
		report.Iterations++
		report.Error = e
		report.History = append(report.History, e)
		log.Debug("iteration", "n", report.Iterations, "error", e, "tolerance", report.Tolerance)

		if e < report.Tolerance {
			report.Converged = true
			break
		}
		if e < lastError {
			stall = 0
		} else if stall++; stall >= c.cfg.StallLimit {
			log.Debug("solver stalled", "iterations", report.Iterations, "error", e)
			break
		}
		lastError = e
		if c.cfg.MaxIterations > 0 && report.Iterations >= c.cfg.MaxIterations {
			log.Debug("iteration cap reached", "iterations", report.Iterations, "error", e)
			break
		}

		qr.Factorize(sv.d)
		flow := false
		if err := qr.SolveVecTo(sv.m, false, sv.z); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				flow = true
			}
		}
		if !flow && !finite(sv.m) {
			flow = true
		}

		if flow {
			report.FlowSteps++
			sv.flow()
		} else {
			sv.s.SubVec(sv.s, sv.m)
		}
	}

	for i, node := range freeToNode {
		c.nodes[node].simulated = geom.Coord{
			X: sv.s.AtVec(r.VariableX(i)),
			Y: sv.s.AtVec(r.VariableY(i)),
		}
	}

	if !report.Converged && c.cfg.FailOnStall {
		return report, &SolveError{
			Iteration: report.Iterations,
			Residual:  report.Error,
			Tolerance: report.Tolerance,
			Wrapped:   ErrDidNotConverge,
		}
	}
	return report, nil
}

// position returns the current position of a node: from the state vector for
// free nodes, the rest coordinate for fixed ones.
func (sv *solver) position(node int) geom.Coord {
	f := sv.nodeToFree[node]
	if f < 0 {
		return sv.c.nodes[node].coord
	}
	return geom.Coord{X: sv.s.AtVec(sv.r.VariableX(f)), Y: sv.s.AtVec(sv.r.VariableY(f))}
}

// assemble rebuilds the residual z and its Jacobian d at the current state.
func (sv *solver) assemble() {
	c, r := sv.c, sv.r
	sv.z.Zero()
	sv.d.Zero()

	for _, f := range c.forces {
		if fr := sv.nodeToFree[f.node]; fr >= 0 {
			sv.z.SetVec(r.EquationFX(fr), sv.z.AtVec(r.EquationFX(fr))+f.direction.X)
			sv.z.SetVec(r.EquationFY(fr), sv.z.AtVec(r.EquationFY(fr))+f.direction.Y)
		}
	}

	for i, st := range c.sticks {
		delta := sv.position(st.nodes[1]).Sub(sv.position(st.nodes[0]))
		length := delta.Norm()
		ux, uy := delta.X/length, delta.Y/length
		strain := length/sv.rest[i] - 1
		stress, dstress := c.materials[st.material].StressDerivative(strain)
		axial := st.area * stress
		k := st.area * dstress / sv.rest[i]
		t := axial / length

		// K = k*u*uT + t*(I - u*uT) is d(axial*u)/d(p1).
		kxx := k*ux*ux + t*(1-ux*ux)
		kxy := (k - t) * ux * uy
		kyy := k*uy*uy + t*(1-uy*uy)

		for j := 0; j < 2; j++ {
			fj := sv.nodeToFree[st.nodes[j]]
			if fj < 0 {
				continue
			}
			sign := 1.0
			if j == 1 {
				sign = -1.0
			}
			ex, ey := r.EquationFX(fj), r.EquationFY(fj)
			sv.z.SetVec(ex, sv.z.AtVec(ex)+sign*axial*ux)
			sv.z.SetVec(ey, sv.z.AtVec(ey)+sign*axial*uy)

			sv.addBlock(ex, ey, fj, -kxx, -kxy, -kyy)
			if fo := sv.nodeToFree[st.nodes[1-j]]; fo >= 0 {
				sv.addBlock(ex, ey, fo, kxx, kxy, kyy)
			}
		}
	}
}

func (sv *solver) addBlock(ex, ey, free int, xx, xy, yy float64) {
	vx, vy := sv.r.VariableX(free), sv.r.VariableY(free)
	sv.d.Set(ex, vx, sv.d.At(ex, vx)+xx)
	sv.d.Set(ex, vy, sv.d.At(ex, vy)+xy)
	sv.d.Set(ey, vx, sv.d.At(ey, vx)+xy)
	sv.d.Set(ey, vy, sv.d.At(ey, vy)+yy)
}

// flow moves the state a small step along the residual. The step is scaled by
// the smallest ratio of stick length to endpoint residual so no stick can
// collapse; non-finite components are dropped to keep the state finite.
func (sv *solver) flow() {
	c, r := sv.c, sv.r
	coef := math.Inf(1)
	for _, st := range c.sticks {
		length := sv.position(st.nodes[0]).Distance(sv.position(st.nodes[1]))
		for _, node := range st.nodes {
			fr := sv.nodeToFree[node]
			if fr < 0 {
				continue
			}
			residual := math.Hypot(sv.z.AtVec(r.EquationFX(fr)), sv.z.AtVec(r.EquationFY(fr)))
			if ratio := length / residual; ratio < coef {
				coef = ratio
			}
		}
	}

	scale := c.cfg.FlowRate * coef
	for i := 0; i < sv.s.Len(); i++ {
		step := scale * sv.z.AtVec(i)
		if math.IsNaN(step) || math.IsInf(step, 0) {
			continue
		}
		sv.s.SetVec(i, sv.s.AtVec(i)+step)
	}
}

// maxAbs is the infinity norm of v, with NaN counted as +Inf.
func maxAbs(v *mat.VecDense) float64 {
	m := 0.0
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) {
			return math.Inf(1)
		}
		m = math.Max(m, math.Abs(x))
	}
	return m
}

func finite(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
