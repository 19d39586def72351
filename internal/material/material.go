// Package material implements the stress–strain laws a stick can be made of.
package material

import (
	"fmt"
	"math"

	"github.com/san-kum/trussim/internal/formula"
)

// Type tags the material variant. The numeric values are part of the file format.
type Type uint32

const (
	Linear Type = iota
	Nonlinear
)

func (t Type) String() string {
	switch t {
	case Linear:
		return "linear"
	case Nonlinear:
		return "nonlinear"
	}
	return fmt.Sprintf("Type(%d)", uint32(t))
}

// Material maps strain to stress. The zero value is not usable; construct with
// NewLinear or NewNonlinear.
type Material struct {
	kind    Type
	name    string
	modulus float64
	expr    *formula.Expr
}

// NewLinear returns a Hookean material: stress = modulus * strain.
func NewLinear(name string, modulus float64) (Material, error) {
	if math.IsNaN(modulus) || math.IsInf(modulus, 0) {
		return Material{}, fmt.Errorf("material %q: modulus must be finite, got %v", name, modulus)
	}
	return Material{kind: Linear, name: name, modulus: modulus}, nil
}

// NewNonlinear returns a material whose stress is given by a formula of the strain s.
func NewNonlinear(name, src string) (Material, error) {
	expr, err := formula.Parse(src)
	if err != nil {
		return Material{}, fmt.Errorf("material %q: %w", name, err)
	}
	return Material{kind: Nonlinear, name: name, expr: expr}, nil
}

func (m Material) Name() string { return m.name }
func (m Material) Type() Type   { return m.kind }

// Modulus returns the elastic modulus; ok is false for nonlinear materials.
func (m Material) Modulus() (modulus float64, ok bool) {
	return m.modulus, m.kind == Linear
}

// Formula returns the formula source; ok is false for linear materials.
func (m Material) Formula() (src string, ok bool) {
	if m.kind != Nonlinear {
		return "", false
	}
	return m.expr.String(), true
}

// Stress returns the stress at the given strain.
func (m Material) Stress(strain float64) float64 {
	if m.kind == Linear {
		return m.modulus * strain
	}
	return m.expr.Eval(strain)
}

// Derivative returns dStress/dStrain at the given strain.
func (m Material) Derivative(strain float64) float64 {
	if m.kind == Linear {
		return m.modulus
	}
	_, d := m.expr.Derive(strain)
	return d
}

// StressDerivative evaluates both at once, sharing one pass over the formula.
func (m Material) StressDerivative(strain float64) (stress, derivative float64) {
	if m.kind == Linear {
		return m.modulus * strain, m.modulus
	}
	return m.expr.Derive(strain)
}
