// Package formula evaluates the stress–strain expressions of nonlinear materials.
//
// An expression is written in ordinary infix notation over a single variable:
//
//   - s: the strain the material is evaluated at
//   - constants: pi, e
//   - operators: + - * / ^ (right associative) and unary minus
//   - functions: sin cos tan ln log exp sqrt abs sinh cosh tanh atan pow(a, b)
//
// Expressions are parsed once with [Parse] and evaluated many times. [Expr.Derive]
// returns the value together with the exact derivative with respect to s, computed
// by propagating dual numbers through the tree.
//
// # Example
//
//	expr, _ := formula.Parse("2e11*s*(1 - 10*s^2)")
//	stress, dstress := expr.Derive(0.001)
package formula
