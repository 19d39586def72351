package formula

import (
	"math"
	"strings"
)

// dual carries a value and its derivative with respect to the strain variable.
type dual struct {
	v, d float64
}

type node interface {
	eval(s dual) dual
}

type number float64

func (n number) eval(dual) dual { return dual{v: float64(n)} }

type variable struct{}

func (variable) eval(s dual) dual { return s }

type negate struct{ x node }

func (n *negate) eval(s dual) dual {
	x := n.x.eval(s)
	return dual{-x.v, -x.d}
}

type binary struct {
	op   byte
	l, r node
}

func (b *binary) eval(s dual) dual {
	l := b.l.eval(s)
	r := b.r.eval(s)
	switch b.op {
	case '+':
		return dual{l.v + r.v, l.d + r.d}
	case '-':
		return dual{l.v - r.v, l.d - r.d}
	case '*':
		return dual{l.v * r.v, l.d*r.v + l.v*r.d}
	case '/':
		return dual{l.v / r.v, (l.d*r.v - l.v*r.d) / (r.v * r.v)}
	default:
		return power(l, r)
	}
}

func power(base, exp dual) dual {
	v := math.Pow(base.v, exp.v)
	if exp.d == 0 {
		if base.d == 0 {
			return dual{v: v}
		}
		return dual{v, exp.v * math.Pow(base.v, exp.v-1) * base.d}
	}
	return dual{v, v * (exp.d*math.Log(base.v) + exp.v*base.d/base.v)}
}

type call struct {
	fn  string
	arg node
}

func (c *call) eval(s dual) dual {
	x := c.arg.eval(s)
	switch c.fn {
	case "sin":
		return dual{math.Sin(x.v), math.Cos(x.v) * x.d}
	case "cos":
		return dual{math.Cos(x.v), -math.Sin(x.v) * x.d}
	case "tan":
		cos := math.Cos(x.v)
		return dual{math.Tan(x.v), x.d / (cos * cos)}
	case "ln", "log":
		return dual{math.Log(x.v), x.d / x.v}
	case "exp":
		v := math.Exp(x.v)
		return dual{v, v * x.d}
	case "sqrt":
		v := math.Sqrt(x.v)
		return dual{v, x.d / (2 * v)}
	case "abs":
		switch {
		case x.v > 0:
			return dual{x.v, x.d}
		case x.v < 0:
			return dual{-x.v, -x.d}
		}
		return dual{0, 0}
	case "sinh":
		return dual{math.Sinh(x.v), math.Cosh(x.v) * x.d}
	case "cosh":
		return dual{math.Cosh(x.v), math.Sinh(x.v) * x.d}
	case "tanh":
		v := math.Tanh(x.v)
		return dual{v, (1 - v*v) * x.d}
	case "atan":
		return dual{math.Atan(x.v), x.d / (1 + x.v*x.v)}
	}
	return dual{math.NaN(), math.NaN()}
}

// Expr is a parsed expression. It is immutable and safe for concurrent use.
type Expr struct {
	src  string
	root node
}

// Parse compiles src into an expression of the strain variable s.
func Parse(src string) (*Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected " + quote(t.text)}
	}
	return &Expr{src: src, root: root}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func quote(s string) string { return "\"" + s + "\"" }

// String returns the source text the expression was parsed from.
func (e *Expr) String() string { return e.src }

// Eval returns the expression value at strain s.
func (e *Expr) Eval(s float64) float64 {
	return e.root.eval(dual{v: s, d: 1}).v
}

// Derive returns the value and the derivative with respect to s.
func (e *Expr) Derive(s float64) (value, derivative float64) {
	r := e.root.eval(dual{v: s, d: 1})
	return r.v, r.d
}
