package formula

import (
	"errors"
	"math"
	"testing"
)

func TestParse_Eval(t *testing.T) {
	tests := []struct {
		src  string
		s    float64
		want float64
	}{
		{"2", 0, 2},
		{"s", 0.5, 0.5},
		{"1 + 2*3", 0, 7},
		{"(1 + 2)*3", 0, 9},
		{"-s^2", 3, -9},
		{"2^3^2", 0, 512},
		{"2^-1", 0, 0.5},
		{"1e3*s", 0.002, 2},
		{"2*e", 0, 2 * math.E},
		{"sin(pi/2)", 0, 1},
		{"cos(0) + exp(0) + ln(e)", 0, 3},
		{"pow(s, 3)", 2, 8},
		{"sqrt(abs(s))", -4, 2},
		{"tanh(0) + atan(0) + sinh(0) + cosh(0)", 0, 1},
		{"10 / 4 - 1", 0, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.src, err)
			}
			if got := e.Eval(tt.s); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Eval(%v) = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}

func TestDerive_MatchesFiniteDifference(t *testing.T) {
	exprs := []string{
		"200e9*s",
		"1e6*(exp(s) - 1)",
		"s*sin(s) + cos(2*s)",
		"ln(1 + s^2)",
		"s^s",
		"sqrt(1 + s) / (2 + tanh(s))",
		"pow(2, s) * atan(s)",
	}
	const h = 1e-6

	for _, src := range exprs {
		e := MustParse(src)
		for _, s := range []float64{0.1, 0.5, 1.3} {
			_, d := e.Derive(s)
			fd := (e.Eval(s+h) - e.Eval(s-h)) / (2 * h)
			if math.Abs(d-fd) > 1e-4*math.Max(1, math.Abs(fd)) {
				t.Errorf("%s at s=%v: derivative %v, finite difference %v", src, s, d, fd)
			}
		}
	}
}

func TestDerive_ConstantPowerAtZero(t *testing.T) {
	e := MustParse("s^2")
	v, d := e.Derive(0)
	if v != 0 || d != 0 {
		t.Errorf("Derive(0) = (%v, %v), want (0, 0)", v, d)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"1 +",
		"(s",
		"s)",
		"foo",
		"bar(s)",
		"sin(s, 2)",
		"pow(s)",
		"2 $ 3",
		"s s",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Errorf("expected *SyntaxError, got %T", err)
			}
		})
	}
}

func TestExpr_String(t *testing.T) {
	src := "1e6*(exp(s) - 1)"
	if got := MustParse(src).String(); got != src {
		t.Errorf("String() = %q, want %q", got, src)
	}
}
