package indexer

import "testing"

func TestIndexer_Counts(t *testing.T) {
	tests := []struct {
		free, sticks int
		want         int
	}{
		{0, 0, 0},
		{1, 5, 2},
		{7, 0, 14},
	}

	for _, tt := range tests {
		r := New(tt.free, tt.sticks)
		if r.VariableCount() != tt.want {
			t.Errorf("New(%d, %d).VariableCount() = %d, want %d", tt.free, tt.sticks, r.VariableCount(), tt.want)
		}
		if r.EquationCount() != tt.want {
			t.Errorf("New(%d, %d).EquationCount() = %d, want %d", tt.free, tt.sticks, r.EquationCount(), tt.want)
		}
	}
}

func TestIndexer_OffsetsAreDisjointAndDense(t *testing.T) {
	r := New(5, 3)
	seenVar := make(map[int]bool)
	seenEq := make(map[int]bool)

	for i := 0; i < r.FreeCount(); i++ {
		for _, v := range []int{r.VariableX(i), r.VariableY(i)} {
			if v < 0 || v >= r.VariableCount() || seenVar[v] {
				t.Errorf("variable offset %d for node %d is invalid or repeated", v, i)
			}
			seenVar[v] = true
		}
		for _, e := range []int{r.EquationFX(i), r.EquationFY(i)} {
			if e < 0 || e >= r.EquationCount() || seenEq[e] {
				t.Errorf("equation offset %d for node %d is invalid or repeated", e, i)
			}
			seenEq[e] = true
		}
	}

	if len(seenVar) != r.VariableCount() || len(seenEq) != r.EquationCount() {
		t.Errorf("layout is not dense: %d vars, %d eqs", len(seenVar), len(seenEq))
	}
}

func TestIndexer_Formula(t *testing.T) {
	r := New(3, 0)
	if r.VariableX(2) != 4 || r.VariableY(2) != 5 || r.EquationFX(1) != 2 || r.EquationFY(1) != 3 {
		t.Error("offsets do not follow the 2i / 2i+1 layout")
	}
}
