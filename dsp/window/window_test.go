package window

import (
	"math"
	"testing"
)

const tolerance = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestGenerate_Sizes(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman} {
		if got := Generate(typ, 0); got != nil {
			t.Errorf("%s size 0: got %v, want nil", typ.Name(), got)
		}
		if got := len(Generate(typ, 256)); got != 256 {
			t.Errorf("%s size 256: got length %d", typ.Name(), got)
		}
	}
}

func TestGenerate_KnownValues(t *testing.T) {
	tests := []struct {
		name  string
		typ   Type
		index int
		size  int
		want  float64
	}{
		{"hann start", TypeHann, 0, 8, 0},
		{"hann midpoint", TypeHann, 4, 8, 1},
		{"hamming start", TypeHamming, 0, 8, 0.08},
		{"hamming midpoint", TypeHamming, 4, 8, 1},
		{"blackman midpoint", TypeBlackman, 4, 8, 1},
		{"rectangular anywhere", TypeRectangular, 3, 8, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.typ, tt.size)[tt.index]
			if !almostEqual(got, tt.want, tolerance) {
				t.Errorf("got %g, want %g", got, tt.want)
			}
		})
	}
}

func TestGenerate_Periodic(t *testing.T) {
	// The periodic Hann window satisfies w[i] + w[i+size/2] = 1.
	size := 64
	w := Generate(TypeHann, size)

	for i := range size / 2 {
		if sum := w[i] + w[i+size/2]; !almostEqual(sum, 1, 1e-12) {
			t.Fatalf("w[%d]+w[%d] = %g, want 1", i, i+size/2, sum)
		}
	}
}

func TestApply(t *testing.T) {
	samples := []float64{1, 2, 3, 4}
	coeffs := []float64{0.5, 0.5, 2, 0}
	dst := make([]float64, 4)

	Apply(dst, samples, coeffs)

	want := []float64{0.5, 1, 6, 0}
	for i := range want {
		if !almostEqual(dst[i], want[i], tolerance) {
			t.Errorf("dst[%d]: got %g, want %g", i, dst[i], want[i])
		}
	}
}

func TestApply_ShorterInput(t *testing.T) {
	samples := []float64{1, 2}
	coeffs := []float64{0.5, 0.5, 2, 0}
	dst := []float64{9, 9, 9, 9}

	Apply(dst, samples, coeffs)

	// Only the shortest common prefix is written.
	want := []float64{0.5, 1, 9, 9}
	for i := range want {
		if !almostEqual(dst[i], want[i], tolerance) {
			t.Errorf("dst[%d]: got %g, want %g", i, dst[i], want[i])
		}
	}
}

func TestName(t *testing.T) {
	if got := TypeHann.Name(); got != "hann" {
		t.Errorf("got %q, want hann", got)
	}
	if got := Type(99).Name(); got != "rectangular" {
		t.Errorf("unknown type: got %q, want rectangular", got)
	}
}
