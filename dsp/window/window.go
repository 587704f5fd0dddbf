// Package window provides the window tapers used for spectral framing.
package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

// Name returns a human-readable window name.
func (t Type) Name() string {
	switch t {
	case TypeHann:
		return "hann"
	case TypeHamming:
		return "hamming"
	case TypeBlackman:
		return "blackman"
	default:
		return "rectangular"
	}
}

// Generate returns the coefficients of window type t with the given size.
// Size values <= 0 yield nil. The periodic (FFT framing) form is used.
func Generate(t Type, size int) []float64 {
	if size <= 0 {
		return nil
	}

	out := make([]float64, size)

	switch t {
	case TypeHann:
		for i := range out {
			out[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size))
		}
	case TypeHamming:
		for i := range out {
			out[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(size))
		}
	case TypeBlackman:
		for i := range out {
			x := 2 * math.Pi * float64(i) / float64(size)
			out[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
		}
	default:
		for i := range out {
			out[i] = 1
		}
	}

	return out
}

// Apply multiplies samples by coeffs into dst, up to the shortest of the
// three lengths. Elements of dst beyond it are left untouched.
func Apply(dst, samples, coeffs []float64) {
	n := min(len(dst), min(len(samples), len(coeffs)))
	vecmath.MulBlock(dst[:n], samples[:n], coeffs[:n])
}
