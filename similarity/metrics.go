// Package similarity scores pairs of audio signals with sample-level,
// spectral, and cepstral metrics.
//
// All metrics return finite defaults on degenerate input rather than NaN:
// cosine similarity and correlation fall back to 0, and the signal-to-noise
// ratio of identical signals is +Inf.
package similarity

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-vecmath"
)

// Cosine returns the cosine similarity of two equal-length vectors, or 0
// when either has zero norm or the lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	dot := vecmath.DotProduct(a, b)
	normA := math.Sqrt(vecmath.DotProduct(a, a))
	normB := math.Sqrt(vecmath.DotProduct(b, b))

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (normA * normB)
}

// Correlation returns the Pearson correlation coefficient of two
// equal-length series, or 0 when it is undefined (constant input, length
// mismatch, or fewer than two samples).
func Correlation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}

	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) {
		return 0
	}

	return r
}

// MSE returns the mean squared error between two equal-length series, or
// +Inf on a length mismatch.
func MSE(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum / float64(len(a))
}

// SNR returns the signal-to-noise ratio in dB, treating a as the signal and
// a-b as the noise. Identical signals yield +Inf.
func SNR(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var signal, noise float64
	for i := range a {
		signal += a[i] * a[i]

		d := a[i] - b[i]
		noise += d * d
	}

	if noise == 0 {
		return math.Inf(1)
	}

	return 10 * math.Log10(signal/noise)
}
