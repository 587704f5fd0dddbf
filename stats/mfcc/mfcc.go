// Package mfcc computes mel-frequency cepstral coefficients and their
// temporal derivatives.
//
// The pipeline follows the common recipe: framed power spectrum, triangular
// mel filterbank, log compression, and an orthonormal DCT-II. Delta features
// are linear-regression slopes over a sliding window with replicated edges.
package mfcc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-audiocmp/dsp/frame"
	"github.com/cwbudde/algo-audiocmp/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const logFloor = 1e-10

// Config holds the cepstral analysis parameters.
type Config struct {
	SampleRate      int
	FrameSize       int
	HopSize         int
	Window          window.Type
	NumMels         int     // mel filterbank size
	NumCoefficients int     // cepstral coefficients kept after the DCT
	FMin            float64 // filterbank lower edge, Hz
	FMax            float64 // filterbank upper edge, Hz; 0 means Nyquist
	DeltaWidth      int     // odd regression window length for deltas
}

func (c Config) normalized() Config {
	if c.NumMels <= 0 {
		c.NumMels = 128
	}

	if c.NumCoefficients <= 0 {
		c.NumCoefficients = 13
	}

	if c.FMax <= 0 || c.FMax > float64(c.SampleRate)/2 {
		c.FMax = float64(c.SampleRate) / 2
	}

	if c.DeltaWidth < 3 {
		c.DeltaWidth = 9
	}

	if c.DeltaWidth%2 == 0 {
		c.DeltaWidth++
	}

	return c
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("mfcc: sample rate must be > 0: %d", c.SampleRate)
	}

	if c.NumCoefficients > c.NumMels {
		return fmt.Errorf("mfcc: %d coefficients exceed %d mel bands",
			c.NumCoefficients, c.NumMels)
	}

	if c.FMin < 0 || c.FMin >= c.FMax {
		return fmt.Errorf("mfcc: invalid band edges [%.1f, %.1f]", c.FMin, c.FMax)
	}

	return nil
}

// Extract computes the MFCC matrix of a signal, one row per analysis frame
// with cfg.NumCoefficients columns.
func Extract(samples []float64, cfg Config) ([][]float64, error) {
	cfg = cfg.normalized()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	powers, err := frame.Powers(samples, frame.Config{
		Size:   cfg.FrameSize,
		Hop:    cfg.HopSize,
		Window: cfg.Window,
	})
	if err != nil {
		return nil, err
	}

	bank := FilterBank(cfg.NumMels, cfg.FrameSize, cfg.SampleRate, cfg.FMin, cfg.FMax)
	dct := dctMatrix(cfg.NumCoefficients, cfg.NumMels)

	out := make([][]float64, len(powers))
	logMel := make([]float64, cfg.NumMels)

	for f, spectrum := range powers {
		mel := ApplyFilterBank(bank, spectrum)
		for i, e := range mel {
			logMel[i] = math.Log(e + logFloor)
		}

		coeffs := make([]float64, cfg.NumCoefficients)
		for i, row := range dct {
			coeffs[i] = vecmath.DotProduct(row, logMel)
		}

		out[f] = coeffs
	}

	return out, nil
}

// HzToMel converts a frequency in Hz to the HTK mel scale.
func HzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

// MelToHz converts an HTK mel value back to Hz.
func MelToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// FilterBank builds numMels triangular filters over the one-sided spectrum of
// the given FFT size, with filter centers equally spaced on the mel scale
// between fmin and fmax. The result has numMels rows of BinCount(fftSize)
// weights.
func FilterBank(numMels, fftSize, sampleRate int, fmin, fmax float64) [][]float64 {
	nBins := frame.BinCount(fftSize)

	melMin := HzToMel(fmin)
	melMax := HzToMel(fmax)

	// numMels+2 edge frequencies: each filter spans three consecutive points.
	hzPoints := make([]float64, numMels+2)
	for i := range hzPoints {
		mel := melMin + (melMax-melMin)*float64(i)/float64(numMels+1)
		hzPoints[i] = MelToHz(mel)
	}

	bank := make([][]float64, numMels)
	for m := range numMels {
		lo, center, hi := hzPoints[m], hzPoints[m+1], hzPoints[m+2]
		row := make([]float64, nBins)

		for i := range nBins {
			f := frame.BinFrequency(i, fftSize, sampleRate)

			switch {
			case f <= lo || f >= hi:
			case f <= center:
				row[i] = (f - lo) / (center - lo)
			default:
				row[i] = (hi - f) / (hi - center)
			}
		}

		bank[m] = row
	}

	return bank
}

// ApplyFilterBank projects a one-sided power spectrum onto the filterbank,
// returning one energy per filter.
func ApplyFilterBank(bank [][]float64, spectrum []float64) []float64 {
	out := make([]float64, len(bank))
	for m, row := range bank {
		out[m] = vecmath.DotProduct(row, spectrum)
	}

	return out
}

// dctMatrix returns the first rows of the orthonormal DCT-II for input
// length n.
func dctMatrix(rows, n int) [][]float64 {
	out := make([][]float64, rows)

	scale0 := math.Sqrt(1 / float64(n))
	scale := math.Sqrt(2 / float64(n))

	for k := range rows {
		row := make([]float64, n)
		for i := range n {
			row[i] = math.Cos(math.Pi * float64(k) * (float64(i) + 0.5) / float64(n))

			if k == 0 {
				row[i] *= scale0
			} else {
				row[i] *= scale
			}
		}

		out[k] = row
	}

	return out
}

// Delta computes the local regression slope of each coefficient over a
// sliding window of the given odd width. Frames beyond either edge are
// replicated. An even or too-small width falls back to 9.
func Delta(coeffs [][]float64, width int) [][]float64 {
	if len(coeffs) == 0 {
		return nil
	}

	if width < 3 || width%2 == 0 {
		width = 9
	}

	half := width / 2

	var norm float64
	for n := 1; n <= half; n++ {
		norm += float64(n * n)
	}
	norm *= 2

	nFrames := len(coeffs)
	nCoeffs := len(coeffs[0])

	clamp := func(t int) int {
		if t < 0 {
			return 0
		}

		if t >= nFrames {
			return nFrames - 1
		}

		return t
	}

	out := make([][]float64, nFrames)
	for t := range nFrames {
		row := make([]float64, nCoeffs)
		for c := range nCoeffs {
			var acc float64
			for n := 1; n <= half; n++ {
				acc += float64(n) * (coeffs[clamp(t+n)][c] - coeffs[clamp(t-n)][c])
			}

			row[c] = acc / norm
		}

		out[t] = row
	}

	return out
}

// Summary holds per-coefficient aggregates of an MFCC matrix.
type Summary struct {
	Mean  []float64
	Std   []float64
	Min   []float64
	Max   []float64
	Range []float64
}

// Summarize aggregates a coefficient matrix over time. An empty matrix
// yields a zero-length summary.
func Summarize(coeffs [][]float64) Summary {
	if len(coeffs) == 0 {
		return Summary{}
	}

	nCoeffs := len(coeffs[0])

	s := Summary{
		Mean:  make([]float64, nCoeffs),
		Std:   make([]float64, nCoeffs),
		Min:   make([]float64, nCoeffs),
		Max:   make([]float64, nCoeffs),
		Range: make([]float64, nCoeffs),
	}

	column := make([]float64, len(coeffs))
	for c := range nCoeffs {
		for t, row := range coeffs {
			column[t] = row[c]
		}

		s.Mean[c] = stat.Mean(column, nil)
		s.Std[c] = math.Sqrt(stat.PopVariance(column, nil))
		s.Min[c] = floats.Min(column)
		s.Max[c] = floats.Max(column)
		s.Range[c] = s.Max[c] - s.Min[c]
	}

	return s
}

// Similarity returns the cosine similarity of the time-mean coefficient
// vectors of two MFCC matrices, or 0 when either mean vector has zero norm
// or the shapes are incompatible.
func Similarity(a, b [][]float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a[0]) != len(b[0]) {
		return 0
	}

	meanA := Summarize(a).Mean
	meanB := Summarize(b).Mean

	dot := vecmath.DotProduct(meanA, meanB)
	normA := math.Sqrt(vecmath.DotProduct(meanA, meanA))
	normB := math.Sqrt(vecmath.DotProduct(meanB, meanB))

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (normA * normB)
}
