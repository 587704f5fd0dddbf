// Package spectral computes frequency-domain descriptors from framed
// magnitude spectra: centroid, bandwidth, rolloff, flatness, and log-spaced
// sub-band contrast.
package spectral

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-audiocmp/dsp/frame"
	"github.com/cwbudde/algo-audiocmp/dsp/window"
)

// Config holds the spectral analysis parameters.
type Config struct {
	SampleRate      int
	FrameSize       int
	HopSize         int
	Window          window.Type
	RolloffFraction float64 // energy fraction for rolloff, typically 0.85
	ContrastBands   int     // log-spaced sub-bands above ContrastFMin
	ContrastAlpha   float64 // quantile fraction for peaks/valleys
	ContrastFMin    float64 // lower edge of the first octave band, Hz
}

func (c Config) normalized() Config {
	if c.RolloffFraction <= 0 || c.RolloffFraction > 1 {
		c.RolloffFraction = 0.85
	}

	if c.ContrastBands <= 0 {
		c.ContrastBands = 6
	}

	if c.ContrastAlpha <= 0 || c.ContrastAlpha > 0.5 {
		c.ContrastAlpha = 0.02
	}

	if c.ContrastFMin <= 0 {
		c.ContrastFMin = 200
	}

	return c
}

func (c Config) frameConfig() frame.Config {
	return frame.Config{Size: c.FrameSize, Hop: c.HopSize, Window: c.Window}
}

// Stats holds the time-aggregated spectral summary of a signal.
type Stats struct {
	CentroidMean  float64
	CentroidStd   float64
	BandwidthMean float64
	BandwidthStd  float64
	RolloffMean   float64
	FlatnessMean  float64
	// ContrastBandMeans and ContrastBandStds hold the time-mean and
	// time-std of each sub-band contrast value, ContrastBands+1 entries.
	ContrastBandMeans []float64
	ContrastBandStds  []float64
}

// Series holds full per-frame spectral features for similarity use.
type Series struct {
	Centroid  []float64
	Bandwidth []float64
	Rolloff   []float64
	Contrast  [][]float64 // frames x (ContrastBands+1)
}

// ExtractAll computes the time-aggregated spectral summary of a signal.
func ExtractAll(samples []float64, cfg Config) (Stats, error) {
	series, err := ExtractForComparison(samples, cfg)
	if err != nil {
		return Stats{}, err
	}

	cfg = cfg.normalized()
	bands := cfg.ContrastBands + 1

	s := Stats{
		CentroidMean:      stat.Mean(series.Centroid, nil),
		CentroidStd:       popStd(series.Centroid),
		BandwidthMean:     stat.Mean(series.Bandwidth, nil),
		BandwidthStd:      popStd(series.Bandwidth),
		RolloffMean:       stat.Mean(series.Rolloff, nil),
		ContrastBandMeans: make([]float64, bands),
		ContrastBandStds:  make([]float64, bands),
	}

	mags, err := frame.Magnitudes(samples, cfg.frameConfig())
	if err != nil {
		return Stats{}, err
	}

	flatness := make([]float64, len(mags))
	for i, mag := range mags {
		flatness[i] = Flatness(mag)
	}

	s.FlatnessMean = stat.Mean(flatness, nil)

	column := make([]float64, len(series.Contrast))
	for b := range bands {
		for t, row := range series.Contrast {
			column[t] = row[b]
		}

		s.ContrastBandMeans[b] = stat.Mean(column, nil)
		s.ContrastBandStds[b] = popStd(column)
	}

	return s, nil
}

// ExtractForComparison computes the full per-frame centroid, bandwidth,
// rolloff, and contrast series without time averaging.
func ExtractForComparison(samples []float64, cfg Config) (Series, error) {
	cfg = cfg.normalized()

	mags, err := frame.Magnitudes(samples, cfg.frameConfig())
	if err != nil {
		return Series{}, err
	}

	out := Series{
		Centroid:  make([]float64, len(mags)),
		Bandwidth: make([]float64, len(mags)),
		Rolloff:   make([]float64, len(mags)),
		Contrast:  make([][]float64, len(mags)),
	}

	for i, mag := range mags {
		c := Centroid(mag, cfg.FrameSize, cfg.SampleRate)
		out.Centroid[i] = c
		out.Bandwidth[i] = Bandwidth(mag, cfg.FrameSize, cfg.SampleRate, c)
		out.Rolloff[i] = Rolloff(mag, cfg.FrameSize, cfg.SampleRate, cfg.RolloffFraction)
		out.Contrast[i] = Contrast(mag, cfg.FrameSize, cfg.SampleRate,
			cfg.ContrastBands, cfg.ContrastAlpha, cfg.ContrastFMin)
	}

	return out, nil
}

// MeanRolloff computes the time-mean rolloff at a caller-chosen energy
// fraction, the configurable-percentile variant of the summary rolloff.
func MeanRolloff(samples []float64, cfg Config, fraction float64) (float64, error) {
	cfg = cfg.normalized()

	if fraction <= 0 || fraction > 1 {
		return 0, fmt.Errorf("spectral: rolloff fraction must be in (0,1]: %f", fraction)
	}

	mags, err := frame.Magnitudes(samples, cfg.frameConfig())
	if err != nil {
		return 0, err
	}

	vals := make([]float64, len(mags))
	for i, mag := range mags {
		vals[i] = Rolloff(mag, cfg.FrameSize, cfg.SampleRate, fraction)
	}

	return stat.Mean(vals, nil), nil
}

// Centroid returns the magnitude-weighted mean frequency of one spectrum
// frame in Hz, or 0 for an all-zero frame.
func Centroid(mag []float64, frameSize, sampleRate int) float64 {
	var sum, weighted float64

	for i, v := range mag {
		sum += v
		weighted += frame.BinFrequency(i, frameSize, sampleRate) * v
	}

	if sum == 0 {
		return 0
	}

	return weighted / sum
}

// Bandwidth returns the magnitude-weighted standard deviation of frequency
// around the given centroid in Hz, or 0 for an all-zero frame.
func Bandwidth(mag []float64, frameSize, sampleRate int, centroid float64) float64 {
	var sum, weighted float64

	for i, v := range mag {
		d := frame.BinFrequency(i, frameSize, sampleRate) - centroid
		sum += v
		weighted += d * d * v
	}

	if sum == 0 {
		return 0
	}

	return math.Sqrt(weighted / sum)
}

// Rolloff returns the lowest frequency below which the given fraction of the
// frame's spectral energy is contained, or 0 for an all-zero frame.
func Rolloff(mag []float64, frameSize, sampleRate int, fraction float64) float64 {
	var energy float64
	for _, v := range mag {
		energy += v * v
	}

	if energy == 0 {
		return 0
	}

	threshold := fraction * energy

	var cum float64
	for i, v := range mag {
		cum += v * v
		if cum >= threshold {
			return frame.BinFrequency(i, frameSize, sampleRate)
		}
	}

	return frame.BinFrequency(len(mag)-1, frameSize, sampleRate)
}

// Flatness returns the ratio of geometric to arithmetic mean of the
// magnitude spectrum, skipping the DC bin. Zero bins force the geometric
// mean, and therefore the flatness, to 0.
func Flatness(mag []float64) float64 {
	if len(mag) < 2 {
		return 0
	}

	var (
		sumLin  float64
		sumLog  float64
		hasZero bool
	)

	for _, v := range mag[1:] {
		sumLin += v
		if v > 0 {
			sumLog += math.Log(v)
		} else {
			hasZero = true
		}
	}

	n := float64(len(mag) - 1)

	meanLin := sumLin / n
	if meanLin == 0 || hasZero {
		return 0
	}

	return math.Exp(sumLog/n) / meanLin
}

// Contrast divides the spectrum into bands+1 sub-bands (everything below
// fmin, then octave-spaced bands starting at fmin) and returns for each the
// decibel difference between the mean of the top and bottom alpha quantile
// of in-band energies.
func Contrast(mag []float64, frameSize, sampleRate, bands int, alpha, fmin float64) []float64 {
	out := make([]float64, bands+1)
	if len(mag) == 0 {
		return out
	}

	edges := contrastEdges(bands, fmin, float64(sampleRate)/2)

	for b := range bands + 1 {
		lo, hi := edges[b], edges[b+1]

		var band []float64
		for i, v := range mag {
			f := frame.BinFrequency(i, frameSize, sampleRate)
			if f >= lo && f < hi {
				band = append(band, v*v)
			}
		}

		out[b] = bandContrast(band, alpha)
	}

	return out
}

// contrastEdges returns bands+2 band edges: 0, fmin, fmin*2, ..., Nyquist.
func contrastEdges(bands int, fmin, nyquist float64) []float64 {
	edges := make([]float64, bands+2)
	edges[0] = 0

	f := fmin
	for i := 1; i <= bands; i++ {
		edges[i] = math.Min(f, nyquist)
		f *= 2
	}

	edges[bands+1] = nyquist + 1

	return edges
}

const contrastFloor = 1e-10

func bandContrast(energies []float64, alpha float64) float64 {
	if len(energies) == 0 {
		return 0
	}

	sorted := append([]float64(nil), energies...)
	sort.Float64s(sorted)

	k := int(alpha * float64(len(sorted)))
	if k < 1 {
		k = 1
	}

	var valley, peak float64
	for i := range k {
		valley += sorted[i]
		peak += sorted[len(sorted)-1-i]
	}

	valley = math.Max(valley/float64(k), contrastFloor)
	peak = math.Max(peak/float64(k), contrastFloor)

	return 10 * math.Log10(peak/valley)
}

func popStd(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return math.Sqrt(stat.PopVariance(x, nil))
}
