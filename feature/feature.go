// Package feature extracts named audio descriptors from decoded signals.
//
// A feature set maps stable string names to scalar, vector, or matrix
// values. Summary sets (ExtractAll) aggregate each descriptor over time;
// comparison sets (ExtractForComparison) keep the full per-frame series for
// similarity scoring.
package feature

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-audiocmp/audio"
	"github.com/cwbudde/algo-audiocmp/stats/mfcc"
	"github.com/cwbudde/algo-audiocmp/stats/rhythm"
	"github.com/cwbudde/algo-audiocmp/stats/spectral"
)

// Value is a feature payload of any shape.
type Value interface {
	// Flatten returns the payload as a flat series, matrices in row-major
	// order.
	Flatten() []float64
}

// Scalar is a single-valued feature.
type Scalar float64

// Flatten implements Value.
func (s Scalar) Flatten() []float64 { return []float64{float64(s)} }

// Vector is a one-dimensional feature, such as per-coefficient means.
type Vector []float64

// Flatten implements Value.
func (v Vector) Flatten() []float64 { return v }

// Matrix is a frames-by-bins feature.
type Matrix [][]float64

// Flatten implements Value.
func (m Matrix) Flatten() []float64 {
	var n int
	for _, row := range m {
		n += len(row)
	}

	out := make([]float64, 0, n)
	for _, row := range m {
		out = append(out, row...)
	}

	return out
}

// Set is a named collection of extracted features.
type Set map[string]Value

// Names returns the feature names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Scalar returns the named feature as a float64 and whether it is a scalar.
func (s Set) Scalar(name string) (float64, bool) {
	v, ok := s[name].(Scalar)
	return float64(v), ok
}

// Extractor computes feature sets using a fixed configuration.
type Extractor struct {
	cfg Config
}

// NewExtractor returns an extractor for the given configuration. Zero-valued
// fields should be filled via DefaultConfig before calling.
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Extractor{cfg: cfg}, nil
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// ExtractAll computes the time-aggregated summary feature set of a signal.
// The signal's own sample rate drives the analysis, not the configured one.
func (e *Extractor) ExtractAll(sig *audio.Signal) (Set, error) {
	if sig.Empty() {
		return nil, &audio.ExtractionError{Op: "extract features", Err: audio.ErrEmptySignal}
	}

	cfg := e.cfg.AtRate(sig.Rate)

	set := Set{}

	b := cfg.basicStats(sig.Samples)
	set["duration"] = Scalar(b.Duration)
	set["rms"] = Scalar(b.RMS)
	set["zero_crossing_rate"] = Scalar(b.ZeroCrossingRate)
	set["peak_amplitude"] = Scalar(b.PeakAmplitude)
	set["crest_factor"] = Scalar(b.CrestFactor)
	set["dynamic_range"] = Scalar(b.DynamicRange)

	spec, err := spectral.ExtractAll(sig.Samples, cfg.spectralConfig())
	if err != nil {
		return nil, &audio.ExtractionError{Op: "spectral features", Err: err}
	}

	set["spectral_centroid"] = Scalar(spec.CentroidMean)
	set["spectral_centroid_std"] = Scalar(spec.CentroidStd)
	set["spectral_bandwidth"] = Scalar(spec.BandwidthMean)
	set["spectral_bandwidth_std"] = Scalar(spec.BandwidthStd)
	set["spectral_rolloff"] = Scalar(spec.RolloffMean)
	set["spectral_flatness"] = Scalar(spec.FlatnessMean)
	set["spectral_contrast_mean"] = Scalar(mean(spec.ContrastBandMeans))
	set["spectral_contrast_std"] = Scalar(popStd(spec.ContrastBandMeans))

	coeffs, err := mfcc.Extract(sig.Samples, cfg.MFCC())
	if err != nil {
		return nil, &audio.ExtractionError{Op: "mfcc features", Err: err}
	}

	delta := mfcc.Delta(coeffs, cfg.DeltaWidth)
	delta2 := mfcc.Delta(delta, cfg.DeltaWidth)

	sum := mfcc.Summarize(coeffs)
	set["mfcc_mean"] = Vector(sum.Mean)
	set["mfcc_std"] = Vector(sum.Std)
	set["mfcc_min"] = Vector(sum.Min)
	set["mfcc_max"] = Vector(sum.Max)
	set["mfcc_range"] = Vector(sum.Range)

	dSum := mfcc.Summarize(delta)
	set["mfcc_delta_mean"] = Vector(dSum.Mean)
	set["mfcc_delta_std"] = Vector(dSum.Std)

	d2Sum := mfcc.Summarize(delta2)
	set["mfcc_delta2_mean"] = Vector(d2Sum.Mean)
	set["mfcc_delta2_std"] = Vector(d2Sum.Std)

	return set, nil
}

// ExtractForComparison computes the per-frame feature set used by
// similarity scoring: spectral series, cepstral matrices, and tempo.
func (e *Extractor) ExtractForComparison(sig *audio.Signal) (Set, error) {
	if sig.Empty() {
		return nil, &audio.ExtractionError{Op: "extract comparison features", Err: audio.ErrEmptySignal}
	}

	cfg := e.cfg.AtRate(sig.Rate)

	set := Set{}

	series, err := spectral.ExtractForComparison(sig.Samples, cfg.spectralConfig())
	if err != nil {
		return nil, &audio.ExtractionError{Op: "spectral comparison features", Err: err}
	}

	set["spectral_centroid"] = Vector(series.Centroid)
	set["spectral_bandwidth"] = Vector(series.Bandwidth)
	set["spectral_rolloff"] = Vector(series.Rolloff)
	set["spectral_contrast"] = Matrix(series.Contrast)

	coeffs, err := mfcc.Extract(sig.Samples, cfg.MFCC())
	if err != nil {
		return nil, &audio.ExtractionError{Op: "mfcc comparison features", Err: err}
	}

	delta := mfcc.Delta(coeffs, cfg.DeltaWidth)
	set["mfcc"] = Matrix(coeffs)
	set["mfcc_delta"] = Matrix(delta)
	set["mfcc_delta2"] = Matrix(mfcc.Delta(delta, cfg.DeltaWidth))

	set["tempo"] = Scalar(e.ExtractRhythm(sig).Tempo)

	return set, nil
}

// ExtractRhythm computes tempo and beat features. Signals without usable
// rhythmic content yield a degraded zero result rather than an error.
func (e *Extractor) ExtractRhythm(sig *audio.Signal) rhythm.Features {
	if sig.Empty() {
		return rhythm.Features{Degraded: true}
	}

	return rhythm.Estimate(sig.Samples, e.cfg.AtRate(sig.Rate).rhythmConfig())
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return floats.Sum(x) / float64(len(x))
}

func popStd(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	m := mean(x)

	var sumSq float64
	for _, v := range x {
		d := v - m
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(x)))
}
