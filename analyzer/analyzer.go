// Package analyzer is the high-level entry point of the module: it loads
// audio files, extracts feature sets, and scores file pairs.
package analyzer

import (
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-audiocmp/audio"
	"github.com/cwbudde/algo-audiocmp/feature"
	"github.com/cwbudde/algo-audiocmp/similarity"
	"github.com/cwbudde/algo-audiocmp/stats/rhythm"
)

// Option configures an Analyzer.
type Option func(*settings)

type settings struct {
	cfg        feature.Config
	targetRate int
	resample   bool
}

// WithConfig replaces the default feature configuration.
func WithConfig(cfg feature.Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithTargetRate makes the analyzer resample every loaded file to the given
// rate before analysis.
func WithTargetRate(rate int) Option {
	return func(s *settings) {
		s.targetRate = rate
		s.resample = true
	}
}

// Analyzer combines loading, feature extraction, and pair scoring behind one
// interface. Analyzers are safe for concurrent use.
type Analyzer struct {
	loader    *audio.Loader
	extractor *feature.Extractor
	calc      *similarity.Calculator
	resample  bool
}

// New returns an analyzer with the default configuration, modified by the
// given options.
func New(opts ...Option) (*Analyzer, error) {
	s := settings{cfg: feature.DefaultConfig()}
	for _, opt := range opts {
		opt(&s)
	}

	if s.targetRate == 0 {
		s.targetRate = s.cfg.SampleRate
	}

	extractor, err := feature.NewExtractor(s.cfg)
	if err != nil {
		return nil, err
	}

	calc, err := similarity.NewCalculator(s.cfg)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		loader:    audio.NewLoader(s.targetRate),
		extractor: extractor,
		calc:      calc,
		resample:  s.resample,
	}, nil
}

// Info summarizes a loaded audio file.
type Info struct {
	Path       string
	Format     string // file extension without the dot
	SampleRate int    // Hz, after any resampling
	Samples    int
	Duration   float64 // seconds
}

// Load decodes one file, resampling to the target rate when the analyzer
// was built with WithTargetRate.
func (a *Analyzer) Load(path string) (*audio.Signal, error) {
	return a.loader.Load(path, a.resample)
}

// Info loads a file and reports its basic properties.
func (a *Analyzer) Info(path string) (Info, error) {
	sig, err := a.Load(path)
	if err != nil {
		return Info{}, err
	}

	if sig == nil {
		return Info{}, &audio.LoadError{Path: path, Reason: "blank path"}
	}

	return Info{
		Path:       path,
		Format:     strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		SampleRate: sig.Rate,
		Samples:    len(sig.Samples),
		Duration:   sig.Duration(),
	}, nil
}

// ExtractFeatures loads a file and computes its summary feature set.
func (a *Analyzer) ExtractFeatures(path string) (feature.Set, error) {
	sig, err := a.Load(path)
	if err != nil {
		return nil, err
	}

	return a.extractor.ExtractAll(sig)
}

// ExtractRhythm loads a file and computes its tempo and beat features.
func (a *Analyzer) ExtractRhythm(path string) (rhythm.Features, error) {
	sig, err := a.Load(path)
	if err != nil {
		return rhythm.Features{}, err
	}

	return a.extractor.ExtractRhythm(sig), nil
}

// Compare loads two files at their native rates and computes the
// comprehensive similarity report, reconciling sample rates internally.
func (a *Analyzer) Compare(path1, path2 string) (similarity.Report, error) {
	sig1, sig2, err := a.loadPair(path1, path2)
	if err != nil {
		return similarity.Report{}, err
	}

	return a.calc.Comprehensive(sig1, sig2)
}

// CompareMultiScale loads two files at their native rates and computes the
// two-stage multi-scale comparison.
func (a *Analyzer) CompareMultiScale(path1, path2 string) (similarity.MultiScaleReport, error) {
	sig1, sig2, err := a.loadPair(path1, path2)
	if err != nil {
		return similarity.MultiScaleReport{}, err
	}

	return a.calc.MultiScale(sig1, sig2)
}

func (a *Analyzer) loadPair(path1, path2 string) (*audio.Signal, *audio.Signal, error) {
	sig1, err := a.loader.Load(path1, false)
	if err != nil {
		return nil, nil, err
	}

	sig2, err := a.loader.Load(path2, false)
	if err != nil {
		return nil, nil, err
	}

	return sig1, sig2, nil
}
