package similarity

import (
	"strconv"

	"github.com/cwbudde/algo-audiocmp/audio"
	"github.com/cwbudde/algo-audiocmp/feature"
	"github.com/cwbudde/algo-audiocmp/stats/mfcc"
)

// Report holds the comprehensive similarity metrics of one signal pair,
// computed at a single common sample rate.
type Report struct {
	Correlation        float64
	MSE                float64
	SNR                float64 // dB, +Inf for identical signals
	Cosine             float64
	MFCCSimilarity     float64
	SpectralSimilarity float64
	ComparisonRate     int // Hz
}

// Map returns the report as named values for tabular or CSV output.
func (r Report) Map() map[string]string {
	return map[string]string{
		"correlation":         formatFloat(r.Correlation),
		"mse":                 formatFloat(r.MSE),
		"snr":                 formatFloat(r.SNR),
		"cosine_similarity":   formatFloat(r.Cosine),
		"mfcc_similarity":     formatFloat(r.MFCCSimilarity),
		"spectral_similarity": formatFloat(r.SpectralSimilarity),
		"comparison_sr":       strconv.Itoa(r.ComparisonRate),
	}
}

// MapKeys lists the Map keys in report order.
func MapKeys() []string {
	return []string{
		"correlation", "mse", "snr", "cosine_similarity",
		"mfcc_similarity", "spectral_similarity", "comparison_sr",
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// MultiScaleReport holds the two-stage comparison of a signal pair.
//
// Original always holds the native-rate result. When the input rates match
// it contains the same metrics as Resampled would; when they differ it
// contains per-feature cosine similarities computed at each signal's own
// rate, and Resampled additionally holds the comprehensive metrics after
// resampling both signals to the higher rate.
type MultiScaleReport struct {
	Original  map[string]float64
	Resampled *Report // nil when the input rates already match
}

// Calculator scores signal pairs using a fixed feature configuration.
type Calculator struct {
	cfg       feature.Config
	extractor *feature.Extractor
}

// NewCalculator returns a calculator using the given feature configuration.
func NewCalculator(cfg feature.Config) (*Calculator, error) {
	extractor, err := feature.NewExtractor(cfg)
	if err != nil {
		return nil, err
	}

	return &Calculator{cfg: cfg, extractor: extractor}, nil
}

// MFCCSimilarity returns the cosine similarity of the time-mean MFCC vectors
// of two signals analyzed at the given rate.
func (c *Calculator) MFCCSimilarity(s1, s2 []float64, rate int) (float64, error) {
	cfg := c.cfg.AtRate(rate)

	m1, err := mfcc.Extract(s1, cfg.MFCC())
	if err != nil {
		return 0, &audio.ExtractionError{Op: "mfcc similarity", Err: err}
	}

	m2, err := mfcc.Extract(s2, cfg.MFCC())
	if err != nil {
		return 0, &audio.ExtractionError{Op: "mfcc similarity", Err: err}
	}

	return mfcc.Similarity(m1, m2), nil
}

// SpectralSimilarity averages the cosine similarities of the time-mean
// spectral centroid, bandwidth, and rolloff of two signals analyzed at the
// given rate.
func (c *Calculator) SpectralSimilarity(s1, s2 []float64, rate int) (float64, error) {
	cfg := c.cfg.AtRate(rate)

	ext, err := feature.NewExtractor(cfg)
	if err != nil {
		return 0, err
	}

	set1, err := ext.ExtractForComparison(&audio.Signal{Samples: s1, Rate: rate})
	if err != nil {
		return 0, err
	}

	set2, err := ext.ExtractForComparison(&audio.Signal{Samples: s2, Rate: rate})
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, name := range []string{"spectral_centroid", "spectral_bandwidth", "spectral_rolloff"} {
		m1 := mean(set1[name].Flatten())
		m2 := mean(set2[name].Flatten())
		sum += Cosine([]float64{m1}, []float64{m2})
	}

	return sum / 3, nil
}

// Comprehensive reconciles the sample rates of two signals (upsampling the
// lower-rate one to the higher rate), truncates both to the shorter length,
// and computes the full metric report at the common rate.
func (c *Calculator) Comprehensive(sig1, sig2 *audio.Signal) (Report, error) {
	if sig1.Empty() || sig2.Empty() {
		return Report{}, &audio.ExtractionError{Op: "comprehensive similarity",
			Err: audio.ErrEmptySignal}
	}

	sig1, sig2, rate, err := reconcileRates(sig1, sig2)
	if err != nil {
		return Report{}, err
	}

	sig1, sig2 = audio.NormalizeLength(sig1, sig2)
	a, b := sig1.Samples, sig2.Samples

	// Individual feature metrics fall back to 0 on failure; the report is
	// always fully populated for two non-empty signals.
	mfccSim, err := c.MFCCSimilarity(a, b, rate)
	if err != nil {
		mfccSim = 0
	}

	specSim, err := c.SpectralSimilarity(a, b, rate)
	if err != nil {
		specSim = 0
	}

	return Report{
		Correlation:        Correlation(a, b),
		MSE:                MSE(a, b),
		SNR:                SNR(a, b),
		Cosine:             Cosine(a, b),
		MFCCSimilarity:     mfccSim,
		SpectralSimilarity: specSim,
		ComparisonRate:     rate,
	}, nil
}

// MultiScale compares a signal pair at two scales. Signals with matching
// rates get a single comprehensive report. Signals with differing rates get
// per-feature cosine similarities at their native rates plus a
// comprehensive report after resampling to the higher rate.
func (c *Calculator) MultiScale(sig1, sig2 *audio.Signal) (MultiScaleReport, error) {
	if sig1.Empty() || sig2.Empty() {
		return MultiScaleReport{}, &audio.ExtractionError{Op: "multi-scale similarity",
			Err: audio.ErrEmptySignal}
	}

	if sig1.Rate == sig2.Rate {
		report, err := c.Comprehensive(sig1, sig2)
		if err != nil {
			return MultiScaleReport{}, err
		}

		return MultiScaleReport{Original: reportToScores(report)}, nil
	}

	set1, err := c.extractor.ExtractForComparison(sig1)
	if err != nil {
		return MultiScaleReport{}, err
	}

	set2, err := c.extractor.ExtractForComparison(sig2)
	if err != nil {
		return MultiScaleReport{}, err
	}

	report, err := c.Comprehensive(sig1, sig2)
	if err != nil {
		return MultiScaleReport{}, err
	}

	return MultiScaleReport{
		Original:  CompareFeatureSets(set1, set2),
		Resampled: &report,
	}, nil
}

// CompareFeatureSets scores every feature name common to both sets with the
// cosine similarity of the flattened values, truncated to the shorter
// length. Result keys are the feature names suffixed with "_similarity".
func CompareFeatureSets(f1, f2 feature.Set) map[string]float64 {
	out := make(map[string]float64, len(f1))

	for name, v1 := range f1 {
		v2, ok := f2[name]
		if !ok {
			continue
		}

		a := v1.Flatten()
		b := v2.Flatten()

		n := len(a)
		if len(b) < n {
			n = len(b)
		}

		out[name+"_similarity"] = Cosine(a[:n], b[:n])
	}

	return out
}

// reconcileRates upsamples whichever signal has the lower rate so both run
// at the higher of the two.
func reconcileRates(sig1, sig2 *audio.Signal) (*audio.Signal, *audio.Signal, int, error) {
	rate := sig1.Rate
	if sig2.Rate > rate {
		rate = sig2.Rate
	}

	var err error

	if sig1.Rate != rate {
		sig1, err = audio.Resample(sig1, rate)
		if err != nil {
			return nil, nil, 0, err
		}
	}

	if sig2.Rate != rate {
		sig2, err = audio.Resample(sig2, rate)
		if err != nil {
			return nil, nil, 0, err
		}
	}

	return sig1, sig2, rate, nil
}

func reportToScores(r Report) map[string]float64 {
	return map[string]float64{
		"correlation":         r.Correlation,
		"mse":                 r.MSE,
		"snr":                 r.SNR,
		"cosine_similarity":   r.Cosine,
		"mfcc_similarity":     r.MFCCSimilarity,
		"spectral_similarity": r.SpectralSimilarity,
		"comparison_sr":       float64(r.ComparisonRate),
	}
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	var sum float64
	for _, v := range x {
		sum += v
	}

	return sum / float64(len(x))
}
