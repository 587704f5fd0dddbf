// Package rhythm estimates tempo and beat positions from an onset strength
// envelope.
//
// Estimation is best effort. Signals with no usable rhythmic content (too
// short, silent, or aperiodic) yield zero-valued features with the Degraded
// flag set instead of an error.
package rhythm

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-audiocmp/dsp/frame"
	"github.com/cwbudde/algo-audiocmp/dsp/window"
	"github.com/cwbudde/algo-audiocmp/stats/mfcc"
)

const (
	minTempo = 30.0  // BPM
	maxTempo = 300.0 // BPM
)

// Config holds the rhythm analysis parameters.
type Config struct {
	SampleRate int
	FrameSize  int
	HopSize    int
	Window     window.Type
	NumMels    int // mel bands for the onset envelope
}

func (c Config) normalized() Config {
	if c.NumMels <= 0 {
		c.NumMels = 128
	}

	return c
}

// Features holds the rhythmic descriptors of a signal. When Degraded is set
// the remaining fields are zero and BeatFrames is empty.
type Features struct {
	Tempo             float64 // BPM
	BeatFrames        []int   // onset-envelope frame indices
	OnsetStrengthMean float64
	OnsetStrengthStd  float64
	BeatIntervalMean  float64 // seconds
	BeatIntervalStd   float64 // seconds
	Degraded          bool
}

// Estimate computes tempo and beat features. It never fails; inputs without
// usable rhythmic content produce a degraded zero result.
func Estimate(samples []float64, cfg Config) Features {
	cfg = cfg.normalized()

	envelope := OnsetEnvelope(samples, cfg)
	if len(envelope) < 4 {
		return Features{Degraded: true}
	}

	f := Features{
		OnsetStrengthMean: stat.Mean(envelope, nil),
		OnsetStrengthStd:  math.Sqrt(stat.PopVariance(envelope, nil)),
	}

	if f.OnsetStrengthMean == 0 {
		return Features{Degraded: true}
	}

	frameRate := float64(cfg.SampleRate) / float64(cfg.HopSize)

	tempo := tempoFromEnvelope(envelope, frameRate)
	if tempo == 0 {
		return Features{Degraded: true}
	}

	f.Tempo = tempo
	f.BeatFrames = trackBeats(envelope, frameRate, tempo)

	if len(f.BeatFrames) >= 2 {
		intervals := make([]float64, len(f.BeatFrames)-1)
		for i := 1; i < len(f.BeatFrames); i++ {
			intervals[i-1] = float64(f.BeatFrames[i]-f.BeatFrames[i-1]) / frameRate
		}

		f.BeatIntervalMean = stat.Mean(intervals, nil)
		f.BeatIntervalStd = math.Sqrt(stat.PopVariance(intervals, nil))
	}

	return f
}

// OnsetEnvelope computes the half-wave rectified spectral flux of the log-mel
// spectrogram, averaged over mel bands, one value per frame. Unusable inputs
// yield nil.
func OnsetEnvelope(samples []float64, cfg Config) []float64 {
	cfg = cfg.normalized()

	powers, err := frame.Powers(samples, frame.Config{
		Size:   cfg.FrameSize,
		Hop:    cfg.HopSize,
		Window: cfg.Window,
	})
	if err != nil || len(powers) < 2 {
		return nil
	}

	bank := mfcc.FilterBank(cfg.NumMels, cfg.FrameSize, cfg.SampleRate,
		0, float64(cfg.SampleRate)/2)

	logMel := make([][]float64, len(powers))
	for t, spectrum := range powers {
		mel := mfcc.ApplyFilterBank(bank, spectrum)
		for i, e := range mel {
			mel[i] = math.Log(e + 1e-10)
		}

		logMel[t] = mel
	}

	envelope := make([]float64, len(powers)-1)
	for t := 1; t < len(logMel); t++ {
		var flux float64
		for b := range logMel[t] {
			if d := logMel[t][b] - logMel[t-1][b]; d > 0 {
				flux += d
			}
		}

		envelope[t-1] = flux / float64(cfg.NumMels)
	}

	return envelope
}

// tempoFromEnvelope picks the dominant beat period from the autocorrelation
// of the mean-removed onset envelope, restricted to the plausible BPM range.
func tempoFromEnvelope(envelope []float64, frameRate float64) float64 {
	mean := stat.Mean(envelope, nil)

	centered := make([]float64, len(envelope))
	for i, v := range envelope {
		centered[i] = v - mean
	}

	minLag := int(math.Ceil(frameRate * 60 / maxTempo))
	maxLag := int(math.Floor(frameRate * 60 / minTempo))

	if minLag < 1 {
		minLag = 1
	}

	if maxLag >= len(centered) {
		maxLag = len(centered) - 1
	}

	if minLag > maxLag {
		return 0
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := lag; i < len(centered); i++ {
			corr += centered[i] * centered[i-lag]
		}

		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	if bestLag == 0 || bestCorr <= 0 {
		return 0
	}

	return 60 * frameRate / float64(bestLag)
}

// trackBeats greedily picks local envelope maxima spaced roughly one beat
// period apart.
func trackBeats(envelope []float64, frameRate, tempo float64) []int {
	period := int(math.Round(frameRate * 60 / tempo))
	if period < 1 {
		return nil
	}

	// Tolerate +-25% deviation from the nominal period when searching for
	// the next beat.
	slack := period / 4
	if slack < 1 {
		slack = 1
	}

	var beats []int

	pos := argmax(envelope[:minInt(period, len(envelope))])
	beats = append(beats, pos)

	for {
		lo := pos + period - slack
		hi := pos + period + slack

		if lo >= len(envelope) {
			break
		}

		if hi > len(envelope) {
			hi = len(envelope)
		}

		pos = lo + argmax(envelope[lo:hi])
		beats = append(beats, pos)
	}

	return beats
}

func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}

	return best
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
