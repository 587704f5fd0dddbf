package feature

import (
	"fmt"

	"github.com/cwbudde/algo-audiocmp/dsp/window"
	"github.com/cwbudde/algo-audiocmp/stats/basic"
	"github.com/cwbudde/algo-audiocmp/stats/mfcc"
	"github.com/cwbudde/algo-audiocmp/stats/rhythm"
	"github.com/cwbudde/algo-audiocmp/stats/spectral"
)

// Config bundles the analysis parameters shared by all feature calculators.
type Config struct {
	SampleRate int // analysis rate; signals are assumed resampled to it
	FrameSize  int
	HopSize    int
	Window     window.Type

	NumMels         int
	NumCoefficients int
	FMin            float64
	FMax            float64 // 0 means Nyquist
	DeltaWidth      int

	RolloffFraction float64
	ContrastBands   int
	ContrastAlpha   float64
	ContrastFMin    float64
}

// DefaultConfig returns the standard analysis setup: 22.05 kHz, 2048-sample
// Hann frames with 512-sample hop, 128 mel bands, and 13 cepstral
// coefficients.
func DefaultConfig() Config {
	return Config{
		SampleRate:      22050,
		FrameSize:       2048,
		HopSize:         512,
		Window:          window.TypeHann,
		NumMels:         128,
		NumCoefficients: 13,
		FMin:            0,
		FMax:            0,
		DeltaWidth:      9,
		RolloffFraction: 0.85,
		ContrastBands:   6,
		ContrastAlpha:   0.02,
		ContrastFMin:    200,
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("feature: sample rate must be > 0: %d", c.SampleRate)
	}

	if c.FrameSize <= 1 {
		return fmt.Errorf("feature: frame size must be > 1: %d", c.FrameSize)
	}

	if c.HopSize <= 0 {
		return fmt.Errorf("feature: hop size must be > 0: %d", c.HopSize)
	}

	return nil
}

// AtRate returns a copy of the configuration retargeted to a different
// sample rate. All frame and filterbank parameters are kept.
func (c Config) AtRate(rate int) Config {
	c.SampleRate = rate
	return c
}

func (c Config) spectralConfig() spectral.Config {
	return spectral.Config{
		SampleRate:      c.SampleRate,
		FrameSize:       c.FrameSize,
		HopSize:         c.HopSize,
		Window:          c.Window,
		RolloffFraction: c.RolloffFraction,
		ContrastBands:   c.ContrastBands,
		ContrastAlpha:   c.ContrastAlpha,
		ContrastFMin:    c.ContrastFMin,
	}
}

// MFCC returns the cepstral analysis parameters derived from the bundle.
func (c Config) MFCC() mfcc.Config {
	return mfcc.Config{
		SampleRate:      c.SampleRate,
		FrameSize:       c.FrameSize,
		HopSize:         c.HopSize,
		Window:          c.Window,
		NumMels:         c.NumMels,
		NumCoefficients: c.NumCoefficients,
		FMin:            c.FMin,
		FMax:            c.FMax,
		DeltaWidth:      c.DeltaWidth,
	}
}

func (c Config) rhythmConfig() rhythm.Config {
	return rhythm.Config{
		SampleRate: c.SampleRate,
		FrameSize:  c.FrameSize,
		HopSize:    c.HopSize,
		Window:     c.Window,
		NumMels:    c.NumMels,
	}
}

func (c Config) basicStats(samples []float64) basic.Stats {
	return basic.Calculate(samples, c.SampleRate, c.FrameSize, c.HopSize)
}
