// Package frame slices signals into overlapping windowed frames and computes
// their one-sided magnitude or power spectra. It is the shared STFT front end
// for the spectral and cepstral feature calculators.
package frame

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-audiocmp/dsp/window"
)

// ErrShortSignal indicates an empty input signal.
var ErrShortSignal = errors.New("frame: empty signal")

// Config holds the framing parameters.
type Config struct {
	Size   int // FFT size, samples per frame
	Hop    int // stride between consecutive frame starts
	Window window.Type
}

func (c Config) validate() error {
	if c.Size <= 1 {
		return fmt.Errorf("frame: size must be > 1: %d", c.Size)
	}

	if c.Hop <= 0 {
		return fmt.Errorf("frame: hop must be > 0: %d", c.Hop)
	}

	return nil
}

// Count returns the number of analysis frames for n samples. Signals shorter
// than one frame still produce a single zero-padded frame.
func Count(n, size, hop int) int {
	if n <= 0 || size <= 0 || hop <= 0 {
		return 0
	}

	if n < size {
		return 1
	}

	return 1 + (n-size)/hop
}

// BinCount returns the number of one-sided spectrum bins for an FFT size.
func BinCount(size int) int {
	return size/2 + 1
}

// BinFrequency returns the center frequency in Hz of one-sided bin i.
func BinFrequency(i, size, sampleRate int) float64 {
	return float64(i) * float64(sampleRate) / float64(size)
}

// Magnitudes computes the windowed one-sided magnitude spectrum of every
// frame. The result has Count(len(samples)) rows of BinCount(cfg.Size) bins.
func Magnitudes(samples []float64, cfg Config) ([][]float64, error) {
	return spectra(samples, cfg, false)
}

// Powers computes the windowed one-sided power spectrum of every frame.
func Powers(samples []float64, cfg Config) ([][]float64, error) {
	return spectra(samples, cfg, true)
}

func spectra(samples []float64, cfg Config, power bool) ([][]float64, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if len(samples) == 0 {
		return nil, ErrShortSignal
	}

	plan, err := algofft.NewPlan64(cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("frame: failed to create FFT plan: %w", err)
	}

	coeffs := window.Generate(cfg.Window, cfg.Size)
	nFrames := Count(len(samples), cfg.Size, cfg.Hop)
	nBins := BinCount(cfg.Size)

	out := make([][]float64, nFrames)
	frameBuf := make([]float64, cfg.Size)
	fftBuf := make([]complex128, cfg.Size)
	re := make([]float64, nBins)
	im := make([]float64, nBins)

	for f := range nFrames {
		start := f * cfg.Hop

		// Copy with zero padding for the trailing partial frame.
		n := copy(frameBuf, samples[start:])
		for i := n; i < cfg.Size; i++ {
			frameBuf[i] = 0
		}

		window.Apply(frameBuf, frameBuf, coeffs)

		for i, v := range frameBuf {
			fftBuf[i] = complex(v, 0)
		}

		if err := plan.Forward(fftBuf, fftBuf); err != nil {
			return nil, fmt.Errorf("frame: FFT failed: %w", err)
		}

		for i := range nBins {
			re[i] = real(fftBuf[i])
			im[i] = imag(fftBuf[i])
		}

		bins := make([]float64, nBins)
		if power {
			vecmath.Power(bins, re, im)
		} else {
			vecmath.Magnitude(bins, re, im)
		}

		out[f] = bins
	}

	return out, nil
}
