// Package basic computes amplitude and time-domain descriptors of a signal.
package basic

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Stats holds the basic time-domain descriptors of a signal.
type Stats struct {
	Duration         float64 // seconds
	RMS              float64
	ZeroCrossingRate float64
	PeakAmplitude    float64
	CrestFactor      float64 // peak / RMS, 0 when RMS is 0
	DynamicRange     float64 // max - min
}

// Calculate computes all basic descriptors in one pass. The zero-crossing
// rate uses analysis frames of zcrFrame samples advanced by zcrHop.
func Calculate(samples []float64, sampleRate, zcrFrame, zcrHop int) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	var (
		sumSq  float64
		maxVal = samples[0]
		minVal = samples[0]
	)

	for _, x := range samples {
		sumSq += x * x

		if x > maxVal {
			maxVal = x
		}

		if x < minVal {
			minVal = x
		}
	}

	rms := math.Sqrt(sumSq / float64(len(samples)))
	peak := vecmath.MaxAbs(samples)

	crest := 0.0
	if rms > 0 {
		crest = peak / rms
	}

	duration := 0.0
	if sampleRate > 0 {
		duration = float64(len(samples)) / float64(sampleRate)
	}

	return Stats{
		Duration:         duration,
		RMS:              rms,
		ZeroCrossingRate: ZeroCrossingRate(samples, zcrFrame, zcrHop),
		PeakAmplitude:    peak,
		CrestFactor:      crest,
		DynamicRange:     maxVal - minVal,
	}
}

// RMS returns the root-mean-square of the signal.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range samples {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(samples)))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	return vecmath.MaxAbs(samples)
}

// CrestFactor returns peak / RMS, or 0 when RMS is zero.
func CrestFactor(samples []float64) float64 {
	r := RMS(samples)
	if r == 0 {
		return 0
	}

	return Peak(samples) / r
}

// DynamicRange returns max(samples) - min(samples).
func DynamicRange(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	maxVal := samples[0]
	minVal := samples[0]

	for _, x := range samples[1:] {
		if x > maxVal {
			maxVal = x
		}

		if x < minVal {
			minVal = x
		}
	}

	return maxVal - minVal
}

// ZeroCrossingRate returns the mean, over fixed-size analysis frames, of the
// fraction of adjacent-sample sign changes within each frame. A signal
// shorter than one frame is treated as a single frame.
func ZeroCrossingRate(samples []float64, frameSize, hop int) float64 {
	if len(samples) < 2 {
		return 0
	}

	if frameSize <= 1 || frameSize > len(samples) {
		return frameRate(samples)
	}

	if hop <= 0 {
		hop = frameSize
	}

	var (
		sum    float64
		frames int
	)

	for start := 0; start+frameSize <= len(samples); start += hop {
		sum += frameRate(samples[start : start+frameSize])
		frames++
	}

	if frames == 0 {
		return frameRate(samples)
	}

	return sum / float64(frames)
}

// frameRate returns the fraction of adjacent pairs with opposite signs.
func frameRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}

	crossings := 0
	for i := 1; i < len(frame); i++ {
		if frame[i-1]*frame[i] < 0 {
			crossings++
		}
	}

	return float64(crossings) / float64(len(frame))
}
