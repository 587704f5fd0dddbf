// Package resample provides band-limited rational sample-rate conversion
// using polyphase FIR filtering with Kaiser-windowed sinc prototypes.
//
// The package is offline-oriented: Convert processes a complete signal in
// one call. Quality modes trade taps per phase against stopband attenuation:
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
//
// Common workflows:
//   - Convert(input, inRate, outRate, opts...)
//   - ConvertRational(input, up, down, opts...)
package resample
