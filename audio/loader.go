package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-audiocmp/dsp/resample"
)

// Supported file extensions, lower case with dot.
var supportedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
}

// SupportedExtension reports whether ext (with leading dot, any case) names
// an accepted audio container.
func SupportedExtension(ext string) bool {
	return supportedExtensions[strings.ToLower(ext)]
}

// Loader decodes audio files into Signals.
//
// A Loader holds only its target sample rate and is safe for concurrent use.
type Loader struct {
	targetRate int
}

// NewLoader creates a loader that resamples to targetRate on request.
func NewLoader(targetRate int) *Loader {
	return &Loader{targetRate: targetRate}
}

// TargetRate returns the configured target sample rate.
func (l *Loader) TargetRate() int { return l.targetRate }

// Load decodes the audio file at path into a mono Signal.
//
// A blank path returns (nil, nil). A missing file, unsupported extension, or
// decode failure returns a *LoadError. When resampleToTarget is set the
// decoded signal is converted to the loader's target rate; otherwise the
// file's native rate is preserved.
func (l *Loader) Load(path string, resampleToTarget bool) (*Signal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	if err := validatePath(path); err != nil {
		return nil, err
	}

	sig, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	if resampleToTarget && sig.Rate != l.targetRate {
		sig, err = Resample(sig, l.targetRate)
		if err != nil {
			return nil, &LoadError{Path: path, Reason: "resample to target rate", Err: err}
		}
	}

	return sig, nil
}

func validatePath(path string) error {
	if _, err := os.Stat(path); err != nil {
		return &LoadError{Path: path, Reason: "file does not exist", Err: err}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return &LoadError{Path: path, Reason: fmt.Sprintf("unsupported audio format %q", ext)}
	}

	return nil
}

// Resample converts sig to targetRate using a band-limited polyphase FIR
// resampler. Upsampling and downsampling are both supported. If sig is
// already at targetRate it is returned unchanged.
func Resample(sig *Signal, targetRate int) (*Signal, error) {
	if sig == nil {
		return nil, &ExtractionError{Op: "resample: nil signal"}
	}

	if targetRate <= 0 {
		return nil, &ExtractionError{Op: fmt.Sprintf("resample: invalid target rate %d", targetRate)}
	}

	if sig.Rate == targetRate {
		return sig, nil
	}

	out, err := resample.Convert(sig.Samples, sig.Rate, targetRate)
	if err != nil {
		return nil, &ExtractionError{Op: "resample", Err: err}
	}

	return &Signal{Samples: out, Rate: targetRate}, nil
}
