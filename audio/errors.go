package audio

import (
	"errors"
	"fmt"
)

// ErrAnalysis is the root of the error taxonomy. Both LoadError and
// ExtractionError match it via errors.Is, so callers can treat the whole
// family as one class without losing the specific type.
var ErrAnalysis = errors.New("audio analysis failed")

// ErrEmptySignal indicates a nil or zero-length input signal.
var ErrEmptySignal = errors.New("audio: empty signal")

// LoadError reports a failure to load an audio file: the path does not
// exist, the extension is unsupported, or decoding failed.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %q: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrAnalysis }

// ExtractionError reports a feature or similarity computation that cannot
// produce any result, typically a nil or empty input signal.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrAnalysis }
