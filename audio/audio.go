package audio

// Signal is a mono audio signal paired with its sample rate in Hz.
//
// Signals are treated as immutable values: every operation in this module
// returns a new Signal and never mutates Samples in place.
type Signal struct {
	Samples []float64
	Rate    int
}

// Duration returns the signal length in seconds.
func (s *Signal) Duration() float64 {
	if s == nil || s.Rate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.Rate)
}

// Empty reports whether the signal is nil or holds no samples.
func (s *Signal) Empty() bool {
	return s == nil || len(s.Samples) == 0
}

// NormalizeLength truncates both signals from the end to the shorter length.
// The prefix is preserved and the suffix dropped. Sample rates are unchanged.
func NormalizeLength(a, b *Signal) (*Signal, *Signal) {
	if a == nil || b == nil {
		return a, b
	}

	n := len(a.Samples)
	if len(b.Samples) < n {
		n = len(b.Samples)
	}

	return &Signal{Samples: a.Samples[:n], Rate: a.Rate},
		&Signal{Samples: b.Samples[:n], Rate: b.Rate}
}
