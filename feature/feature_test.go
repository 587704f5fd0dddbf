package feature

import (
	"math"
	"sort"
	"testing"

	"github.com/cwbudde/algo-audiocmp/audio"
)

func generateSine(amplitude, freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func testExtractor(t *testing.T) *Extractor {
	t.Helper()

	cfg := DefaultConfig()
	cfg.FrameSize = 1024
	cfg.HopSize = 512
	cfg.NumMels = 40

	e, err := NewExtractor(cfg)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return e
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SampleRate != 22050 {
		t.Errorf("SampleRate: got %d, want 22050", cfg.SampleRate)
	}
	if cfg.FrameSize != 2048 || cfg.HopSize != 512 {
		t.Errorf("frame: got %d/%d, want 2048/512", cfg.FrameSize, cfg.HopSize)
	}
	if cfg.NumCoefficients != 13 || cfg.NumMels != 128 {
		t.Errorf("cepstral: got %d coefficients, %d mels", cfg.NumCoefficients, cfg.NumMels)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestNewExtractor_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 0

	if _, err := NewExtractor(cfg); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestExtractAll_Keys(t *testing.T) {
	e := testExtractor(t)
	sig := &audio.Signal{Samples: generateSine(0.5, 440, 16000, 32000), Rate: 16000}

	set, err := e.ExtractAll(sig)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}

	scalars := []string{
		"duration", "rms", "zero_crossing_rate", "peak_amplitude",
		"crest_factor", "dynamic_range",
		"spectral_centroid", "spectral_centroid_std",
		"spectral_bandwidth", "spectral_bandwidth_std",
		"spectral_rolloff", "spectral_flatness",
		"spectral_contrast_mean", "spectral_contrast_std",
	}
	for _, name := range scalars {
		if _, ok := set[name].(Scalar); !ok {
			t.Errorf("missing scalar feature %q", name)
		}
	}

	vectors := []string{
		"mfcc_mean", "mfcc_std", "mfcc_min", "mfcc_max", "mfcc_range",
		"mfcc_delta_mean", "mfcc_delta_std",
		"mfcc_delta2_mean", "mfcc_delta2_std",
	}
	for _, name := range vectors {
		v, ok := set[name].(Vector)
		if !ok {
			t.Errorf("missing vector feature %q", name)
			continue
		}
		if len(v) != 13 {
			t.Errorf("%s: got %d coefficients, want 13", name, len(v))
		}
	}

	if d, ok := set.Scalar("duration"); !ok || math.Abs(d-2) > 1e-9 {
		t.Errorf("duration: got %g, want 2", d)
	}
	if rms, ok := set.Scalar("rms"); !ok || math.Abs(rms-0.5/math.Sqrt2) > 1e-3 {
		t.Errorf("rms: got %g, want %g", rms, 0.5/math.Sqrt2)
	}
	if c, ok := set.Scalar("spectral_centroid"); !ok || math.Abs(c-440) > 50 {
		t.Errorf("spectral_centroid: got %g, want 440 within 50", c)
	}
}

func TestExtractForComparison_Keys(t *testing.T) {
	e := testExtractor(t)
	sig := &audio.Signal{Samples: generateSine(0.5, 440, 16000, 16000), Rate: 16000}

	set, err := e.ExtractForComparison(sig)
	if err != nil {
		t.Fatalf("ExtractForComparison: %v", err)
	}

	for _, name := range []string{"spectral_centroid", "spectral_bandwidth", "spectral_rolloff"} {
		if _, ok := set[name].(Vector); !ok {
			t.Errorf("missing series feature %q", name)
		}
	}

	for _, name := range []string{"spectral_contrast", "mfcc", "mfcc_delta", "mfcc_delta2"} {
		if _, ok := set[name].(Matrix); !ok {
			t.Errorf("missing matrix feature %q", name)
		}
	}

	if _, ok := set["tempo"].(Scalar); !ok {
		t.Error("missing tempo scalar")
	}
}

func TestExtractRhythm_UsesSignalRate(t *testing.T) {
	e := testExtractor(t)

	// Silence degrades regardless of rate.
	sig := &audio.Signal{Samples: make([]float64, 44100), Rate: 44100}
	if f := e.ExtractRhythm(sig); !f.Degraded {
		t.Error("silence should degrade")
	}
}

func TestSet_Names(t *testing.T) {
	set := Set{
		"zeta":  Scalar(1),
		"alpha": Scalar(2),
		"mid":   Scalar(3),
	}

	names := set.Names()
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	if len(names) != 3 {
		t.Errorf("got %d names, want 3", len(names))
	}
}

func TestValue_Flatten(t *testing.T) {
	if got := (Scalar(4)).Flatten(); len(got) != 1 || got[0] != 4 {
		t.Errorf("Scalar: got %v", got)
	}

	if got := (Vector{1, 2}).Flatten(); len(got) != 2 || got[1] != 2 {
		t.Errorf("Vector: got %v", got)
	}

	// Matrices flatten row-major.
	m := Matrix{{1, 2}, {3, 4}}
	want := []float64{1, 2, 3, 4}
	got := m.Flatten()
	if len(got) != 4 {
		t.Fatalf("Matrix: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Matrix[%d]: got %g, want %g", i, got[i], want[i])
		}
	}
}

func TestConfig_AtRate(t *testing.T) {
	cfg := DefaultConfig()
	at := cfg.AtRate(48000)

	if at.SampleRate != 48000 {
		t.Errorf("got %d, want 48000", at.SampleRate)
	}
	if cfg.SampleRate != 22050 {
		t.Error("AtRate must not mutate the receiver")
	}
}
