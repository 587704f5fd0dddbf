package mfcc

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-audiocmp/dsp/window"
)

func testConfig() Config {
	return Config{
		SampleRate:      8000,
		FrameSize:       1024,
		HopSize:         512,
		Window:          window.TypeHann,
		NumMels:         40,
		NumCoefficients: 13,
		DeltaWidth:      9,
	}
}

func generateSine(amplitude, freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func TestHzMelRoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 100, 440, 1000, 4000, 22050} {
		got := MelToHz(HzToMel(hz))
		if math.Abs(got-hz) > 1e-6*(1+hz) {
			t.Errorf("round trip %g Hz: got %g", hz, got)
		}
	}

	// 1000 Hz is almost exactly 1000 mel on the HTK scale.
	if mel := HzToMel(1000); math.Abs(mel-1000) > 1 {
		t.Errorf("HzToMel(1000): got %g, want ~1000", mel)
	}
}

func TestFilterBank_Shape(t *testing.T) {
	bank := FilterBank(40, 1024, 8000, 0, 4000)

	if len(bank) != 40 {
		t.Fatalf("got %d filters, want 40", len(bank))
	}

	for m, row := range bank {
		if len(row) != 513 {
			t.Fatalf("filter %d: got %d bins, want 513", m, len(row))
		}

		var sum float64
		for _, w := range row {
			if w < 0 || w > 1 {
				t.Fatalf("filter %d: weight %g outside [0,1]", m, w)
			}
			sum += w
		}

		if sum == 0 {
			t.Errorf("filter %d: all-zero triangle", m)
		}
	}
}

func TestApplyFilterBank_FlatSpectrum(t *testing.T) {
	bank := FilterBank(10, 256, 8000, 0, 4000)

	spectrum := make([]float64, 129)
	for i := range spectrum {
		spectrum[i] = 1
	}

	energies := ApplyFilterBank(bank, spectrum)
	if len(energies) != 10 {
		t.Fatalf("got %d energies, want 10", len(energies))
	}

	for m, e := range energies {
		if e <= 0 {
			t.Errorf("band %d: got %g, want > 0", m, e)
		}
	}
}

func TestExtract_Shape(t *testing.T) {
	signal := generateSine(1, 440, 8000, 4096)

	coeffs, err := Extract(signal, testConfig())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	wantFrames := 1 + (4096-1024)/512
	if len(coeffs) != wantFrames {
		t.Fatalf("got %d frames, want %d", len(coeffs), wantFrames)
	}

	for f, row := range coeffs {
		if len(row) != 13 {
			t.Fatalf("frame %d: got %d coefficients, want 13", f, len(row))
		}
	}
}

func TestExtract_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.NumCoefficients = 60 // more than NumMels

	if _, err := Extract(generateSine(1, 440, 8000, 2048), cfg); err == nil {
		t.Error("expected error for coefficients > mel bands")
	}

	cfg = testConfig()
	cfg.SampleRate = 0

	if _, err := Extract(generateSine(1, 440, 8000, 2048), cfg); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestDelta_ConstantIsZero(t *testing.T) {
	coeffs := make([][]float64, 20)
	for i := range coeffs {
		coeffs[i] = []float64{3, -1, 0.5}
	}

	delta := Delta(coeffs, 9)
	for t2, row := range delta {
		for c, v := range row {
			if v != 0 {
				t.Fatalf("frame %d coeff %d: got %g, want 0", t2, c, v)
			}
		}
	}
}

func TestDelta_LinearRampSlope(t *testing.T) {
	// Coefficient values growing by 2 per frame have slope 2 away from the
	// replicated edges.
	coeffs := make([][]float64, 30)
	for i := range coeffs {
		coeffs[i] = []float64{2 * float64(i)}
	}

	delta := Delta(coeffs, 9)
	for f := 4; f < 26; f++ {
		if math.Abs(delta[f][0]-2) > 1e-12 {
			t.Fatalf("frame %d: got %g, want 2", f, delta[f][0])
		}
	}

	// Edge frames see replicated values, so their slope magnitude shrinks.
	if delta[0][0] >= delta[10][0] {
		t.Errorf("edge slope %g should be below interior slope %g", delta[0][0], delta[10][0])
	}
}

func TestSummarize(t *testing.T) {
	coeffs := [][]float64{
		{1, 10},
		{3, 20},
	}

	s := Summarize(coeffs)

	if s.Mean[0] != 2 || s.Mean[1] != 15 {
		t.Errorf("Mean: got %v", s.Mean)
	}
	if s.Min[0] != 1 || s.Max[0] != 3 || s.Range[0] != 2 {
		t.Errorf("Min/Max/Range: got %v %v %v", s.Min, s.Max, s.Range)
	}
	if math.Abs(s.Std[0]-1) > 1e-12 {
		t.Errorf("Std: got %g, want 1", s.Std[0])
	}
}

func TestSimilarity(t *testing.T) {
	signal := generateSine(1, 440, 8000, 4096)

	coeffs, err := Extract(signal, testConfig())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got := Similarity(coeffs, coeffs); math.Abs(got-1) > 1e-9 {
		t.Errorf("self similarity: got %g, want 1", got)
	}

	if got := Similarity(coeffs, nil); got != 0 {
		t.Errorf("nil operand: got %g, want 0", got)
	}

	zeros := [][]float64{make([]float64, 13), make([]float64, 13)}
	if got := Similarity(coeffs, zeros); got != 0 {
		t.Errorf("zero operand: got %g, want 0", got)
	}
}
