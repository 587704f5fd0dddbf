package batch

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-audiocmp/analyzer"
	"github.com/cwbudde/algo-audiocmp/feature"
)

func writeTestWAV(t *testing.T, path string, samples []float64, rate int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)

	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, v := range samples {
		buf.Data[i] = int(math.Round(v * 32767))
	}

	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
}

func generateSine(amplitude, freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func TestMatchFiles(t *testing.T) {
	refDir := t.TempDir()
	candDir := t.TempDir()

	tone := generateSine(0.5, 440, 8000, 8000)
	writeTestWAV(t, filepath.Join(refDir, "x.wav"), tone, 8000)
	writeTestWAV(t, filepath.Join(candDir, "x.wav"), tone, 8000)

	// Only in one directory.
	writeTestWAV(t, filepath.Join(refDir, "y.wav"), tone, 8000)

	// Unsupported extension in both.
	for _, dir := range []string{refDir, candDir} {
		if err := os.WriteFile(filepath.Join(dir, "z.txt"), []byte("no"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	pairs, err := MatchFiles(refDir, candDir)
	if err != nil {
		t.Fatalf("MatchFiles: %v", err)
	}

	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1: %v", len(pairs), pairs)
	}
	if pairs[0].Name != "x.wav" {
		t.Errorf("Name: got %q, want x.wav", pairs[0].Name)
	}
	if pairs[0].RefPath != filepath.Join(refDir, "x.wav") {
		t.Errorf("RefPath: got %q", pairs[0].RefPath)
	}
}

func TestMatchFiles_SortedByName(t *testing.T) {
	refDir := t.TempDir()
	candDir := t.TempDir()

	tone := generateSine(0.5, 440, 8000, 4000)
	for _, name := range []string{"c.wav", "a.wav", "b.wav"} {
		writeTestWAV(t, filepath.Join(refDir, name), tone, 8000)
		writeTestWAV(t, filepath.Join(candDir, name), tone, 8000)
	}

	pairs, err := MatchFiles(refDir, candDir)
	if err != nil {
		t.Fatalf("MatchFiles: %v", err)
	}

	want := []string{"a.wav", "b.wav", "c.wav"}
	for i, name := range want {
		if pairs[i].Name != name {
			t.Errorf("pair %d: got %q, want %q", i, pairs[i].Name, name)
		}
	}
}

func TestMatchFiles_MissingDirectory(t *testing.T) {
	if _, err := MatchFiles("/nonexistent/ref", t.TempDir()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func testAnalyzer(t *testing.T) *analyzer.Analyzer {
	t.Helper()

	cfg := feature.DefaultConfig()
	cfg.FrameSize = 1024
	cfg.HopSize = 512
	cfg.NumMels = 40

	a, err := analyzer.New(analyzer.WithConfig(cfg))
	if err != nil {
		t.Fatalf("analyzer.New: %v", err)
	}
	return a
}

func TestRunner_Run(t *testing.T) {
	refDir := t.TempDir()
	candDir := t.TempDir()

	tone := generateSine(0.5, 440, 16000, 16000)
	for _, name := range []string{"a.wav", "b.wav", "c.wav"} {
		writeTestWAV(t, filepath.Join(refDir, name), tone, 16000)
		writeTestWAV(t, filepath.Join(candDir, name), tone, 16000)
	}

	pairs, err := MatchFiles(refDir, candDir)
	if err != nil {
		t.Fatalf("MatchFiles: %v", err)
	}

	results := NewRunner(testAnalyzer(t), 2).Run(context.Background(), pairs)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("pair %s: %v", res.Pair.Name, res.Err)
		}
		if res.Pair.Name != pairs[i].Name {
			t.Errorf("result %d out of order: got %q, want %q", i, res.Pair.Name, pairs[i].Name)
		}
		if math.Abs(res.Report.Correlation-1) > 1e-9 {
			t.Errorf("%s: correlation %g, want 1", res.Pair.Name, res.Report.Correlation)
		}
	}
}

func TestRunner_IndependentFailures(t *testing.T) {
	refDir := t.TempDir()
	candDir := t.TempDir()

	tone := generateSine(0.5, 440, 16000, 16000)
	writeTestWAV(t, filepath.Join(refDir, "good.wav"), tone, 16000)
	writeTestWAV(t, filepath.Join(candDir, "good.wav"), tone, 16000)

	// A matching name whose candidate is not decodable.
	writeTestWAV(t, filepath.Join(refDir, "bad.wav"), tone, 16000)
	if err := os.WriteFile(filepath.Join(candDir, "bad.wav"), []byte("RIFFgarbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	pairs, err := MatchFiles(refDir, candDir)
	if err != nil {
		t.Fatalf("MatchFiles: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}

	results := NewRunner(testAnalyzer(t), 4).Run(context.Background(), pairs)

	if results[0].Pair.Name != "bad.wav" || results[0].Err == nil {
		t.Errorf("bad pair should fail: %+v", results[0])
	}
	if results[1].Pair.Name != "good.wav" || results[1].Err != nil {
		t.Errorf("good pair should succeed: %v", results[1].Err)
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	refDir := t.TempDir()
	candDir := t.TempDir()

	tone := generateSine(0.5, 440, 16000, 8000)
	writeTestWAV(t, filepath.Join(refDir, "a.wav"), tone, 16000)
	writeTestWAV(t, filepath.Join(candDir, "a.wav"), tone, 16000)

	pairs, err := MatchFiles(refDir, candDir)
	if err != nil {
		t.Fatalf("MatchFiles: %v", err)
	}

	results := NewRunner(testAnalyzer(t), 1).Run(ctx, pairs)
	if results[0].Err == nil {
		t.Error("expected context error")
	}
}
