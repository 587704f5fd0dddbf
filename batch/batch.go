// Package batch compares directories of audio files pairwise using a
// bounded worker pool. Files are paired by identical name; each pair is
// scored independently so one failure never aborts the run.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cwbudde/algo-audiocmp/analyzer"
	"github.com/cwbudde/algo-audiocmp/audio"
	"github.com/cwbudde/algo-audiocmp/similarity"
)

// Pair names one reference/candidate file pair.
type Pair struct {
	Name     string // shared file name
	RefPath  string
	CandPath string
}

// Result is the outcome of scoring one pair. Err is set when the pair could
// not be compared; Report is valid only when Err is nil.
type Result struct {
	Pair   Pair
	Report similarity.Report
	Err    error
}

// MatchFiles pairs supported audio files that exist under the same name in
// both directories, sorted by name.
func MatchFiles(refDir, candDir string) ([]Pair, error) {
	refNames, err := supportedNames(refDir)
	if err != nil {
		return nil, err
	}

	candNames, err := supportedNames(candDir)
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for name := range refNames {
		if _, ok := candNames[name]; !ok {
			continue
		}

		pairs = append(pairs, Pair{
			Name:     name,
			RefPath:  filepath.Join(refDir, name),
			CandPath: filepath.Join(candDir, name),
		})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })

	return pairs, nil
}

func supportedNames(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if audio.SupportedExtension(filepath.Ext(entry.Name())) {
			names[entry.Name()] = struct{}{}
		}
	}

	return names, nil
}

// Runner scores pairs concurrently with a fixed worker count.
type Runner struct {
	analyzer *analyzer.Analyzer
	workers  int
}

// NewRunner returns a runner using the given analyzer. Worker counts below 1
// are raised to 1.
func NewRunner(a *analyzer.Analyzer, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}

	return &Runner{analyzer: a, workers: workers}
}

// Run scores every pair and returns one result per pair in input order.
// Cancelling the context marks the remaining pairs with ctx.Err().
func (r *Runner) Run(ctx context.Context, pairs []Pair) []Result {
	results := make([]Result, len(pairs))

	jobs := make(chan int)

	var wg sync.WaitGroup
	for range r.workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				results[i] = r.score(ctx, pairs[i])
			}
		}()
	}

	for i := range pairs {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	return results
}

func (r *Runner) score(ctx context.Context, pair Pair) Result {
	if err := ctx.Err(); err != nil {
		return Result{Pair: pair, Err: err}
	}

	report, err := r.analyzer.Compare(pair.RefPath, pair.CandPath)

	return Result{Pair: pair, Report: report, Err: err}
}
