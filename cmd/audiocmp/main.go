// Command audiocmp analyzes audio files and scores their similarity.
//
// Usage:
//
//	audiocmp info <file>
//	audiocmp features [flags] <file>
//	audiocmp compare [flags] <file1> <file2>
//	audiocmp batch [flags] <ref-dir> <cand-dir>
//
// Examples:
//
//	audiocmp info take1.wav
//	audiocmp features -rate 22050 take1.wav
//	audiocmp compare -multiscale take1.wav take2.flac
//	audiocmp batch -workers 8 -csv report.csv ref/ cand/
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/cwbudde/algo-audiocmp/analyzer"
	"github.com/cwbudde/algo-audiocmp/batch"
	"github.com/cwbudde/algo-audiocmp/feature"
	"github.com/cwbudde/algo-audiocmp/similarity"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error

	switch args[0] {
	case "info":
		err = runInfo(args[1:])
	case "features":
		err = runFeatures(args[1:])
	case "compare":
		err = runCompare(args[1:])
	case "batch":
		err = runBatch(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: audiocmp <command> [flags] <args>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  info      print format, sample rate, and duration of a file\n")
	fmt.Fprintf(os.Stderr, "  features  extract the summary feature set of a file\n")
	fmt.Fprintf(os.Stderr, "  compare   score the similarity of two files\n")
	fmt.Fprintf(os.Stderr, "  batch     compare same-named files across two directories\n")
	fmt.Fprintf(os.Stderr, "\nRun 'audiocmp <command> -h' for command flags.\n")
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("info expects one file, got %d arguments", fs.NArg())
	}

	a, err := analyzer.New()
	if err != nil {
		return err
	}

	info, err := a.Info(fs.Arg(0))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File\t%s\n", info.Path)
	fmt.Fprintf(tw, "Format\t%s\n", info.Format)
	fmt.Fprintf(tw, "Sample rate\t%d Hz\n", info.SampleRate)
	fmt.Fprintf(tw, "Samples\t%d\n", info.Samples)
	fmt.Fprintf(tw, "Duration\t%.3f s\n", info.Duration)

	return tw.Flush()
}

func runFeatures(args []string) error {
	fs := flag.NewFlagSet("features", flag.ExitOnError)
	rate := fs.Int("rate", 0, "resample to this rate before analysis (0 keeps the native rate)")
	csvPath := fs.String("csv", "", "write features to this CSV file instead of stdout")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("features expects one file, got %d arguments", fs.NArg())
	}

	a, err := newAnalyzer(*rate)
	if err != nil {
		return err
	}

	set, err := a.ExtractFeatures(fs.Arg(0))
	if err != nil {
		return err
	}

	rhythmFeatures, err := a.ExtractRhythm(fs.Arg(0))
	if err != nil {
		return err
	}

	rows := featureRows(set)
	rows = append(rows, [2]string{"tempo", formatFloat(rhythmFeatures.Tempo)})

	if *csvPath != "" {
		return writeCSV(*csvPath, [][]string{{"feature", "value"}}, rowsToRecords(rows))
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}

	return tw.Flush()
}

func runCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	multiscale := fs.Bool("multiscale", false, "also compare native-rate features when sample rates differ")
	csvPath := fs.String("csv", "", "write the report to this CSV file instead of stdout")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 2 {
		return fmt.Errorf("compare expects two files, got %d arguments", fs.NArg())
	}

	a, err := analyzer.New()
	if err != nil {
		return err
	}

	if !*multiscale {
		report, err := a.Compare(fs.Arg(0), fs.Arg(1))
		if err != nil {
			return err
		}

		return printReport(report, *csvPath)
	}

	ms, err := a.CompareMultiScale(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "[original]\t\n")
	for _, name := range sortedKeys(ms.Original) {
		fmt.Fprintf(tw, "%s\t%s\n", name, formatFloat(ms.Original[name]))
	}

	if ms.Resampled != nil {
		fmt.Fprintf(tw, "[resampled]\t\n")

		m := ms.Resampled.Map()
		for _, key := range similarity.MapKeys() {
			fmt.Fprintf(tw, "%s\t%s\n", key, m[key])
		}
	}

	return tw.Flush()
}

func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	workers := fs.Int("workers", 4, "concurrent comparisons")
	csvPath := fs.String("csv", "", "write results to this CSV file instead of stdout")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 2 {
		return fmt.Errorf("batch expects two directories, got %d arguments", fs.NArg())
	}

	pairs, err := batch.MatchFiles(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	if len(pairs) == 0 {
		return fmt.Errorf("no matching audio files between %q and %q", fs.Arg(0), fs.Arg(1))
	}

	a, err := analyzer.New()
	if err != nil {
		return err
	}

	results := batch.NewRunner(a, *workers).Run(context.Background(), pairs)

	if *csvPath != "" {
		header := append([]string{"name"}, similarity.MapKeys()...)
		header = append(header, "error")

		records := make([][]string, 0, len(results))
		for _, res := range results {
			row := []string{res.Pair.Name}

			m := res.Report.Map()
			for _, key := range similarity.MapKeys() {
				row = append(row, m[key])
			}

			if res.Err != nil {
				row = append(row, res.Err.Error())
			} else {
				row = append(row, "")
			}

			records = append(records, row)
		}

		return writeCSV(*csvPath, [][]string{header}, records)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\tCorrelation\tMSE\tSNR [dB]\tCosine\tMFCC\tSpectral\tStatus\n")

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(tw, "%s\t\t\t\t\t\t\t%v\n", res.Pair.Name, res.Err)
			continue
		}

		r := res.Report
		fmt.Fprintf(tw, "%s\t%.4f\t%.6g\t%.2f\t%.4f\t%.4f\t%.4f\tok\n",
			res.Pair.Name, r.Correlation, r.MSE, r.SNR, r.Cosine,
			r.MFCCSimilarity, r.SpectralSimilarity)
	}

	return tw.Flush()
}

func newAnalyzer(rate int) (*analyzer.Analyzer, error) {
	if rate > 0 {
		return analyzer.New(analyzer.WithTargetRate(rate))
	}

	return analyzer.New()
}

func printReport(report similarity.Report, csvPath string) error {
	m := report.Map()

	if csvPath != "" {
		row := make([]string, len(similarity.MapKeys()))
		for i, key := range similarity.MapKeys() {
			row[i] = m[key]
		}

		return writeCSV(csvPath, [][]string{similarity.MapKeys()}, [][]string{row})
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, key := range similarity.MapKeys() {
		fmt.Fprintf(tw, "%s\t%s\n", key, m[key])
	}

	return tw.Flush()
}

// featureRows flattens a feature set into name/value rows, expanding vector
// features to one indexed row per element.
func featureRows(set feature.Set) [][2]string {
	var rows [][2]string

	for _, name := range set.Names() {
		values := set[name].Flatten()
		if len(values) == 1 {
			rows = append(rows, [2]string{name, formatFloat(values[0])})
			continue
		}

		for i, v := range values {
			rows = append(rows, [2]string{fmt.Sprintf("%s_%d", name, i), formatFloat(v)})
		}
	}

	return rows
}

func rowsToRecords(rows [][2]string) [][]string {
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = []string{row[0], row[1]}
	}

	return records
}

func writeCSV(path string, header, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(append(header, records...)); err != nil {
		return err
	}

	w.Flush()

	return w.Error()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
