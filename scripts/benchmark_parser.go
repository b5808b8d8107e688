// Command benchmark_parser turns `go test -bench` output for the heap package
// into a markdown report, optionally comparing it against a baseline run.
//
//	go test -bench . -benchmem ./heap > new.txt
//	go run ./scripts -base old.txt -input new.txt -output report.md
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string // benchmark name without the GOMAXPROCS suffix
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult pairs a current result with its baseline, if any.
type ComparisonResult struct {
	Name     string
	Current  BenchmarkResult
	Baseline *BenchmarkResult
}

// Speedup is baseline ns/op over current ns/op; above 1.0 is an improvement.
func (c ComparisonResult) Speedup() float64 {
	if c.Baseline == nil || c.Current.NsPerOp == 0 {
		return 0
	}
	return c.Baseline.NsPerOp / c.Current.NsPerOp
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	baseFile   = flag.String("base", "", "Baseline benchmark output to compare against")
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

// BenchmarkChurn-8    1000000    1042 ns/op    0 B/op    0 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^(Benchmark\S+?)(?:-\d+)?\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
)

func main() {
	flag.Parse()

	current, err := readResults(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(current))
	}

	var baseline []BenchmarkResult
	if *baseFile != "" {
		baseline, err = readResults(*baseFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading baseline: %v\n", err)
			os.Exit(1)
		}
	}

	report := generateMarkdownReport(compare(current, baseline), time.Now())

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(report), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
		return
	}
	fmt.Fprint(os.Stdout, report)
}

func readResults(path string) ([]BenchmarkResult, error) {
	if path == "" {
		return parseBenchmarks(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseBenchmarks(f), nil
}

// parseBenchmarks reads plain or -json test output. When a benchmark appears
// more than once the last result wins.
func parseBenchmarks(r io.Reader) []BenchmarkResult {
	byName := make(map[string]BenchmarkResult)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()

		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		res := BenchmarkResult{Name: matches[1]}
		res.Iterations, _ = strconv.Atoi(matches[2])
		res.NsPerOp, _ = strconv.ParseFloat(matches[3], 64)
		if matches[4] != "" {
			res.BytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			res.AllocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}
		byName[res.Name] = res
	}

	results := make([]BenchmarkResult, 0, len(byName))
	for _, res := range byName {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

func compare(current, baseline []BenchmarkResult) []ComparisonResult {
	base := make(map[string]BenchmarkResult, len(baseline))
	for _, b := range baseline {
		base[b.Name] = b
	}
	out := make([]ComparisonResult, 0, len(current))
	for _, c := range current {
		comp := ComparisonResult{Name: c.Name, Current: c}
		if b, ok := base[c.Name]; ok {
			comp.Baseline = &b
		}
		out = append(out, comp)
	}
	return out
}

func generateMarkdownReport(comparisons []ComparisonResult, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("# Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format("2006-01-02 15:04:05")))

	faster, slower, compared := 0, 0, 0
	for _, comp := range comparisons {
		if comp.Baseline == nil {
			continue
		}
		compared++
		switch s := comp.Speedup(); {
		case s > 1.0:
			faster++
		case s < 1.0:
			slower++
		}
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total benchmarks**: %d\n", len(comparisons)))
	if compared > 0 {
		sb.WriteString(fmt.Sprintf("- **Compared with baseline**: %d\n", compared))
		sb.WriteString(fmt.Sprintf("  - faster: %d\n", faster))
		sb.WriteString(fmt.Sprintf("  - slower: %d\n", slower))
	}
	sb.WriteString("\n")

	sb.WriteString("## Detailed Results\n\n")
	sb.WriteString("| Benchmark | ns/op | Baseline ns/op | Speedup | Memory (B/op) | Allocs |\n")
	sb.WriteString("|-----------|-------|----------------|---------|---------------|--------|\n")

	for _, comp := range comparisons {
		baseNs, speedup := "*N/A*", "*N/A*"
		if comp.Baseline != nil {
			baseNs = formatNumber(comp.Baseline.NsPerOp)
			indicator := "✓"
			if comp.Speedup() < 1.0 {
				indicator = "✗"
			}
			speedup = fmt.Sprintf("%.2fx %s", comp.Speedup(), indicator)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			strings.TrimPrefix(comp.Name, "Benchmark"),
			formatNumber(comp.Current.NsPerOp),
			baseNs,
			speedup,
			formatBytes(comp.Current.BytesPerOp),
			formatNumber(float64(comp.Current.AllocsPerOp)),
		))
	}

	sb.WriteString("\n## Notes\n\n")
	sb.WriteString("- **Speedup > 1.0**: faster than the baseline ✓\n")
	sb.WriteString("- **Memory** and **Allocs** count Go heap usage only; arena bytes are not included\n")

	return sb.String()
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
