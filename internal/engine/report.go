package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Report holds obfuscation session data for reporting.
type Report struct {
	InputPath      string        `json:"input_path"`
	OutputPath     string        `json:"output_path"`
	Seed           int64         `json:"seed"`
	Iterations     int           `json:"iterations"`
	RewriteImports bool          `json:"rewrite_imports"`
	Passes         []PassStats   `json:"passes"`
	Analysis       *TreeStats    `json:"analysis,omitempty"`
	Metrics        Metrics       `json:"metrics"`
	Warnings       []string      `json:"warnings,omitempty"`
	Duration       time.Duration `json:"duration_ns,omitempty"`
}

// ToJSON returns the report as indented JSON (for CI/CD integration).
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Totals sums the per-pass counters.
func (r *Report) Totals() PassStats {
	var t PassStats
	for _, p := range r.Passes {
		t.Renamed += p.Renamed
		t.ImportBindings += p.ImportBindings
		t.Literals += p.Literals
		t.Docstrings += p.Docstrings
		t.FStrings += p.FStrings
		t.DynamicImports += p.DynamicImports
	}
	t.Iteration = len(r.Passes)
	return t
}

// PrintReport writes the obfuscation report to w.
func PrintReport(w io.Writer, r *Report) {
	t := r.Totals()
	fmt.Fprintln(w)
	fmt.Fprintln(w, Bold("=== obfuspy Report ==="))
	fmt.Fprintf(w, "%s    %s\n", Yellow("Input:"), r.InputPath)
	fmt.Fprintf(w, "%s   %s\n", Yellow("Output:"), r.OutputPath)
	fmt.Fprintf(w, "%s %s\n", Yellow("Passes:"), Green(r.Iterations))
	fmt.Fprintf(w, "%s %d identifiers, %d literals, %d docstrings, %d f-strings\n",
		Yellow("Rewritten:"), t.Renamed, t.Literals, t.Docstrings, t.FStrings)
	if r.RewriteImports {
		fmt.Fprintf(w, "%s %d\n", Yellow("Dynamic imports:"), t.DynamicImports)
	}
	if len(r.Passes) > 1 {
		per := make([]string, len(r.Passes))
		for i, p := range r.Passes {
			per[i] = strconv.Itoa(p.Renamed)
		}
		fmt.Fprintf(w, "%s %s\n", Yellow("Renamed per pass:"), strings.Join(per, ", "))
	}
	fmt.Fprintf(w, "%s  %d bytes\n", Yellow("Input size:"), r.Metrics.InputSizeBytes)
	fmt.Fprintf(w, "%s %d bytes", Yellow("Output size:"), r.Metrics.SizeBytes)
	if r.Metrics.CompressionRatio > 0 {
		fmt.Fprintf(w, " %s", Gray(fmt.Sprintf("(%.1fx)", r.Metrics.CompressionRatio)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s   %.2f bits/symbol\n", Yellow("Entropy:"), r.Metrics.Entropy)
	fmt.Fprintf(w, "%s %d\n", Yellow("Seed:"), r.Seed)
	if r.Duration > 0 {
		fmt.Fprintf(w, "%s  %s\n", Yellow("Duration:"), r.Duration.Round(time.Millisecond))
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, Red("Warnings:"))
		for _, msg := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
	fmt.Fprintln(w, Bold("======================"))
}
