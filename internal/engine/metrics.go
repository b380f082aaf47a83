package engine

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Metrics holds objective measures on the generated source.
type Metrics struct {
	SizeBytes        int     `json:"size_bytes"`
	UniqueSymbols    int     `json:"unique_symbols"`
	Entropy          float64 `json:"entropy"`     // bits per symbol
	AlnumRatio       float64 `json:"alnum_ratio"` // 0-1
	CompressionRatio float64 `json:"compression_ratio,omitempty"`
	LineCount        int     `json:"line_count"`
	InputSizeBytes   int     `json:"input_size_bytes,omitempty"`
}

// ComputeMetrics computes metrics on the generated source.
func ComputeMetrics(payload string) Metrics {
	m := Metrics{SizeBytes: len(payload)}
	if m.SizeBytes == 0 {
		return m
	}
	freq := make(map[rune]int)
	alnum, total := 0, 0
	for _, r := range payload {
		freq[r]++
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			alnum++
		}
	}
	m.UniqueSymbols = len(freq)
	m.AlnumRatio = float64(alnum) / float64(total)
	m.LineCount = strings.Count(strings.TrimSuffix(payload, "\n"), "\n") + 1
	n := float64(total)
	for _, c := range freq {
		p := float64(c) / n
		m.Entropy -= p * math.Log2(p)
	}
	return m
}

// ComputeMetricsWithInput computes metrics with input size for the size ratio.
func ComputeMetricsWithInput(payload string, inputSize int) Metrics {
	m := ComputeMetrics(payload)
	m.InputSizeBytes = inputSize
	if inputSize > 0 {
		m.CompressionRatio = float64(m.SizeBytes) / float64(inputSize)
	}
	return m
}

// PrintMetrics prints a one-line summary of m to w.
func PrintMetrics(w io.Writer, m Metrics) {
	line := fmt.Sprintf("%s size=%s bytes | unique=%s | entropy=%.2f | alnum_ratio=%.2f",
		Cyan("Metrics:"), Green(m.SizeBytes), Green(m.UniqueSymbols), m.Entropy, m.AlnumRatio)
	if m.CompressionRatio > 0 {
		line += fmt.Sprintf(" | ratio=%.1fx", m.CompressionRatio)
	}
	if m.LineCount > 0 {
		line += fmt.Sprintf(" | lines=%d", m.LineCount)
	}
	fmt.Fprintln(w, line)
}
