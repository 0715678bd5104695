// Package metrics implements the metric suite. Heuristic metrics are pure
// string comparisons; model-graded metrics delegate to an LLM judge through
// the provider contract. Every metric scores in [0,1] and reports pass/fail
// against its threshold. A metric that cannot compute returns a failing
// result with a reason, never an error.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/healthdesk/clinic-eval/internal/eval"
)

// normalize lowercases, strips punctuation and collapses whitespace, so that
// trivially different phrasings of the same answer compare equal.
func normalize(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// ExactMatch scores 1.0 when the normalized actual output equals the
// normalized expected output, 0.0 otherwise. Passes only at 1.0.
type ExactMatch struct{}

func NewExactMatch() *ExactMatch { return &ExactMatch{} }

func (*ExactMatch) Name() string { return "exact_match" }

func (m *ExactMatch) Score(_ context.Context, tc eval.TestCase) eval.MetricResult {
	if normalize(tc.ActualOutput) == normalize(tc.ExpectedOutput) {
		return eval.MetricResult{Metric: m.Name(), Score: 1, Passed: true}
	}
	return eval.MetricResult{
		Metric: m.Name(),
		Score:  0,
		Passed: false,
		Reason: "actual output does not match expected output after normalization",
	}
}

// Contains scores 1.0 when the normalized actual output contains the
// normalized expected output as a substring. Passes only at 1.0.
type Contains struct{}

func NewContains() *Contains { return &Contains{} }

func (*Contains) Name() string { return "contains" }

func (m *Contains) Score(_ context.Context, tc eval.TestCase) eval.MetricResult {
	expected := normalize(tc.ExpectedOutput)
	if expected == "" {
		return eval.MetricResult{Metric: m.Name(), Score: 0, Passed: false, Reason: "expected output is empty"}
	}
	if strings.Contains(normalize(tc.ActualOutput), expected) {
		return eval.MetricResult{Metric: m.Name(), Score: 1, Passed: true}
	}
	return eval.MetricResult{
		Metric: m.Name(),
		Score:  0,
		Passed: false,
		Reason: "expected output not contained in actual output",
	}
}

// TokenOverlap scores the fraction of distinct expected-answer tokens that
// appear in the actual output.
type TokenOverlap struct {
	Threshold float64
}

func NewTokenOverlap(threshold float64) *TokenOverlap {
	if threshold <= 0 {
		threshold = 0.5
	}
	return &TokenOverlap{Threshold: threshold}
}

func (*TokenOverlap) Name() string { return "token_overlap" }

func (m *TokenOverlap) Score(_ context.Context, tc eval.TestCase) eval.MetricResult {
	expected := strings.Fields(normalize(tc.ExpectedOutput))
	if len(expected) == 0 {
		return eval.MetricResult{Metric: m.Name(), Score: 0, Passed: false, Reason: "expected output is empty"}
	}

	actual := make(map[string]bool)
	for _, tok := range strings.Fields(normalize(tc.ActualOutput)) {
		actual[tok] = true
	}

	seen := make(map[string]bool)
	found := 0
	total := 0
	for _, tok := range expected {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		total++
		if actual[tok] {
			found++
		}
	}

	score := float64(found) / float64(total)
	res := eval.MetricResult{Metric: m.Name(), Score: score, Passed: score >= m.Threshold}
	if !res.Passed {
		res.Reason = fmt.Sprintf("only %d of %d expected tokens present (%.2f < %.2f)", found, total, score, m.Threshold)
	}
	return res
}
