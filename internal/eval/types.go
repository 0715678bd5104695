// Package eval contains the evaluation core: the dataset model, the test
// case builder and the runner that sequences one evaluation per dataset
// record and aggregates the report.
package eval

import (
	"context"
	"time"
)

// Record is one evaluation item from the dataset. Additional JSON fields in
// the dataset file are ignored.
type Record struct {
	ID               string `json:"id"`
	Question         string `json:"question"`
	ExpectedAnswer   string `json:"expected_answer"`
	ReferenceContext string `json:"reference_context,omitempty"`
}

// TestCase is the unit handed to metrics: the question, the expected and
// actual answers, and the passages that were injected into the prompt (empty
// in prompt-only mode). Never mutated after construction.
type TestCase struct {
	Input            string   `json:"input"`
	ExpectedOutput   string   `json:"expected_output"`
	ActualOutput     string   `json:"actual_output"`
	RetrievalContext []string `json:"retrieval_context,omitempty"`
	// Prompt is the fully rendered prompt, kept for diagnostics.
	Prompt string `json:"prompt,omitempty"`
}

// MetricResult is the outcome of one metric applied to one test case.
type MetricResult struct {
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
	Passed bool    `json:"passed"`
	Reason string  `json:"reason,omitempty"`
}

// Metric scores a test case. Implementations must contain their own
// failures: a metric that cannot compute returns a failing MetricResult with
// a reason instead of panicking.
type Metric interface {
	Name() string
	Score(ctx context.Context, tc TestCase) MetricResult
}

// PassPolicy decides how per-metric verdicts combine into a per-case verdict.
type PassPolicy string

const (
	// PassAll requires every configured metric to pass (default).
	PassAll PassPolicy = "all"
	// PassAny requires at least one configured metric to pass.
	PassAny PassPolicy = "any"
)

// State is the runner lifecycle. Completed and Aborted are terminal.
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// CaseResult pairs one dataset record with its test case and metric verdicts.
// Error is set when the provider call failed; such cases carry no metric
// results and count as failed.
type CaseResult struct {
	Record   Record         `json:"record"`
	TestCase TestCase       `json:"test_case"`
	Metrics  []MetricResult `json:"metrics,omitempty"`
	Passed   bool           `json:"passed"`
	Error    string         `json:"error,omitempty"`
	Duration int64          `json:"duration"`
}

// Report aggregates a full run. Cases always holds exactly one entry per
// dataset record, in dataset order.
type Report struct {
	RunID       string             `json:"run_id"`
	Mode        string             `json:"mode"`
	DatasetName string             `json:"dataset_name,omitempty"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     time.Time          `json:"end_time"`
	Duration    int64              `json:"duration"`
	TotalCases  int                `json:"total_cases"`
	PassedCases int                `json:"passed_cases"`
	FailedCases int                `json:"failed_cases"`
	PassRate    float64            `json:"pass_rate"`
	MetricMeans map[string]float64 `json:"metric_means"`
	// MetricCounts is the number of cases each metric actually scored, the
	// denominator of its mean. Provider-failed cases carry no metric results
	// and are not counted.
	MetricCounts map[string]int `json:"metric_counts,omitempty"`
	Cases        []CaseResult   `json:"cases"`
}
