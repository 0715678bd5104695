package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/healthdesk/clinic-eval/internal/prompt"
	"github.com/healthdesk/clinic-eval/internal/provider"
	"github.com/healthdesk/clinic-eval/internal/retriever"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Runner drives one evaluation over a dataset: it builds a test case per
// record, scores it with every configured metric, and aggregates the report.
// Records are processed strictly one at a time, in dataset order.
type Runner struct {
	builder *Builder
	metrics []Metric
	policy  PassPolicy
	state   State
}

// NewRunner wires a runner. An empty policy defaults to PassAll.
func NewRunner(builder *Builder, metrics []Metric, policy PassPolicy) *Runner {
	if policy == "" {
		policy = PassAll
	}
	return &Runner{builder: builder, metrics: metrics, policy: policy, state: NotStarted}
}

// State reports the runner lifecycle state.
func (r *Runner) State() State { return r.state }

// Run evaluates every record and returns the aggregated report. Setup
// problems (empty dataset, broken template, RAG mode without a built index)
// abort before any record is processed. A provider failure on a single
// record marks that case failed and the run continues; any other mid-run
// error aborts.
func (r *Runner) Run(ctx context.Context, records []Record) (*Report, error) {
	if r.state != NotStarted {
		return nil, fmt.Errorf("runner already %s", r.state)
	}

	if err := r.preflight(records); err != nil {
		r.state = Aborted
		return nil, err
	}
	r.state = Running

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Runner.Run",
		trace.WithAttributes(
			attribute.String("eval.mode", string(r.builder.Mode)),
			attribute.Int("eval.records", len(records)),
		),
	)
	defer span.End()

	report := &Report{
		RunID:       uuid.NewString(),
		Mode:        string(r.builder.Mode),
		StartTime:   time.Now(),
		TotalCases:  len(records),
		MetricMeans: make(map[string]float64),
		Cases:       make([]CaseResult, 0, len(records)),
	}

	slog.InfoContext(ctx, "starting evaluation run",
		"run_id", report.RunID, "mode", report.Mode, "records", len(records), "metrics", len(r.metrics))

	for i, rec := range records {
		slog.InfoContext(ctx, "evaluating record",
			"id", rec.ID, "progress", fmt.Sprintf("%d/%d", i+1, len(records)))

		result, err := r.runCase(ctx, rec)
		if err != nil {
			r.state = Aborted
			span.RecordError(err)
			span.SetStatus(codes.Error, "run aborted")
			return nil, err
		}

		report.Cases = append(report.Cases, result)
		if result.Passed {
			report.PassedCases++
		} else {
			report.FailedCases++
		}
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime).Nanoseconds()
	report.PassRate = float64(report.PassedCases) / float64(report.TotalCases)
	r.aggregate(report)
	r.state = Completed

	span.SetAttributes(attribute.Float64("eval.pass_rate", report.PassRate))
	span.SetStatus(codes.Ok, "run completed")
	slog.InfoContext(ctx, "evaluation run completed",
		"run_id", report.RunID,
		"total", report.TotalCases,
		"passed", report.PassedCases,
		"failed", report.FailedCases,
		"pass_rate", report.PassRate)

	return report, nil
}

// preflight rejects configurations for which every single case would fail
// identically, so the run fails fast instead of burning provider calls.
func (r *Runner) preflight(records []Record) error {
	if len(records) == 0 {
		return errors.New("dataset is empty")
	}
	if r.builder.Mode == prompt.ModeRAG && r.builder.Index == nil {
		return retriever.ErrIndexNotBuilt
	}
	if _, err := r.builder.Assembler.Render(r.builder.Mode, "preflight probe", []string{"probe passage"}); err != nil {
		return fmt.Errorf("template preflight: %w", err)
	}
	return nil
}

func (r *Runner) runCase(ctx context.Context, rec Record) (CaseResult, error) {
	start := time.Now()

	tc, err := r.builder.Build(ctx, rec)
	if err != nil {
		var perr *provider.Error
		if !errors.As(err, &perr) {
			return CaseResult{}, err
		}
		// Provider failures are contained per case.
		slog.ErrorContext(ctx, "provider call failed", "id", rec.ID, "error", err)
		return CaseResult{
			Record:   rec,
			TestCase: TestCase{Input: rec.Question, ExpectedOutput: rec.ExpectedAnswer},
			Passed:   false,
			Error:    err.Error(),
			Duration: time.Since(start).Nanoseconds(),
		}, nil
	}

	results := make([]MetricResult, 0, len(r.metrics))
	for _, m := range r.metrics {
		results = append(results, scoreSafely(ctx, m, tc))
	}

	return CaseResult{
		Record:   rec,
		TestCase: tc,
		Metrics:  results,
		Passed:   r.verdict(results),
		Duration: time.Since(start).Nanoseconds(),
	}, nil
}

// verdict folds per-metric verdicts into a per-case one. With no configured
// metrics a case that produced an output counts as passed.
func (r *Runner) verdict(results []MetricResult) bool {
	if len(results) == 0 {
		return true
	}
	if r.policy == PassAny {
		for _, res := range results {
			if res.Passed {
				return true
			}
		}
		return false
	}
	for _, res := range results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// scoreSafely guarantees the metric contract even for foreign
// implementations: a panicking metric becomes a failing result instead of
// taking down the run.
func scoreSafely(ctx context.Context, m Metric, tc TestCase) (result MetricResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "metric panicked", "metric", m.Name(), "panic", rec)
			result = MetricResult{
				Metric: m.Name(),
				Score:  0,
				Passed: false,
				Reason: fmt.Sprintf("metric panicked: %v", rec),
			}
		}
	}()
	return m.Score(ctx, tc)
}

// aggregate fills the per-metric mean scores over the cases where each
// metric actually ran, recording that count alongside the mean so report
// consumers know the denominator.
func (r *Runner) aggregate(report *Report) {
	totals := make(map[string]float64)
	report.MetricCounts = make(map[string]int)
	for _, c := range report.Cases {
		for _, m := range c.Metrics {
			totals[m.Metric] += m.Score
			report.MetricCounts[m.Metric]++
		}
	}
	for name, total := range totals {
		report.MetricMeans[name] = total / float64(report.MetricCounts[name])
	}
}
