package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/healthdesk/clinic-eval/internal/eval"
	"github.com/healthdesk/clinic-eval/internal/provider"
)

// DefaultJudgeThreshold is the pass threshold for model-graded metrics.
const DefaultJudgeThreshold = 0.5

// JudgeConfig wires the LLM judge used by model-graded metrics. The judge
// speaks the same Generate contract as the provider under evaluation, so
// tests can substitute a double for both.
type JudgeConfig struct {
	Provider   provider.Provider
	Generation provider.GenerationConfig
	Threshold  float64
}

func (c JudgeConfig) threshold() float64 {
	if c.Threshold <= 0 {
		return DefaultJudgeThreshold
	}
	return c.Threshold
}

const judgePreamble = `You are an expert evaluator grading the output of a clinic assistant.
Be consistent and objective.

Grade on a 0-10 scale against the criterion below.

IMPORTANT: respond with ONLY a valid JSON object in this EXACT format, no extra text:
{
  "reasoning": "brief step-by-step analysis",
  "score": <number 0-10>
}`

// judgeMetric is the shared machinery of all model-graded metrics: render a
// grading prompt, call the judge, parse the verdict. Any failure along the
// way becomes a failing MetricResult with a diagnostic reason.
type judgeMetric struct {
	name      string
	cfg       JudgeConfig
	criterion func(tc eval.TestCase) string
}

func (m *judgeMetric) Name() string { return m.name }

func (m *judgeMetric) Score(ctx context.Context, tc eval.TestCase) eval.MetricResult {
	fail := func(reason string) eval.MetricResult {
		return eval.MetricResult{Metric: m.name, Score: 0, Passed: false, Reason: reason}
	}
	if m.cfg.Provider == nil {
		return fail("no judge provider configured")
	}

	prompt := judgePreamble + "\n\n" + m.criterion(tc)
	raw, err := m.cfg.Provider.Generate(ctx, prompt, m.cfg.Generation)
	if err != nil {
		return fail(fmt.Sprintf("judge call failed: %v", err))
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		return fail(fmt.Sprintf("judge response unusable: %v", err))
	}

	score := clamp01(verdict.Score / 10)
	return eval.MetricResult{
		Metric: m.name,
		Score:  score,
		Passed: score >= m.cfg.threshold(),
		Reason: verdict.Reasoning,
	}
}

type verdict struct {
	Reasoning string  `json:"reasoning"`
	Score     float64 `json:"score"`
}

// parseVerdict extracts the JSON object from the judge output, tolerating
// prose around it.
func parseVerdict(raw string) (verdict, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return verdict{}, fmt.Errorf("no JSON object in %q", truncate(raw, 120))
	}
	var v verdict
	if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err != nil {
		return verdict{}, fmt.Errorf("parse JSON: %w", err)
	}
	return v, nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func numberedContext(passages []string) string {
	if len(passages) == 0 {
		return "(no context was retrieved)"
	}
	var sb strings.Builder
	for i, p := range passages {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] %s", i+1, p)
	}
	return sb.String()
}

// NewAnswerRelevancy grades whether the answer addresses the question asked.
func NewAnswerRelevancy(cfg JudgeConfig) eval.Metric {
	return &judgeMetric{
		name: "answer_relevancy",
		cfg:  cfg,
		criterion: func(tc eval.TestCase) string {
			return fmt.Sprintf(`Criterion: does the answer directly address the question?
10 means fully on-topic and responsive, 0 means unrelated or evasive.

Question: %q
Answer: %q`, tc.Input, tc.ActualOutput)
		},
	}
}

// NewFaithfulness grades whether the answer is supported by the retrieved
// context and invents nothing beyond it.
func NewFaithfulness(cfg JudgeConfig) eval.Metric {
	return &judgeMetric{
		name: "faithfulness",
		cfg:  cfg,
		criterion: func(tc eval.TestCase) string {
			return fmt.Sprintf(`Criterion: is every claim in the answer supported by the context passages?
10 means fully grounded, 0 means contradicted or fabricated.

Context passages:
%s

Question: %q
Answer: %q`, numberedContext(tc.RetrievalContext), tc.Input, tc.ActualOutput)
		},
	}
}

// NewContextualPrecision grades whether the retrieved passages are relevant
// to the question, with the most relevant ranked first.
func NewContextualPrecision(cfg JudgeConfig) eval.Metric {
	return &judgeMetric{
		name: "contextual_precision",
		cfg:  cfg,
		criterion: func(tc eval.TestCase) string {
			return fmt.Sprintf(`Criterion: are the retrieved passages relevant to the question, and are the
most relevant passages ranked first? 10 means all passages relevant and well
ordered, 0 means none are relevant.

Retrieved passages (in rank order):
%s

Question: %q`, numberedContext(tc.RetrievalContext), tc.Input)
		},
	}
}

// NewCorrectness grades factual agreement between the answer and the
// expected answer: contradictions and omissions of critical details are
// penalized, concise accurate answers rewarded.
func NewCorrectness(cfg JudgeConfig) eval.Metric {
	return &judgeMetric{
		name: "correctness",
		cfg:  cfg,
		criterion: func(tc eval.TestCase) string {
			return fmt.Sprintf(`Criterion: grade the answer against the reference.
- Check whether facts in the answer contradict facts in the reference.
- Penalize hallucinations and false statements.
- Penalize omissions of critical details; reward concise accurate answers.

Question: %q
Reference answer: %q
Answer under test: %q`, tc.Input, tc.ExpectedOutput, tc.ActualOutput)
		},
	}
}
