package metrics

import (
	"fmt"
	"sort"

	"github.com/healthdesk/clinic-eval/internal/eval"
)

// Available maps metric names to constructors, so a run can select metrics
// by name from configuration.
func Available(judge JudgeConfig) map[string]func() eval.Metric {
	return map[string]func() eval.Metric{
		"exact_match":          func() eval.Metric { return NewExactMatch() },
		"contains":             func() eval.Metric { return NewContains() },
		"token_overlap":        func() eval.Metric { return NewTokenOverlap(0) },
		"answer_relevancy":     func() eval.Metric { return NewAnswerRelevancy(judge) },
		"faithfulness":         func() eval.Metric { return NewFaithfulness(judge) },
		"contextual_precision": func() eval.Metric { return NewContextualPrecision(judge) },
		"correctness":          func() eval.Metric { return NewCorrectness(judge) },
		"toxicity":             func() eval.Metric { return NewToxicity(judge) },
		"bias":                 func() eval.Metric { return NewBias(judge) },
		"non_advice":           func() eval.Metric { return NewNonAdvice(judge) },
		"pii_leakage":          func() eval.Metric { return NewPIILeakage(judge) },
		"role_violation":       func() eval.Metric { return NewRoleViolation(judge) },
	}
}

// Names lists every known metric name, sorted.
func Names() []string {
	names := make([]string, 0)
	for name := range Available(JudgeConfig{}) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates the named metrics in the given order.
func Build(names []string, judge JudgeConfig) ([]eval.Metric, error) {
	available := Available(judge)
	built := make([]eval.Metric, 0, len(names))
	for _, name := range names {
		ctor, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("unknown metric %q (known: %v)", name, Names())
		}
		built = append(built, ctor())
	}
	return built, nil
}
