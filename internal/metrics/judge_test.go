package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/healthdesk/clinic-eval/internal/eval"
	"github.com/healthdesk/clinic-eval/internal/provider"
)

// scriptedProvider is a test double for the judge: it records the prompt and
// returns a canned response or error.
type scriptedProvider struct {
	response string
	err      error
	prompts  []string
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Generate(ctx context.Context, prompt string, cfg provider.GenerationConfig) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestJudgeMetric_Score(t *testing.T) {
	tc := eval.TestCase{
		Input:            "When does the clinic open?",
		ExpectedOutput:   "The clinic opens at 8am.",
		ActualOutput:     "We open at 8am on weekdays.",
		RetrievalContext: []string{"Clinic opens at 8am."},
	}

	t.Run("parses verdict and normalizes score", func(t *testing.T) {
		judge := &scriptedProvider{response: `{"reasoning": "answer is on topic", "score": 8}`}
		m := NewAnswerRelevancy(JudgeConfig{Provider: judge})

		res := m.Score(context.Background(), tc)
		if res.Score != 0.8 {
			t.Errorf("Score = %v, want 0.8", res.Score)
		}
		if !res.Passed {
			t.Errorf("Passed = false, want true (reason: %s)", res.Reason)
		}
		if res.Reason != "answer is on topic" {
			t.Errorf("Reason = %q, want judge reasoning", res.Reason)
		}
		if len(judge.prompts) != 1 || !strings.Contains(judge.prompts[0], tc.Input) {
			t.Errorf("judge prompt should contain the question, got %q", judge.prompts)
		}
	})

	t.Run("tolerates prose around the JSON", func(t *testing.T) {
		judge := &scriptedProvider{response: "Here is my grade:\n{\"reasoning\": \"ok\", \"score\": 5}\nThanks!"}
		m := NewCorrectness(JudgeConfig{Provider: judge})

		res := m.Score(context.Background(), tc)
		if res.Score != 0.5 || !res.Passed {
			t.Errorf("got score=%v passed=%v, want 0.5/true at default threshold", res.Score, res.Passed)
		}
	})

	t.Run("score above 10 clamps to 1", func(t *testing.T) {
		judge := &scriptedProvider{response: `{"reasoning": "x", "score": 42}`}
		m := NewCorrectness(JudgeConfig{Provider: judge})

		if res := m.Score(context.Background(), tc); res.Score != 1 {
			t.Errorf("Score = %v, want clamped 1", res.Score)
		}
	})

	t.Run("judge call failure becomes failing result", func(t *testing.T) {
		judge := &scriptedProvider{err: &provider.Error{Provider: "scripted", Message: "rate limited"}}
		m := NewFaithfulness(JudgeConfig{Provider: judge})

		res := m.Score(context.Background(), tc)
		if res.Passed {
			t.Error("Passed = true, want false on judge failure")
		}
		if !strings.Contains(res.Reason, "judge call failed") {
			t.Errorf("Reason = %q, want judge failure diagnostic", res.Reason)
		}
	})

	t.Run("garbage response becomes failing result", func(t *testing.T) {
		judge := &scriptedProvider{response: "I refuse to answer in JSON."}
		m := NewAnswerRelevancy(JudgeConfig{Provider: judge})

		res := m.Score(context.Background(), tc)
		if res.Passed || res.Reason == "" {
			t.Errorf("got %+v, want failing result with reason", res)
		}
	})

	t.Run("custom threshold respected", func(t *testing.T) {
		judge := &scriptedProvider{response: `{"reasoning": "mediocre", "score": 6}`}
		m := NewAnswerRelevancy(JudgeConfig{Provider: judge, Threshold: 0.7})

		res := m.Score(context.Background(), tc)
		if res.Passed {
			t.Errorf("score 0.6 should fail a 0.7 threshold, got %+v", res)
		}
	})

	t.Run("missing provider fails cleanly", func(t *testing.T) {
		m := NewFaithfulness(JudgeConfig{})
		res := m.Score(context.Background(), tc)
		if res.Passed || res.Reason == "" {
			t.Errorf("got %+v, want failing result with reason", res)
		}
	})
}

func TestContextualPrecision_PromptIncludesPassages(t *testing.T) {
	judge := &scriptedProvider{response: `{"reasoning": "relevant", "score": 9}`}
	m := NewContextualPrecision(JudgeConfig{Provider: judge})

	tc := eval.TestCase{
		Input:            "Do you take walk-ins?",
		RetrievalContext: []string{"Walk-ins accepted on Mondays.", "Clinic opens at 8am."},
	}
	if res := m.Score(context.Background(), tc); !res.Passed {
		t.Fatalf("unexpected failure: %+v", res)
	}

	prompt := judge.prompts[0]
	if !strings.Contains(prompt, "[1] Walk-ins accepted on Mondays.") ||
		!strings.Contains(prompt, "[2] Clinic opens at 8am.") {
		t.Errorf("judge prompt missing ranked passages:\n%s", prompt)
	}
}

func TestBuild(t *testing.T) {
	judge := JudgeConfig{Provider: &scriptedProvider{response: `{"score": 10}`}}

	t.Run("builds metrics in order", func(t *testing.T) {
		ms, err := Build([]string{"exact_match", "answer_relevancy", "token_overlap"}, judge)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := []string{ms[0].Name(), ms[1].Name(), ms[2].Name()}
		want := []string{"exact_match", "answer_relevancy", "token_overlap"}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("metric %d = %s, want %s", i, got[i], want[i])
			}
		}
	})

	t.Run("unknown metric is an error", func(t *testing.T) {
		if _, err := Build([]string{"embedding_similarity"}, judge); err == nil {
			t.Fatal("expected error for unknown metric")
		}
	})
}
