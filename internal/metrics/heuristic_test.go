package metrics

import (
	"context"
	"testing"

	"github.com/healthdesk/clinic-eval/internal/eval"
)

func TestExactMatch(t *testing.T) {
	m := NewExactMatch()
	ctx := context.Background()

	tests := []struct {
		name      string
		expected  string
		actual    string
		wantScore float64
		wantPass  bool
	}{
		{
			name:      "identical strings",
			expected:  "Yes, on Mondays.",
			actual:    "Yes, on Mondays.",
			wantScore: 1,
			wantPass:  true,
		},
		{
			name:      "case and punctuation ignored",
			expected:  "Yes, on Mondays.",
			actual:    "yes on mondays",
			wantScore: 1,
			wantPass:  true,
		},
		{
			name:      "extra whitespace collapsed",
			expected:  "The clinic opens at 8am.",
			actual:    "  The   clinic opens at 8am ",
			wantScore: 1,
			wantPass:  true,
		},
		{
			name:      "different answer fails",
			expected:  "Yes, on Mondays.",
			actual:    "No, appointments only.",
			wantScore: 0,
			wantPass:  false,
		},
		{
			name:      "superset is not a match",
			expected:  "Yes.",
			actual:    "Yes. And we also take walk-ins.",
			wantScore: 0,
			wantPass:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := m.Score(ctx, eval.TestCase{ExpectedOutput: tt.expected, ActualOutput: tt.actual})
			if res.Score != tt.wantScore {
				t.Errorf("Score = %v, want %v", res.Score, tt.wantScore)
			}
			if res.Passed != tt.wantPass {
				t.Errorf("Passed = %v, want %v (reason: %s)", res.Passed, tt.wantPass, res.Reason)
			}
			if !res.Passed && res.Reason == "" {
				t.Error("failing result must carry a reason")
			}
		})
	}
}

func TestContains(t *testing.T) {
	m := NewContains()
	ctx := context.Background()

	t.Run("substring passes", func(t *testing.T) {
		res := m.Score(ctx, eval.TestCase{
			ExpectedOutput: "walk-ins on Mondays",
			ActualOutput:   "Yes, we accept walk-ins on Mondays between 8am and noon.",
		})
		if !res.Passed || res.Score != 1 {
			t.Errorf("got score=%v passed=%v, want 1/true (reason: %s)", res.Score, res.Passed, res.Reason)
		}
	})

	t.Run("missing substring fails", func(t *testing.T) {
		res := m.Score(ctx, eval.TestCase{
			ExpectedOutput: "walk-ins on Mondays",
			ActualOutput:   "Appointments are required every day.",
		})
		if res.Passed || res.Score != 0 || res.Reason == "" {
			t.Errorf("got score=%v passed=%v reason=%q, want failing with reason", res.Score, res.Passed, res.Reason)
		}
	})

	t.Run("empty expected output fails", func(t *testing.T) {
		res := m.Score(ctx, eval.TestCase{ExpectedOutput: "", ActualOutput: "anything"})
		if res.Passed || res.Reason == "" {
			t.Errorf("empty expected output should fail with a reason, got %+v", res)
		}
	})
}

func TestTokenOverlap(t *testing.T) {
	ctx := context.Background()

	t.Run("full overlap scores 1", func(t *testing.T) {
		m := NewTokenOverlap(0.5)
		res := m.Score(ctx, eval.TestCase{
			ExpectedOutput: "clinic opens 8am",
			ActualOutput:   "The clinic opens at 8am every weekday.",
		})
		if res.Score != 1 || !res.Passed {
			t.Errorf("got score=%v passed=%v, want 1/true", res.Score, res.Passed)
		}
	})

	t.Run("partial overlap below threshold fails", func(t *testing.T) {
		m := NewTokenOverlap(0.75)
		res := m.Score(ctx, eval.TestCase{
			ExpectedOutput: "refills take two business days",
			ActualOutput:   "Refills are handled by the pharmacy.",
		})
		if res.Passed {
			t.Errorf("expected failure, got score=%v", res.Score)
		}
		if res.Score <= 0 || res.Score >= 0.75 {
			t.Errorf("score = %v, want in (0, 0.75)", res.Score)
		}
		if res.Reason == "" {
			t.Error("failing result must carry a reason")
		}
	})

	t.Run("default threshold applied", func(t *testing.T) {
		m := NewTokenOverlap(0)
		if m.Threshold != 0.5 {
			t.Errorf("Threshold = %v, want 0.5", m.Threshold)
		}
	})
}
