package eval

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDataset(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		records := []Record{
			{ID: "c1", Question: "Do you accept walk-ins?", ExpectedAnswer: "Yes, on Mondays."},
			{ID: "c2", Question: "When do you open?", ExpectedAnswer: "At 8am.", ReferenceContext: "Clinic opens at 8am."},
		}
		path := filepath.Join(t.TempDir(), "dataset.json")
		if err := SaveDataset(path, records); err != nil {
			t.Fatalf("SaveDataset: %v", err)
		}
		loaded, err := LoadDataset(path)
		if err != nil {
			t.Fatalf("LoadDataset: %v", err)
		}
		if diff := cmp.Diff(records, loaded); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown fields ignored", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dataset.json")
		raw := `[{"question": "q", "expected_answer": "a", "difficulty": "easy", "tags": ["x"]}]`
		if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
			t.Fatal(err)
		}
		loaded, err := LoadDataset(path)
		if err != nil {
			t.Fatalf("LoadDataset: %v", err)
		}
		if len(loaded) != 1 || loaded[0].Question != "q" {
			t.Errorf("loaded = %+v, want one record with question q", loaded)
		}
	})

	t.Run("missing question rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dataset.json")
		if err := os.WriteFile(path, []byte(`[{"expected_answer": "a"}]`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadDataset(path); err == nil {
			t.Fatal("expected error for record without question")
		}
	})

	t.Run("missing id assigned positionally", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dataset.json")
		if err := os.WriteFile(path, []byte(`[{"question": "q1"}, {"question": "q2"}]`), 0o644); err != nil {
			t.Fatal(err)
		}
		loaded, err := LoadDataset(path)
		if err != nil {
			t.Fatalf("LoadDataset: %v", err)
		}
		if loaded[0].ID == "" || loaded[1].ID == "" || loaded[0].ID == loaded[1].ID {
			t.Errorf("ids = %q, %q, want distinct non-empty", loaded[0].ID, loaded[1].ID)
		}
	})
}

func TestSplitPassages(t *testing.T) {
	text := "First passage spans\ntwo lines.\n\nSecond passage.\n\n\n\nThird passage.\n"
	got := SplitPassages(text)
	want := []string{"First passage spans\ntwo lines.", "Second passage.", "Third passage."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitPassages mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadKnowledgeBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.txt")
	if err := os.WriteFile(path, []byte("Clinic opens at 8am.\r\n\r\nWalk-ins on Mondays.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	passages, err := LoadKnowledgeBase(path)
	if err != nil {
		t.Fatalf("LoadKnowledgeBase: %v", err)
	}
	want := []string{"Clinic opens at 8am.", "Walk-ins on Mondays."}
	if diff := cmp.Diff(want, passages); diff != "" {
		t.Errorf("passages mismatch (-want +got):\n%s", diff)
	}
}

func TestReportRoundTrip(t *testing.T) {
	report := &Report{
		RunID:       "run-123",
		Mode:        "rag",
		DatasetName: "clinic_qa",
		StartTime:   time.Now().Truncate(time.Second),
		TotalCases:  1,
		PassedCases: 1,
		PassRate:    1,
		MetricMeans: map[string]float64{"exact_match": 1},
		Cases: []CaseResult{
			{
				Record:   Record{ID: "c1", Question: "q", ExpectedAnswer: "a"},
				TestCase: TestCase{Input: "q", ExpectedOutput: "a", ActualOutput: "a"},
				Metrics:  []MetricResult{{Metric: "exact_match", Score: 1, Passed: true}},
				Passed:   true,
			},
		},
	}

	path := filepath.Join(t.TempDir(), "reports", "run.json")
	if err := SaveReport(path, report); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	loaded, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if loaded.RunID != report.RunID || loaded.TotalCases != report.TotalCases {
		t.Errorf("loaded = %+v, want %+v", loaded, report)
	}
	if len(loaded.Cases) != 1 || !loaded.Cases[0].Passed {
		t.Errorf("cases = %+v, want one passing case", loaded.Cases)
	}
}

func TestDefaultDataset(t *testing.T) {
	records := DefaultDataset()
	if len(records) == 0 {
		t.Fatal("default dataset should not be empty")
	}
	for i, rec := range records {
		if rec.ID == "" || rec.Question == "" || rec.ExpectedAnswer == "" {
			t.Errorf("record %d incomplete: %+v", i, rec)
		}
	}
	if len(DefaultKnowledgeBase()) == 0 {
		t.Fatal("default knowledge base should not be empty")
	}
}
