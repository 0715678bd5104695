package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/healthdesk/clinic-eval/internal/eval"
	"github.com/healthdesk/clinic-eval/internal/prompt"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.EvalMode() != prompt.ModePrompt {
		t.Errorf("mode = %s, want prompt", cfg.Mode)
	}
	if cfg.Provider != "openai" || cfg.TopK != 3 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Policy() != eval.PassAll {
		t.Errorf("policy = %s, want all", cfg.Policy())
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.yaml")
	raw := `
mode: rag
provider: google
model: gemini-2.0-flash
temperature: 0.3
top_k: 5
metrics: [exact_match, faithfulness]
pass_policy: any
knowledge_base: data/clinic_context.txt
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.EvalMode() != prompt.ModeRAG || cfg.Provider != "google" || cfg.TopK != 5 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"exact_match", "faithfulness"}, cfg.MetricNames()); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
	if cfg.Policy() != eval.PassAny {
		t.Errorf("policy = %s, want any", cfg.Policy())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "chat" }},
		{"bad provider", func(c *Config) { c.Provider = "anthropic" }},
		{"negative temperature", func(c *Config) { c.Temperature = -1 }},
		{"temperature too high", func(c *Config) { c.Temperature = 3 }},
		{"negative max tokens", func(c *Config) { c.MaxTokens = -5 }},
		{"rag without top_k", func(c *Config) { c.Mode = "rag"; c.TopK = 0 }},
		{"bad pass policy", func(c *Config) { c.PassPolicy = "most" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMetricNames_Defaults(t *testing.T) {
	cfg := Default()
	for _, name := range cfg.MetricNames() {
		if name == "faithfulness" || name == "contextual_precision" {
			t.Errorf("prompt mode defaults should not include %s", name)
		}
	}

	cfg.Mode = string(prompt.ModeRAG)
	var hasFaithfulness bool
	for _, name := range cfg.MetricNames() {
		if name == "faithfulness" {
			hasFaithfulness = true
		}
	}
	if !hasFaithfulness {
		t.Error("rag mode defaults should include faithfulness")
	}
}
