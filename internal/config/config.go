// Package config defines the run configuration surface: evaluation mode,
// provider and model parameters, retrieval settings, and the metric
// selection. Values come from a YAML file, overridable by flags in cmd/eval
// or a JSON body in cmd/server.
package config

import (
	"fmt"
	"os"

	"github.com/healthdesk/clinic-eval/internal/eval"
	"github.com/healthdesk/clinic-eval/internal/prompt"
	"gopkg.in/yaml.v3"
)

// Config describes one evaluation run.
type Config struct {
	Mode        string  `yaml:"mode" json:"mode"`
	Provider    string  `yaml:"provider" json:"provider"`
	Model       string  `yaml:"model" json:"model"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`

	TopK int `yaml:"top_k" json:"top_k"`

	Metrics    []string `yaml:"metrics" json:"metrics"`
	JudgeModel string   `yaml:"judge_model" json:"judge_model"`
	PassPolicy string   `yaml:"pass_policy" json:"pass_policy"`

	Persona            string `yaml:"persona" json:"persona"`
	PersonaFile        string `yaml:"persona_file" json:"persona_file"`
	PromptTemplateFile string `yaml:"prompt_template_file" json:"prompt_template_file"`
	RAGTemplateFile    string `yaml:"rag_template_file" json:"rag_template_file"`

	DatasetFile       string `yaml:"dataset" json:"dataset"`
	KnowledgeBaseFile string `yaml:"knowledge_base" json:"knowledge_base"`
}

// Default returns the configuration used when no file or flags override it.
func Default() *Config {
	return &Config{
		Mode:        string(prompt.ModePrompt),
		Provider:    "openai",
		Temperature: 0,
		TopK:        3,
		PassPolicy:  string(eval.PassAll),
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that could not produce a meaningful run.
func (c *Config) Validate() error {
	switch prompt.Mode(c.Mode) {
	case prompt.ModePrompt, prompt.ModeRAG:
	default:
		return fmt.Errorf("invalid mode %q (want prompt or rag)", c.Mode)
	}
	switch c.Provider {
	case "openai", "google":
	default:
		return fmt.Errorf("invalid provider %q (want openai or google)", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0,2]", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	if prompt.Mode(c.Mode) == prompt.ModeRAG && c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive in rag mode")
	}
	switch eval.PassPolicy(c.PassPolicy) {
	case eval.PassAll, eval.PassAny, "":
	default:
		return fmt.Errorf("invalid pass_policy %q (want all or any)", c.PassPolicy)
	}
	return nil
}

// EvalMode returns the typed evaluation mode.
func (c *Config) EvalMode() prompt.Mode { return prompt.Mode(c.Mode) }

// Policy returns the typed pass policy, defaulting to ALL.
func (c *Config) Policy() eval.PassPolicy {
	if c.PassPolicy == "" {
		return eval.PassAll
	}
	return eval.PassPolicy(c.PassPolicy)
}

// MetricNames resolves the metric selection, falling back to mode-appropriate
// defaults: heuristic answer checks plus relevancy everywhere, and the
// context-dependent judges only in RAG mode.
func (c *Config) MetricNames() []string {
	if len(c.Metrics) > 0 {
		return c.Metrics
	}
	names := []string{"exact_match", "token_overlap", "answer_relevancy", "correctness"}
	if c.EvalMode() == prompt.ModeRAG {
		names = append(names, "faithfulness", "contextual_precision")
	}
	return names
}
