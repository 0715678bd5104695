// Package run assembles an evaluation session from a configuration: the
// provider, the prompt assembler, the retrieval index, the metric suite and
// the runner. Both the CLI and the server build sessions through it.
package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/healthdesk/clinic-eval/internal/config"
	"github.com/healthdesk/clinic-eval/internal/eval"
	"github.com/healthdesk/clinic-eval/internal/metrics"
	"github.com/healthdesk/clinic-eval/internal/prompt"
	"github.com/healthdesk/clinic-eval/internal/provider"
	"github.com/healthdesk/clinic-eval/internal/retriever"
)

// Session is one fully wired evaluation run.
type Session struct {
	Config      *config.Config
	Runner      *eval.Runner
	Records     []eval.Record
	DatasetName string
}

// New validates the configuration and wires every collaborator. Setup
// failures (unreadable files, broken templates, unknown metrics) surface
// here, before any provider call is made.
func New(ctx context.Context, cfg *config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	prov, err := buildProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	assembler, err := buildAssembler(cfg)
	if err != nil {
		return nil, err
	}

	records, datasetName, err := loadRecords(cfg)
	if err != nil {
		return nil, err
	}

	var index *retriever.Index
	if cfg.EvalMode() == prompt.ModeRAG {
		passages, err := loadKnowledgeBase(cfg)
		if err != nil {
			return nil, err
		}
		index = retriever.Build(passages)
	}

	judge := metrics.JudgeConfig{
		Provider: prov,
		// Judge calls stay deterministic regardless of the run temperature.
		Generation: provider.GenerationConfig{Model: cfg.JudgeModel},
	}
	suite, err := metrics.Build(cfg.MetricNames(), judge)
	if err != nil {
		return nil, err
	}

	builder := &eval.Builder{
		Mode:      cfg.EvalMode(),
		Assembler: assembler,
		Index:     index,
		Provider:  prov,
		TopK:      cfg.TopK,
		Generation: provider.GenerationConfig{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
	}

	return &Session{
		Config:      cfg,
		Runner:      eval.NewRunner(builder, suite, cfg.Policy()),
		Records:     records,
		DatasetName: datasetName,
	}, nil
}

// Run executes the session and stamps the dataset name on the report.
func (s *Session) Run(ctx context.Context) (*eval.Report, error) {
	report, err := s.Runner.Run(ctx, s.Records)
	if err != nil {
		return nil, err
	}
	report.DatasetName = s.DatasetName
	return report, nil
}

func buildProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return provider.NewOpenAI(), nil
	case "google":
		return provider.NewGoogle(ctx, os.Getenv("GOOGLE_API_KEY"))
	}
	return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
}

func buildAssembler(cfg *config.Config) (*prompt.Assembler, error) {
	persona := cfg.Persona
	if persona == "" && cfg.PersonaFile != "" {
		data, err := os.ReadFile(cfg.PersonaFile)
		if err != nil {
			return nil, fmt.Errorf("read persona file: %w", err)
		}
		persona = string(data)
	}
	assembler := prompt.New(persona)

	if cfg.PromptTemplateFile != "" {
		if err := useTemplateFile(assembler, prompt.ModePrompt, cfg.PromptTemplateFile); err != nil {
			return nil, err
		}
	}
	if cfg.RAGTemplateFile != "" {
		if err := useTemplateFile(assembler, prompt.ModeRAG, cfg.RAGTemplateFile); err != nil {
			return nil, err
		}
	}
	return assembler, nil
}

func useTemplateFile(a *prompt.Assembler, mode prompt.Mode, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s template file: %w", mode, err)
	}
	if err := a.UseTemplate(mode, string(data)); err != nil {
		return err
	}
	return nil
}

func loadRecords(cfg *config.Config) ([]eval.Record, string, error) {
	if cfg.DatasetFile == "" {
		return eval.DefaultDataset(), "built-in clinic dataset", nil
	}
	records, err := eval.LoadDataset(cfg.DatasetFile)
	if err != nil {
		return nil, "", err
	}
	return records, filepath.Base(cfg.DatasetFile), nil
}

func loadKnowledgeBase(cfg *config.Config) ([]string, error) {
	if cfg.KnowledgeBaseFile == "" {
		return eval.DefaultKnowledgeBase(), nil
	}
	return eval.LoadKnowledgeBase(cfg.KnowledgeBaseFile)
}
