package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/healthdesk/clinic-eval/internal/config"
	"github.com/healthdesk/clinic-eval/internal/eval"
	"github.com/healthdesk/clinic-eval/internal/run"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file (optional, flags override it)")
		mode        = flag.String("mode", "", "Evaluation mode: prompt or rag")
		datasetPath = flag.String("dataset", "", "Path to test dataset JSON file (optional, uses built-in dataset if not provided)")
		kbPath      = flag.String("kb", "", "Path to knowledge base text file for rag mode (optional, uses built-in passages if not provided)")
		providerID  = flag.String("provider", "", "Model provider: openai or google")
		model       = flag.String("model", "", "Model to evaluate (provider default if empty)")
		temperature = flag.Float64("temperature", -1, "Sampling temperature (provider default if negative)")
		maxTokens   = flag.Int("max-tokens", 0, "Response token limit (0 = provider default)")
		topK        = flag.Int("top-k", 0, "Passages to retrieve per question in rag mode")
		metricList  = flag.String("metrics", "", "Comma-separated metric names (mode defaults if empty)")
		judgeModel  = flag.String("judge-model", "", "Model used by judge metrics (provider default if empty)")
		passPolicy  = flag.String("pass-policy", "", "Case verdict policy: all or any")
		outputPath  = flag.String("output", "", "Path to save evaluation report (optional, auto-generated if not provided)")
		limitCases  = flag.Int("limit", 0, "Limit number of cases to run (0 = run all, useful for quick iteration)")
		saveDataset = flag.String("save-dataset", "", "Save built-in dataset to file and exit")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run clinic assistant evaluations against an LLM provider.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Run the built-in dataset in prompt mode:\n")
		fmt.Fprintf(os.Stderr, "  %s\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Run in rag mode with a custom knowledge base:\n")
		fmt.Fprintf(os.Stderr, "  %s -mode rag -kb clinic_kb.txt\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Heuristic metrics only (fast, no judge calls):\n")
		fmt.Fprintf(os.Stderr, "  %s -metrics exact_match,contains,token_overlap\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Test first 2 cases (quick iteration):\n")
		fmt.Fprintf(os.Stderr, "  %s -limit 2\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Save the built-in dataset to file:\n")
		fmt.Fprintf(os.Stderr, "  %s -save-dataset dataset.json\n\n", os.Args[0])
	}

	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	ctx := context.Background()

	if *saveDataset != "" {
		if err := eval.SaveDataset(*saveDataset, eval.DefaultDataset()); err != nil {
			slog.Error("Failed to save dataset", "error", err)
			os.Exit(1)
		}
		slog.Info("Dataset saved", "path", *saveDataset)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags beat the file.
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *datasetPath != "" {
		cfg.DatasetFile = *datasetPath
	}
	if *kbPath != "" {
		cfg.KnowledgeBaseFile = *kbPath
	}
	if *providerID != "" {
		cfg.Provider = *providerID
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *temperature >= 0 {
		cfg.Temperature = *temperature
	}
	if *maxTokens > 0 {
		cfg.MaxTokens = *maxTokens
	}
	if *topK > 0 {
		cfg.TopK = *topK
	}
	if *metricList != "" {
		cfg.Metrics = splitMetrics(*metricList)
	}
	if *judgeModel != "" {
		cfg.JudgeModel = *judgeModel
	}
	if *passPolicy != "" {
		cfg.PassPolicy = *passPolicy
	}

	session, err := run.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to set up evaluation", "error", err)
		os.Exit(1)
	}

	slog.Info("Loaded test records", "count", len(session.Records), "dataset", session.DatasetName)
	if *limitCases > 0 && *limitCases < len(session.Records) {
		session.Records = session.Records[:*limitCases]
		slog.Info("Limited records for quick iteration", "running", len(session.Records))
	}

	slog.Info("Starting evaluation run", "mode", cfg.Mode, "provider", cfg.Provider)
	report, err := session.Run(ctx)
	if err != nil {
		slog.Error("Evaluation run failed", "error", err)
		os.Exit(1)
	}

	outputFile := *outputPath
	if outputFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputFile = filepath.Join("eval_results", fmt.Sprintf("clinic_eval_%s_%s.json", cfg.Mode, timestamp))
	}

	slog.Info("Saving evaluation report", "path", outputFile)
	if err := eval.SaveReport(outputFile, report); err != nil {
		slog.Error("Failed to save report", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	eval.WriteSummary(os.Stdout, report)
	fmt.Println()
	fmt.Printf("Full report saved to: %s\n", outputFile)

	if report.FailedCases > 0 {
		os.Exit(1)
	}
}

func splitMetrics(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
