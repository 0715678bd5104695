package eval

import (
	"context"
	"fmt"

	"github.com/healthdesk/clinic-eval/internal/prompt"
	"github.com/healthdesk/clinic-eval/internal/provider"
	"github.com/healthdesk/clinic-eval/internal/retriever"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/healthdesk/clinic-eval/internal/eval"

// Builder assembles one TestCase per dataset record: retrieve context (RAG
// mode only), render the prompt, make exactly one provider call, and combine
// the pieces. Provider failures are not retried here; they propagate to the
// runner.
type Builder struct {
	Mode       prompt.Mode
	Assembler  *prompt.Assembler
	Index      *retriever.Index
	Provider   provider.Provider
	TopK       int
	Generation provider.GenerationConfig
}

// Build runs the retrieve-render-generate sequence for a single record.
func (b *Builder) Build(ctx context.Context, rec Record) (TestCase, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.String("record.id", rec.ID),
			attribute.String("eval.mode", string(b.Mode)),
		),
	)
	defer span.End()

	var passages []string
	if b.Mode == prompt.ModeRAG {
		hits, err := b.Index.Query(rec.Question, b.TopK)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "retrieval failed")
			return TestCase{}, fmt.Errorf("retrieve context for %s: %w", rec.ID, err)
		}
		passages = make([]string, 0, len(hits))
		for _, h := range hits {
			passages = append(passages, h.Passage)
		}
		span.SetAttributes(attribute.Int("retrieval.hits", len(hits)))
	}

	rendered, err := b.Assembler.Render(b.Mode, rec.Question, passages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prompt rendering failed")
		return TestCase{}, fmt.Errorf("render prompt for %s: %w", rec.ID, err)
	}

	output, err := b.Provider.Generate(ctx, rendered, b.Generation)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return TestCase{}, err
	}

	span.SetStatus(codes.Ok, "test case built")
	return TestCase{
		Input:            rec.Question,
		ExpectedOutput:   rec.ExpectedAnswer,
		ActualOutput:     output,
		RetrievalContext: passages,
		Prompt:           rendered,
	}, nil
}
