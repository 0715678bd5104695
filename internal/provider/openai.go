package provider

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v2"
)

// OpenAI generates text through the OpenAI chat completion API. The API key
// is read from OPENAI_API_KEY by the underlying client.
type OpenAI struct {
	cli openai.Client
}

func NewOpenAI() *OpenAI {
	return &OpenAI{cli: openai.NewClient()}
}

func (p *OpenAI) Name() string { return "openai" }

func (p *OpenAI) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	model := cfg.Model
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if cfg.Temperature > 0 {
		params.Temperature = openai.Float(cfg.Temperature)
	}
	if cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(cfg.MaxTokens))
	}

	resp, err := p.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &Error{Provider: p.Name(), Message: "chat completion failed", Err: err}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &Error{Provider: p.Name(), Message: "empty completion"}
	}
	return resp.Choices[0].Message.Content, nil
}
