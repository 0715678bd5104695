package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Google generates text through the Gemini API.
type Google struct {
	client *genai.Client
}

// NewGoogle builds a Gemini-backed provider. An empty apiKey lets the SDK
// fall back to the GOOGLE_API_KEY / GEMINI_API_KEY environment variables.
func NewGoogle(ctx context.Context, apiKey string) (*Google, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("google: create client: %w", err)
	}
	return &Google{client: client}, nil
}

func (p *Google) Name() string { return "google" }

func (p *Google) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	gc := &genai.GenerateContentConfig{}
	if cfg.Temperature > 0 {
		gc.Temperature = genai.Ptr(float32(cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(cfg.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), gc)
	if err != nil {
		return "", &Error{Provider: p.Name(), Message: "generate content failed", Err: err}
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &Error{Provider: p.Name(), Message: "empty completion"}
	}
	return text, nil
}
