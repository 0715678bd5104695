// Package provider abstracts the LLM backends used for generation and for
// model-graded judging. The core only depends on the Generate contract;
// concrete clients live behind it and are constructed once per run.
package provider

import (
	"context"
	"fmt"
	"sort"
)

// GenerationConfig carries the per-call model parameters.
type GenerationConfig struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Provider issues a prompt to a model and returns the generated text.
// Implementations return *Error on transport, auth or rate-limit failures.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}

// Error is a provider-side failure during generation. It is recorded against
// the affected test case and never aborts a run.
type Error struct {
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Registry maps provider names to constructed providers.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider, replacing any previous one with the same name.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
