// Package prompt renders the final prompt sent to the model: a system persona
// followed by a mode-specific template with the question and, in RAG mode, a
// numbered context section. Templates are pure text substitution.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Mode selects which template the assembler renders.
type Mode string

const (
	// ModePrompt sends the question with no retrieved context.
	ModePrompt Mode = "prompt"
	// ModeRAG injects retrieved passages into the prompt.
	ModeRAG Mode = "rag"
)

// ErrMissingPlaceholder reports a custom template that never references a
// placeholder required by its mode. Detected at template installation so the
// run fails before any model call is made.
var ErrMissingPlaceholder = errors.New("prompt: template missing required placeholder")

// DefaultPersona describes the assistant being evaluated. It is prepended to
// every rendered prompt.
const DefaultPersona = `You are a helpful clinic front-desk assistant. Answer patient questions about
opening hours, appointments, walk-ins and practical clinic matters. Be brief,
factual and polite. Never give medical advice; direct clinical questions to a
doctor.`

const defaultPromptTemplate = `Patient question:
{{.Question}}

Answer the question directly and concisely.`

const defaultRAGTemplate = `Use only the clinic information below to answer. If the information does not
cover the question, say so.

Clinic information:
{{.Context}}

Patient question:
{{.Question}}`

type templateData struct {
	Question string
	Context  string
}

// Assembler renders prompts for both evaluation modes. The zero value is not
// usable; construct with New.
type Assembler struct {
	persona   string
	templates map[Mode]*template.Template
}

// New returns an assembler with the built-in templates. An empty persona
// falls back to DefaultPersona.
func New(persona string) *Assembler {
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}
	a := &Assembler{persona: persona, templates: make(map[Mode]*template.Template)}
	// The built-in templates are known-good, parse errors are impossible.
	if err := a.UseTemplate(ModePrompt, defaultPromptTemplate); err != nil {
		panic(err)
	}
	if err := a.UseTemplate(ModeRAG, defaultRAGTemplate); err != nil {
		panic(err)
	}
	return a
}

// UseTemplate replaces the template for a mode with user-supplied text.
// The text must reference {{.Question}}, and for RAG mode also {{.Context}}.
func (a *Assembler) UseTemplate(mode Mode, text string) error {
	tmpl, err := template.New(string(mode)).Parse(text)
	if err != nil {
		return fmt.Errorf("prompt: parse %s template: %w", mode, err)
	}
	required := []string{"Question"}
	if mode == ModeRAG {
		required = append(required, "Context")
	}
	for _, field := range required {
		if !referencesField(tmpl, field) {
			return fmt.Errorf("%w: {{.%s}} in %s template", ErrMissingPlaceholder, field, mode)
		}
	}
	a.templates[mode] = tmpl
	return nil
}

// Render produces the full prompt for one question. Passages are numbered in
// their given order so the model can attribute its answer to a passage.
func (a *Assembler) Render(mode Mode, question string, context []string) (string, error) {
	tmpl, ok := a.templates[mode]
	if !ok {
		return "", fmt.Errorf("prompt: unknown mode %q", mode)
	}

	var sb strings.Builder
	for i, passage := range context {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] %s", i+1, passage)
	}
	contextText := sb.String()
	// Keeps the context section non-empty when retrieval found nothing, the
	// same placeholder the judge prompts use.
	if contextText == "" {
		contextText = "(no context was retrieved)"
	}

	var body strings.Builder
	if err := tmpl.Execute(&body, templateData{Question: question, Context: contextText}); err != nil {
		return "", fmt.Errorf("prompt: render %s template: %w", mode, err)
	}
	return a.persona + "\n\n" + body.String(), nil
}

// Persona returns the configured system persona.
func (a *Assembler) Persona() string { return a.persona }

// referencesField renders the template against probe values and checks that
// the probe for the given field survives into the output. This catches
// templates that silently drop a required placeholder.
func referencesField(tmpl *template.Template, field string) bool {
	probe := templateData{Question: "\x00question-probe\x00", Context: "\x00context-probe\x00"}
	var out strings.Builder
	if err := tmpl.Execute(&out, probe); err != nil {
		return false
	}
	switch field {
	case "Question":
		return strings.Contains(out.String(), probe.Question)
	case "Context":
		return strings.Contains(out.String(), probe.Context)
	}
	return false
}
