package modes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rocket-cli/internal/llm"
)

// DefaultMode is used when classification fails or is ambiguous.
const DefaultMode = "read"

// generator is the slice of the provider manager the selector needs.
type generator interface {
	Generate(ctx context.Context, opts llm.GenerateOptions) (llm.Response, error)
}

// Selector picks the mode that best fits a prompt. It asks the model to
// classify the request and falls back to keyword matching when the model is
// unreachable.
type Selector struct {
	gen      generator
	registry *Registry
	log      *slog.Logger
}

func NewSelector(gen generator, registry *Registry, log *slog.Logger) *Selector {
	return &Selector{gen: gen, registry: registry, log: log}
}

// Select returns the mode for prompt. It never fails; the worst case is
// DefaultMode.
func (s *Selector) Select(ctx context.Context, prompt string) Mode {
	name := s.classify(ctx, prompt)
	m, err := s.registry.Get(name)
	if err != nil {
		m, _ = s.registry.Get(DefaultMode)
	}
	return m
}

func (s *Selector) classify(ctx context.Context, prompt string) string {
	if s.gen != nil {
		resp, err := s.gen.Generate(ctx, llm.GenerateOptions{
			Prompt:      classificationPrompt(s.registry, prompt),
			Temperature: 0.2,
			MaxTokens:   10,
		})
		if err == nil {
			name := strings.ToLower(strings.TrimSpace(resp.Text))
			if _, getErr := s.registry.Get(name); getErr == nil {
				s.log.Debug("mode classified by model", "mode", name)
				return name
			}
			s.log.Warn("model returned unknown mode, falling back to keywords", "got", resp.Text)
		} else {
			s.log.Debug("mode classification unavailable, falling back to keywords", "error", err)
		}
	}
	return classifyByKeywords(prompt)
}

func classificationPrompt(r *Registry, prompt string) string {
	var b strings.Builder
	b.WriteString("Classify this request into exactly one mode.\n\nRequest: ")
	fmt.Fprintf(&b, "%q\n\nModes:\n", prompt)
	for _, m := range r.List() {
		fmt.Fprintf(&b, "- %s: %s\n", m.Name, m.Description)
	}
	b.WriteString("\nOutput only the mode name, nothing else.")
	return b.String()
}

// keywordRules maps indicative phrases to a mode, checked in order so the
// more specific intents win.
var keywordRules = []struct {
	mode     string
	keywords []string
}{
	{"debug", []string{"fix", "bug", "error", "not working", "failing", "broken", "crash"}},
	{"think", []string{"how should i", "plan", "design", "architect", "approach"}},
	{"agent", []string{"add ", "implement", "create", "build", "write a"}},
	{"enhance", []string{"optimize", "improve", "refactor", "make better", "speed up", "clean up"}},
	{"analyze", []string{"find issues", "check quality", "audit", "review", "code smell"}},
	{"read", []string{"what does", "explain", "show me", "describe", "understand"}},
}

func classifyByKeywords(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.mode
			}
		}
	}
	return DefaultMode
}
