// Package generator produces the assistant's answer from an assembled prompt.
package generator

import (
	"context"
	"log/slog"

	"github.com/running-machin/legal-advice-bot/internal/llm"
	"github.com/running-machin/legal-advice-bot/internal/shared"
)

// SystemPrompt sets the legal-assistant persona and requires a disclaimer.
const SystemPrompt = "You are a helpful legal assistant. Provide accurate legal information based on the context provided. " +
	"Always include a disclaimer that this is not legal advice and users should consult with a qualified attorney " +
	"for specific legal matters. Be clear, concise, and helpful."

// ApologyMessage replaces the answer when the model cannot be reached.
const ApologyMessage = "I apologize, but I'm experiencing technical difficulties. Please try again later."

const (
	maxTokens   = 1000
	temperature = 0.3
)

// Generator asks a completion model to answer a prompt.
type Generator struct {
	llm llm.Completer
}

// New creates a Generator backed by c.
func New(c llm.Completer) *Generator {
	return &Generator{llm: c}
}

// Generate never fails; an upstream error yields ApologyMessage as a
// fallback outcome.
func (g *Generator) Generate(ctx context.Context, prompt string) shared.Outcome[string] {
	reply, err := g.llm.Complete(ctx, llm.Request{
		System:      SystemPrompt,
		User:        prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		slog.Warn("Answer generation failed", "error", err)
		return shared.Substitute(ApologyMessage, err)
	}
	return shared.Live(reply)
}
