// Package classifier decides whether a message is about a legal topic.
package classifier

import (
	"context"
	"log/slog"
	"strings"

	"github.com/running-machin/legal-advice-bot/internal/llm"
	"github.com/running-machin/legal-advice-bot/internal/shared"
)

// SystemPrompt instructs the model to answer with a single YES or NO.
const SystemPrompt = "You are a legal topic classifier. Respond with ONLY 'YES' if the question is about legal topics " +
	"(laws, rights, contracts, court procedures, legal advice, regulations, etc.) or 'NO' if it's about non-legal topics " +
	"(weather, jokes, coding, sports, entertainment, etc.). Be strict but fair - borderline legal topics should get 'YES'."

const (
	maxTokens   = 10
	temperature = 0.1
)

// Classifier asks a completion model whether a message is legal-related and
// falls back to keyword matching when the model cannot be reached.
type Classifier struct {
	llm llm.Completer
}

// New creates a Classifier backed by c.
func New(c llm.Completer) *Classifier {
	return &Classifier{llm: c}
}

// Classify never fails: on any upstream error the keyword result is returned
// as a fallback outcome.
func (c *Classifier) Classify(ctx context.Context, text string) shared.Outcome[bool] {
	reply, err := c.llm.Complete(ctx, llm.Request{
		System:      SystemPrompt,
		User:        "Is this a legal question: " + text,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		slog.Warn("Legal classification failed, using keyword fallback", "error", err)
		return shared.Substitute(MatchesKeyword(text), err)
	}
	return shared.Live(strings.ToUpper(strings.TrimSpace(reply)) == "YES")
}
