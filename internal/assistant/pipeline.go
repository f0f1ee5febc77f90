// Package assistant orchestrates classification, retrieval, generation and
// history for a single chat message.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/running-machin/legal-advice-bot/internal/domain"
	"github.com/running-machin/legal-advice-bot/internal/observability"
	"github.com/running-machin/legal-advice-bot/internal/shared"
	"github.com/running-machin/legal-advice-bot/internal/store"
)

// RefusalMessage is returned for messages that are not about legal topics.
const RefusalMessage = "I can only assist with legal-related questions. Please ask about laws, rights, contracts, court procedures, or similar legal matters."

// Reply statuses.
const (
	StatusSuccess    = "success"
	StatusRestricted = "restricted"
)

// ErrEmptyMessage is returned when the message is blank after trimming.
var ErrEmptyMessage = errors.New("message cannot be empty")

// Classifier decides whether text is a legal question.
type Classifier interface {
	Classify(ctx context.Context, text string) shared.Outcome[bool]
}

// Retriever fetches web context for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) shared.Outcome[string]
}

// Generator answers a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) shared.Outcome[string]
}

// Reply is the result of a single-shot request.
type Reply struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}

// Pipeline runs a message through the assistant. Metrics may be nil.
type Pipeline struct {
	classifier Classifier
	retriever  Retriever
	generator  Generator
	store      store.HistoryStore
	metrics    *observability.Metrics
}

// New creates a Pipeline.
func New(c Classifier, r Retriever, g Generator, s store.HistoryStore, m *observability.Metrics) *Pipeline {
	return &Pipeline{
		classifier: c,
		retriever:  r,
		generator:  g,
		store:      s,
		metrics:    m,
	}
}

// Ask answers message in one step and commits the exchange to the
// session's history. Non-legal messages are refused without touching the
// history or any upstream beyond the classifier.
func (p *Pipeline) Ask(ctx context.Context, sessionID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		p.metrics.Request("sync", "rejected")
		return Reply{}, ErrEmptyMessage
	}

	if !p.classify(ctx, message) {
		p.metrics.Request("sync", StatusRestricted)
		return Reply{Response: RefusalMessage, Status: StatusRestricted}, nil
	}

	history, err := p.store.History(ctx, sessionID)
	if err != nil {
		p.metrics.Request("sync", "error")
		return Reply{}, fmt.Errorf("load history: %w", err)
	}

	answer := p.answer(ctx, message, history)

	if err := p.store.Append(ctx, sessionID, domain.Exchange{User: message, Assistant: answer}); err != nil {
		p.metrics.Request("sync", "error")
		return Reply{}, fmt.Errorf("append history: %w", err)
	}
	p.metrics.HistoryAppend("sync")
	p.metrics.Request("sync", StatusSuccess)

	return Reply{Response: answer, Status: StatusSuccess}, nil
}

// SaveExchange commits an exchange produced by a stream. Blank fields are
// ignored and reported as not saved.
func (p *Pipeline) SaveExchange(ctx context.Context, sessionID, userMessage, aiResponse string) (bool, error) {
	if userMessage == "" || aiResponse == "" {
		return false, nil
	}
	if err := p.store.Append(ctx, sessionID, domain.Exchange{User: userMessage, Assistant: aiResponse}); err != nil {
		return false, fmt.Errorf("append history: %w", err)
	}
	p.metrics.HistoryAppend("save_session")
	return true, nil
}

// Clear drops the session's history.
func (p *Pipeline) Clear(ctx context.Context, sessionID string) error {
	if err := p.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (p *Pipeline) classify(ctx context.Context, message string) bool {
	out := p.classifier.Classify(ctx, message)
	p.metrics.Upstream("classifier", out.Source())
	return out.Value
}

func (p *Pipeline) retrieve(ctx context.Context, message string) string {
	out := p.retriever.Retrieve(ctx, message)
	p.metrics.Upstream("retriever", out.Source())
	return out.Value
}

func (p *Pipeline) generate(ctx context.Context, prompt string) string {
	out := p.generator.Generate(ctx, prompt)
	p.metrics.Upstream("generator", out.Source())
	if out.Fallback {
		slog.Debug("Serving apology in place of an answer", "reason", out.Reason)
	}
	return out.Value
}

func (p *Pipeline) answer(ctx context.Context, message string, history []domain.Exchange) string {
	conversation := domain.RecentContext(history, domain.RecentWindow)
	searchContext := p.retrieve(ctx, message)
	return p.generate(ctx, BuildPrompt(searchContext, conversation, message))
}
