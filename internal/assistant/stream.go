package assistant

import (
	"context"
	"iter"
	"strings"

	"github.com/running-machin/legal-advice-bot/internal/domain"
)

// Stream event types.
const (
	EventStatus        = "status"
	EventResponse      = "response"
	EventResponseStart = "response_start"
	EventChunk         = "chunk"
	EventSessionData   = "session_data"
	EventComplete      = "complete"
	EventError         = "error"
)

// Status steps, in the order they are emitted.
const (
	StepChecking   = "checking"
	StepContext    = "context"
	StepSearching  = "searching"
	StepGenerating = "generating"
)

// ResponseStartMessage introduces the chunked answer.
const ResponseStartMessage = "Here is your legal information:"

// ChunkSize is the number of words carried by each chunk event.
const ChunkSize = 3

// Event is one step of a streamed answer.
type Event struct {
	Type        string `json:"type"`
	Message     string `json:"message,omitempty"`
	Step        string `json:"step,omitempty"`
	Done        bool   `json:"done,omitempty"`
	UserMessage string `json:"user_message,omitempty"`
	AIResponse  string `json:"ai_response,omitempty"`
}

func statusEvent(step, message string) Event {
	return Event{Type: EventStatus, Step: step, Message: message}
}

// Stream yields the progress of answering message. It reads the session
// history but never writes it; the client commits the exchange from the
// session_data event. The sequence ends after a response, complete or
// error event, or as soon as the consumer stops iterating.
//
// The caller must reject blank messages before streaming.
func (p *Pipeline) Stream(ctx context.Context, sessionID, message string) iter.Seq[Event] {
	message = strings.TrimSpace(message)

	return func(yield func(Event) bool) {
		if !yield(statusEvent(StepChecking, "Checking if this is a legal question...")) {
			return
		}
		if !p.classify(ctx, message) {
			p.metrics.Request("stream", StatusRestricted)
			yield(Event{Type: EventResponse, Message: RefusalMessage, Done: true})
			return
		}

		if !yield(statusEvent(StepContext, "Loading conversation context...")) {
			return
		}
		history, err := p.store.History(ctx, sessionID)
		if err != nil {
			p.metrics.Request("stream", "error")
			yield(Event{Type: EventError, Message: "Error: " + err.Error()})
			return
		}
		conversation := domain.RecentContext(history, domain.RecentWindow)

		if !yield(statusEvent(StepSearching, "Searching legal databases...")) {
			return
		}
		searchContext := p.retrieve(ctx, message)

		if !yield(statusEvent(StepGenerating, "Generating legal response...")) {
			return
		}
		answer := p.generate(ctx, BuildPrompt(searchContext, conversation, message))

		if !yield(Event{Type: EventResponseStart, Message: ResponseStartMessage}) {
			return
		}
		for _, chunk := range ChunkWords(answer, ChunkSize) {
			if !yield(Event{Type: EventChunk, Message: chunk}) {
				return
			}
		}
		if !yield(Event{Type: EventSessionData, UserMessage: message, AIResponse: answer}) {
			return
		}
		p.metrics.Request("stream", StatusSuccess)
		yield(Event{Type: EventComplete, Done: true})
	}
}
