// Package llm wraps the OpenAI-compatible chat completion API used for both
// topic classification and answer generation.
package llm

import "context"

// Request is a single-turn completion: one system instruction and one user
// message.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Completer returns the text of the first choice for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
