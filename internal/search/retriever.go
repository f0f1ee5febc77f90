package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/running-machin/legal-advice-bot/internal/shared"
)

const (
	// RequestedResults is how many results are asked of the search API.
	RequestedResults = 5
	// UsedResults is how many of them make it into the prompt.
	UsedResults = 3

	NoContextMessage   = "No specific legal context found."
	UnavailableMessage = "Unable to retrieve additional legal context at this time."
)

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Retriever turns search results into a context block for the prompt.
type Retriever struct {
	searcher Searcher
}

// NewRetriever creates a Retriever over s.
func NewRetriever(s Searcher) *Retriever {
	return &Retriever{searcher: s}
}

// Retrieve never fails. A search error yields UnavailableMessage as a
// fallback outcome.
func (r *Retriever) Retrieve(ctx context.Context, query string) shared.Outcome[string] {
	results, err := r.searcher.Search(ctx, query, RequestedResults)
	if err != nil {
		slog.Warn("Search failed, continuing without context", "error", err)
		return shared.Substitute(UnavailableMessage, err)
	}
	return shared.Live(FormatContext(results))
}

// FormatContext renders the first UsedResults results as
// "Source: <title>\n<content>" blocks separated by blank lines.
func FormatContext(results []Result) string {
	if len(results) > UsedResults {
		results = results[:UsedResults]
	}
	if len(results) == 0 {
		return NoContextMessage
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		title := res.Title
		if title == "" {
			title = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("Source: %s\n%s", title, res.Content))
	}
	return strings.Join(parts, "\n\n")
}
