package domain

import "strings"

const (
	// MaxHistory is the number of exchanges retained per session.
	MaxHistory = 10
	// RecentWindow is the number of exchanges replayed into a prompt.
	RecentWindow = 5
	// HistoryHeader introduces the replayed conversation in a prompt.
	HistoryHeader = "Previous conversation:"
)

// Exchange is one question and the answer given to it.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// AppendExchange adds e to history and drops the oldest entries so that at
// most MaxHistory remain. The returned slice does not alias history when
// entries were dropped.
func AppendExchange(history []Exchange, e Exchange) []Exchange {
	history = append(history, e)
	return Trim(history, MaxHistory)
}

// Trim keeps the last max entries of history.
func Trim(history []Exchange, max int) []Exchange {
	if max < 0 {
		max = 0
	}
	if len(history) <= max {
		return history
	}
	out := make([]Exchange, max)
	copy(out, history[len(history)-max:])
	return out
}

// Recent returns the last n exchanges of history.
func Recent(history []Exchange, n int) []Exchange {
	if n >= len(history) {
		return history
	}
	if n <= 0 {
		return nil
	}
	return history[len(history)-n:]
}

// RecentContext renders the last n exchanges as alternating User/Assistant
// lines under HistoryHeader. It returns "" when history is empty.
func RecentContext(history []Exchange, n int) string {
	recent := Recent(history, n)
	if len(recent) == 0 {
		return ""
	}
	lines := make([]string, 0, 1+2*len(recent))
	lines = append(lines, HistoryHeader)
	for _, e := range recent {
		lines = append(lines, "User: "+e.User, "Assistant: "+e.Assistant)
	}
	return strings.Join(lines, "\n")
}
