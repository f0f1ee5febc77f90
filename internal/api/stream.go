package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/running-machin/legal-advice-bot/internal/assistant"
	"github.com/running-machin/legal-advice-bot/internal/identity"
)

// ChatStream answers a message as a server-sent event stream. Validation
// errors are reported as JSON before any event is written.
func (h *Handler) ChatStream(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	message := trimmedMessage(req)
	if message == "" {
		Error(w, http.StatusBadRequest, msgEmptyMessage)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "Stream initialization failed")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sessionID := identity.SessionIDFromContext(r.Context())
	for ev := range h.assistant.Stream(r.Context(), sessionID, message) {
		if err := writeEvent(w, ev); err != nil {
			slog.Warn("Failed to write stream event", "session_id", sessionID, "type", ev.Type, "error", err)
			return
		}
		flusher.Flush()
		h.metrics.StreamEvent(ev.Type)
	}
}

func writeEvent(w io.Writer, ev assistant.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	return writeSSE(w, ev.Type, string(data))
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
