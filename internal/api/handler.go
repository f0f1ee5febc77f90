// Package api provides HTTP handlers for the legal assistant chat API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/running-machin/legal-advice-bot/internal/assistant"
	"github.com/running-machin/legal-advice-bot/internal/observability"
)

// maxRequestBodySize caps JSON request bodies (1MB).
const maxRequestBodySize = 1 << 20

const (
	msgInternalError = "An unexpected error occurred. Please try again."
	msgEmptyMessage  = "Message cannot be empty"
	msgInvalidJSON   = "Invalid JSON body"
	msgBodyTooLarge  = "Request body too large"
)

// Assistant is the chat pipeline as seen by the HTTP layer.
type Assistant interface {
	Ask(ctx context.Context, sessionID, message string) (assistant.Reply, error)
	Stream(ctx context.Context, sessionID, message string) iter.Seq[assistant.Event]
	SaveExchange(ctx context.Context, sessionID, userMessage, aiResponse string) (bool, error)
	Clear(ctx context.Context, sessionID string) error
}

// Pinger reports whether the session store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the chat endpoints.
type Handler struct {
	assistant Assistant
	store     Pinger
	metrics   *observability.Metrics
}

// NewHandler creates a Handler. metrics may be nil.
func NewHandler(a Assistant, store Pinger, metrics *observability.Metrics) *Handler {
	return &Handler{
		assistant: a,
		store:     store,
		metrics:   metrics,
	}
}

// RegisterRoutes mounts the chat API on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.Chat)
	r.Post("/chat/stream", h.ChatStream)
	r.Post("/save-session", h.SaveSession)
	r.Post("/clear", h.Clear)
	r.Get("/ready", h.Ready)
}

// Ready reports whether the session store is reachable. Liveness is served
// separately by the heartbeat middleware on /health.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]string{"api": "ok"},
	}
	statusCode := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		slog.Error("Readiness check failed", "error", err)
		status["status"] = "degraded"
		status["checks"].(map[string]string)["session_store"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		status["checks"].(map[string]string)["session_store"] = "ok"
	}

	JSON(w, statusCode, status)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeBody reads a size-limited JSON body into v. On failure it writes
// the error response itself and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return false
		}
		Error(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return true
}
