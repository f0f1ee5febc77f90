package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/running-machin/legal-advice-bot/internal/assistant"
	"github.com/running-machin/legal-advice-bot/internal/identity"
)

// ChatRequest is the body of /chat and /chat/stream.
type ChatRequest struct {
	Message string `json:"message"`
}

// SaveSessionRequest is the body of /save-session.
type SaveSessionRequest struct {
	UserMessage string `json:"user_message"`
	AIResponse  string `json:"ai_response"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// Chat answers a message in a single JSON response.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sessionID := identity.SessionIDFromContext(r.Context())
	reply, err := h.assistant.Ask(r.Context(), sessionID, req.Message)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyMessage) {
			Error(w, http.StatusBadRequest, msgEmptyMessage)
			return
		}
		slog.Error("Chat request failed", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	JSON(w, http.StatusOK, reply)
}

// SaveSession commits an exchange that was delivered through /chat/stream.
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	var req SaveSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sessionID := identity.SessionIDFromContext(r.Context())
	saved, err := h.assistant.SaveExchange(r.Context(), sessionID, req.UserMessage, req.AIResponse)
	if err != nil {
		slog.Error("Session save failed", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "Failed to save session")
		return
	}
	if !saved {
		slog.Debug("Skipped saving incomplete exchange", "session_id", sessionID)
	}

	JSON(w, http.StatusOK, successResponse{Success: true})
}

// Clear drops the session's conversation history.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())
	if err := h.assistant.Clear(r.Context(), sessionID); err != nil {
		slog.Error("Clear history failed", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	JSON(w, http.StatusOK, successResponse{Success: true})
}

func trimmedMessage(req ChatRequest) string {
	return strings.TrimSpace(req.Message)
}
