package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrNoChoices is returned when the API answers without any choice.
var ErrNoChoices = errors.New("completion returned no choices")

// OpenAIClient talks to any OpenAI-compatible endpoint (Groq by default).
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI creates a client for baseURL. A zero timeout leaves calls bounded
// only by the caller's context.
func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
	}
}

// Model returns the configured model identifier.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends req and returns the content of the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	slog.Debug("Completion received",
		"model", c.model,
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens,
	)
	return resp.Choices[0].Message.Content, nil
}
