package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mkaydev/auto-shop/internal/models"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Message is one role-tagged turn in an outbound conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// CompletionRequest is what the pipeline hands a completer: the system
// preamble, the recent conversation window, and the accumulated context bag.
type CompletionRequest struct {
	System   string
	Messages []Message
	Context  models.SessionContext
}

// ChatCompleter produces one assistant reply for a conversation. The live
// adapter and the deterministic rule adapter both implement it; the pipeline
// never branches on which one it holds.
type ChatCompleter interface {
	// Name returns the adapter identifier (e.g. "openai", "rules").
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// OpenAICompleter calls an OpenAI-compatible chat-completions endpoint.
type OpenAICompleter struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAICompleter builds a live adapter. baseURL and model fall back to
// the OpenAI defaults when empty.
func NewOpenAICompleter(apiKey, baseURL, model string) *OpenAICompleter {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAICompleter{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *OpenAICompleter) Name() string { return "openai" }

type completionPayload struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	PresencePenalty  float64   `json:"presence_penalty"`
}

type completionResult struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation with the system preamble prepended. Any
// non-2xx status, transport error, or empty choice is an error; the caller's
// fallback path treats them all the same.
func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]Message, 0, len(req.Messages)+1)
	messages = append(messages, Message{Role: "system", Content: req.System})
	messages = append(messages, req.Messages...)

	payload := completionPayload{
		Model:            c.model,
		Messages:         messages,
		MaxTokens:        500,
		Temperature:      0.7,
		TopP:             0.9,
		FrequencyPenalty: 0.3,
		PresencePenalty:  0.3,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion request failed with status %d: %s", resp.StatusCode, body)
	}

	var result completionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return result.Choices[0].Message.Content, nil
}
