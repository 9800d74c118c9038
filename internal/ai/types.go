package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPrompt      = errors.New("user text must not be empty")
	ErrInvalidMaxTokens = errors.New("max tokens must be positive")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// NewCompletionRequest builds a single-turn request. An empty model is left
// for the client to replace with its default.
func NewCompletionRequest(model, userText string, temperature float64, maxTokens int) (CompletionRequest, error) {
	if strings.TrimSpace(userText) == "" {
		return CompletionRequest{}, ErrEmptyPrompt
	}
	if maxTokens <= 0 {
		return CompletionRequest{}, fmt.Errorf("%w: %d", ErrInvalidMaxTokens, maxTokens)
	}
	return CompletionRequest{
		Model: model,
		Messages: []Message{
			{Role: RoleUser, Content: userText},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

type CompletionResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []Choice       `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"`
	Error   *ProviderError `json:"error,omitempty"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ProviderError is the error object returned in the body. OpenRouter sends a
// numeric code, OpenAI-style APIs a string one.
type ProviderError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

func (e *ProviderError) CodeString() string {
	switch v := e.Code.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%d", int(v))
	default:
		return fmt.Sprint(v)
	}
}

// StatusCode returns the numeric code when it looks like an HTTP status.
func (e *ProviderError) StatusCode() int {
	if v, ok := e.Code.(float64); ok && v >= 400 && v < 600 {
		return int(v)
	}
	return 0
}

// FirstContent returns the text of the first choice, if any.
func (r *CompletionResponse) FirstContent() (string, bool) {
	if len(r.Choices) == 0 {
		return "", false
	}
	content := r.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", false
	}
	return content, true
}
