package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/muratoffalex/relaybot/internal/logger"
)

// Completer turns a single-turn request into reply text.
type Completer interface {
	Complete(ctx context.Context, request CompletionRequest) (string, error)
}

type ClientOptions struct {
	Name         string
	BaseURL      string
	ChatURL      string
	APIKey       string
	DefaultModel string
	// Headers are added to every request (HTTP-Referer, X-Title).
	Headers map[string]string
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts for transient failures.
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type OpenRouterClient struct {
	name         string
	chatURL      string
	defaultModel string
	headers      map[string]string
	timeout      time.Duration
	maxRetries   int
	newBackOff   func() backoff.BackOff
	httpClient   *baseHTTPClient
	logger       logger.Logger
}

func NewOpenRouterClient(opts ClientOptions, log logger.Logger, httpClient *http.Client) *OpenRouterClient {
	name := opts.Name
	if name == "" {
		name = ProviderOpenrouter
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	chatURL := opts.ChatURL
	if chatURL == "" {
		chatURL = defaultChatURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := max(opts.MaxRetries, 0)
	initial := opts.InitialInterval
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	maxInterval := opts.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 5 * time.Second
	}

	headers := map[string]string{}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &OpenRouterClient{
		name:         name,
		chatURL:      strings.TrimPrefix(chatURL, "/"),
		defaultModel: opts.DefaultModel,
		headers:      headers,
		timeout:      timeout,
		maxRetries:   maxRetries,
		newBackOff: func() backoff.BackOff {
			expo := backoff.NewExponentialBackOff()
			expo.InitialInterval = initial
			expo.MaxInterval = maxInterval
			expo.MaxElapsedTime = 0
			return expo
		},
		httpClient: NewBaseHTTPClient(httpClient, baseURL, opts.APIKey, log),
		logger:     log.WithField("provider", name),
	}
}

func (c *OpenRouterClient) Name() string {
	return c.name
}

// Complete sends the request, retrying transient failures with exponential
// backoff. Client errors (any 4xx) and empty completions are returned
// immediately.
func (c *OpenRouterClient) Complete(ctx context.Context, request CompletionRequest) (string, error) {
	if request.Model == "" {
		request.Model = c.defaultModel
	}
	if len(request.Messages) == 0 || strings.TrimSpace(request.Messages[len(request.Messages)-1].Content) == "" {
		return "", ErrEmptyPrompt
	}
	if request.MaxTokens <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidMaxTokens, request.MaxTokens)
	}

	var content string
	attempt := 0
	operation := func() error {
		attempt++
		text, err := c.completeOnce(ctx, request)
		if err == nil {
			content = text
			return nil
		}
		if !IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.WithError(err).WithFields(logger.Fields{
			"model":   request.Model,
			"attempt": attempt,
			"wait":    wait,
		}).Warn("Completion attempt failed, retrying")
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return "", c.normalizeError(err, request.Model)
	}

	c.logger.WithFields(logger.Fields{
		"model":    request.Model,
		"attempts": attempt,
		"length":   len(content),
	}).Debug("Completion received")

	return content, nil
}

func (c *OpenRouterClient) completeOnce(ctx context.Context, request CompletionRequest) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status, body, aiErr := c.doRequest(attemptCtx, http.MethodPost, c.chatURL, request)
	if aiErr != nil {
		aiErr.ModelName = request.Model
		return "", aiErr
	}

	var result CompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &AIError{
			Kind:           KindHTTPError,
			OriginalErr:    err,
			ProviderName:   c.Name(),
			ModelName:      request.Model,
			HTTPStatusCode: status,
			Message:        "failed to unmarshal response",
			Body:           truncate(string(body), maxErrorBodyLength),
		}
	}

	// OpenRouter reports some failures inside a 200 OK.
	if result.Error != nil {
		return "", &AIError{
			Kind:           KindHTTPError,
			ProviderName:   c.Name(),
			ModelName:      request.Model,
			HTTPStatusCode: result.Error.StatusCode(),
			ErrorCode:      result.Error.CodeString(),
			Message:        result.Error.Message,
			Body:           truncate(string(body), maxErrorBodyLength),
		}
	}

	content, ok := result.FirstContent()
	if !ok {
		return "", &AIError{
			Kind:         KindEmptyCompletion,
			ProviderName: c.Name(),
			ModelName:    request.Model,
			Message:      "no content in response",
			Body:         truncate(string(body), maxErrorBodyLength),
		}
	}

	return content, nil
}

func (c *OpenRouterClient) doRequest(
	ctx context.Context,
	method string,
	endpoint string,
	body any,
) (int, []byte, *AIError) {
	requestBody, err := json.Marshal(body)
	if err != nil {
		return 0, nil, &AIError{
			Kind:         KindHTTPError,
			OriginalErr:  err,
			ProviderName: c.Name(),
			Message:      "marshal error",
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return 0, nil, &AIError{
			Kind:         KindHTTPError,
			OriginalErr:  err,
			ProviderName: c.Name(),
			Message:      "create request error",
		}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, c.transportError(err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		aiErr := c.transportError(err)
		aiErr.Message = "failed to read response body"
		return resp.StatusCode, nil, aiErr
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		aiError := &AIError{
			Kind:           KindHTTPError,
			ProviderName:   c.Name(),
			HTTPStatusCode: resp.StatusCode,
			Message:        fmt.Sprintf("HTTP request failed with status code: %d", resp.StatusCode),
			Body:           truncate(string(responseBody), maxErrorBodyLength),
		}

		var providerError struct {
			Error *ProviderError `json:"error"`
		}
		if len(responseBody) > 0 && json.Unmarshal(responseBody, &providerError) == nil &&
			providerError.Error != nil && providerError.Error.Message != "" {
			aiError.Message = providerError.Error.Message
			aiError.ErrorCode = providerError.Error.CodeString()
		}

		return resp.StatusCode, responseBody, aiError
	}

	return resp.StatusCode, responseBody, nil
}

func (c *OpenRouterClient) transportError(err error) *AIError {
	kind := KindHTTPError
	message := "network request failed"
	if isTimeout(err) {
		kind = KindTimeout
		message = "request timed out"
	}
	return &AIError{
		Kind:         kind,
		OriginalErr:  err,
		ProviderName: c.Name(),
		Message:      message,
	}
}

// normalizeError makes sure callers always get an *AIError, including when
// the retry loop stopped because the parent context ended.
func (c *OpenRouterClient) normalizeError(err error, model string) error {
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr
	}
	wrapped := c.transportError(err)
	wrapped.ModelName = model
	return wrapped
}
