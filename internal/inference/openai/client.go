package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/at-ishikawa/hablabot/internal/inference"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 150

	// penalties keep the tutor from repeating the same phrases
	presencePenalty  = 0.1
	frequencyPenalty = 0.1
)

type Client struct {
	httpClient       *resty.Client
	apiKey           string
	model            string
	maxRetryAttempts uint
	temperature      float64
	maxTokens        int
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(client *Client) {
		client.httpClient.SetBaseURL(baseURL)
	}
}

// WithDefaults sets the temperature and token limit used when a request leaves them zero.
func WithDefaults(temperature float64, maxTokens int) ClientOption {
	return func(client *Client) {
		client.temperature = temperature
		client.maxTokens = maxTokens
	}
}

func NewClient(apiKey, model string, retryAttempts uint, opts ...ClientOption) *Client {
	client := resty.New()
	client.SetBaseURL(DefaultBaseURL)
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	c := &Client{
		httpClient:       client,
		apiKey:           apiKey,
		model:            model,
		maxRetryAttempts: retryAttempts,
		temperature:      DefaultTemperature,
		maxTokens:        DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (client Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model            string              `json:"model"`
	Messages         []inference.Message `json:"messages"`
	Temperature      float64             `json:"temperature,omitempty"`
	MaxTokens        int                 `json:"max_tokens,omitempty"`
	PresencePenalty  float64             `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64             `json:"frequency_penalty,omitempty"`
}

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    inference.Role `json:"role"`
	Content string         `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	// the model occasionally returns no choices or blank content
	if strings.Contains(errStr, "empty response") {
		return true
	}

	// Retry on network-related errors
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Retry on 5xx errors (server errors)
	if strings.Contains(errStr, "response error 5") {
		return true
	}

	// Retry on rate limiting (429)
	if strings.Contains(errStr, "response error 429") {
		return true
	}

	return false
}

// Chat implements the inference.Client interface
func (client *Client) Chat(
	ctx context.Context,
	params inference.ChatRequest,
) (inference.ChatResponse, error) {
	if client.apiKey == "" {
		return inference.ChatResponse{}, &inference.GenerationError{Err: inference.ErrMissingAPIKey}
	}

	var result inference.ChatResponse
	var attempts uint
	if err := retry.Do(
		func() error {
			attempts++
			response, err := client.chat(ctx, params)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				slog.Default().Warn("chat completion failed, will retry",
					"attempt", attempts,
					"error", err,
				)
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return inference.ChatResponse{}, &inference.GenerationError{Attempts: attempts, Err: err}
	}
	return result, nil
}

func (client *Client) getRequestBody(params inference.ChatRequest) ChatCompletionRequest {
	temperature := params.Temperature
	if temperature == 0 {
		temperature = client.temperature
	}
	maxTokens := params.MaxTokens
	if maxTokens == 0 {
		maxTokens = client.maxTokens
	}

	return ChatCompletionRequest{
		Model:            client.model,
		Messages:         params.Messages,
		Temperature:      temperature,
		MaxTokens:        maxTokens,
		PresencePenalty:  presencePenalty,
		FrequencyPenalty: frequencyPenalty,
	}
}

func (client *Client) chat(
	ctx context.Context,
	params inference.ChatRequest,
) (inference.ChatResponse, error) {
	requestBody := client.getRequestBody(params)

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return inference.ChatResponse{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return inference.ChatResponse{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return inference.ChatResponse{}, fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := strings.TrimSpace(responseBody.Choices[0].Message.Content)
	if content == "" {
		return inference.ChatResponse{}, fmt.Errorf("empty response content: %s", response.String())
	}
	slog.Default().Debug("openai response content",
		"messages", len(requestBody.Messages),
		"response", responseBody,
	)

	return inference.ChatResponse{
		Content:     content,
		Model:       responseBody.Model,
		TotalTokens: responseBody.Usage.TotalTokens,
	}, nil
}
