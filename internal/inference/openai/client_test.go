package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"

	"github.com/at-ishikawa/hablabot/internal/inference"
)

func writeCompletion(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()

	mockResponse := ChatCompletionResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1677652288,
		Model:   "gpt-4o-mini",
		Choices: []Choice{
			{
				Index:        0,
				Message:      ChoiceMessage{Role: inference.RoleAssistant, Content: content},
				FinishReason: "stop",
			},
		},
		Usage: Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	require.NoError(t, json.NewEncoder(w).Encode(mockResponse))
}

func TestClient_Chat(t *testing.T) {
	messages := []inference.Message{
		{Role: inference.RoleSystem, Content: "Eres un tutor de español."},
		{Role: inference.RoleAssistant, Content: "¡Hola! ¿Cómo estás?"},
		{Role: inference.RoleUser, Content: "Bien, gracias."},
	}

	tests := []struct {
		name              string
		request           inference.ChatRequest
		mockServerHandler func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request)

		wantResponse    inference.ChatResponse
		wantCalls       int32
		wantError       bool
		wantErrorString string
	}{
		{
			name:    "Success with default parameters",
			request: inference.ChatRequest{Messages: messages},
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var reqBody ChatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Equal(t, "gpt-4o-mini", reqBody.Model)
				assert.Equal(t, messages, reqBody.Messages)
				assert.Equal(t, DefaultTemperature, reqBody.Temperature)
				assert.Equal(t, DefaultMaxTokens, reqBody.MaxTokens)

				writeCompletion(t, w, "  ¡Qué bien! ¿Qué quieres comer?  ")
			},
			wantResponse: inference.ChatResponse{
				Content:     "¡Qué bien! ¿Qué quieres comer?",
				Model:       "gpt-4o-mini",
				TotalTokens: 120,
			},
			wantCalls: 1,
		},
		{
			name:    "Request parameters override defaults",
			request: inference.ChatRequest{Messages: messages, Temperature: 0.2, MaxTokens: 40},
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				var reqBody ChatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Equal(t, 0.2, reqBody.Temperature)
				assert.Equal(t, 40, reqBody.MaxTokens)

				writeCompletion(t, w, "Vale.")
			},
			wantResponse: inference.ChatResponse{Content: "Vale.", Model: "gpt-4o-mini", TotalTokens: 120},
			wantCalls:    1,
		},
		{
			name:    "Server error is retried",
			request: inference.ChatRequest{Messages: messages},
			mockServerHandler: func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request) {
				if calls == 1 {
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":{"message":"internal"}}`))
					return
				}
				writeCompletion(t, w, "Perdón, ¿puedes repetir?")
			},
			wantResponse: inference.ChatResponse{Content: "Perdón, ¿puedes repetir?", Model: "gpt-4o-mini", TotalTokens: 120},
			wantCalls:    2,
		},
		{
			name:    "Empty content is retried until attempts run out",
			request: inference.ChatRequest{Messages: messages},
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				writeCompletion(t, w, "   ")
			},
			wantCalls:       2,
			wantError:       true,
			wantErrorString: "empty response content",
		},
		{
			name:    "Client error is not retried",
			request: inference.ChatRequest{Messages: messages},
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
			},
			wantCalls:       1,
			wantError:       true,
			wantErrorString: "response error 401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, calls.Add(1), w, r)
			}))
			defer server.Close()

			client := NewClient("test-key", "gpt-4o-mini", 1, WithBaseURL(server.URL))
			defer client.Close()

			gotResponse, gotErr := client.Chat(context.Background(), tt.request)
			assert.Equal(t, tt.wantCalls, calls.Load())

			if tt.wantError {
				require.Error(t, gotErr)
				var generationErr *inference.GenerationError
				require.ErrorAs(t, gotErr, &generationErr)
				assert.Equal(t, uint(tt.wantCalls), generationErr.Attempts)
				if tt.wantErrorString != "" {
					assert.Contains(t, gotErr.Error(), tt.wantErrorString)
				}
				return
			}

			require.NoError(t, gotErr)
			assert.Equal(t, tt.wantResponse, gotResponse)
		})
	}
}

func TestClient_Chat_MissingAPIKey(t *testing.T) {
	client := &Client{
		httpClient:       resty.New(),
		model:            "gpt-4o-mini",
		maxRetryAttempts: 1,
	}

	_, err := client.Chat(context.Background(), inference.ChatRequest{})
	assert.True(t, errors.Is(err, inference.ErrMissingAPIKey))
}

func TestClient_Chat_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", "gpt-4o-mini", 3, WithBaseURL(server.URL))
	_, err := client.Chat(ctx, inference.ChatRequest{})
	require.Error(t, err)
	var generationErr *inference.GenerationError
	assert.ErrorAs(t, err, &generationErr)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited", err: errors.New("response error 429: slow down"), want: true},
		{name: "server error", err: errors.New("response error 503: unavailable"), want: true},
		{name: "bad request", err: errors.New("response error 400: bad request"), want: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "no choices", err: errors.New("empty response body or choices: {}"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
