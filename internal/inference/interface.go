// Package inference defines the dialogue generator used by the conversation engine.
package inference

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client generates the tutor's next message from the conversation so far.
type Client interface {
	Chat(ctx context.Context, params ChatRequest) (ChatResponse, error)
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest holds the messages to send, oldest first. Zero values use the client's defaults.
type ChatRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type ChatResponse struct {
	Content string
	Model   string
	// TotalTokens is 0 when the generator does not report usage
	TotalTokens int
}

const (
	DefaultMaxRetryAttempts = 3
)

var ErrMissingAPIKey = errors.New("API key is not configured")

// GenerationError is returned when no response could be generated, after any retries.
type GenerationError struct {
	Attempts uint
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate a response after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
