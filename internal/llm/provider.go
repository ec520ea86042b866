// Package llm abstracts the language model backends behind one completion
// interface, with Anthropic and OpenAI implementations.
package llm

import (
	"context"
	"errors"
)

// Sentinel errors for LLM operations.
var (
	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid llm configuration")

	// ErrEmptyPrompt indicates a request with no user message.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrCompletionFailed indicates the backend call failed.
	ErrCompletionFailed = errors.New("completion failed")
)

// Role identifies a conversation message author.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Request is one completion turn: the system prompt (already augmented with
// retrieved context, if any), prior conversation history in order, and the
// user's current message.
type Request struct {
	System      string
	History     []Message
	UserMessage string
}

// StreamFunc receives incremental response text. Returning an error stops
// the stream and surfaces the error from Stream.
type StreamFunc func(delta string) error

// Provider generates chat completions.
type Provider interface {
	// Complete returns the full response text for one turn.
	Complete(ctx context.Context, req Request) (string, error)

	// Stream delivers the response incrementally via fn and returns the
	// accumulated full text.
	Stream(ctx context.Context, req Request, fn StreamFunc) (string, error)

	// Model returns the configured model identifier.
	Model() string
}
