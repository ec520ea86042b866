// Package chat orchestrates one conversational turn: retrieve context for
// the user's message, augment the system prompt, and call the language
// model.
package chat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/betty/internal/llm"
	"github.com/fyrsmithlabs/betty/internal/retrieval"
)

// Sentinel errors for chat operations.
var (
	// ErrEmptyMessage indicates a turn with no user message.
	ErrEmptyMessage = errors.New("message cannot be empty")
)

// Retriever is the retrieval surface the chat service depends on.
// retrieval.Retriever satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*retrieval.Result, error)
}

// Service runs chat turns.
type Service struct {
	retriever    Retriever
	provider     llm.Provider
	systemPrompt string
	logger       *zap.Logger
}

// Response is the outcome of one chat turn.
type Response struct {
	// Text is the model's reply.
	Text string

	// Sources are the knowledge base files that backed the reply.
	Sources []string

	// MultiPass reports whether comprehensive retrieval ran.
	MultiPass bool

	// Model is the model that produced the reply.
	Model string
}

// NewService creates a chat service. A nil retriever disables retrieval
// augmentation entirely.
func NewService(retriever Retriever, provider llm.Provider, systemPrompt string, logger *zap.Logger) (*Service, error) {
	if provider == nil {
		return nil, errors.New("llm provider is required")
	}
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		retriever:    retriever,
		provider:     provider,
		systemPrompt: systemPrompt,
		logger:       logger,
	}, nil
}

// Turn is one chat request: the current message, prior conversation
// history in order, and an optional per-turn retrieval opt-out.
type Turn struct {
	Message string
	History []llm.Message

	// DisableRetrieval answers from the base prompt only.
	DisableRetrieval bool
}

// Ask runs one turn and returns the complete response.
func (s *Service) Ask(ctx context.Context, message string) (*Response, error) {
	return s.run(ctx, Turn{Message: message}, nil)
}

// AskTurn runs one turn with history and per-turn options.
func (s *Service) AskTurn(ctx context.Context, turn Turn) (*Response, error) {
	return s.run(ctx, turn, nil)
}

// Stream runs one turn, delivering response text incrementally via fn.
func (s *Service) Stream(ctx context.Context, turn Turn, fn llm.StreamFunc) (*Response, error) {
	return s.run(ctx, turn, fn)
}

func (s *Service) run(ctx context.Context, turn Turn, fn llm.StreamFunc) (*Response, error) {
	if turn.Message == "" {
		return nil, ErrEmptyMessage
	}

	prompt := s.systemPrompt
	var sources []string
	var multiPass bool

	if s.retriever != nil && !turn.DisableRetrieval {
		result, err := s.retriever.Retrieve(ctx, turn.Message)
		if err != nil {
			// Answer without context rather than failing the turn.
			s.logger.Warn("retrieval failed, answering without context", zap.Error(err))
		} else {
			prompt = AugmentSystemPrompt(prompt, result.Context, result.Sources)
			sources = result.Sources
			multiPass = result.MultiPass
		}
	}

	req := llm.Request{System: prompt, History: turn.History, UserMessage: turn.Message}

	var text string
	var err error
	if fn != nil {
		text, err = s.provider.Stream(ctx, req, fn)
	} else {
		text, err = s.provider.Complete(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("chat turn: %w", err)
	}

	s.logger.Info("chat turn completed",
		zap.Bool("multi_pass", multiPass),
		zap.Int("sources", len(sources)),
		zap.String("model", s.provider.Model()),
	)

	return &Response{
		Text:      text,
		Sources:   sources,
		MultiPass: multiPass,
		Model:     s.provider.Model(),
	}, nil
}
