package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// OpenAIProvider generates completions via the OpenAI Chat Completions API.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
	topP        float64
	logger      *zap.Logger
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key is required", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIProvider{
		client:      openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		logger:      logger.Named("openai"),
	}, nil
}

// Model returns the configured model identifier.
func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) params(req Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.History {
		if m.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.UserMessage))

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(p.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(p.maxTokens),
	}
	if p.temperature > 0 {
		params.Temperature = openai.Float(p.temperature)
	}
	if p.topP > 0 {
		params.TopP = openai.Float(p.topP)
	}
	return params
}

// Complete returns the full response text for one turn.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	if req.UserMessage == "" {
		return "", ErrEmptyPrompt
	}

	resp, err := p.client.Chat.Completions.New(ctx, p.params(req))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrCompletionFailed)
	}

	p.logger.Debug("completion finished",
		zap.String("model", p.model),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// Stream delivers the response incrementally and returns the full text.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request, fn StreamFunc) (string, error) {
	if req.UserMessage == "" {
		return "", ErrEmptyPrompt
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(req))
	var text string
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		text += delta
		if fn != nil {
			if err := fn(delta); err != nil {
				return "", err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	return text, nil
}

var _ Provider = (*OpenAIProvider)(nil)
