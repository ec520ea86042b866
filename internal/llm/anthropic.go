package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// AnthropicProvider generates completions via the Anthropic Messages API.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	topP        float64
	logger      *zap.Logger
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// NewAnthropicProvider creates an Anthropic-backed provider.
func NewAnthropicProvider(cfg AnthropicConfig, logger *zap.Logger) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic api key is required", ErrInvalidConfig)
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

	return &AnthropicProvider{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		logger:      logger.Named("anthropic"),
	}, nil
}

// Model returns the configured model identifier.
func (p *AnthropicProvider) Model() string { return p.model }

func (p *AnthropicProvider) params(req Request) anthropic.MessageNewParams {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, m := range req.History {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if p.temperature > 0 {
		params.Temperature = anthropic.Float(p.temperature)
	}
	if p.topP > 0 {
		params.TopP = anthropic.Float(p.topP)
	}
	return params
}

// Complete returns the full response text for one turn.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (string, error) {
	if req.UserMessage == "" {
		return "", ErrEmptyPrompt
	}

	msg, err := p.client.Messages.New(ctx, p.params(req))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	var text string
	for _, block := range msg.Content {
		text += block.Text
	}

	p.logger.Debug("completion finished",
		zap.String("model", p.model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return text, nil
}

// Stream delivers the response incrementally and returns the full text.
func (p *AnthropicProvider) Stream(ctx context.Context, req Request, fn StreamFunc) (string, error) {
	if req.UserMessage == "" {
		return "", ErrEmptyPrompt
	}

	stream := p.client.Messages.NewStreaming(ctx, p.params(req))
	acc := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return "", fmt.Errorf("%w: accumulating stream: %v", ErrCompletionFailed, err)
		}
		switch delta := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta.Delta.Text != "" && fn != nil {
				if err := fn(delta.Delta.Text); err != nil {
					return "", err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	var text string
	for _, block := range acc.Content {
		text += block.Text
	}
	return text, nil
}

var _ Provider = (*AnthropicProvider)(nil)
