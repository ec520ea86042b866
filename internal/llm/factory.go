package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/betty/internal/config"
)

// NewProvider creates the configured LLM provider.
func NewProvider(cfg config.LLMConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:      cfg.AnthropicAPIKey.Value(),
			Model:       cfg.AnthropicModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		}, logger)
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey.Value(),
			Model:       cfg.OpenAIModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q (supported: anthropic, openai)", ErrInvalidConfig, cfg.Provider)
	}
}
