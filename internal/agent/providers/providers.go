package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/kickai-football/kickai/internal/agent"
	"github.com/kickai-football/kickai/internal/config"
)

// New selects and constructs the provider named by configuration.
func New(ctx context.Context, cfg config.AIConfig) (agent.LLMProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "ollama":
		return NewOllamaProvider(OllamaConfig{
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
		}), nil
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
		}), nil
	case "google":
		return NewGoogleProvider(ctx, GoogleConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
		})
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
