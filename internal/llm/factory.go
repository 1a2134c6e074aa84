package llm

import (
	"context"
	"fmt"
	"strings"

	"scam-honeypot/internal/config"
)

const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
	ProviderGemini = "gemini"
)

// Factory creates LLM clients from the process configuration.
type Factory struct {
	OpenaiAPIKey       string
	OpenaiBaseURL      string
	OpenaiModel        string
	OpenRouterReferrer string
	OpenRouterTitle    string
	YandexOAuthToken   string
	YandexFolderID     string
	GeminiAPIKey       string
	GeminiModel        string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenaiModel:        cfg.OpenAIModel,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
		GeminiAPIKey:       cfg.GeminiAPIKey,
		GeminiModel:        cfg.GeminiModel,
	}
}

// CreateClient returns the client for provider. The "none" provider (or
// an empty string) yields a nil client and no error: the caller runs
// without a generator.
func (f *Factory) CreateClient(ctx context.Context, provider string) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderNone:
		return nil, nil
	case ProviderOpenAI:
		if f.OpenaiAPIKey == "" {
			return nil, fmt.Errorf("openai api key is empty: %w", ErrUnavailable)
		}
		return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, f.OpenaiModel, f.OpenRouterReferrer, f.OpenRouterTitle), nil
	case ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	case ProviderGemini:
		return NewGemini(ctx, f.GeminiAPIKey, f.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
