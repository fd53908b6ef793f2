package llm

import (
	"context"
	"fmt"
	"strings"

	"irc-chatter/internal/config"
)

const (
	defaultCohereModel = "command-r-plus"
	defaultOpenAIModel = "gpt-3.5-turbo"
	defaultGeminiModel = "gemini-2.0-flash"
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	CohereAPIKey     string
	OpenaiAPIKey     string
	OpenaiBaseURL    string
	YandexOAuthToken string
	YandexFolderID   string
	GeminiAPIKey     string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		CohereAPIKey:     cfg.CohereAPIKey,
		OpenaiAPIKey:     cfg.OpenAIAPIKey,
		OpenaiBaseURL:    cfg.OpenAIBaseURL,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
		GeminiAPIKey:     cfg.GeminiAPIKey,
	}
}

func (f *Factory) CreateClient(ctx context.Context, provider config.LLMProvider, model string) (Client, error) {
	switch config.LLMProvider(strings.ToLower(string(provider))) {
	case config.ProviderCohere:
		if f.CohereAPIKey == "" {
			return nil, fmt.Errorf("cohere provider requires cohere_api_key")
		}
		return NewOpenAI(f.CohereAPIKey, CohereCompatURL, orDefault(model, defaultCohereModel), nil), nil
	case config.ProviderOpenAI:
		return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, orDefault(model, defaultOpenAIModel), nil), nil
	case config.ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	case config.ProviderGemini:
		return NewGemini(ctx, f.GeminiAPIKey, orDefault(model, defaultGeminiModel))
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
