package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	ProviderGoogleAI = "googleai"
	ProviderOllama   = "ollama"

	DefaultGoogleAIModel = "gemini-1.5-flash"
	DefaultOllamaModel   = "mistral"
	DefaultOllamaURL     = "http://localhost:11434"
)

var ErrMissingAPIKey = errors.New("API key is required for the googleai provider")

// ProviderConfig selects and configures the generative-text service.
type ProviderConfig struct {
	Provider string
	Model    string
	BaseURL  string // Ollama server URL
	APIKey   string
}

// NormalizeProvider maps accepted aliases to a provider name.
func NormalizeProvider(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderGoogleAI, "gemini", "google":
		return ProviderGoogleAI, nil
	case ProviderOllama:
		return ProviderOllama, nil
	}
	return "", fmt.Errorf("unknown LLM provider %q", name)
}

// NewModel builds the langchaingo model for the configured provider.
func NewModel(ctx context.Context, config ProviderConfig) (llms.Model, error) {
	provider, err := NormalizeProvider(config.Provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case ProviderOllama:
		if config.Model == "" {
			config.Model = DefaultOllamaModel
		}
		if config.BaseURL == "" {
			config.BaseURL = DefaultOllamaURL
		}
		model, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama: %w", err)
		}
		return model, nil

	default:
		if config.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		if config.Model == "" {
			config.Model = DefaultGoogleAIModel
		}
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(config.APIKey),
			googleai.WithDefaultModel(config.Model))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize googleai: %w", err)
		}
		return model, nil
	}
}
