package llm

import (
	"fmt"
	"os"
)

// Provider identifies a text-generation backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// NewClient builds a client for the configured provider. When Provider
// or APIKey are empty they are detected from environment variables
// (OPENAI_API_KEY, then GEMINI_API_KEY). A missing key is an ErrAuth:
// the pipeline refuses to start without credentials.
func NewClient(cfg Config) (Client, error) {
	if cfg.Provider == "" || cfg.APIKey == "" {
		detected, key, err := detectProvider(cfg)
		if err != nil {
			return nil, err
		}
		cfg.Provider = string(detected)
		cfg.APIKey = key
	}

	switch Provider(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderGemini:
		return NewGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// detectProvider resolves provider and key, preferring explicit config
// over environment variables.
func detectProvider(cfg Config) (Provider, string, error) {
	if cfg.Provider != "" && cfg.APIKey != "" {
		return Provider(cfg.Provider), cfg.APIKey, nil
	}
	if cfg.Provider != "" {
		if key := envKeyFor(Provider(cfg.Provider)); key != "" {
			return Provider(cfg.Provider), key, nil
		}
		return "", "", fmt.Errorf("%w: no API key for provider %q", ErrAuth, cfg.Provider)
	}

	candidates := []struct {
		envVar   string
		provider Provider
	}{
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"GEMINI_API_KEY", ProviderGemini},
	}
	for _, c := range candidates {
		if key := os.Getenv(c.envVar); key != "" {
			return c.provider, key, nil
		}
	}
	return "", "", fmt.Errorf("%w: set OPENAI_API_KEY or GEMINI_API_KEY", ErrAuth)
}

func envKeyFor(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}
