// Package llm provides text-generation clients for the migration
// pipeline. Providers are hidden behind a small interface so agents and
// tests never depend on a concrete backend.
package llm

import (
	"context"
	"errors"
	"time"
)

// Client is the text-generation interface every provider implements.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrAuth marks missing or rejected credentials. Callers treat it as
// fatal at startup rather than retrying.
var ErrAuth = errors.New("llm: authentication failed")

// Config selects and tunes a provider.
type Config struct {
	Provider    string        `yaml:"provider"` // "openai" or "gemini"; empty = detect from env
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the tuning used when the config file is silent.
// Low temperature because every completion is parsed as structured
// output downstream.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   8192,
		Temperature: 0.1,
		Timeout:     120 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxTokens == 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = def.Temperature
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	return c
}
