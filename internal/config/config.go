// Package config loads the application configuration from YAML with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"monoshift/internal/agents"
	"monoshift/internal/llm"
	"monoshift/internal/pipeline"
)

// Config holds all monoshift configuration.
type Config struct {
	LLM       llm.Config             `yaml:"llm"`
	Pipeline  pipeline.Config        `yaml:"pipeline"`
	Developer agents.DeveloperConfig `yaml:"developer"`
	Embedding EmbeddingConfig        `yaml:"embedding"`
	Repo      RepoConfig             `yaml:"repo"`
	Server    ServerConfig           `yaml:"server"`
}

// EmbeddingConfig configures the optional semantic file index.
type EmbeddingConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	DBPath  string `yaml:"db_path"`
}

// RepoConfig configures repository acquisition.
type RepoConfig struct {
	ScanWorkers int `yaml:"scan_workers"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Completed runs are kept in memory for this long, up to MaxRuns.
	RunTTL  time.Duration `yaml:"run_ttl"`
	MaxRuns int           `yaml:"max_runs"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LLM:       llm.DefaultConfig(),
		Pipeline:  pipeline.DefaultConfig(),
		Developer: agents.DefaultDeveloperConfig(),
		Embedding: EmbeddingConfig{
			DBPath: "monoshift.db",
		},
		Repo: RepoConfig{ScanWorkers: 20},
		Server: ServerConfig{
			Addr:    ":8000",
			RunTTL:  24 * time.Hour,
			MaxRuns: 100,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns defaults. Secrets are then overridden from the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MONOSHIFT_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("MONOSHIFT_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("MONOSHIFT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}
