package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Pipeline.RefactorWorkers != 4 {
		t.Errorf("RefactorWorkers = %d, want 4", cfg.Pipeline.RefactorWorkers)
	}
	if cfg.Developer.MaxFilesPerBatch != 10 {
		t.Errorf("MaxFilesPerBatch = %d, want 10", cfg.Developer.MaxFilesPerBatch)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("Addr = %q, want :8000", cfg.Server.Addr)
	}
	if cfg.Server.RunTTL != 24*time.Hour {
		t.Errorf("RunTTL = %v", cfg.Server.RunTTL)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
llm:
  provider: gemini
  model: gemini-2.0-flash
pipeline:
  refactor_workers: 8
server:
  addr: ":9090"
  run_ttl: 1h
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("Provider = %q", cfg.LLM.Provider)
	}
	if cfg.Pipeline.RefactorWorkers != 8 {
		t.Errorf("RefactorWorkers = %d, want 8", cfg.Pipeline.RefactorWorkers)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.RunTTL != time.Hour {
		t.Errorf("RunTTL = %v, want 1h", cfg.Server.RunTTL)
	}
	// Untouched sections keep their defaults.
	if cfg.Developer.MaxFilesPerBatch != 10 {
		t.Errorf("MaxFilesPerBatch = %d, want 10", cfg.Developer.MaxFilesPerBatch)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MONOSHIFT_LLM_API_KEY", "sk-env")
	t.Setenv("MONOSHIFT_LLM_PROVIDER", "openai")
	t.Setenv("MONOSHIFT_ADDR", ":7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-env" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("Provider = %q", cfg.LLM.Provider)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
}
