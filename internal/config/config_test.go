package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "codesmith" {
		t.Errorf("expected Name=codesmith, got %s", cfg.Name)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected Provider=openai, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "" {
		t.Errorf("expected empty Model (provider default applies), got %s", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 4096 {
		t.Errorf("expected MaxTokens=4096, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.Pipeline.MaxRepairAttempts != 3 {
		t.Errorf("expected MaxRepairAttempts=3, got %d", cfg.Pipeline.MaxRepairAttempts)
	}
	if cfg.Sandbox.MaxSourceBytes != 100*1024 {
		t.Errorf("expected MaxSourceBytes=102400, got %d", cfg.Sandbox.MaxSourceBytes)
	}
	if !cfg.Store.Enabled {
		t.Error("expected store enabled by default")
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	// Ensure no env vars interfere
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CODESMITH_DB", "")
	t.Setenv("CODESMITH_EXAMPLES", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Provider = "gemini"
	cfg.LLM.APIKey = "sk-test"
	cfg.Pipeline.MaxRepairAttempts = 5

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.LLM.Provider != "gemini" {
		t.Errorf("expected Provider=gemini, got %s", loaded.LLM.Provider)
	}
	if loaded.LLM.APIKey != "sk-test" {
		t.Errorf("expected APIKey=sk-test, got %s", loaded.LLM.APIKey)
	}
	if loaded.Pipeline.MaxRepairAttempts != 5 {
		t.Errorf("expected MaxRepairAttempts=5, got %d", loaded.Pipeline.MaxRepairAttempts)
	}
}

func TestConfig_LoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CODESMITH_DB", "")
	t.Setenv("CODESMITH_EXAMPLES", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load of missing file should not error: %v", err)
	}
	if cfg.LLM.Provider != "openai" || cfg.Pipeline.MaxRepairAttempts != 3 {
		t.Error("expected defaults for missing config file")
	}
}

func TestConfig_LoadMalformedFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("llm: [not a mapping"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestTimeoutHelpers(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetLLMTimeout(); got != 120*time.Second {
		t.Errorf("expected 120s LLM timeout, got %v", got)
	}
	if got := cfg.GetSandboxTimeout(); got != 30*time.Second {
		t.Errorf("expected 30s sandbox timeout, got %v", got)
	}

	cfg.LLM.Timeout = "bogus"
	cfg.Sandbox.Timeout = ""
	if got := cfg.GetLLMTimeout(); got != 120*time.Second {
		t.Errorf("expected fallback 120s, got %v", got)
	}
	if got := cfg.GetSandboxTimeout(); got != 30*time.Second {
		t.Errorf("expected fallback 30s, got %v", got)
	}

	cfg.LLM.Timeout = "45s"
	if got := cfg.GetLLMTimeout(); got != 45*time.Second {
		t.Errorf("expected 45s, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid openai",
			mutate:  func(c *Config) { c.LLM.APIKey = "k" },
			wantErr: false,
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) {},
			wantErr: true,
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.LLM.APIKey = "k"
				c.LLM.Provider = "mystery"
			},
			wantErr: true,
		},
		{
			name: "negative repair attempts",
			mutate: func(c *Config) {
				c.LLM.APIKey = "k"
				c.Pipeline.MaxRepairAttempts = -1
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
