// Package config holds all codesmith configuration. The config is loaded
// once at startup and threaded explicitly through every constructor;
// nothing below the CLI reads the environment on its own.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all codesmith configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM endpoint configuration
	LLM LLMConfig `yaml:"llm"`

	// Generation pipeline settings
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Interpreter sandbox settings
	Sandbox SandboxConfig `yaml:"sandbox"`

	// Run history storage
	Store StoreConfig `yaml:"store"`

	// Debug logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the model endpoint.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"` // OpenAI-compatible endpoints only
	Timeout     string  `yaml:"timeout"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// PipelineConfig configures the generation/repair loop.
type PipelineConfig struct {
	// Repair iterations allowed before the run is abandoned.
	MaxRepairAttempts int `yaml:"max_repair_attempts"`

	// Optional YAML file of few-shot examples; empty uses the built-in bank.
	ExamplesPath string `yaml:"examples_path"`
}

// SandboxConfig configures interpreter execution of generated code.
type SandboxConfig struct {
	Timeout        string   `yaml:"timeout"`
	MaxSourceBytes int      `yaml:"max_source_bytes"`
	AllowedImports []string `yaml:"allowed_imports"` // empty uses the built-in allowlist
}

// StoreConfig configures run history persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures category debug logging.
type LoggingConfig struct {
	Debug      bool            `yaml:"debug"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "codesmith",
		Version: "1.0.0",

		// Model is left empty so each provider client applies its own
		// default (gpt-4o for openai, gemini-2.5-flash for gemini).
		LLM: LLMConfig{
			Provider:    "openai",
			Timeout:     "120s",
			MaxTokens:   4096,
			Temperature: 0.1,
		},

		Pipeline: PipelineConfig{
			MaxRepairAttempts: 3,
		},

		Sandbox: SandboxConfig{
			Timeout:        "30s",
			MaxSourceBytes: 100 * 1024,
		},

		Store: StoreConfig{
			Enabled: true,
			Path:    "data/codesmith.db",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Later checks win, so OPENAI_API_KEY takes precedence over GEMINI_API_KEY.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}

	if path := os.Getenv("CODESMITH_DB"); path != "" {
		c.Store.Path = path
	}
	if path := os.Getenv("CODESMITH_EXAMPLES"); path != "" {
		c.Pipeline.ExamplesPath = path
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetSandboxTimeout returns the sandbox execution timeout as a duration.
func (c *Config) GetSandboxTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sandbox.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"openai", "gemini"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set OPENAI_API_KEY or GEMINI_API_KEY)")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.Pipeline.MaxRepairAttempts < 0 {
		return fmt.Errorf("max_repair_attempts must be >= 0, got %d", c.Pipeline.MaxRepairAttempts)
	}

	return nil
}
