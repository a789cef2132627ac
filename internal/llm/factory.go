package llm

import (
	"context"
	"fmt"

	"codesmith/internal/config"
	"codesmith/internal/logging"
)

// NewClient builds the provider client for the resolved configuration.
// Credential and provider resolution happen in the config layer; by the
// time a Config reaches here its LLM section is final. A missing key is
// fatal: the pipeline cannot be constructed without an endpoint.
func NewClient(ctx context.Context, cfg *config.Config) (Client, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("no API key configured (set OPENAI_API_KEY or GEMINI_API_KEY, or api_key in the config file)")
	}

	timeout := cfg.GetLLMTimeout()

	switch cfg.LLM.Provider {
	case "openai":
		logging.Boot("LLM provider: openai model=%s", cfg.LLM.Model)
		return NewOpenAIClient(cfg.LLM, timeout)
	case "gemini":
		logging.Boot("LLM provider: gemini model=%s", cfg.LLM.Model)
		return NewGeminiClient(ctx, cfg.LLM, timeout)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (valid: %v)", cfg.LLM.Provider, config.ValidProviders)
	}
}
