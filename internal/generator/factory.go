package generator

import (
	"context"
	"fmt"
	"os"
)

// ProviderConfig holds the resolved provider and credentials. Provider
// selection lives here, in configuration — never in the loop.
type ProviderConfig struct {
	Provider string // groq, gemini, openai
	APIKey   string
	Model    string // optional model override
}

// DetectProvider resolves a provider from environment variables when the
// config file names none. Priority: GROQ > GEMINI > OPENAI (Groq is the
// default backend for this agent).
func DetectProvider() (*ProviderConfig, error) {
	probes := []struct {
		envVar   string
		provider string
	}{
		{"GROQ_API_KEY", "groq"},
		{"GEMINI_API_KEY", "gemini"},
		{"OPENAI_API_KEY", "openai"},
	}

	for _, p := range probes {
		if key := os.Getenv(p.envVar); key != "" {
			return &ProviderConfig{Provider: p.provider, APIKey: key}, nil
		}
	}
	return nil, fmt.Errorf("no API key found; set one of: GROQ_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY")
}

// NewClientFromConfig creates a backend client from a provider config. Any
// backend offering the completion capability is interchangeable.
func NewClientFromConfig(ctx context.Context, cfg *ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "groq":
		return NewGroqClient(cfg.APIKey, cfg.Model)
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: groq, gemini, openai)", cfg.Provider)
	}
}
