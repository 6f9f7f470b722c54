package llm

import (
	"time"

	"github.com/alexanderramin/miru/internal/domain"
)

// ProviderConfig holds per-vendor settings.
type ProviderConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	TimeoutMs   int // overrides global if > 0
}

// Config holds all configuration for the AI subsystem.
type Config struct {
	LogCalls   bool
	TimeoutMs  int
	MaxRetries int
	HealthTTL  time.Duration
	Providers  map[domain.Provider]ProviderConfig
}

// DefaultConfig returns a Config with vendor defaults and no API keys, so
// no provider is usable until a key is supplied.
func DefaultConfig() Config {
	return Config{
		LogCalls:   false,
		TimeoutMs:  30000,
		MaxRetries: 0,
		HealthTTL:  5 * time.Minute,
		Providers: map[domain.Provider]ProviderConfig{
			domain.ProviderClaude: {
				Model:       "claude-3-5-sonnet-latest",
				BaseURL:     "https://api.anthropic.com",
				MaxTokens:   1024,
				Temperature: 0.7,
			},
			domain.ProviderGPT: {
				Model:       "gpt-4o-mini",
				BaseURL:     "https://api.openai.com",
				MaxTokens:   1024,
				Temperature: 0.7,
			},
			domain.ProviderGemini: {
				Model:       "gemini-1.5-flash",
				BaseURL:     "https://generativelanguage.googleapis.com",
				MaxTokens:   1024,
				Temperature: 0.7,
			},
		},
	}
}

// ProviderTimeout returns the effective timeout for a provider.
// Uses the provider-specific timeout if set, otherwise the global timeout.
func (c Config) ProviderTimeout(p domain.Provider) time.Duration {
	if pc, ok := c.Providers[p]; ok && pc.TimeoutMs > 0 {
		return time.Duration(pc.TimeoutMs) * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Configured reports whether p has an API key.
func (c Config) Configured(p domain.Provider) bool {
	return c.Providers[p].APIKey != ""
}
