package llm

import (
	"testing"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_NothingConfigured(t *testing.T) {
	cfg := DefaultConfig()
	for _, p := range domain.Providers {
		assert.False(t, cfg.Configured(p), string(p))
		assert.NotEmpty(t, cfg.Providers[p].BaseURL)
		assert.NotEmpty(t, cfg.Providers[p].Model)
	}
	assert.Zero(t, cfg.MaxRetries)
}

func TestConfig_ProviderTimeoutOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeoutMs = 9000
	pc := cfg.Providers[domain.ProviderGemini]
	pc.TimeoutMs = 15000
	cfg.Providers[domain.ProviderGemini] = pc

	assert.Equal(t, 15*time.Second, cfg.ProviderTimeout(domain.ProviderGemini))
	assert.Equal(t, 9*time.Second, cfg.ProviderTimeout(domain.ProviderClaude))
}
