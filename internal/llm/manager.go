package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// HealthStatus is the outcome of one live probe against a provider.
type HealthStatus struct {
	Provider  domain.Provider
	Healthy   bool
	Model     string
	LatencyMs int64
	Error     string
	CheckedAt time.Time
}

// Manager routes calls to the adapter registered for each provider.
type Manager struct {
	adapters map[domain.Provider]Adapter
	known    map[domain.Provider]bool
	health   *expirable.LRU[domain.Provider, HealthStatus]
}

// NewManager registers an adapter for every provider in cfg that has an API
// key. Providers without a key stay known but report ErrNotConfigured.
func NewManager(cfg Config, observer Observer) *Manager {
	var adapters []Adapter
	if cfg.Configured(domain.ProviderClaude) {
		adapters = append(adapters, NewClaudeAdapter(cfg, observer))
	}
	if cfg.Configured(domain.ProviderGPT) {
		adapters = append(adapters, NewOpenAIAdapter(cfg, observer))
	}
	if cfg.Configured(domain.ProviderGemini) {
		adapters = append(adapters, NewGeminiAdapter(cfg, observer))
	}
	return NewManagerWithAdapters(cfg.HealthTTL, adapters...)
}

// NewManagerWithAdapters builds a manager from explicit adapters.
func NewManagerWithAdapters(healthTTL time.Duration, adapters ...Adapter) *Manager {
	if healthTTL <= 0 {
		healthTTL = time.Minute
	}
	m := &Manager{
		adapters: make(map[domain.Provider]Adapter, len(adapters)),
		known:    make(map[domain.Provider]bool),
		health:   expirable.NewLRU[domain.Provider, HealthStatus](len(domain.Providers)+len(adapters), nil, healthTTL),
	}
	for _, p := range domain.Providers {
		m.known[p] = true
	}
	for _, a := range adapters {
		m.adapters[a.Provider()] = a
		m.known[a.Provider()] = true
	}
	return m
}

// Providers lists configured providers in canonical order.
func (m *Manager) Providers() []domain.Provider {
	var out []domain.Provider
	for _, p := range domain.Providers {
		if _, ok := m.adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (m *Manager) adapter(p domain.Provider) (Adapter, error) {
	if a, ok := m.adapters[p]; ok {
		return a, nil
	}
	if m.known[p] {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, p)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, p)
}

func (m *Manager) Generate(ctx context.Context, p domain.Provider, req Request) (*Response, error) {
	a, err := m.adapter(p)
	if err != nil {
		return nil, err
	}
	return a.Generate(ctx, req)
}

// TestConnection sends a minimal live request to p and refreshes the cached
// health entry.
func (m *Manager) TestConnection(ctx context.Context, p domain.Provider) (HealthStatus, error) {
	a, err := m.adapter(p)
	if err != nil {
		return HealthStatus{}, err
	}
	maxTokens := 16
	status := HealthStatus{Provider: p, CheckedAt: time.Now().UTC()}
	resp, err := a.Generate(ctx, Request{
		UserPrompt: "接続テストです。「OK」とだけ返してください。",
		MaxTokens:  &maxTokens,
	})
	if err != nil {
		status.Error = UserMessage(err)
	} else {
		status.Healthy = true
		status.Model = resp.Model
		status.LatencyMs = resp.LatencyMs
	}
	m.health.Add(p, status)
	return status, nil
}

// HealthCheck probes every configured provider concurrently. Results younger
// than the health TTL are served from cache.
func (m *Manager) HealthCheck(ctx context.Context) []HealthStatus {
	providers := m.Providers()
	out := make([]HealthStatus, len(providers))

	var wg sync.WaitGroup
	for i, p := range providers {
		if cached, ok := m.health.Get(p); ok {
			out[i] = cached
			continue
		}
		wg.Add(1)
		go func(i int, p domain.Provider) {
			defer wg.Done()
			status, err := m.TestConnection(ctx, p)
			if err != nil {
				status = HealthStatus{Provider: p, Error: err.Error(), CheckedAt: time.Now().UTC()}
			}
			out[i] = status
		}(i, p)
	}
	wg.Wait()
	return out
}

// InvalidateHealth drops every cached probe result.
func (m *Manager) InvalidateHealth() {
	m.health.Purge()
}
