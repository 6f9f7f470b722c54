package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(p domain.Provider, baseURL string) Config {
	cfg := DefaultConfig()
	pc := cfg.Providers[p]
	pc.APIKey = "test-key"
	pc.BaseURL = baseURL
	cfg.Providers[p] = pc
	cfg.TimeoutMs = 2000
	return cfg
}

func TestClaudeAdapter_Generate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req claudeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "system prompt", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		require.Len(t, req.Messages[0].Content, 1)
		assert.Equal(t, "user prompt", req.Messages[0].Content[0].Text)
		assert.Equal(t, 1024, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "claude-test",
			"content": [{"type":"text","text":"こんにちは"},{"type":"text","text":"！"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	a := NewClaudeAdapter(testConfig(domain.ProviderClaude, srv.URL), NoopObserver{})
	resp, err := a.Generate(context.Background(), Request{SystemPrompt: "system prompt", UserPrompt: "user prompt"})

	require.NoError(t, err)
	assert.Equal(t, domain.ProviderClaude, resp.Provider)
	assert.Equal(t, "claude-test", resp.Model)
	assert.Equal(t, "こんにちは！", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 5, TotalTokens: 17}, resp.Usage)
	assert.GreaterOrEqual(t, resp.LatencyMs, int64(0))
}

func TestClaudeAdapter_Generate_WithImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req claudeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		blocks := req.Messages[0].Content
		require.Len(t, blocks, 2)
		assert.Equal(t, "image", blocks[0].Type)
		require.NotNil(t, blocks[0].Source)
		assert.Equal(t, "image/png", blocks[0].Source.MediaType)
		assert.Equal(t, "iVBO", blocks[0].Source.Data)
		assert.Equal(t, "text", blocks[1].Type)
		w.Write([]byte(`{"model":"m","content":[{"type":"text","text":"{}"}]}`))
	}))
	defer srv.Close()

	a := NewClaudeAdapter(testConfig(domain.ProviderClaude, srv.URL), NoopObserver{})
	_, err := a.Generate(context.Background(), Request{
		UserPrompt: "read this",
		Image:      &Image{Data: []byte{0x89, 0x50, 0x4e}, MimeType: "image/png"},
	})
	require.NoError(t, err)
}

func TestOpenAIAdapter_Generate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		msgs := req["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "user prompt", msgs[1].(map[string]any)["content"])

		w.Write([]byte(`{
			"model": "gpt-test",
			"choices": [{"message":{"role":"assistant","content":"はい"},"finish_reason":"stop"}],
			"usage": {"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10}
		}`))
	}))
	defer srv.Close()

	a := NewOpenAIAdapter(testConfig(domain.ProviderGPT, srv.URL), NoopObserver{})
	resp, err := a.Generate(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "user prompt"})

	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGPT, resp.Provider)
	assert.Equal(t, "gpt-test", resp.Model)
	assert.Equal(t, "はい", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 3, TotalTokens: 10}, resp.Usage)
}

func TestOpenAIAdapter_Generate_WithImageUsesDataURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content []openAIPart `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		parts := req.Messages[0].Content
		require.Len(t, parts, 2)
		require.NotNil(t, parts[1].ImageURL)
		assert.Equal(t, "data:image/jpeg;base64,AQID", parts[1].ImageURL.URL)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	a := NewOpenAIAdapter(testConfig(domain.ProviderGPT, srv.URL), NoopObserver{})
	resp, err := a.Generate(context.Background(), Request{
		UserPrompt: "read",
		Image:      &Image{Data: []byte{1, 2, 3}, MimeType: "image/jpeg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", resp.Model, "falls back to configured model")
}

func TestGeminiAdapter_Generate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "sys", req.SystemInstruction.Parts[0].Text)
		assert.Equal(t, "user prompt", req.Contents[0].Parts[0].Text)
		assert.Equal(t, 1024, req.GenerationConfig.MaxOutputTokens)

		w.Write([]byte(`{
			"candidates": [{"content":{"parts":[{"text":"了解"},{"text":"です"}]},"finishReason":"STOP"}],
			"usageMetadata": {"promptTokenCount": 4, "candidatesTokenCount": 2, "totalTokenCount": 6},
			"modelVersion": "gemini-test"
		}`))
	}))
	defer srv.Close()

	a := NewGeminiAdapter(testConfig(domain.ProviderGemini, srv.URL), NoopObserver{})
	resp, err := a.Generate(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "user prompt"})

	require.NoError(t, err)
	assert.Equal(t, "了解です", resp.Content)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, "gemini-test", resp.Model)
	assert.Equal(t, 6, resp.Usage.TotalTokens)
}

func TestAdapter_ProviderErrorNormalized(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.Provider
		status   int
		body     string
		wantType string
		wantMsg  string
	}{
		{"claude", domain.ProviderClaude, 401, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, "authentication_error", "invalid x-api-key"},
		{"openai", domain.ProviderGPT, 429, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, "requests", "Rate limit reached"},
		{"gemini", domain.ProviderGemini, 400, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, "INVALID_ARGUMENT", "API key not valid"},
		{"plain body", domain.ProviderGPT, 404, `not here`, "", "not here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			m := NewManager(testConfig(tt.provider, srv.URL), NoopObserver{})
			_, err := m.Generate(context.Background(), tt.provider, Request{UserPrompt: "x"})

			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, string(tt.provider), pe.Provider)
			assert.Equal(t, tt.status, pe.StatusCode)
			assert.Equal(t, tt.wantType, pe.Type)
			assert.Equal(t, tt.wantMsg, pe.Message)
		})
	}
}

func TestAdapter_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := testConfig(domain.ProviderClaude, srv.URL)
	cfg.TimeoutMs = 50

	var captured CallEvent
	a := NewClaudeAdapter(cfg, &captureObserver{fn: func(e CallEvent) { captured = e }})
	_, err := a.Generate(context.Background(), Request{UserPrompt: "x"})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, captured.Success)
	assert.Equal(t, "TIMEOUT", captured.ErrorCode)
}

func TestAdapter_CallerCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	var captured CallEvent
	a := NewGeminiAdapter(testConfig(domain.ProviderGemini, srv.URL), &captureObserver{fn: func(e CallEvent) { captured = e }})
	_, err := a.Generate(ctx, Request{UserPrompt: "x"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "CANCELED", captured.ErrorCode)
}

func TestAdapter_Unavailable(t *testing.T) {
	cfg := testConfig(domain.ProviderGPT, "http://127.0.0.1:1")
	a := NewOpenAIAdapter(cfg, NoopObserver{})

	_, err := a.Generate(context.Background(), Request{UserPrompt: "x"})

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAdapter_NoRetryByDefault(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewGeminiAdapter(testConfig(domain.ProviderGemini, srv.URL), NoopObserver{})
	_, err := a.Generate(context.Background(), Request{UserPrompt: "x"})

	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
	assert.NotErrorIs(t, err, ErrRetryExhausted)
}

func TestAdapter_RetriesServerErrorsWhenConfigured(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"model":"m","content":[{"type":"text","text":"ok"}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(domain.ProviderClaude, srv.URL)
	cfg.MaxRetries = 2

	var captured CallEvent
	a := NewClaudeAdapter(cfg, &captureObserver{fn: func(e CallEvent) { captured = e }})
	resp, err := a.Generate(context.Background(), Request{UserPrompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, 2, captured.Attempts)
}

func TestAdapter_DoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testConfig(domain.ProviderGPT, srv.URL)
	cfg.MaxRetries = 3

	a := NewOpenAIAdapter(cfg, NoopObserver{})
	_, err := a.Generate(context.Background(), Request{UserPrompt: "x"})

	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestAdapter_RetryExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(domain.ProviderGPT, srv.URL)
	cfg.MaxRetries = 1

	a := NewOpenAIAdapter(cfg, NoopObserver{})
	_, err := a.Generate(context.Background(), Request{UserPrompt: "x"})

	assert.ErrorIs(t, err, ErrRetryExhausted)
	var pe *ProviderError
	assert.ErrorAs(t, err, &pe)
}

func TestAdapter_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	a := NewClaudeAdapter(testConfig(domain.ProviderClaude, srv.URL), NoopObserver{})
	_, err := a.Generate(context.Background(), Request{UserPrompt: "x"})

	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestAdapter_ObserverSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"gpt-test","choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	}))
	defer srv.Close()

	var captured CallEvent
	a := NewOpenAIAdapter(testConfig(domain.ProviderGPT, srv.URL), &captureObserver{fn: func(e CallEvent) { captured = e }})
	_, err := a.Generate(context.Background(), Request{UserPrompt: "x"})

	require.NoError(t, err)
	assert.True(t, captured.Success)
	assert.Equal(t, "gpt", captured.Provider)
	assert.Equal(t, "gpt-test", captured.Model)
	assert.Equal(t, 3, captured.InputTokens)
	assert.Equal(t, 1, captured.Attempts)
}

type captureObserver struct {
	fn func(CallEvent)
}

func (o *captureObserver) OnCallComplete(e CallEvent) { o.fn(e) }
