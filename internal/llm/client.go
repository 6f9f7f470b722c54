// Package llm talks to the hosted AI assistants (Claude, OpenAI, Gemini)
// behind one Adapter interface and normalizes their replies.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
)

// Image is an inline picture sent alongside the prompt, e.g. a chat screenshot.
type Image struct {
	Data     []byte
	MimeType string
}

// Request holds the parameters for one generation call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Image        *Image
	Temperature  *float64 // nil uses provider default
	MaxTokens    *int     // nil uses provider default
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Response is a vendor reply normalized to a common shape.
type Response struct {
	Provider     domain.Provider
	Model        string
	Content      string
	FinishReason string
	Usage        Usage
	LatencyMs    int64
}

// Adapter is one vendor's chat API.
type Adapter interface {
	Provider() domain.Provider
	Generate(ctx context.Context, req Request) (*Response, error)
}

// transport is the HTTP plumbing shared by every adapter: JSON encoding,
// timeout, retry policy, error normalization and observation.
type transport struct {
	provider   domain.Provider
	cfg        ProviderConfig
	timeout    time.Duration
	maxRetries int
	http       *http.Client
	observer   Observer
}

func newTransport(p domain.Provider, cfg Config, observer Observer) transport {
	if observer == nil {
		observer = NoopObserver{}
	}
	return transport{
		provider:   p,
		cfg:        cfg.Providers[p],
		timeout:    cfg.ProviderTimeout(p),
		maxRetries: cfg.MaxRetries,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

func (t transport) temperature(req Request) float64 {
	if req.Temperature != nil {
		return *req.Temperature
	}
	return t.cfg.Temperature
}

func (t transport) maxTokens(req Request) int {
	if req.MaxTokens != nil {
		return *req.MaxTokens
	}
	return t.cfg.MaxTokens
}

// post sends body as JSON to url and decodes a 2xx reply into out. normalize
// turns the decoded reply into a Response and runs once per successful call.
func (t transport) post(ctx context.Context, url string, headers map[string]string, body, out any, normalize func() *Response) (*Response, error) {
	start := time.Now()

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	attempts := 0
	for attempts < 1+t.maxRetries {
		attempts++
		lastErr = t.do(ctx, url, headers, data, out)
		if lastErr == nil {
			resp := normalize()
			resp.Provider = t.provider
			resp.LatencyMs = time.Since(start).Milliseconds()
			if resp.Model == "" {
				resp.Model = t.cfg.Model
			}
			t.observer.OnCallComplete(CallEvent{
				Provider:     string(t.provider),
				Model:        resp.Model,
				LatencyMs:    resp.LatencyMs,
				Attempts:     attempts,
				Success:      true,
				InputTokens:  resp.Usage.InputTokens,
				OutputTokens: resp.Usage.OutputTokens,
			})
			return resp, nil
		}
		if ctx.Err() != nil || !retryable(lastErr) {
			break
		}
	}

	err = t.classify(ctx, lastErr, attempts)
	t.observer.OnCallComplete(CallEvent{
		Provider:  string(t.provider),
		Model:     t.cfg.Model,
		LatencyMs: time.Since(start).Milliseconds(),
		Attempts:  attempts,
		Success:   false,
		ErrorCode: errorCode(err),
	})
	return nil, err
}

func (t transport) do(ctx context.Context, url string, headers map[string]string, data []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := t.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return parseProviderError(t.provider, httpResp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrInvalidOutput, err)
	}
	return nil
}

func (t transport) classify(ctx context.Context, err error, attempts int) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if ctx.Err() != nil {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, t.provider, err)
	}
	if attempts > 1 {
		return fmt.Errorf("%w: %w", ErrRetryExhausted, err)
	}
	return err
}

// vendorErrorBody covers the error envelopes of all three vendors: each nests
// an object under "error" with a message and either a type or a status.
type vendorErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseProviderError(p domain.Provider, status int, body []byte) *ProviderError {
	pe := &ProviderError{Provider: string(p), StatusCode: status}
	var env vendorErrorBody
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		pe.Message = env.Error.Message
		pe.Type = env.Error.Type
		if pe.Type == "" {
			pe.Type = env.Error.Status
		}
		return pe
	}
	pe.Message = http.StatusText(status)
	if len(body) > 0 && len(body) < 512 {
		pe.Message = string(bytes.TrimSpace(body))
	}
	return pe
}

// retryable is true for transport failures and vendor 5xx replies.
func retryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	if errors.Is(err, ErrInvalidOutput) {
		return false
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
