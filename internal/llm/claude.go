package llm

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/alexanderramin/miru/internal/domain"
)

const anthropicVersion = "2023-06-01"

// ClaudeAdapter calls the Anthropic Messages API.
type ClaudeAdapter struct {
	t transport
}

func NewClaudeAdapter(cfg Config, observer Observer) *ClaudeAdapter {
	return &ClaudeAdapter{t: newTransport(domain.ProviderClaude, cfg, observer)}
}

func (a *ClaudeAdapter) Provider() domain.Provider { return domain.ProviderClaude }

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

type claudeBlock struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Source *claudeImageSource `json:"source,omitempty"`
}

type claudeImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeResponse struct {
	Model      string        `json:"model"`
	Content    []claudeBlock `json:"content"`
	StopReason string        `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *ClaudeAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	var blocks []claudeBlock
	if req.Image != nil {
		blocks = append(blocks, claudeBlock{
			Type: "image",
			Source: &claudeImageSource{
				Type:      "base64",
				MediaType: req.Image.MimeType,
				Data:      base64.StdEncoding.EncodeToString(req.Image.Data),
			},
		})
	}
	blocks = append(blocks, claudeBlock{Type: "text", Text: req.UserPrompt})

	body := claudeRequest{
		Model:       a.t.cfg.Model,
		MaxTokens:   a.t.maxTokens(req),
		System:      req.SystemPrompt,
		Messages:    []claudeMessage{{Role: "user", Content: blocks}},
		Temperature: a.t.temperature(req),
	}
	headers := map[string]string{
		"x-api-key":         a.t.cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}

	var out claudeResponse
	return a.t.post(ctx, a.t.cfg.BaseURL+"/v1/messages", headers, body, &out, func() *Response {
		var text strings.Builder
		for _, b := range out.Content {
			if b.Type == "text" {
				text.WriteString(b.Text)
			}
		}
		return &Response{
			Model:        out.Model,
			Content:      text.String(),
			FinishReason: out.StopReason,
			Usage: Usage{
				InputTokens:  out.Usage.InputTokens,
				OutputTokens: out.Usage.OutputTokens,
				TotalTokens:  out.Usage.InputTokens + out.Usage.OutputTokens,
			},
		}
	})
}
