package llm

import (
	"context"
	"encoding/base64"

	"github.com/alexanderramin/miru/internal/domain"
)

// OpenAIAdapter calls the OpenAI Chat Completions API.
type OpenAIAdapter struct {
	t transport
}

func NewOpenAIAdapter(cfg Config, observer Observer) *OpenAIAdapter {
	return &OpenAIAdapter{t: newTransport(domain.ProviderGPT, cfg, observer)}
}

func (a *OpenAIAdapter) Provider() domain.Provider { return domain.ProviderGPT }

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

// openAIMessage content is a plain string, or a part list when an image is attached.
type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (a *OpenAIAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	var messages []openAIMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.SystemPrompt})
	}
	if req.Image != nil {
		dataURL := "data:" + req.Image.MimeType + ";base64," + base64.StdEncoding.EncodeToString(req.Image.Data)
		messages = append(messages, openAIMessage{Role: "user", Content: []openAIPart{
			{Type: "text", Text: req.UserPrompt},
			{Type: "image_url", ImageURL: &openAIImageURL{URL: dataURL}},
		}})
	} else {
		messages = append(messages, openAIMessage{Role: "user", Content: req.UserPrompt})
	}

	body := openAIRequest{
		Model:       a.t.cfg.Model,
		Messages:    messages,
		MaxTokens:   a.t.maxTokens(req),
		Temperature: a.t.temperature(req),
	}
	headers := map[string]string{"Authorization": "Bearer " + a.t.cfg.APIKey}

	var out openAIResponse
	return a.t.post(ctx, a.t.cfg.BaseURL+"/v1/chat/completions", headers, body, &out, func() *Response {
		resp := &Response{
			Model: out.Model,
			Usage: Usage{
				InputTokens:  out.Usage.PromptTokens,
				OutputTokens: out.Usage.CompletionTokens,
				TotalTokens:  out.Usage.TotalTokens,
			},
		}
		if len(out.Choices) > 0 {
			resp.Content = out.Choices[0].Message.Content
			resp.FinishReason = out.Choices[0].FinishReason
		}
		return resp
	})
}
