package llm

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/alexanderramin/miru/internal/domain"
)

// GeminiAdapter calls the Gemini generateContent API.
type GeminiAdapter struct {
	t transport
}

func NewGeminiAdapter(cfg Config, observer Observer) *GeminiAdapter {
	return &GeminiAdapter{t: newTransport(domain.ProviderGemini, cfg, observer)}
}

func (a *GeminiAdapter) Provider() domain.Provider { return domain.ProviderGemini }

type geminiRequest struct {
	SystemInstruction *geminiContent       `json:"systemInstruction,omitempty"`
	Contents          []geminiContent      `json:"contents"`
	GenerationConfig  geminiGenerationConf `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConf struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

func (a *GeminiAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	var parts []geminiPart
	if req.Image != nil {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: req.Image.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}})
	}
	parts = append(parts, geminiPart{Text: req.UserPrompt})

	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: geminiGenerationConf{
			Temperature:     a.t.temperature(req),
			MaxOutputTokens: a.t.maxTokens(req),
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	headers := map[string]string{"x-goog-api-key": a.t.cfg.APIKey}
	endpoint := a.t.cfg.BaseURL + "/v1beta/models/" + url.PathEscape(a.t.cfg.Model) + ":generateContent"

	var out geminiResponse
	return a.t.post(ctx, endpoint, headers, body, &out, func() *Response {
		resp := &Response{
			Model: out.ModelVersion,
			Usage: Usage{
				InputTokens:  out.UsageMetadata.PromptTokenCount,
				OutputTokens: out.UsageMetadata.CandidatesTokenCount,
				TotalTokens:  out.UsageMetadata.TotalTokenCount,
			},
		}
		if len(out.Candidates) > 0 {
			var text strings.Builder
			for _, p := range out.Candidates[0].Content.Parts {
				text.WriteString(p.Text)
			}
			resp.Content = text.String()
			resp.FinishReason = out.Candidates[0].FinishReason
		}
		return resp
	})
}
