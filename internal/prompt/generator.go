// Package prompt builds ready-to-paste prompts for an external AI assistant
// from a connection's data, one framing per provider.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
)

const claudeFrame = `<role>
{{.System}}
</role>

<context>
<person>
ニックネーム: {{.View.Nickname}}
出会った場所: {{.View.Platform}}
年齢: {{.View.Age}}
職業: {{.View.Occupation}}
居住地: {{.View.Location}}
趣味: {{.View.Hobbies}}
</person>
<relationship>
現在のステージ: {{.View.Stage}}
連絡頻度: {{.View.Frequency}}
返信速度: {{.View.ResponseTime}}
やり取りのスタイル: {{.View.Style}}
最後の連絡: {{.View.LastContact}}
</relationship>
<feelings>
期待していること: {{.View.Expectation}}
魅力に感じる点: {{.View.AttractivePoints}}
不安な点: {{.View.Concerns}}
</feelings>
</context>

<task>
{{.Task}}
</task>`

const gptFrame = `# 役割
{{.System}}

## 相手の情報
- ニックネーム: {{.View.Nickname}}
- 出会った場所: {{.View.Platform}}
- 年齢: {{.View.Age}}
- 職業: {{.View.Occupation}}
- 居住地: {{.View.Location}}
- 趣味: {{.View.Hobbies}}

## 関係の状況
- 現在のステージ: {{.View.Stage}}
- 連絡頻度: {{.View.Frequency}}
- 返信速度: {{.View.ResponseTime}}
- やり取りのスタイル: {{.View.Style}}
- 最後の連絡: {{.View.LastContact}}

## ユーザーの気持ち
- 期待していること: {{.View.Expectation}}
- 魅力に感じる点: {{.View.AttractivePoints}}
- 不安な点: {{.View.Concerns}}

## 依頼
{{.Task}}`

const geminiFrame = `{{.System}}

相手: {{.View.Nickname}}（{{.View.Age}}・{{.View.Occupation}}・{{.View.Location}}）
* 出会い: {{.View.Platform}} / ステージ: {{.View.Stage}}
* 趣味: {{.View.Hobbies}}
* 連絡: {{.View.Frequency}} / 返信: {{.View.ResponseTime}} / 最終: {{.View.LastContact}} / スタイル: {{.View.Style}}
* 期待: {{.View.Expectation}} / 魅力: {{.View.AttractivePoints}} / 不安: {{.View.Concerns}}

依頼:
{{.Task}}`

var (
	frames = map[domain.Provider]*template.Template{
		domain.ProviderClaude: template.Must(template.New("claude").Parse(claudeFrame)),
		domain.ProviderGPT:    template.Must(template.New("gpt").Parse(gptFrame)),
		domain.ProviderGemini: template.Must(template.New("gemini").Parse(geminiFrame)),
	}
	tasks = parseTasks()
)

func parseTasks() map[domain.UseCase]*template.Template {
	out := make(map[domain.UseCase]*template.Template, len(domain.UseCases))
	for _, uc := range domain.UseCases {
		text, ok := taskText(uc)
		if !ok {
			panic(fmt.Sprintf("prompt: no task for use case %s", uc))
		}
		out[uc] = template.Must(template.New(string(uc)).Parse(text))
	}
	return out
}

type frameData struct {
	System string
	View   view
	Task   string
}

// Generator renders prompts. The zero value uses the wall clock.
type Generator struct {
	Now func() time.Time
}

// Generate renders the prompt for provider and use case. extra is free text
// the use case may interpolate, such as the user's question for
// relationship_advice.
func (g Generator) Generate(provider domain.Provider, uc domain.UseCase, c *domain.Connection, extra string) (string, error) {
	frame, ok := frames[provider]
	if !ok {
		return "", fmt.Errorf("unsupported provider %q", provider)
	}
	task, ok := tasks[uc]
	if !ok {
		return "", fmt.Errorf("unsupported use case %q", uc)
	}
	if c == nil {
		return "", fmt.Errorf("connection is required")
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	v := newView(c, extra, now())

	var taskBuf bytes.Buffer
	if err := task.Execute(&taskBuf, v); err != nil {
		return "", fmt.Errorf("rendering %s task: %w", uc, err)
	}

	var out bytes.Buffer
	if err := frame.Execute(&out, frameData{System: SystemPrompt, View: v, Task: taskBuf.String()}); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", provider, err)
	}
	return out.String(), nil
}
