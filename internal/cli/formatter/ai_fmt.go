package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/service"
)

// FormatHealth renders provider health probes.
func FormatHealth(statuses []llm.HealthStatus) string {
	if len(statuses) == 0 {
		return Dim("AIサービスが設定されていません。APIキーを設定してください。") + "\n"
	}
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := StyleGreen.Render("● 接続OK")
		detail := fmt.Sprintf("%dms", s.LatencyMs)
		if !s.Healthy {
			state = StyleRed.Render("● 接続エラー")
			detail = s.Error
		}
		rows = append(rows, []string{Bold(string(s.Provider)), state, OrDash(s.Model), detail})
	}
	return RenderTable([]string{"AI", "状態", "モデル", "詳細"}, rows)
}

// FormatPrompt renders a generated prompt ready to paste into an assistant.
func FormatPrompt(op *service.OrchestratedPrompt) string {
	title := fmt.Sprintf("%s → %s", op.UseCase, op.Provider)
	return RenderBox(title, op.Prompt) + "\n"
}

// FormatActionResult renders a provider reply with usage details.
func FormatActionResult(r *service.ActionResult) string {
	var b strings.Builder
	b.WriteString(r.Response)
	if !strings.HasSuffix(r.Response, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(Dim(fmt.Sprintf("\n%s ・ %s tokens ・ %dms", r.Model, Tokens(r.Usage.TotalTokens), r.LatencyMs)))
	b.WriteString("\n")
	return b.String()
}

// FormatPromptHistory renders generated prompts, newest first.
func FormatPromptHistory(recs []*domain.PromptRecord, now time.Time) string {
	if len(recs) == 0 {
		return Dim("プロンプト履歴はありません。") + "\n"
	}
	rows := make([][]string, 0, len(recs))
	for _, p := range recs {
		status := Dim("生成のみ")
		if p.Response != "" {
			status = StyleGreen.Render("実行済み")
		}
		rows = append(rows, []string{
			HumanTimestampFrom(p.CreatedAt, now),
			string(p.UseCase),
			string(p.Provider),
			status,
			Tokens(p.InputTokens + p.OutputTokens),
		})
	}
	return RenderTable([]string{"日時", "用途", "AI", "状態", "トークン"}, rows)
}

// FormatActionHistory renders executed actions, newest first.
func FormatActionHistory(recs []*domain.ActionRecord, now time.Time) string {
	if len(recs) == 0 {
		return Dim("アクション履歴はありません。") + "\n"
	}
	rows := make([][]string, 0, len(recs))
	for _, a := range recs {
		status := StyleGreen.Render("✔ 成功")
		if a.Status == domain.ActionFailed {
			status = StyleRed.Render("✖ 失敗")
		}
		rows = append(rows, []string{
			HumanTimestampFrom(a.CreatedAt, now),
			a.ActionType,
			OrDash(string(a.UseCase)),
			OrDash(string(a.Provider)),
			status,
			OrDash(a.ErrorMessage),
		})
	}
	return RenderTable([]string{"日時", "種類", "用途", "AI", "結果", "エラー"}, rows)
}

// FormatExtracted renders what an import read from a screenshot or text.
func FormatExtracted(p *service.ExtractedProfile) string {
	age := ""
	if p.Age != nil {
		age = fmt.Sprintf("%d歳", *p.Age)
	}
	freq, _ := domain.ParseFrequency(p.Frequency)
	resp, _ := domain.ParseResponseTime(p.ResponseTime)
	return Header("読み取り結果") + "\n" + RenderFields([][2]string{
		{"ニックネーム", p.Nickname},
		{"出会った場所", p.Platform},
		{"年齢", age},
		{"職業", p.Occupation},
		{"居住地", p.Location},
		{"趣味", strings.Join(p.Hobbies, "、")},
		{"連絡頻度", freq.Label()},
		{"返信速度", resp.Label()},
		{"やり取り", p.CommunicationStyle},
		{"推定ステージ", p.SuggestedStage},
	})
}
