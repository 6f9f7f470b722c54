package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/scoring"
	"github.com/alexanderramin/miru/internal/service"
)

const listBarWidth = 10

// FormatConnectionList renders connections as a table with stage, score and
// last contact.
func FormatConnectionList(conns []service.ScoredConnection, now time.Time) string {
	if len(conns) == 0 {
		return Dim("まだ相手が登録されていません。`miru connection add` で追加しましょう。") + "\n"
	}
	headers := []string{"ID", "ニックネーム", "ステージ", "スコア", "状態", "最終連絡"}
	rows := make([][]string, 0, len(conns))
	for _, sc := range conns {
		c := sc.Connection
		rows = append(rows, []string{
			TruncID(c.ID),
			Bold(c.Nickname),
			StagePill(c.CurrentStage),
			RenderScore(sc.Score.Total, listBarWidth),
			HealthIndicator(sc.Score.Health),
			LastContactStyled(c.Communication.LastContact, now),
		})
	}
	return RenderTable(headers, rows)
}

// FormatConnection renders one connection's profile, score and next action.
func FormatConnection(sc service.ScoredConnection, now time.Time) string {
	c := sc.Connection
	var b strings.Builder

	b.WriteString(Header(c.Nickname))
	b.WriteString("\n")

	age := ""
	if c.BasicInfo.Age != nil {
		age = fmt.Sprintf("%d歳", *c.BasicInfo.Age)
	}
	lastContact := ""
	if c.Communication.LastContact != nil {
		lastContact = LastContactStyled(c.Communication.LastContact, now)
	}
	b.WriteString(RenderFields([][2]string{
		{"ID", c.ID},
		{"出会った場所", c.Platform},
		{"ステージ", StagePill(c.CurrentStage)},
		{"年齢", age},
		{"職業", c.BasicInfo.Occupation},
		{"居住地", c.BasicInfo.Location},
		{"趣味", strings.Join(c.BasicInfo.Hobbies, "、")},
		{"連絡頻度", c.Communication.Frequency.Label()},
		{"返信速度", c.Communication.ResponseTime.Label()},
		{"やり取り", c.Communication.Style},
		{"最終連絡", lastContact},
		{"期待", c.UserFeelings.Expectation.Label()},
		{"魅力", strings.Join(c.UserFeelings.AttractivePoints, "、")},
		{"不安", strings.Join(c.UserFeelings.Concerns, "、")},
	}))
	b.WriteString("\n")
	b.WriteString(FormatScore(sc.Score))
	if sc.Action != nil {
		b.WriteString("\n")
		b.WriteString(FormatAction(*sc.Action))
	}
	return b.String()
}

// FormatScore renders a score breakdown with one bar per factor and the
// reasons behind it.
func FormatScore(br scoring.Breakdown) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n\n", Bold("脈ありスコア"), RenderScore(br.Total, 20), HealthIndicator(br.Health))

	factors := []struct {
		label    string
		value    int
		maxValue int
	}{
		{"ステージ", br.Stage, scoring.MaxStage},
		{"連絡頻度", br.Communication, scoring.MaxCommunication},
		{"返信速度", br.Response, scoring.MaxResponse},
		{"共通点", br.Commonality, scoring.MaxCommonality},
		{"気持ち", br.Emotional, scoring.MaxEmotional},
	}
	rows := make([][]string, 0, len(factors))
	for _, f := range factors {
		rows = append(rows, []string{f.label, RenderBar(f.value, f.maxValue, 10), fmt.Sprintf("%d/%d", f.value, f.maxValue)})
	}
	b.WriteString(RenderTable([]string{"要素", "", "点"}, rows))

	if len(br.Reasons) > 0 {
		b.WriteString("\n")
		for _, r := range br.Reasons {
			sign := StyleGreen.Render(fmt.Sprintf("%+d", r.Delta))
			if r.Delta <= 0 {
				sign = Dim(fmt.Sprintf("%+d", r.Delta))
			}
			fmt.Fprintf(&b, "  %s %s\n", sign, r.Message)
		}
	}
	return b.String()
}

// FormatAction renders a single recommended action.
func FormatAction(a domain.RecommendedAction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", UrgencyIndicator(a.Urgency), Bold(a.Title))
	if a.Description != "" {
		fmt.Fprintf(&b, "  %s\n", a.Description)
	}
	fmt.Fprintf(&b, "  %s\n", Dim(fmt.Sprintf("目安 %s ・ プロンプト %s", a.EstimatedTime, a.PromptType)))
	return b.String()
}

// FormatProgress renders a connection's stage history, oldest first.
func FormatProgress(recs []*domain.ProgressRecord) string {
	if len(recs) == 0 {
		return Dim("ステージの変更履歴はまだありません。") + "\n"
	}
	rows := make([][]string, 0, len(recs))
	for _, p := range recs {
		rows = append(rows, []string{
			p.RecordedAt.Local().Format("2006-01-02 15:04"),
			StagePill(p.FromStage) + Dim(" → ") + StagePill(p.ToStage),
			fmt.Sprintf("%d点", p.HopeScore),
			OrDash(p.Note),
		})
	}
	return RenderTable([]string{"日時", "ステージ", "スコア", "メモ"}, rows)
}
