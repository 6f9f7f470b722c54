package formatter

import (
	"testing"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/recommend"
	"github.com/alexanderramin/miru/internal/scoring"
	"github.com/alexanderramin/miru/internal/service"
	"github.com/alexanderramin/miru/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func scored(c *domain.Connection) service.ScoredConnection {
	sc := service.ScoredConnection{Connection: c, Score: scoring.Score(c, domain.UserProfile{})}
	if a, ok := recommend.ForConnection(c); ok {
		a.HopeScore = sc.Score.Total
		sc.Action = &a
	}
	return sc
}

func TestFormatConnectionList(t *testing.T) {
	now := time.Now()
	c := testutil.NewTestConnection("u1", "さくら",
		testutil.WithStage(domain.StageLineExchanged),
		testutil.WithLastContact(now.Add(-2*24*time.Hour)),
	)

	out := FormatConnectionList([]service.ScoredConnection{scored(c)}, now)
	assert.Contains(t, out, "さくら")
	assert.Contains(t, out, "LINE交換済み")
	assert.Contains(t, out, "2日前")
	assert.Contains(t, out, "点")
}

func TestFormatConnectionList_Empty(t *testing.T) {
	assert.Contains(t, FormatConnectionList(nil, time.Now()), "connection add")
}

func TestFormatConnection(t *testing.T) {
	c := testutil.NewTestConnection("u1", "ゆい",
		testutil.WithAge(28),
		testutil.WithHobbies("映画", "カフェ"),
		testutil.WithFrequency(domain.FrequencyDaily),
		testutil.WithConcerns("返信が遅い"),
	)

	out := FormatConnection(scored(c), time.Now())
	assert.Contains(t, out, "28歳")
	assert.Contains(t, out, "映画、カフェ")
	assert.Contains(t, out, "毎日")
	assert.Contains(t, out, "返信が遅い")
	assert.Contains(t, out, "脈ありスコア")
	assert.Contains(t, out, "連絡頻度")
	assert.NotContains(t, out, "職業", "empty fields are omitted")
}

func TestFormatProgress(t *testing.T) {
	assert.Contains(t, FormatProgress(nil), "履歴はまだありません")

	out := FormatProgress([]*domain.ProgressRecord{{
		FromStage:  domain.StageMessaging,
		ToStage:    domain.StageLineExchanged,
		HopeScore:  55,
		Note:       "LINE交換できた",
		RecordedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}})
	assert.Contains(t, out, "メッセージ中")
	assert.Contains(t, out, "55点")
	assert.Contains(t, out, "LINE交換できた")
}

func TestFormatDashboard(t *testing.T) {
	c := testutil.NewTestConnection("u1", "あや", testutil.WithStage(domain.StageBeforeDate))
	sc := scored(c)
	d := &service.Dashboard{
		Connections:     []service.ScoredConnection{sc},
		StageCounts:     map[domain.Stage]int{domain.StageBeforeDate: 1},
		ActiveCount:     1,
		AverageScore:    float64(sc.Score.Total),
		Recommendations: []domain.RecommendedAction{*sc.Action},
	}

	out := FormatDashboard(d, time.Now())
	assert.Contains(t, out, "1人")
	assert.Contains(t, out, "デート前")
	assert.Contains(t, out, "あや")
	assert.Contains(t, out, sc.Action.Title)
}

func TestFormatRecommendations_Limit(t *testing.T) {
	actions := []domain.RecommendedAction{
		{Title: "一つ目", Urgency: domain.UrgencyHigh},
		{Title: "二つ目", Urgency: domain.UrgencyLow},
	}
	out := FormatRecommendations(actions, 1)
	assert.Contains(t, out, "一つ目")
	assert.NotContains(t, out, "二つ目")

	assert.Contains(t, FormatRecommendations(nil, 0), "ありません")
}

func TestFormatHealth(t *testing.T) {
	assert.Contains(t, FormatHealth(nil), "APIキー")

	out := FormatHealth([]llm.HealthStatus{
		{Provider: domain.ProviderClaude, Healthy: true, Model: "claude-x", LatencyMs: 120},
		{Provider: domain.ProviderGPT, Error: "APIキーが無効です"},
	})
	assert.Contains(t, out, "接続OK")
	assert.Contains(t, out, "120ms")
	assert.Contains(t, out, "接続エラー")
	assert.Contains(t, out, "APIキーが無効です")
}

func TestFormatActionHistory(t *testing.T) {
	now := time.Now()
	out := FormatActionHistory([]*domain.ActionRecord{
		{ActionType: "ai_execute", Provider: domain.ProviderClaude, Status: domain.ActionSucceeded, CreatedAt: now.Add(-time.Minute * 3)},
		{ActionType: "ai_execute", Provider: domain.ProviderGPT, Status: domain.ActionFailed, ErrorMessage: "タイムアウト", CreatedAt: now},
	}, now)
	assert.Contains(t, out, "3分前")
	assert.Contains(t, out, "成功")
	assert.Contains(t, out, "失敗")
	assert.Contains(t, out, "タイムアウト")
}

func TestFormatActionResult(t *testing.T) {
	out := FormatActionResult(&service.ActionResult{
		Response:  "こんにちは",
		Model:     "gpt-x",
		Usage:     llm.Usage{TotalTokens: 1500},
		LatencyMs: 800,
	})
	assert.Contains(t, out, "こんにちは")
	assert.Contains(t, out, "1,500 tokens")
}

func TestFormatExtracted(t *testing.T) {
	age := 25
	out := FormatExtracted(&service.ExtractedProfile{Nickname: "ななみ", Age: &age, Frequency: "daily"})
	assert.Contains(t, out, "ななみ")
	assert.Contains(t, out, "25歳")
	assert.Contains(t, out, "毎日")
	assert.NotContains(t, out, "職業")
}
