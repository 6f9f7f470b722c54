package formatter

import (
	"testing"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/scoring"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRelativeDayFrom(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input time.Time
		want  string
	}{
		{"today", now, "今日"},
		{"tomorrow", now.Add(24 * time.Hour), "明日"},
		{"yesterday", now.Add(-24 * time.Hour), "昨日"},
		{"3 days past", now.Add(-3 * 24 * time.Hour), "3日前"},
		{"10 days future", now.Add(10 * 24 * time.Hour), "10日後"},
		{"3 weeks future", now.Add(21 * 24 * time.Hour), "3週間後"},
		{"2 weeks past", now.Add(-14 * 24 * time.Hour), "2週間前"},
		{"3 months past", now.Add(-90 * 24 * time.Hour), "3か月前"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeDayFrom(tt.input, now))
		})
	}
}

func TestHumanTimestampFrom(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "たった今", HumanTimestampFrom(now.Add(-10*time.Second), now))
	assert.Equal(t, "5分前", HumanTimestampFrom(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3時間前", HumanTimestampFrom(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2日前", HumanTimestampFrom(now.Add(-48*time.Hour), now))
	assert.Equal(t, "2時間後", HumanTimestampFrom(now.Add(2*time.Hour), now))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, "1,234", Tokens(1234))
	assert.Equal(t, "0", Tokens(0))
}

func TestTruncID(t *testing.T) {
	assert.Contains(t, TruncID("0123456789abcdef"), "01234567")
	assert.NotContains(t, TruncID("0123456789abcdef"), "89")
	assert.Contains(t, TruncID("abc"), "abc")
}

func TestLastContactStyled(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, LastContactStyled(nil, now), "--")

	week := now.Add(-8 * 24 * time.Hour)
	assert.Contains(t, LastContactStyled(&week, now), "8日前")
}

func TestIndicators(t *testing.T) {
	assert.Contains(t, HealthIndicator(scoring.HealthGood), "良好")
	assert.Contains(t, HealthIndicator(""), "--")
	assert.Contains(t, UrgencyIndicator(domain.UrgencyCritical), "今すぐ")
	assert.Contains(t, StagePill(domain.StageDating), "交際中")
	assert.Contains(t, StagePill(domain.StageEnded), "終了")
}

func TestRenderTable_AlignsWideText(t *testing.T) {
	out := RenderTable([]string{"名前", "X"}, [][]string{{"さくら", "1"}, {"ab", "2"}})
	lines := splitLines(out)
	assert.Len(t, lines, 4)
	assert.Equal(t, lipgloss.Width(lines[2]), lipgloss.Width(lines[3]))
}

func TestRenderTable_NoHeaders(t *testing.T) {
	assert.Empty(t, RenderTable(nil, nil))
}

func TestRenderFields_SkipsEmpty(t *testing.T) {
	out := RenderFields([][2]string{{"職業", "エンジニア"}, {"居住地", ""}})
	assert.Contains(t, out, "エンジニア")
	assert.NotContains(t, out, "居住地")
}

func TestRenderBar(t *testing.T) {
	assert.Contains(t, RenderBar(5, 10, 10), "█████░░░░░")
	assert.Contains(t, RenderBar(20, 10, 4), "████")
	assert.Contains(t, RenderBar(1, 0, 4), "░░░░")
	assert.Contains(t, RenderScore(72, 10), "72点")
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
