package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/service"
)

// FormatDashboard renders the overview: summary line, stage funnel,
// connection table and top recommendations.
func FormatDashboard(d *service.Dashboard, now time.Time) string {
	var b strings.Builder

	b.WriteString(Header("ダッシュボード"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s   %s %s\n\n",
		Dim("進行中"), Bold(fmt.Sprintf("%d人", d.ActiveCount)),
		Dim("平均スコア"), Bold(fmt.Sprintf("%.1f点", d.AverageScore)),
	)

	b.WriteString(FormatStageCounts(d.StageCounts))
	b.WriteString("\n")
	b.WriteString(FormatConnectionList(d.Connections, now))

	if len(d.Recommendations) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatRecommendations(d.Recommendations, 3))
	}
	return b.String()
}

// FormatStageCounts renders one line per stage with a proportional bar.
func FormatStageCounts(counts map[domain.Stage]int) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	rows := make([][]string, 0, len(domain.Stages))
	for _, st := range domain.Stages {
		n := counts[st]
		rows = append(rows, []string{StagePill(st), RenderBar(n, total, 12), fmt.Sprintf("%d", n)})
	}
	return RenderTable([]string{"ステージ", "", "人数"}, rows)
}

// FormatRecommendations renders up to limit actions; limit <= 0 shows all.
func FormatRecommendations(actions []domain.RecommendedAction, limit int) string {
	if len(actions) == 0 {
		return Dim("今やるべきことはありません。") + "\n"
	}
	if limit > 0 && len(actions) > limit {
		actions = actions[:limit]
	}
	var b strings.Builder
	b.WriteString(Header("次のアクション"))
	b.WriteString("\n")
	for _, a := range actions {
		fmt.Fprintf(&b, "%s %s %s\n", UrgencyIndicator(a.Urgency), Bold(a.Title), Dim(fmt.Sprintf("(%s・%d点)", a.Nickname, a.HopeScore)))
		if a.Description != "" {
			fmt.Fprintf(&b, "  %s\n", a.Description)
		}
	}
	return b.String()
}
