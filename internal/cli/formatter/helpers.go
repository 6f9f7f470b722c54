package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(title)
		inner := titleRendered + "\n\n" + content
		return boxStyle.Render(inner)
	}

	return boxStyle.Render(content)
}

// RelativeDay returns a day-granular relative date such as "昨日" or "3日前".
func RelativeDay(t time.Time) string {
	return RelativeDayFrom(t, time.Now())
}

// RelativeDayFrom is RelativeDay against an explicit reference time.
func RelativeDayFrom(t time.Time, now time.Time) string {
	days := int(math.Round(t.Sub(now).Hours() / 24))

	switch {
	case days == 0:
		return "今日"
	case days == 1:
		return "明日"
	case days == -1:
		return "昨日"
	case days > 0 && days < 14:
		return fmt.Sprintf("%d日後", days)
	case days > 0 && days < 60:
		return fmt.Sprintf("%d週間後", days/7)
	case days > 0:
		return fmt.Sprintf("%dか月後", days/30)
	case days > -14:
		return fmt.Sprintf("%d日前", -days)
	case days > -60:
		return fmt.Sprintf("%d週間前", -days/7)
	default:
		return fmt.Sprintf("%dか月前", -days/30)
	}
}

// LastContactStyled colors the days since last contact: red after a week,
// yellow after three days.
func LastContactStyled(t *time.Time, now time.Time) string {
	if t == nil {
		return Dim("--")
	}
	text := RelativeDayFrom(*t, now)
	days := now.Sub(*t).Hours() / 24
	switch {
	case days >= 7:
		return StyleRed.Render(text)
	case days >= 3:
		return StyleYellow.Render(text)
	default:
		return StyleFg.Render(text)
	}
}

var jaMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "たった今", DivBy: time.Second},
	{D: time.Hour, Format: "%d分%s", DivBy: time.Minute},
	{D: humanize.Day, Format: "%d時間%s", DivBy: time.Hour},
	{D: humanize.Week, Format: "%d日%s", DivBy: humanize.Day},
	{D: humanize.Month, Format: "%d週間%s", DivBy: humanize.Week},
	{D: humanize.Year, Format: "%dか月%s", DivBy: humanize.Month},
	{D: math.MaxInt64, Format: "%d年%s", DivBy: humanize.Year},
}

// HumanTimestamp returns a Japanese relative timestamp such as "5分前".
func HumanTimestamp(t time.Time) string {
	return HumanTimestampFrom(t, time.Now())
}

// HumanTimestampFrom is HumanTimestamp against an explicit reference time.
func HumanTimestampFrom(t, now time.Time) string {
	return humanize.CustomRelTime(t, now, "前", "後", jaMagnitudes)
}

// Tokens formats a token count with thousands separators.
func Tokens(n int) string {
	return humanize.Comma(int64(n))
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// OrDash returns s, or a dimmed "--" when s is blank.
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return Dim("--")
	}
	return s
}
