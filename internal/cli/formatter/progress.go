package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/miru/internal/scoring"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderBar renders a bar like [████░░░░] for value out of maxValue, colored
// green above two thirds, yellow above one third and red below.
func RenderBar(value, maxValue, width int) string {
	if width < 2 {
		width = 2
	}
	pct := 0.0
	if maxValue > 0 {
		pct = float64(value) / float64(maxValue)
	}
	pct = min(max(pct, 0), 1)

	filled := min(int(pct*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	if pct < 0.33 {
		style = StyleRed
	} else if pct < 0.66 {
		style = StyleYellow
	}
	return fmt.Sprintf("[%s]", style.Render(bar))
}

// RenderScore renders a hope score as a bar plus "NN点".
func RenderScore(total, width int) string {
	return fmt.Sprintf("%s %3d点", RenderBar(total, scoring.MaxTotal, width), total)
}
