package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/scoring"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// HealthColor returns the style for a relationship health label.
func HealthColor(h scoring.Health) lipgloss.Style {
	switch h {
	case scoring.HealthGood:
		return StyleGreen
	case scoring.HealthFair:
		return StyleYellow
	case scoring.HealthAttention:
		return StyleRed
	default:
		return StyleDim
	}
}

// HealthIndicator renders a colored dot with the health label, e.g. "● 良好".
func HealthIndicator(h scoring.Health) string {
	if h == "" {
		return StyleDim.Render("● --")
	}
	return HealthColor(h).Render("● " + string(h))
}

// UrgencyIndicator renders a recommended action's urgency.
func UrgencyIndicator(u domain.Urgency) string {
	switch u {
	case domain.UrgencyCritical:
		return StyleRed.Render("▲ 今すぐ")
	case domain.UrgencyHigh:
		return StyleYellow.Render("● 早めに")
	case domain.UrgencyMedium:
		return StyleBlue.Render("○ 近いうちに")
	case domain.UrgencyLow:
		return StyleDim.Render("· いつでも")
	default:
		return StyleDim.Render(string(u))
	}
}

// StagePill renders a stage label colored by how far along it is.
func StagePill(s domain.Stage) string {
	switch {
	case s == domain.StageEnded:
		return StyleDim.Render("✖ " + string(s))
	case s == domain.StageDating:
		return StylePurple.Render("♥ " + string(s))
	case s.Index() >= domain.StageDateArranging.Index():
		return StyleGreen.Render("● " + string(s))
	case s.Valid():
		return StyleBlue.Render("○ " + string(s))
	default:
		return StyleDim.Render(string(s))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
