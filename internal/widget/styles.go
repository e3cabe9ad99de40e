package widget

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/janekbaraniewski/tokencat/internal/usage"
	"github.com/janekbaraniewski/tokencat/internal/usageapi"
)

// ─── Palette (Catppuccin Mocha) ─────────────────────────────────────────────

var (
	colorSurface1 = lipgloss.Color("#45475A")
	colorText     = lipgloss.Color("#CDD6F4")
	colorSubtext  = lipgloss.Color("#A6ADC8")
	colorDim      = lipgloss.Color("#585B70")

	colorAccent   = lipgloss.Color("#CBA6F7") // mauve
	colorLavender = lipgloss.Color("#B4BEFE")
	colorSapphire = lipgloss.Color("#74C7EC")
	colorGreen    = lipgloss.Color("#A6E3A1")
	colorYellow   = lipgloss.Color("#F9E2AF")
	colorPeach    = lipgloss.Color("#FAB387")
	colorRed      = lipgloss.Color("#F38BA8")
	colorTeal     = lipgloss.Color("#94E2D5")
)

// ─── Styles ─────────────────────────────────────────────────────────────────

var (
	brandStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorSubtext)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorSapphire).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E2E")).
			Background(colorLavender).
			Bold(true).
			Padding(0, 1)

	mockBadgeStyle = badgeStyle.
			Background(colorPeach)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// stateColor tints the cat and the session bar.
func stateColor(state usage.CatState) lipgloss.Color {
	switch state {
	case usage.CatActive:
		return colorGreen
	case usage.CatModerate:
		return colorYellow
	case usage.CatStrained:
		return colorPeach
	case usage.CatExhausted:
		return colorRed
	default:
		return colorTeal
	}
}

func tierBadge(tier usageapi.Tier) string {
	if tier == usageapi.TierNone {
		return ""
	}
	return badgeStyle.Render(string(tier))
}
