// Package styles centralizes lipgloss colors and styles for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/claudeck/claudeck/internal/plan"
	"github.com/claudeck/claudeck/internal/state"
)

var (
	// Colors chosen for WCAG AA contrast on dark terminals.
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	BlueColor      = lipgloss.Color("#60A5FA")

	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	PhaseHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor)

	SelectedRow = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(lipgloss.Color("#1F2937"))

	PanelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	PanelBorderFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(PrimaryColor).
				Padding(0, 1)

	StatusBar = lipgloss.NewStyle().
			Foreground(MutedColor)

	ModalBox = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(WarningColor).
			Padding(1, 2)
)

// StatusColor maps a task status to its display color.
func StatusColor(s plan.Status) lipgloss.Color {
	switch s {
	case plan.StatusCompleted:
		return SecondaryColor
	case plan.StatusInProgress:
		return BlueColor
	case plan.StatusFailed:
		return ErrorColor
	case plan.StatusBlocked:
		return WarningColor
	default:
		return MutedColor
	}
}

// StatusGlyph is the single-character marker shown in the task tree.
func StatusGlyph(s plan.Status) string {
	switch s {
	case plan.StatusCompleted:
		return "✓"
	case plan.StatusInProgress:
		return "▶"
	case plan.StatusFailed:
		return "✗"
	case plan.StatusBlocked:
		return "■"
	default:
		return "·"
	}
}

// AgentStateColor maps agent activity to a color.
func AgentStateColor(s state.AgentState) lipgloss.Color {
	if s == state.AgentRunning {
		return SecondaryColor
	}
	return MutedColor
}
