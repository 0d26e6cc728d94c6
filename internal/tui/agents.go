package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/claudeck/claudeck/internal/state"
	"github.com/claudeck/claudeck/internal/tui/styles"
	"github.com/claudeck/claudeck/internal/util"
)

// renderAgentPane lists agent runtimes, most recently active first.
func (m Model) renderAgentPane(width, height int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("Agents"))
	b.WriteString("\n")

	if len(m.snap.Agents) == 0 {
		b.WriteString(styles.Muted.Render("no agent activity yet"))
	}

	for i, a := range m.snap.Agents {
		if i >= height-3 {
			b.WriteString(styles.Muted.Render(fmt.Sprintf("… and %d more", len(m.snap.Agents)-i)))
			break
		}
		b.WriteString(m.renderAgentLine(a, inner))
		b.WriteString("\n")
	}

	return styles.PanelBorder.Width(width - 2).Height(height - 2).Render(
		clipLines(strings.TrimRight(b.String(), "\n"), height-2))
}

func (m Model) renderAgentLine(a state.AgentView, width int) string {
	dot := lipgloss.NewStyle().Foreground(styles.AgentStateColor(a.State)).Render("●")

	var activity string
	switch {
	case a.CurrentTool != "" && a.CurrentTaskID != "":
		activity = fmt.Sprintf("%s on %s", a.CurrentTool, a.CurrentTaskID)
	case a.CurrentTool != "":
		activity = a.CurrentTool
	case a.CurrentTaskID != "":
		activity = a.CurrentTaskID
	case a.State == state.AgentIdle:
		activity = "idle"
	}

	line := fmt.Sprintf("%s %s %s", dot, a.ID, styles.Muted.Render(activity))

	if !a.LastSeen.IsZero() {
		ago := formatDuration(m.now.Sub(a.LastSeen))
		line += styles.Muted.Render(" · " + ago + " ago")
	}
	if a.LastError != "" {
		line += styles.Error.Render(" !")
	}
	return util.TruncateANSI(line, width)
}
